package trust

import (
	"os"
	"testing"
)

func TestStore_TrustAndIsTrusted(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	pubKey := []byte("fake-ed25519-public-key-bytes--")
	if err := store.Trust("agent-1", "ring-Ed25519", pubKey, "trusted for testing"); err != nil {
		t.Fatalf("Trust: %v", err)
	}

	ok, err := store.IsTrusted("agent-1", pubKey)
	if err != nil {
		t.Fatalf("IsTrusted: %v", err)
	}
	if !ok {
		t.Error("expected agent-1 to be trusted")
	}
}

func TestStore_IsTrustedFalseForRotatedKey(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.Trust("agent-1", "ring-Ed25519", []byte("original-key"), ""); err != nil {
		t.Fatalf("Trust: %v", err)
	}

	ok, err := store.IsTrusted("agent-1", []byte("rotated-key"))
	if err != nil {
		t.Fatalf("IsTrusted: %v", err)
	}
	if ok {
		t.Error("expected rotated key to be reported untrusted")
	}
}

func TestStore_UntrustRemovesEntry(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.Trust("agent-1", "ring-Ed25519", []byte("key-bytes"), ""); err != nil {
		t.Fatalf("Trust: %v", err)
	}
	if err := store.Untrust("agent-1"); err != nil {
		t.Fatalf("Untrust: %v", err)
	}

	_, err = store.Get("agent-1")
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error after Untrust, got %v", err)
	}
}

func TestStore_UntrustUnknownAgentIsNotAnError(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Untrust("never-trusted"); err != nil {
		t.Errorf("expected no error untrusting an unknown agent, got %v", err)
	}
}

func TestStore_ByPublicKeyHash(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	pubKey := []byte("another-public-key")
	if err := store.Trust("agent-2", "RSA-PSS", pubKey, ""); err != nil {
		t.Fatalf("Trust: %v", err)
	}

	entry, err := store.Get("agent-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	found, err := store.ByPublicKeyHash(entry.PublicKeyHash)
	if err != nil {
		t.Fatalf("ByPublicKeyHash: %v", err)
	}
	if found.AgentID != "agent-2" {
		t.Errorf("expected agent-2, got %s", found.AgentID)
	}
}

func TestStore_List(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Trust("agent-a", "ring-Ed25519", []byte("key-a"), ""); err != nil {
		t.Fatalf("Trust: %v", err)
	}
	if err := store.Trust("agent-b", "ring-Ed25519", []byte("key-b"), ""); err != nil {
		t.Fatalf("Trust: %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}
