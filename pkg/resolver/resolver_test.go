package resolver

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

func genKey(t *testing.T) ([]byte, string) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return []byte(pub), hashHex([]byte(pub))
}

func TestResolve_EmbeddedKeyAcceptedWhenHashMatches(t *testing.T) {
	key, hash := genKey(t)
	c := &Chain{}

	resolved, err := c.Resolve(context.Background(), "agent-a", hash, key)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(resolved) != string(key) {
		t.Error("expected resolved key to equal embedded key")
	}
}

func TestResolve_EmbeddedKeyRejectedWhenDNSRequired(t *testing.T) {
	key, hash := genKey(t)
	c := &Chain{DNSRequired: true}

	_, err := c.Resolve(context.Background(), "agent-a", hash, key)
	if err == nil {
		t.Error("expected resolution to fail when dnsRequired=true and only an embedded key is available")
	}
}

func TestResolve_EmbeddedKeyHashMismatchFails(t *testing.T) {
	key, _ := genKey(t)
	c := &Chain{}

	_, err := c.Resolve(context.Background(), "agent-a", "deadbeef", key)
	if !jacserr.Is(err, jacserr.KeyHashMismatch) {
		t.Errorf("expected KeyHashMismatch, got %v", err)
	}
}

type fakeTrust struct {
	byHash    map[string][]byte
	byAgentID map[string][]byte
}

func (f fakeTrust) ByPublicKeyHashRaw(hash string) ([]byte, bool, error) {
	k, ok := f.byHash[hash]
	return k, ok, nil
}

func (f fakeTrust) ByAgentIDRaw(agentID string) ([]byte, bool, error) {
	k, ok := f.byAgentID[agentID]
	return k, ok, nil
}

func TestResolve_LocalTrustStoreWinsOverEmbedded(t *testing.T) {
	trustedKey, hash := genKey(t)
	otherKey, _ := genKey(t)

	c := &Chain{
		Trust: fakeTrust{byHash: map[string][]byte{hash: trustedKey}},
	}

	resolved, err := c.Resolve(context.Background(), "agent-a", hash, otherKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(resolved) != string(trustedKey) {
		t.Error("expected trust store's key to win over the embedded key")
	}
}

func TestResolve_RemoteKeyService(t *testing.T) {
	key, hash := genKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"publicKey":     base64.StdEncoding.EncodeToString(key),
			"publicKeyHash": hash,
			"algorithm":     "ring-Ed25519",
		})
	}))
	defer srv.Close()

	c := &Chain{KeysBaseURL: srv.URL}

	resolved, err := c.Resolve(context.Background(), "agent-a", hash, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(resolved) != string(key) {
		t.Error("expected resolved key to equal the remote service's key")
	}
}

func TestResolve_RemoteKeyServiceHashMismatchFails(t *testing.T) {
	key, _ := genKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"publicKey":     base64.StdEncoding.EncodeToString(key),
			"publicKeyHash": "wrong",
			"algorithm":     "ring-Ed25519",
		})
	}))
	defer srv.Close()

	c := &Chain{KeysBaseURL: srv.URL}

	_, err := c.Resolve(context.Background(), "agent-a", "expected-hash", nil)
	if err == nil {
		t.Error("expected resolution to fail when the remote key's hash does not match")
	}
}

func TestRateLimiter_BlocksAfterBurstExhausted(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	if !rl.Allow("agent-a") {
		t.Error("expected the first request within burst to be allowed")
	}
	if rl.Allow("agent-a") {
		t.Error("expected the second immediate request to exceed the burst")
	}
	if !rl.Allow("agent-b") {
		t.Error("expected a different key to have its own independent bucket")
	}
}
