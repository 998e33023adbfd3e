// Package trust implements the local trust store: the set of agent
// identities whose public keys a JACS installation has decided to accept
// without further lookup. It is consulted first in the key resolver chain,
// before DNS, well-known, or remote key service strategies are tried.
package trust

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/hai-ai/jacs-go/pkg/canonicalize"
)

// Entry is a single trusted agent record, persisted as
// <key_dir>/trust/<agent-id>.json.
type Entry struct {
	AgentID       string    `json:"agentId"`
	Algorithm     string    `json:"algorithm"`
	PublicKey     string    `json:"publicKey"` // base64, same encoding jacsSignature.publicKey uses
	PublicKeyHash string    `json:"publicKeyHash"`
	TrustedAt     time.Time `json:"trustedAt"`
	Comment       string    `json:"comment,omitempty"`
}

// Store is a file-backed trust store rooted at a directory. Every mutating
// call takes an OS file lock on the store's .lock file so multiple
// processes sharing a key directory don't interleave writes.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open returns a Store rooted at <keyDir>/trust, creating the directory if
// it does not already exist.
func Open(keyDir string) (*Store, error) {
	dir := filepath.Join(keyDir, "trust")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("trust: create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) entryPath(agentID string) string {
	return filepath.Join(s.dir, agentID+".json")
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "_index.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, ".lock")
}

// index maps a public-key content hash to the agent ID it was trusted
// under, giving the store a content-addressed secondary lookup in addition
// to the per-agent file.
type index map[string]string // publicKeyHash -> agentID

func (s *Store) readIndex() (index, error) {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("trust: read index: %w", err)
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("trust: parse index: %w", err)
	}
	return idx, nil
}

func (s *Store) writeIndex(idx index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("trust: marshal index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o600); err != nil {
		return fmt.Errorf("trust: write index: %w", err)
	}
	return nil
}

// withLock runs fn while holding an exclusive OS-level file lock, so
// concurrent JACS processes sharing a key directory never corrupt the
// index by racing a read-modify-write.
func (s *Store) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fl := flock.New(s.lockPath())
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("trust: acquire lock: %w", err)
	}
	defer fl.Unlock()

	return fn()
}

// Trust records agentID as trusted under the given algorithm and public
// key. publicKey is the raw key encoding (the same bytes a Signer's
// PublicKeyBytes returns); the store base64-encodes it for storage and
// comparison against jacsSignature.publicKey.
func (s *Store) Trust(agentID, algorithm string, publicKey []byte, comment string) error {
	if agentID == "" {
		return fmt.Errorf("trust: agentID must not be empty")
	}
	encoded := encodePublicKey(publicKey)
	hash := canonicalize.HashBytes(publicKey)

	entry := Entry{
		AgentID:       agentID,
		Algorithm:     algorithm,
		PublicKey:     encoded,
		PublicKeyHash: hash,
		TrustedAt:     time.Now().UTC(),
		Comment:       comment,
	}

	return s.withLock(func() error {
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("trust: marshal entry: %w", err)
		}
		if err := os.WriteFile(s.entryPath(agentID), data, 0o600); err != nil {
			return fmt.Errorf("trust: write entry: %w", err)
		}

		idx, err := s.readIndex()
		if err != nil {
			return err
		}
		idx[hash] = agentID
		return s.writeIndex(idx)
	})
}

// Untrust removes agentID from the trust store. Returns nil if the agent
// was never trusted.
func (s *Store) Untrust(agentID string) error {
	return s.withLock(func() error {
		existing, err := s.get(agentID)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if err := os.Remove(s.entryPath(agentID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("trust: remove entry: %w", err)
		}

		idx, err := s.readIndex()
		if err != nil {
			return err
		}
		if idx[existing.PublicKeyHash] == agentID {
			delete(idx, existing.PublicKeyHash)
		}
		return s.writeIndex(idx)
	})
}

// Get returns the trusted entry for agentID.
func (s *Store) Get(agentID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(agentID)
}

func (s *Store) get(agentID string) (*Entry, error) {
	data, err := os.ReadFile(s.entryPath(agentID))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("trust: parse entry for %q: %w", agentID, err)
	}
	return &entry, nil
}

// IsTrusted reports whether agentID is trusted AND its currently presented
// publicKey matches the key it was trusted under. A mismatch (the agent's
// key rotated without a re-Trust call) is reported as untrusted rather
// than silently accepted.
func (s *Store) IsTrusted(agentID string, publicKey []byte) (bool, error) {
	entry, err := s.Get(agentID)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entry.PublicKey == encodePublicKey(publicKey), nil
}

// ByPublicKeyHash looks up a trusted agent by the content hash of its
// public key, the secondary index the resolver chain's local-trust-store
// strategy uses when it only has a key, not yet an agent ID.
func (s *Store) ByPublicKeyHash(hash string) (*Entry, error) {
	s.mu.Lock()
	idx, err := s.readIndex()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	agentID, ok := idx[hash]
	if !ok {
		return nil, os.ErrNotExist
	}
	return s.Get(agentID)
}

// List returns every trusted entry, sorted by agent ID is not guaranteed;
// callers that need a stable order should sort the result themselves.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("trust: read store dir: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" || f.Name() == filepath.Base(s.indexPath()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("trust: read %s: %w", f.Name(), err)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("trust: parse %s: %w", f.Name(), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func encodePublicKey(publicKey []byte) string {
	return base64.StdEncoding.EncodeToString(publicKey)
}
