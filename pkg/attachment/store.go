// Package attachment persists jacsFiles content that is not embedded
// inline in the document (opts.Embed == false in pkg/document's
// FileInput). A FileRecord's sha256 field is a plain hex digest — this
// package's Store keys blobs by that same digest, so the record itself
// is the retrieval key and nothing else needs to travel alongside a
// document to fetch its attachments later.
package attachment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// Store is a content-addressed blob store keyed by an attachment's hex
// SHA-256 digest, the same value carried in header.FileRecord.SHA256.
type Store interface {
	// Put persists data and returns its hex digest.
	Put(ctx context.Context, data []byte) (string, error)
	// Get retrieves data by its digest.
	Get(ctx context.Context, digest string) ([]byte, error)
	// Exists reports whether a blob with digest is stored.
	Exists(ctx context.Context, digest string) (bool, error)
	// Delete removes a blob by its digest.
	Delete(ctx context.Context, digest string) error
}

// FileStore is a filesystem-backed Store, one file per digest under
// baseDir.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a filesystem-backed Store rooted at baseDir,
// creating it if necessary.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("attachment: create blob dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) Put(ctx context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	digest := hexDigest(data)
	path := s.blobPath(digest)

	if _, err := os.Stat(path); err == nil {
		return digest, nil
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("attachment: write blob: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("attachment: commit blob: %w", err)
	}
	return digest, nil
}

func (s *FileStore) Get(ctx context.Context, digest string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := validateDigest(digest); err != nil {
		return nil, err
	}

	f, err := os.Open(s.blobPath(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, jacserr.New(jacserr.NotFound, fmt.Sprintf("attachment: blob %s not found", digest))
		}
		return nil, fmt.Errorf("attachment: open blob: %w", err)
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(f)
}

func (s *FileStore) Exists(ctx context.Context, digest string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := validateDigest(digest); err != nil {
		return false, err
	}

	_, err := os.Stat(s.blobPath(digest))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("attachment: stat blob: %w", err)
}

func (s *FileStore) Delete(ctx context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateDigest(digest); err != nil {
		return err
	}

	err := os.Remove(s.blobPath(digest))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("attachment: delete blob: %w", err)
	}
	return nil
}

func (s *FileStore) blobPath(digest string) string {
	return filepath.Join(s.baseDir, digest+".blob")
}

func hexDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func validateDigest(digest string) error {
	if _, err := hex.DecodeString(digest); err != nil || len(digest) != sha256.Size*2 {
		return jacserr.New(jacserr.MalformedJSON, fmt.Sprintf("attachment: invalid digest %q", digest))
	}
	return nil
}
