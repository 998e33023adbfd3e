// Package storage defines the abstract document store the document and
// agent engines consume, plus filesystem, in-memory, S3, and Postgres
// implementations. The engines depend only on the Store interface, never
// on a concrete backend.
package storage

import (
	"context"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// VersionRef identifies one stored document version.
type VersionRef struct {
	AgentID string
	Version string
}

// Store is the key-value contract over (agentID, version) -> document
// bytes that every backend implements identically.
type Store interface {
	Put(ctx context.Context, agentID, version string, data []byte) error
	Get(ctx context.Context, agentID, version string) ([]byte, error)
	List(ctx context.Context, agentID string) ([]VersionRef, error)
	Delete(ctx context.Context, agentID, version string) error
}

func notFound(agentID, version string) error {
	return jacserr.New(jacserr.NotFound, "no document for "+agentID+":"+version)
}
