package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore is a SQL-backed Store, one row per (agent_id, version).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-opened *sql.DB. Callers own the
// connection's lifecycle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgDocumentsSchema = `
CREATE TABLE IF NOT EXISTS jacs_documents (
	agent_id TEXT NOT NULL,
	version TEXT NOT NULL,
	document_json JSONB NOT NULL,
	PRIMARY KEY (agent_id, version)
);
`

// Init creates the backing table if it does not already exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, pgDocumentsSchema)
	if err != nil {
		return fmt.Errorf("storage: init postgres schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, agentID, version string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jacs_documents (agent_id, version, document_json)
		VALUES ($1, $2, $3)
		ON CONFLICT (agent_id, version) DO UPDATE SET document_json = EXCLUDED.document_json
	`, agentID, version, data)
	if err != nil {
		return fmt.Errorf("storage: postgres put failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, agentID, version string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT document_json FROM jacs_documents WHERE agent_id = $1 AND version = $2
	`, agentID, version).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(agentID, version)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: postgres get failed: %w", err)
	}
	return data, nil
}

func (s *PostgresStore) List(ctx context.Context, agentID string) ([]VersionRef, error) {
	var rows *sql.Rows
	var err error
	if agentID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT agent_id, version FROM jacs_documents`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT agent_id, version FROM jacs_documents WHERE agent_id = $1`, agentID)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: postgres list failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []VersionRef
	for rows.Next() {
		var ref VersionRef
		if err := rows.Scan(&ref.AgentID, &ref.Version); err != nil {
			return nil, fmt.Errorf("storage: postgres scan failed: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, agentID, version string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM jacs_documents WHERE agent_id = $1 AND version = $2
	`, agentID, version)
	if err != nil {
		return fmt.Errorf("storage: postgres delete failed: %w", err)
	}
	return nil
}
