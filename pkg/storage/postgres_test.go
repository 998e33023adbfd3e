package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewPostgresStore(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"document_json"}).AddRow([]byte(`{"jacsId":"a"}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT document_json FROM jacs_documents WHERE agent_id = $1 AND version = $2")).
		WithArgs("agent-1", "v1").
		WillReturnRows(rows)

	data, err := store.Get(ctx, "agent-1", "v1")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"jacsId":"a"}`, string(data))
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewPostgresStore(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT document_json FROM jacs_documents WHERE agent_id = $1 AND version = $2")).
		WithArgs("agent-1", "v1").
		WillReturnError(sql.ErrNoRows)

	_, err = store.Get(ctx, "agent-1", "v1")
	assert.Error(t, err)
}

func TestPostgresStore_Put(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewPostgresStore(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jacs_documents")).
		WithArgs("agent-1", "v1", []byte(`{"jacsId":"a"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Put(ctx, "agent-1", "v1", []byte(`{"jacsId":"a"}`))
	assert.NoError(t, err)
}

func TestPostgresStore_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewPostgresStore(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jacs_documents WHERE agent_id = $1 AND version = $2")).
		WithArgs("agent-1", "v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Delete(ctx, "agent-1", "v1")
	assert.NoError(t, err)
}
