package jacs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hai-ai/jacs-go/pkg/config"
	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/document"
	"github.com/hai-ai/jacs-go/pkg/jacs"
)

// bootstrap writes a fresh Ed25519 key pair into dir and returns a Config
// pointed at it, with jacsAgentIDAndVersion set to an arbitrary self-ID
// since these tests sign/verify via the embedded-key strategy rather than
// an external trust store.
func bootstrap(t *testing.T, password string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	_, privBytes, err := crypto.GenerateKey(crypto.AlgEd25519)
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.KeyDirectory = dir
	cfg.DataDirectory = dir
	cfg.AgentIDAndVersion = "11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222"
	cfg.PrivateKeyPassword = password

	require.NoError(t, jacs.WritePrivateKeyFile(cfg.PrivateKeyPath(), password, privBytes))
	return cfg
}

func TestLoad_CreateAndVerifyDocument(t *testing.T) {
	cfg := bootstrap(t, "")
	h, err := jacs.Load(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	doc, err := h.CreateDocument(ctx, map[string]interface{}{"action": "approve", "amount": float64(100)}, document.CreateOptions{
		JacsType: "message",
	})
	require.NoError(t, err)

	report, err := h.VerifyDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestLoad_EncryptedPrivateKey(t *testing.T) {
	cfg := bootstrap(t, "Str0ng!Passw0rd")
	h, err := jacs.Load(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	doc, err := h.CreateDocument(ctx, map[string]interface{}{"x": float64(1)}, document.CreateOptions{JacsType: "message"})
	require.NoError(t, err)

	report, err := h.VerifyDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestLoad_WrongPasswordFails(t *testing.T) {
	cfg := bootstrap(t, "Str0ng!Passw0rd")
	cfg.PrivateKeyPassword = "WrongPassw0rd!"
	_, err := jacs.Load(cfg)
	require.Error(t, err)
}

func TestLoad_UpdatePreservesLineage(t *testing.T) {
	cfg := bootstrap(t, "")
	h, err := jacs.Load(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	created, err := h.CreateDocument(ctx, map[string]interface{}{"status": "pending"}, document.CreateOptions{JacsType: "task"})
	require.NoError(t, err)

	updated, err := h.UpdateDocument(ctx, created["jacsId"].(string), created["jacsVersion"].(string),
		map[string]interface{}{"status": "approved"}, document.CreateOptions{JacsType: "task"})
	require.NoError(t, err)

	assert.Equal(t, created["jacsId"], updated["jacsId"])
	assert.Equal(t, created["jacsOriginalVersion"], updated["jacsOriginalVersion"])
	assert.Equal(t, created["jacsVersion"], updated["jacsPreviousVersion"])
	assert.NotEqual(t, created["jacsVersion"], updated["jacsVersion"])

	report, err := h.VerifyDocument(ctx, updated)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}
