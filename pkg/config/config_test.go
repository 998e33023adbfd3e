package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hai-ai/jacs-go/pkg/config"
)

// TestLoad_Defaults verifies that Load("") returns the documented safe
// defaults when no file and no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"JACS_DATA_DIRECTORY", "JACS_KEY_DIRECTORY", "JACS_AGENT_KEY_ALGORITHM",
		"JACS_DEFAULT_STORAGE", "JACS_PRIVATE_KEY_PASSWORD",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "ring-Ed25519", cfg.AgentKeyAlgorithm)
	assert.Equal(t, "fs", cfg.DefaultStorage)
	assert.True(t, cfg.UseFilesystemBool())
	assert.False(t, cfg.DNSRequiredBool())
	assert.Equal(t, "stderr", cfg.Observability.Logs)
}

// TestLoad_EnvOverrides verifies JACS_* and HAI_* environment variables
// win over the defaults (TestLoad_JSONFile covers winning over a file).
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JACS_AGENT_KEY_ALGORITHM", "pq2025")
	t.Setenv("JACS_DEFAULT_STORAGE", "aws")
	t.Setenv("JACS_DNS_REQUIRED", "true")
	t.Setenv("JACS_PRIVATE_KEY_PASSWORD", "env-password")
	t.Setenv("HAI_KEYS_BASE_URL", "https://keys.example.com")
	t.Setenv("HAI_API_KEY", "secret-key")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "pq2025", cfg.AgentKeyAlgorithm)
	assert.Equal(t, "aws", cfg.DefaultStorage)
	assert.True(t, cfg.DNSRequiredBool())
	assert.Equal(t, "env-password", cfg.PrivateKeyPassword)
	assert.Equal(t, "https://keys.example.com", cfg.KeysBaseURL)
	assert.Equal(t, "secret-key", cfg.APIKey)
}

// TestLoad_JSONFile verifies a JSON config file is read and that an
// environment variable still overrides it.
func TestLoad_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jacs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"jacs_data_directory": "/data/jacs",
		"jacs_agent_key_algorithm": "RSA-PSS",
		"jacs_default_storage": "hai"
	}`), 0o600))

	t.Setenv("JACS_DEFAULT_STORAGE", "fs")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/jacs", cfg.DataDirectory)
	assert.Equal(t, "RSA-PSS", cfg.AgentKeyAlgorithm)
	assert.Equal(t, "fs", cfg.DefaultStorage, "env var must win over file value")
}

// TestLoad_YAMLFile verifies YAML files are accepted too.
func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jacs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jacs_key_directory: /keys/jacs\njacs_agent_domain: example.com\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/keys/jacs", cfg.KeyDirectory)
	assert.Equal(t, "example.com", cfg.AgentDomain)
}

func TestConfig_AgentIDAndVersion(t *testing.T) {
	cfg := config.Defaults()
	cfg.AgentIDAndVersion = "11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222"

	assert.Equal(t, "11111111-1111-1111-1111-111111111111", cfg.AgentID())
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", cfg.AgentVersion())
}

func TestConfig_KeyPaths(t *testing.T) {
	cfg := config.Defaults()
	cfg.KeyDirectory = "/keys"

	assert.Equal(t, filepath.Join("/keys", "jacs.private.pem"), cfg.PrivateKeyPath())
	assert.Equal(t, filepath.Join("/keys", "jacs.public.pem"), cfg.PublicKeyPath())
}
