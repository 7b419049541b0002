package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a config file with secure permissions.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "chromem", cfg.Knowledge.Provider)
	})

	t.Run("loads yaml file", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: 8181
  shutdown_timeout: 30s
llm:
  provider: ollama
  model: llama3
  temperature: 0
pipeline:
  top_k: 6
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8181, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration())
		assert.Equal(t, "ollama", cfg.LLM.Provider)
		assert.Equal(t, "llama3", cfg.LLM.Model)
		assert.Equal(t, 6, cfg.Pipeline.TopK)
		// Untouched sections keep defaults.
		assert.Equal(t, 5, cfg.Pipeline.MaxParallel)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: 8181
`)
		t.Setenv("DESKD_SERVER_PORT", "8282")
		t.Setenv("DESKD_LLM_API_KEY", "gsk_test_key")
		t.Setenv("DESKD_PIPELINE_TOP_K", "2")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8282, cfg.Server.Port)
		assert.Equal(t, "gsk_test_key", cfg.LLM.APIKey.Value())
		assert.Equal(t, 2, cfg.Pipeline.TopK)
	})

	t.Run("rejects world-readable file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8181\n"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permissions")
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeConfigFile(t, "server: [not: valid")

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		path := writeConfigFile(t, `
llm:
  provider: watson
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown llm provider")
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandHome("~/.config/deskd/knowledge")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "deskd", "knowledge"), expanded)

	unchanged, err := ExpandHome("/var/lib/deskd")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/deskd", unchanged)
}
