package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "https://finnhub.io/api/v1", cfg.Clients.Finnhub.BaseURL)
	assert.False(t, cfg.RemoteStorageEnabled())
	assert.Equal(t, 3*time.Second, cfg.Storage.Remote.GetTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Market.GetRefreshInterval())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trademind.toml")
	content := `
environment = "production"

[server]
port = 9090

[storage.remote]
address = "ws://db.internal:8000/rpc"
timeout = "1500ms"

[clients.finnhub]
api_key = "test-key"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.RemoteStorageEnabled())
	assert.Equal(t, 1500*time.Millisecond, cfg.Storage.Remote.GetTimeout())
	assert.Equal(t, "test-key", cfg.Clients.Finnhub.APIKey)
	// Untouched sections keep defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/trademind.toml")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TRADEMIND_PORT", "8123")
	t.Setenv("TRADEMIND_STORAGE_ADDRESS", "ws://override:8000/rpc")
	t.Setenv("FINNHUB_API_KEY", "env-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "ws://override:8000/rpc", cfg.Storage.Remote.Address)
	assert.Equal(t, "env-key", cfg.Clients.Finnhub.APIKey)
}
