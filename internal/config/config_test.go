package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.WSEndpoint)
	assert.Equal(t, time.Second, cfg.RequestTimeout())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("api_base_url: https://chat.example.com/api\nws_endpoint: wss://chat.example.com/ws\nrequest_timeout_ms: 2500\ndebug_enabled: true\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, "wss://chat.example.com/ws", cfg.WSEndpoint)
	assert.Equal(t, 2500*time.Millisecond, cfg.RequestTimeout())
	assert.True(t, cfg.DebugEnabled)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: https://file.example.com\n"), 0o600))
	t.Setenv("PEOPLESYNC_API_BASE_URL", "https://env.example.com")
	t.Setenv("PEOPLESYNC_AUTH_TOKEN", "tok-123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.APIBaseURL)
	assert.Equal(t, "tok-123", cfg.AuthToken)
}

func TestInvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNonPositiveTimeoutFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request_timeout_ms: 0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.RequestTimeout())
}
