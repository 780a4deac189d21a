package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", config.Client.BaseURL)
	assert.Equal(t, 30*time.Second, config.Client.Timeout)
	assert.Equal(t, 2, config.Client.MaxRetries)
	assert.Equal(t, 400*time.Millisecond, config.Client.RetryBaseDelay)
	assert.Equal(t, "cl100k_base", config.Chat.TokenEncoding)
	assert.NotEmpty(t, config.Chat.WelcomeMessage)
	assert.Equal(t, "info", config.Log.Level)
	assert.NoError(t, config.Log.Validate())

	// File settings are usable even when output is switched to "file".
	assert.NotEmpty(t, config.Log.File.Filename)
	config.Log.Output = "file"
	assert.NoError(t, config.Log.Validate())
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
client:
  base_url: http://backend:9000
  max_retries: 5
  retry_base_delay: 1s
chat:
  welcome_message: "Hello there"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", config.Client.BaseURL)
	assert.Equal(t, 5, config.Client.MaxRetries)
	assert.Equal(t, time.Second, config.Client.RetryBaseDelay)
	assert.Equal(t, "Hello there", config.Chat.WelcomeMessage)
	assert.Equal(t, "debug", config.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, config.Client.Timeout)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("KCP_CLIENT_BASE_URL", "http://env-host:8000")

	config, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, "http://env-host:8000", config.Client.BaseURL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
