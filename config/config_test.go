package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theidealshukla/ColdMailBot-api/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, 0, cfg.Server.WriteTimeoutSeconds) // streaming keeps the response open
	assert.Equal(t, 60, cfg.Server.IdleTimeoutSeconds)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 50, cfg.App.MaxBatchSize)
	assert.Equal(t, 3, cfg.App.DefaultDelaySeconds)
	assert.Empty(t, cfg.App.APIKeys)
	assert.NotEmpty(t, cfg.App.UploadDir)
	assert.Empty(t, cfg.App.SendCommand)
}

func TestLoadConfigMissingFileIsNotAnError(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
  read_timeout_seconds: 15
smtp:
  host: smtp.example.com
  port: 465
app:
  env: production
  max_batch_size: 10
  default_delay_seconds: 1
  api_keys:
    - key-one
  send_command: /usr/local/bin/send.py
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 15, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, 60, cfg.Server.IdleTimeoutSeconds)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, 10, cfg.App.MaxBatchSize)
	assert.Equal(t, 1, cfg.App.DefaultDelaySeconds)
	assert.Equal(t, []string{"key-one"}, cfg.App.APIKeys)
	assert.Equal(t, "/usr/local/bin/send.py", cfg.App.SendCommand)
}

func TestLoadConfigPreservesExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  max_batch_size: 0
  default_delay_seconds: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	// Zero batch size disables the cap, zero delay disables pacing.
	assert.Equal(t, 0, cfg.App.MaxBatchSize)
	assert.Equal(t, 0, cfg.App.DefaultDelaySeconds)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SMTP_HOST", "smtp.office365.com")
	t.Setenv("SMTP_PORT", "25")
	t.Setenv("MAX_BATCH_SIZE", "5")
	t.Setenv("DEFAULT_DELAY_SECONDS", "0")
	t.Setenv("API_KEYS", "alpha, beta ,")
	t.Setenv("SEND_COMMAND", "/opt/mailer/send.py")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "smtp.office365.com", cfg.SMTP.Host)
	assert.Equal(t, 25, cfg.SMTP.Port)
	assert.Equal(t, 5, cfg.App.MaxBatchSize)
	assert.Equal(t, 0, cfg.App.DefaultDelaySeconds)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.App.APIKeys)
	assert.Equal(t, "/opt/mailer/send.py", cfg.App.SendCommand)
}
