package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BOT_TOKEN", "WEBHOOK_URL", "SECRET_TOKEN", "MAX_FILE_MB", "INBOX_DIR", "HTTP_ADDR", "PORT", "FFMPEG_PATH", "LOG_LEVEL", "LOG_FORMAT", "REGISTER_WEBHOOK"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWithEnvToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, float64(DefaultMaxFileMB), cfg.Limits.MaxFileMB)
	assert.Equal(t, DefaultWorkDir, cfg.Pipeline.WorkDir)
	assert.Equal(t, DefaultFFmpegPath, cfg.Transcoder.Path)
	assert.Equal(t, DefaultJanitorSchedule, cfg.Janitor.Schedule)
	assert.Empty(t, cfg.Telegram.SecretToken)
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BotToken")
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"
format = "json"

[server]
addr = ":9000"

[telegram]
bot_token = "file-token"
webhook_url = "https://bot.example.com/webhook"
secret_token = "s3cret"

[limits]
max_file_mb = 2.5

[transcoder]
path = "/usr/bin/ffmpeg"
timeout = "45s"

[pipeline]
work_dir = "/var/lib/mediaconv"
max_concurrent = 8
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "file-token", cfg.Telegram.BotToken)
	assert.Equal(t, "s3cret", cfg.Telegram.SecretToken)
	assert.Equal(t, 2.5, cfg.Limits.MaxFileMB)
	assert.Equal(t, 45*time.Second, cfg.Transcoder.Timeout)
	assert.Equal(t, int64(8), cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, DefaultJobTimeout, cfg.Pipeline.JobTimeout)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  bot_token: yaml-token
limits:
  max_file_mb: 10
janitor:
  enabled: false
  schedule: ""
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-token", cfg.Telegram.BotToken)
	assert.Equal(t, float64(10), cfg.Limits.MaxFileMB)
	assert.False(t, cfg.Janitor.Enabled)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[telegram]
bot_token = "file-token"
[limits]
max_file_mb = 5
`), 0o600))
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("MAX_FILE_MB", "20")
	t.Setenv("INBOX_DIR", "/data/inbox")
	t.Setenv("PORT", "10000")
	t.Setenv("SECRET_TOKEN", "env-secret")
	t.Setenv("REGISTER_WEBHOOK", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, float64(20), cfg.Limits.MaxFileMB)
	assert.Equal(t, "/data/inbox", cfg.Pipeline.WorkDir)
	assert.Equal(t, ":10000", cfg.Server.Addr)
	assert.Equal(t, "env-secret", cfg.Telegram.SecretToken)
	assert.True(t, cfg.Telegram.RegisterWebhookOnStart)

	t.Setenv("HTTP_ADDR", "127.0.0.1:8088")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8088", cfg.Server.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad max file", env: map[string]string{"MAX_FILE_MB": "lots"}},
		{name: "zero max file", env: map[string]string{"MAX_FILE_MB": "0"}},
		{name: "bad webhook url", env: map[string]string{"WEBHOOK_URL": "not a url"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad register flag", env: map[string]string{"REGISTER_WEBHOOK": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BOT_TOKEN", "token")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
			require.Error(t, err)
		})
	}
}

func TestLoadAcceptsWarningLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("LOG_LEVEL", "warning")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.Log.Level)
}

func TestLoadRequiresShutdownLongerThanReply(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
shutdown_timeout = "10s"

[telegram]
bot_token = "file-token"

[pipeline]
reply_timeout = "10s"
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown_timeout")

	require.NoError(t, os.WriteFile(path, []byte(`
[server]
shutdown_timeout = "11s"

[telegram]
bot_token = "file-token"

[pipeline]
reply_timeout = "10s"
`), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Greater(t, cfg.Server.ShutdownTimeout, cfg.Pipeline.ReplyTimeout)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "MEDIACONV_DOTENV_PROBE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
