package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath      = "config.toml"
	DefaultDotEnvPath      = ".env"
	DefaultHTTPAddr        = ":8080"
	DefaultMaxFileMB       = 18
	DefaultWorkDir         = "/tmp/inbox"
	DefaultFFmpegPath      = "ffmpeg"
	DefaultFFmpegTimeout   = 2 * time.Minute
	DefaultRequestTimeout  = 30 * time.Second
	DefaultDownloadTimeout = 60 * time.Second
	DefaultMaxConcurrent   = 4
	DefaultJobTimeout      = 5 * time.Minute
	DefaultReplyTimeout    = 30 * time.Second
	DefaultDedupTTL        = 10 * time.Minute
	DefaultShutdownTimeout = 45 * time.Second
	DefaultJanitorSchedule = "@every 5m"
	DefaultJanitorMaxAge   = 30 * time.Minute
)

type Config struct {
	Log        LogConfig        `toml:"log" yaml:"log"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
	Telegram   TelegramConfig   `toml:"telegram" yaml:"telegram"`
	Limits     LimitsConfig     `toml:"limits" yaml:"limits"`
	Transcoder TranscoderConfig `toml:"transcoder" yaml:"transcoder"`
	Pipeline   PipelineConfig   `toml:"pipeline" yaml:"pipeline"`
	Janitor    JanitorConfig    `toml:"janitor" yaml:"janitor"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `toml:"format" yaml:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr" yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token" yaml:"bot_token" validate:"required"`
	// WebhookURL is the public URL Telegram delivers updates to.
	WebhookURL string `toml:"webhook_url" yaml:"webhook_url" validate:"omitempty,url"`
	// SecretToken is optional; when set every delivery must carry it.
	SecretToken            string        `toml:"secret_token" yaml:"secret_token" validate:"omitempty,max=256"`
	APIEndpoint            string        `toml:"api_endpoint" yaml:"api_endpoint"`
	FileEndpoint           string        `toml:"file_endpoint" yaml:"file_endpoint"`
	RequestTimeout         time.Duration `toml:"request_timeout" yaml:"request_timeout" validate:"gt=0"`
	DownloadTimeout        time.Duration `toml:"download_timeout" yaml:"download_timeout" validate:"gt=0"`
	RegisterWebhookOnStart bool          `toml:"register_webhook_on_start" yaml:"register_webhook_on_start"`
	DropPendingUpdates     bool          `toml:"drop_pending_updates" yaml:"drop_pending_updates"`
}

type LimitsConfig struct {
	MaxFileMB float64 `toml:"max_file_mb" yaml:"max_file_mb" validate:"gt=0"`
}

type TranscoderConfig struct {
	Path    string        `toml:"path" yaml:"path" validate:"required"`
	Timeout time.Duration `toml:"timeout" yaml:"timeout" validate:"gt=0"`
}

type PipelineConfig struct {
	WorkDir       string        `toml:"work_dir" yaml:"work_dir" validate:"required"`
	MaxConcurrent int64         `toml:"max_concurrent" yaml:"max_concurrent" validate:"gte=1"`
	JobTimeout    time.Duration `toml:"job_timeout" yaml:"job_timeout" validate:"gt=0"`
	ReplyTimeout  time.Duration `toml:"reply_timeout" yaml:"reply_timeout" validate:"gt=0"`
	DedupTTL      time.Duration `toml:"dedup_ttl" yaml:"dedup_ttl" validate:"gt=0"`
}

type JanitorConfig struct {
	Enabled  bool          `toml:"enabled" yaml:"enabled"`
	Schedule string        `toml:"schedule" yaml:"schedule" validate:"required_if=Enabled true"`
	MaxAge   time.Duration `toml:"max_age" yaml:"max_age" validate:"gt=0"`
}

// Default returns the configuration used when no file or env value is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            DefaultHTTPAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Telegram: TelegramConfig{
			RequestTimeout:  DefaultRequestTimeout,
			DownloadTimeout: DefaultDownloadTimeout,
		},
		Limits: LimitsConfig{
			MaxFileMB: DefaultMaxFileMB,
		},
		Transcoder: TranscoderConfig{
			Path:    DefaultFFmpegPath,
			Timeout: DefaultFFmpegTimeout,
		},
		Pipeline: PipelineConfig{
			WorkDir:       DefaultWorkDir,
			MaxConcurrent: DefaultMaxConcurrent,
			JobTimeout:    DefaultJobTimeout,
			ReplyTimeout:  DefaultReplyTimeout,
			DedupTTL:      DefaultDedupTTL,
		},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: DefaultJanitorSchedule,
			MaxAge:   DefaultJanitorMaxAge,
		},
	}
}

// Load builds the configuration from defaults, the config file (TOML, or YAML
// by extension), a .env file and the environment, in that order, and
// validates the result. A missing config file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	if err := loadDotEnv(DefaultDotEnvPath); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	// Shutdown cancels running conversions and then waits for their replies.
	if c.Server.ShutdownTimeout <= c.Pipeline.ReplyTimeout {
		return fmt.Errorf("invalid config: server.shutdown_timeout (%s) must exceed pipeline.reply_timeout (%s)",
			c.Server.ShutdownTimeout, c.Pipeline.ReplyTimeout)
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file values with the deployment environment variables.
func applyEnv(cfg *Config) error {
	setString(&cfg.Telegram.BotToken, "BOT_TOKEN")
	setString(&cfg.Telegram.WebhookURL, "WEBHOOK_URL")
	setString(&cfg.Telegram.SecretToken, "SECRET_TOKEN")
	setString(&cfg.Pipeline.WorkDir, "INBOX_DIR")
	setString(&cfg.Transcoder.Path, "FFMPEG_PATH")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Addr = ":" + port
	}
	setString(&cfg.Server.Addr, "HTTP_ADDR")

	if raw := strings.TrimSpace(os.Getenv("MAX_FILE_MB")); raw != "" {
		mb, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse MAX_FILE_MB: %w", err)
		}
		cfg.Limits.MaxFileMB = mb
	}
	if raw := strings.TrimSpace(os.Getenv("REGISTER_WEBHOOK")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse REGISTER_WEBHOOK: %w", err)
		}
		cfg.Telegram.RegisterWebhookOnStart = enabled
	}
	return nil
}

func setString(dst *string, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*dst = val
	}
}
