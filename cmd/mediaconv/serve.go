package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/mediaconv/internal/config"
	"github.com/memohai/mediaconv/internal/handlers"
	"github.com/memohai/mediaconv/internal/healthcheck"
	toolchecker "github.com/memohai/mediaconv/internal/healthcheck/checkers/tool"
	workdirchecker "github.com/memohai/mediaconv/internal/healthcheck/checkers/workdir"
	"github.com/memohai/mediaconv/internal/janitor"
	"github.com/memohai/mediaconv/internal/logger"
	"github.com/memohai/mediaconv/internal/media"
	"github.com/memohai/mediaconv/internal/pipeline"
	"github.com/memohai/mediaconv/internal/server"
	"github.com/memohai/mediaconv/internal/telegram"
	"github.com/memohai/mediaconv/internal/transcode"
	"github.com/memohai/mediaconv/internal/version"
	"github.com/memohai/mediaconv/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app := fx.New(
		fx.Supply(cfg),
		fx.StopTimeout(cfg.Server.ShutdownTimeout),
		fx.Provide(
			provideLogger,
			provideLimits,
			provideTelegramClient,
			provideTranscoder,
			providePipeline,
			provideDeduper,
			provideDispatcher,
			provideHealthChecks,
			provideJanitor,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideWebhookHandler),
			provideServer,
		),
		fx.Invoke(
			checkTranscoder,
			startJanitor,
			startServer,
			registerWebhook,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideLimits(cfg config.Config) media.Limits {
	return media.NewLimits(cfg.Limits.MaxFileMB)
}

func telegramOptions(cfg config.Config) telegram.Options {
	return telegram.Options{
		Token:           cfg.Telegram.BotToken,
		APIEndpoint:     cfg.Telegram.APIEndpoint,
		FileEndpoint:    cfg.Telegram.FileEndpoint,
		RequestTimeout:  cfg.Telegram.RequestTimeout,
		DownloadTimeout: cfg.Telegram.DownloadTimeout,
		Keyboard:        pipeline.KeyboardLayout(),
	}
}

func provideTelegramClient(log *slog.Logger, cfg config.Config) (*telegram.Client, error) {
	return telegram.NewClient(log, telegramOptions(cfg))
}

func provideTranscoder(log *slog.Logger, cfg config.Config) *transcode.FFmpeg {
	return transcode.NewFFmpeg(log, cfg.Transcoder.Path, cfg.Transcoder.Timeout)
}

func providePipeline(log *slog.Logger, cfg config.Config, limits media.Limits, client *telegram.Client, ffmpeg *transcode.FFmpeg) (*pipeline.Pipeline, error) {
	return pipeline.New(log, pipeline.Config{
		Limits:       limits,
		WorkDir:      cfg.Pipeline.WorkDir,
		ReplyTimeout: cfg.Pipeline.ReplyTimeout,
	}, client, client, ffmpeg)
}

func provideDeduper(cfg config.Config) *webhook.Deduper {
	return webhook.NewDeduper(cfg.Pipeline.DedupTTL)
}

func provideDispatcher(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, p *pipeline.Pipeline) *webhook.Dispatcher {
	d := webhook.NewDispatcher(log, p, cfg.Pipeline.MaxConcurrent, cfg.Pipeline.JobTimeout)
	lc.Append(fx.Hook{OnStop: d.Shutdown})
	return d
}

func provideWebhookHandler(log *slog.Logger, cfg config.Config, dispatcher *webhook.Dispatcher, deduper *webhook.Deduper) *webhook.Handler {
	return webhook.NewHandler(log, cfg.Telegram.SecretToken, dispatcher, deduper)
}

func provideHealthChecks(log *slog.Logger, ffmpeg *transcode.FFmpeg, p *pipeline.Pipeline) *healthcheck.Aggregator {
	return healthcheck.NewAggregator(
		toolchecker.NewChecker(log, ffmpeg),
		workdirchecker.NewChecker(log, p.WorkDir()),
	)
}

func provideJanitor(log *slog.Logger, cfg config.Config, p *pipeline.Pipeline, deduper *webhook.Deduper) (*janitor.Janitor, error) {
	if !cfg.Janitor.Enabled {
		return nil, nil
	}
	// A run lives at most job_timeout plus the final reply; never sweep younger dirs.
	maxAge := cfg.Janitor.MaxAge
	if floor := cfg.Pipeline.JobTimeout + cfg.Pipeline.ReplyTimeout; maxAge < floor {
		maxAge = floor
	}
	return janitor.New(log, janitor.Config{
		WorkDir:  p.WorkDir(),
		Schedule: cfg.Janitor.Schedule,
		MaxAge:   maxAge,
	}, deduper)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.ServerHandlers...)
}

// checkTranscoder logs a missing binary at startup. The server still starts:
// users get a "tool unavailable" reply until the binary is installed.
func checkTranscoder(log *slog.Logger, ffmpeg *transcode.FFmpeg) {
	path, err := ffmpeg.Available()
	if err != nil {
		log.Error("transcoder unavailable", slog.String("binary", ffmpeg.Binary()), slog.Any("error", err))
		return
	}
	log.Info("transcoder found", slog.String("path", path))
}

func startJanitor(lc fx.Lifecycle, j *janitor.Janitor) {
	if j == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := j.Sweep(); err != nil {
				return fmt.Errorf("initial sweep: %w", err)
			}
			j.Start()
			return nil
		},
		OnStop: j.Stop,
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, limits media.Limits) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting mediaconv",
				slog.String("version", version.Get().Version),
				slog.String("addr", srv.Addr()),
				slog.String("max_input_mb", limits.MaxInputMB()),
			)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

// registerWebhook calls setWebhook on start when telegram.register_webhook_on_start is set.
func registerWebhook(lc fx.Lifecycle, logger *slog.Logger, cfg config.Config, client *telegram.Client) {
	if !cfg.Telegram.RegisterWebhookOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Telegram.WebhookURL == "" {
				logger.Warn("webhook registration skipped: webhook_url is empty")
				return nil
			}
			return client.RegisterWebhook(cfg.Telegram.WebhookURL, cfg.Telegram.SecretToken, cfg.Telegram.DropPendingUpdates)
		},
	})
}
