// Package pipeline turns one inbound update into exactly one reply: a
// converted file or a diagnostic text.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/memohai/mediaconv/internal/media"
	"github.com/memohai/mediaconv/internal/telegram"
	"github.com/memohai/mediaconv/internal/transcode"
)

const (
	// JobDirPattern names per-run scratch directories inside the work dir.
	JobDirPattern = "job-*"

	defaultReplyTimeout = 30 * time.Second
)

// FileTransfer moves attachments in and results out.
type FileTransfer interface {
	Download(ctx context.Context, att media.Attachment, dir string, maxBytes int64) (telegram.DownloadedFile, error)
	Upload(ctx context.Context, chatID int64, result media.ConversionResult, replyTo int) error
}

// Replier sends text answers back to the chat.
type Replier interface {
	SendText(ctx context.Context, chatID int64, text string, replyTo int) error
	SendHelp(ctx context.Context, chatID int64, text string) error
	ChatAction(ctx context.Context, chatID int64, action string) error
}

// Config holds the immutable pipeline settings.
type Config struct {
	Limits  media.Limits
	WorkDir string
	// ReplyTimeout bounds the final reply, which is sent even when the run
	// context has already expired.
	ReplyTimeout time.Duration
}

// Pipeline processes updates. It holds no per-request state, so Handle is
// safe for concurrent use.
type Pipeline struct {
	logger       *slog.Logger
	limits       media.Limits
	workDir      string
	replyTimeout time.Duration
	transfer     FileTransfer
	replier      Replier
	transcoder   transcode.Transcoder
}

// New creates a pipeline and makes sure the work directory exists.
func New(log *slog.Logger, cfg Config, transfer FileTransfer, replier Replier, transcoder transcode.Transcoder) (*Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}
	if transfer == nil || replier == nil || transcoder == nil {
		return nil, fmt.Errorf("pipeline: transfer, replier and transcoder are required")
	}
	workDir := strings.TrimSpace(cfg.WorkDir)
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	limits := cfg.Limits
	if limits.MaxInputBytes <= 0 {
		limits = media.NewLimits(media.DefaultMaxInputMB)
	}
	replyTimeout := cfg.ReplyTimeout
	if replyTimeout <= 0 {
		replyTimeout = defaultReplyTimeout
	}
	return &Pipeline{
		logger:       log.With(slog.String("component", "pipeline")),
		limits:       limits,
		workDir:      workDir,
		replyTimeout: replyTimeout,
		transfer:     transfer,
		replier:      replier,
		transcoder:   transcoder,
	}, nil
}

// Limits returns the size policy the pipeline enforces.
func (p *Pipeline) Limits() media.Limits {
	return p.limits
}

// WorkDir returns the directory holding per-run scratch directories.
func (p *Pipeline) WorkDir() string {
	return p.workDir
}

type outcome struct {
	delivered bool
	help      bool
	text      string
	kind      media.ConversionKind
	err       error
}

// Handle runs one update to completion. It never returns an error: every
// failure is answered in the chat and logged.
func (p *Pipeline) Handle(ctx context.Context, update media.InboundUpdate) {
	started := time.Now()
	log := p.logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.Int("update_id", update.UpdateID),
		slog.Int64("chat_id", update.ChatID),
	)

	out := p.process(ctx, log, update)
	if !out.delivered {
		p.reply(ctx, log, update, out)
	}

	attrs := []any{slog.Duration("duration", time.Since(started)), slog.Bool("delivered", out.delivered)}
	if out.kind != 0 {
		attrs = append(attrs, slog.String("kind", out.kind.String()))
	}
	if out.err != nil {
		log.Warn("update failed", append(attrs, slog.Any("error", out.err))...)
		return
	}
	log.Info("update handled", attrs...)
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, update media.InboundUpdate) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			out = outcome{kind: out.kind, text: TextProcessingFailed, err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if !update.HasAttachment() {
		if hint, ok := modeHint(update.Text); ok {
			return outcome{text: hint}
		}
		return outcome{text: TextHelp, help: true}
	}

	att := *update.Attachment
	kind, err := media.Classify(att)
	if err != nil {
		return outcome{text: TextUnsupported, err: err}
	}
	out.kind = kind
	if p.limits.Exceeds(att.Size) {
		return outcome{kind: kind, text: TooLargeText(p.limits), err: fmt.Errorf("%w: %d bytes", media.ErrSizeExceeded, att.Size)}
	}
	if err := ctx.Err(); err != nil {
		return outcome{kind: kind, text: TextInterrupted, err: fmt.Errorf("not started: %w", err)}
	}

	dir, err := os.MkdirTemp(p.workDir, JobDirPattern)
	if err != nil {
		return outcome{kind: kind, text: TextProcessingFailed, err: fmt.Errorf("create job dir: %w", err)}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("remove job dir failed", slog.String("dir", dir), slog.Any("error", err))
		}
	}()

	file, err := p.transfer.Download(ctx, att, dir, p.limits.MaxInputBytes)
	if err != nil {
		if errors.Is(err, media.ErrSizeExceeded) {
			return outcome{kind: kind, text: TooLargeText(p.limits), err: err}
		}
		return failed(ctx, kind, TextDownloadFailed, fmt.Errorf("download: %w", err))
	}
	req := media.ConversionRequest{
		ChatID:    update.ChatID,
		Kind:      kind,
		InputPath: file.Path,
		Preset:    kind.Preset(),
	}
	log.Debug("input ready",
		slog.String("kind", req.Kind.String()),
		slog.Int64("size", file.Size),
		slog.String("mime", file.Mime),
		slog.String("codec", req.Preset.Codec),
		slog.String("bitrate", req.Preset.Bitrate),
	)

	if err := p.replier.ChatAction(ctx, req.ChatID, chatActionFor(req.Kind)); err != nil {
		log.Debug("chat action failed", slog.Any("error", err))
	}

	result, err := p.transcoder.Convert(ctx, req.InputPath, req.Kind)
	if err != nil {
		return failed(ctx, kind, conversionFailureText(err), fmt.Errorf("convert: %w", err))
	}
	if err := p.transfer.Upload(ctx, req.ChatID, result, update.MessageID); err != nil {
		return failed(ctx, kind, TextUploadFailed, fmt.Errorf("upload: %w", err))
	}
	return outcome{kind: kind, delivered: true}
}

// failed builds the outcome of a step failure. A run canceled by shutdown is
// reported as interrupted rather than as a fault of the step.
func failed(ctx context.Context, kind media.ConversionKind, text string, err error) outcome {
	if errors.Is(ctx.Err(), context.Canceled) {
		text = TextInterrupted
	}
	return outcome{kind: kind, text: text, err: err}
}

func (p *Pipeline) reply(ctx context.Context, log *slog.Logger, update media.InboundUpdate, out outcome) {
	replyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.replyTimeout)
	defer cancel()

	var err error
	if out.help {
		err = p.replier.SendHelp(replyCtx, update.ChatID, out.text)
	} else {
		err = p.replier.SendText(replyCtx, update.ChatID, out.text, update.MessageID)
	}
	if err != nil {
		log.Error("send reply failed", slog.Any("error", err))
	}
}
