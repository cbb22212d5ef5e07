package transcode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/memohai/mediaconv/internal/media"
)

const (
	DefaultBinary  = "ffmpeg"
	DefaultTimeout = 2 * time.Minute

	stderrTailBytes = 64 * 1024
	waitDelay       = 5 * time.Second
)

// FFmpeg implements Transcoder by spawning the ffmpeg binary once per conversion.
type FFmpeg struct {
	logger  *slog.Logger
	binary  string
	timeout time.Duration
}

// NewFFmpeg creates an ffmpeg-backed transcoder. An empty binary means "ffmpeg" on PATH.
func NewFFmpeg(log *slog.Logger, binary string, timeout time.Duration) *FFmpeg {
	if log == nil {
		log = slog.Default()
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FFmpeg{
		logger:  log.With(slog.String("component", "ffmpeg")),
		binary:  binary,
		timeout: timeout,
	}
}

// Binary returns the configured binary name or path.
func (f *FFmpeg) Binary() string {
	return f.binary
}

// Available resolves the binary without running it.
func (f *FFmpeg) Available() (string, error) {
	path, err := exec.LookPath(f.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	return path, nil
}

// Convert runs ffmpeg on inputPath and writes the result next to it.
func (f *FFmpeg) Convert(ctx context.Context, inputPath string, kind media.ConversionKind) (media.ConversionResult, error) {
	binary, err := f.Available()
	if err != nil {
		return media.ConversionResult{}, err
	}
	preset := kind.Preset()
	outputPath := OutputPath(inputPath, preset)
	args := BuildArgs(inputPath, outputPath, preset)

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	stderr := &tailBuffer{max: stderrTailBytes}
	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	started := time.Now()
	f.logger.Debug("run", slog.String("kind", kind.String()), slog.String("input", inputPath), slog.String("output", outputPath))
	runErr := cmd.Run()
	if runErr != nil {
		_ = os.Remove(outputPath)
		err := classifyRunError(runCtx, runErr, stderr.String())
		f.logger.Warn("conversion failed",
			slog.String("kind", kind.String()),
			slog.Duration("elapsed", time.Since(started)),
			slog.Any("error", err),
		)
		return media.ConversionResult{}, err
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(outputPath)
		return media.ConversionResult{}, fmt.Errorf("%w: %s", ErrNoOutput, strings.TrimSpace(stderr.String()))
	}
	f.logger.Info("conversion done",
		slog.String("kind", kind.String()),
		slog.Int64("size", info.Size()),
		slog.Duration("elapsed", time.Since(started)),
	)
	return media.ConversionResult{
		Path: outputPath,
		Size: info.Size(),
		Kind: kind,
	}, nil
}

// OutputPath places the output in the input's directory with the preset extension.
func OutputPath(inputPath string, preset media.Preset) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if base == "" {
		base = "input"
	}
	return filepath.Join(filepath.Dir(inputPath), base+".converted"+preset.Extension)
}

// BuildArgs returns the full ffmpeg argument list for one conversion.
func BuildArgs(inputPath, outputPath string, preset media.Preset) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
	}
	args = append(args, preset.Args()...)
	return append(args, outputPath)
}

func classifyRunError(ctx context.Context, runErr error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if ctx.Err() != nil {
		return fmt.Errorf("conversion canceled: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr}
	}
	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) || errors.Is(runErr, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, runErr)
	}
	return fmt.Errorf("start conversion tool: %w", runErr)
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= b.max {
		b.buf = append(b.buf[:0], p[len(p)-b.max:]...)
		return n, nil
	}
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return n, nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
