package toolchecker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/memohai/mediaconv/internal/healthcheck"
	"github.com/memohai/mediaconv/internal/transcode"
)

type fakeResolver struct {
	path string
	err  error
}

func (f *fakeResolver) Binary() string { return "ffmpeg" }

func (f *fakeResolver) Available() (string, error) { return f.path, f.err }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckerAvailable(t *testing.T) {
	t.Parallel()

	checker := NewChecker(newTestLogger(), &fakeResolver{path: "/usr/bin/ffmpeg"})
	items := checker.ListChecks(context.Background())
	if len(items) != 1 {
		t.Fatalf("expected 1 check, got %d", len(items))
	}
	if items[0].Status != healthcheck.StatusOK {
		t.Fatalf("expected ok status, got %s", items[0].Status)
	}
	if items[0].Metadata["path"] != "/usr/bin/ffmpeg" {
		t.Fatalf("unexpected metadata: %+v", items[0].Metadata)
	}
}

func TestCheckerUnavailable(t *testing.T) {
	t.Parallel()

	checker := NewChecker(newTestLogger(), &fakeResolver{err: errors.New("not found")})
	items := checker.ListChecks(context.Background())
	if len(items) != 1 || items[0].Status != healthcheck.StatusError {
		t.Fatalf("expected one error check, got %+v", items)
	}
	if items[0].Detail != "not found" {
		t.Fatalf("unexpected detail: %q", items[0].Detail)
	}
}

func TestCheckerWithRealFFmpegMissing(t *testing.T) {
	t.Parallel()

	checker := NewChecker(newTestLogger(), transcode.NewFFmpeg(newTestLogger(), "/nonexistent/ffmpeg-for-tests", 0))
	items := checker.ListChecks(context.Background())
	if len(items) != 1 || items[0].Status != healthcheck.StatusError {
		t.Fatalf("expected one error check, got %+v", items)
	}
}

func TestCheckerNilResolver(t *testing.T) {
	t.Parallel()

	items := NewChecker(nil, nil).ListChecks(context.Background())
	if len(items) != 1 || items[0].Status != healthcheck.StatusWarn {
		t.Fatalf("expected one warn check, got %+v", items)
	}
}

func TestCheckerCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := NewChecker(nil, &fakeResolver{}).ListChecks(ctx)
	if len(items) != 0 {
		t.Fatalf("expected no checks, got %d", len(items))
	}
}
