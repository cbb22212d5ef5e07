package toolchecker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/memohai/mediaconv/internal/healthcheck"
)

const checkTypeTranscoder = "transcoder.binary"

// Resolver locates the conversion binary without running a conversion.
type Resolver interface {
	Binary() string
	Available() (string, error)
}

// Checker reports whether the conversion tool can be started.
type Checker struct {
	logger   *slog.Logger
	resolver Resolver
}

// NewChecker creates a transcoder binary checker.
func NewChecker(log *slog.Logger, resolver Resolver) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger:   log.With(slog.String("checker", "healthcheck_tool")),
		resolver: resolver,
	}
}

// ListChecks resolves the binary on every call so a fixed PATH is picked up
// without a restart.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if err := ctx.Err(); err != nil {
		return []healthcheck.CheckResult{}
	}
	if c.resolver == nil {
		return []healthcheck.CheckResult{{
			ID:      checkTypeTranscoder,
			Type:    checkTypeTranscoder,
			Status:  healthcheck.StatusWarn,
			Summary: "Transcoder is not configured.",
		}}
	}
	name := c.resolver.Binary()
	path, err := c.resolver.Available()
	if err != nil {
		c.logger.Warn("transcoder binary unavailable", slog.String("binary", name), slog.Any("error", err))
		return []healthcheck.CheckResult{{
			ID:       checkTypeTranscoder,
			Type:     checkTypeTranscoder,
			Subtitle: name,
			Status:   healthcheck.StatusError,
			Summary:  fmt.Sprintf("Conversion tool %q is not available.", name),
			Detail:   err.Error(),
		}}
	}
	return []healthcheck.CheckResult{{
		ID:       checkTypeTranscoder,
		Type:     checkTypeTranscoder,
		Subtitle: name,
		Status:   healthcheck.StatusOK,
		Summary:  fmt.Sprintf("Conversion tool %q is available.", name),
		Metadata: map[string]any{"path": path},
	}}
}
