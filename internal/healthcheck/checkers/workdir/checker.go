package workdirchecker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/memohai/mediaconv/internal/healthcheck"
)

const checkTypeWorkDir = "workdir.writable"

// Checker verifies that per-run scratch directories can be created.
type Checker struct {
	logger *slog.Logger
	dir    string
}

// NewChecker creates a work directory checker for dir.
func NewChecker(log *slog.Logger, dir string) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger: log.With(slog.String("checker", "healthcheck_workdir")),
		dir:    strings.TrimSpace(dir),
	}
}

// ListChecks creates and removes a probe directory inside the work dir.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if err := ctx.Err(); err != nil {
		return []healthcheck.CheckResult{}
	}
	result := healthcheck.CheckResult{
		ID:       checkTypeWorkDir,
		Type:     checkTypeWorkDir,
		Subtitle: c.dir,
	}
	if c.dir == "" {
		result.Status = healthcheck.StatusWarn
		result.Summary = "Work directory is not configured."
		return []healthcheck.CheckResult{result}
	}

	probe, err := os.MkdirTemp(c.dir, "probe-*")
	if err != nil {
		c.logger.Warn("work dir not writable", slog.String("dir", c.dir), slog.Any("error", err))
		result.Status = healthcheck.StatusError
		result.Summary = fmt.Sprintf("Work directory %q is not writable.", c.dir)
		result.Detail = err.Error()
		return []healthcheck.CheckResult{result}
	}
	_ = os.Remove(probe)

	result.Status = healthcheck.StatusOK
	result.Summary = fmt.Sprintf("Work directory %q is writable.", c.dir)
	return []healthcheck.CheckResult{result}
}
