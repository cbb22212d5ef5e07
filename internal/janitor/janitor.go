// Package janitor periodically removes scratch directories left behind by
// crashed runs and expires webhook dedup entries.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/memohai/mediaconv/internal/pipeline"
)

// Pruner drops expired in-memory entries and reports how many were removed.
type Pruner interface {
	Prune() int
}

// Config controls what is swept and when.
type Config struct {
	WorkDir string
	// Schedule is a cron expression or descriptor such as "@every 5m".
	Schedule string
	// MaxAge must exceed the longest possible run, otherwise live jobs are removed.
	MaxAge time.Duration
}

// Janitor sweeps the work directory on a cron schedule.
type Janitor struct {
	logger  *slog.Logger
	workDir string
	prefix  string
	maxAge  time.Duration
	pruner  Pruner
	cron    *cronlib.Cron
	now     func() time.Time
}

// New validates the schedule and registers the sweep job. pruner may be nil.
func New(log *slog.Logger, cfg Config, pruner Pruner) (*Janitor, error) {
	if log == nil {
		log = slog.Default()
	}
	workDir := strings.TrimSpace(cfg.WorkDir)
	if workDir == "" {
		return nil, errors.New("janitor: work dir is required")
	}
	if cfg.MaxAge <= 0 {
		return nil, errors.New("janitor: max age must be positive")
	}
	logger := log.With(slog.String("component", "janitor"))
	parser := cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor)
	schedule, err := parser.Parse(strings.TrimSpace(cfg.Schedule))
	if err != nil {
		return nil, fmt.Errorf("janitor: parse schedule %q: %w", cfg.Schedule, err)
	}

	j := &Janitor{
		logger:  logger,
		workDir: workDir,
		prefix:  strings.TrimSuffix(pipeline.JobDirPattern, "*"),
		maxAge:  cfg.MaxAge,
		pruner:  pruner,
		now:     time.Now,
	}
	cl := cronLogger{log: logger}
	j.cron = cronlib.New(
		cronlib.WithParser(parser),
		cronlib.WithLogger(cl),
		cronlib.WithChain(cronlib.Recover(cl), cronlib.SkipIfStillRunning(cl)),
	)
	j.cron.Schedule(schedule, cronlib.FuncJob(j.run))
	return j, nil
}

// Start runs the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("janitor started", slog.String("work_dir", j.workDir), slog.Duration("max_age", j.maxAge))
}

// Stop halts the schedule and waits for a running sweep until ctx ends.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Janitor) run() {
	removed, err := j.Sweep()
	if err != nil {
		j.logger.Warn("sweep failed", slog.Any("error", err))
	}
	pruned := 0
	if j.pruner != nil {
		pruned = j.pruner.Prune()
	}
	if removed > 0 || pruned > 0 {
		j.logger.Info("sweep done", slog.Int("removed_dirs", removed), slog.Int("pruned_updates", pruned))
	}
}

// Sweep removes job directories older than MaxAge and returns how many were removed.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.workDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read work dir: %w", err)
	}
	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), j.prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.workDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			continue
		}
		j.logger.Debug("removed stale job dir", slog.String("dir", path), slog.Time("modified", info.ModTime()))
		removed++
	}
	return removed, errors.Join(errs...)
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
