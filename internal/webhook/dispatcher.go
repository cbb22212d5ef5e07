package webhook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/memohai/mediaconv/internal/media"
)

const (
	DefaultMaxConcurrent = 4
	DefaultJobTimeout    = 5 * time.Minute
)

// ErrDispatcherClosed is returned once shutdown has started.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// UpdateHandler processes one accepted update to completion.
type UpdateHandler interface {
	Handle(ctx context.Context, update media.InboundUpdate)
}

// Dispatcher runs accepted updates in the background with a concurrency cap.
// Runs are detached from the HTTP request and bounded by the job timeout.
// Shutdown cancels every queued and running update; the handler is still
// called for queued ones so each accepted update gets its reply.
type Dispatcher struct {
	logger     *slog.Logger
	handler    UpdateHandler
	sem        *semaphore.Weighted
	jobTimeout time.Duration

	stopCtx context.Context
	stop    context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(log *slog.Logger, handler UpdateHandler, maxConcurrent int64, jobTimeout time.Duration) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	stopCtx, stop := context.WithCancel(context.Background())
	return &Dispatcher{
		logger:     log.With(slog.String("component", "dispatcher")),
		handler:    handler,
		sem:        semaphore.NewWeighted(maxConcurrent),
		jobTimeout: jobTimeout,
		stopCtx:    stopCtx,
		stop:       stop,
	}
}

// Dispatch schedules update and returns immediately. ctx is only used for its
// values; cancellation of the caller does not stop the run.
func (d *Dispatcher) Dispatch(ctx context.Context, update media.InboundUpdate) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	jobCtx, cancelJob := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		defer d.wg.Done()
		defer cancelJob()
		unlink := context.AfterFunc(d.stopCtx, cancelJob)
		defer unlink()

		if err := d.sem.Acquire(jobCtx, 1); err != nil {
			// Shutting down while queued: the handler answers without converting.
			d.logger.Warn("update canceled before start", slog.Int("update_id", update.UpdateID), slog.Any("error", err))
			d.handler.Handle(jobCtx, update)
			return
		}
		defer d.sem.Release(1)

		runCtx, cancel := context.WithTimeout(jobCtx, d.jobTimeout)
		defer cancel()
		d.handler.Handle(runCtx, update)
	}()
	return nil
}

// Shutdown stops accepting updates, cancels the ones in flight and waits for
// their replies until ctx ends.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.stop()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.logger.Info("dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher shutdown timed out", slog.Any("error", ctx.Err()))
		return ctx.Err()
	}
}
