// Package async runs best-effort side effects (notifications, audit records, event publishing)
// outside the request path. Failures are logged and never reported to the caller.
package async

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of best-effort work.
type Task func(ctx context.Context) error

// Dispatcher runs tasks detached from the caller's cancellation.
type Dispatcher struct {
	logger  *zap.Logger
	timeout time.Duration
	inline  bool

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each task.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// Inline runs tasks synchronously on the calling goroutine. Errors are still swallowed.
func Inline() Option {
	return func(disp *Dispatcher) { disp.inline = true }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: logger, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Go schedules task. name identifies the task in logs.
func (d *Dispatcher) Go(ctx context.Context, name string, task Task) {
	ctx = context.WithoutCancel(ctx)
	if d.inline {
		d.run(ctx, name, task)
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("dispatcher closed, dropping task", zap.String("task", name))
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.run(ctx, name, task)
	}()
}

// Wait stops accepting new tasks and blocks until every scheduled task has finished.
// Used on shutdown; tasks handed to Go afterwards are dropped.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, name string, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("best-effort task panicked", zap.String("task", name), zap.Any("panic", rec))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := task(ctx); err != nil {
		d.logger.Warn("best-effort task failed", zap.String("task", name), zap.Error(err))
	}
}
