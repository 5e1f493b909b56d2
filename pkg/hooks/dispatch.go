package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDispatchTimeout bounds a detached task's lifetime.
const DefaultDispatchTimeout = 2 * time.Minute

// Dispatcher runs fire-and-forget tasks off the hook return path.
//
// Each Dispatch returns a completion channel that receives the task's
// terminal error (or nil) exactly once, so tests can await settlement
// instead of observing an unobserved background goroutine. Failures are
// logged, never escalated to the host.
type Dispatcher struct {
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A zero timeout means
// DefaultDispatchTimeout.
func NewDispatcher(logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout == 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Dispatcher{
		logger:  componentLogger(logger, "dispatcher"),
		timeout: timeout,
	}
}

// Dispatch starts fn on its own goroutine with a bounded context, detached
// from the caller's context so the hook can return immediately.
func (d *Dispatcher) Dispatch(name string, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := fn(ctx)
		if err != nil {
			d.logger.Warn("background task failed", "task", name, "error", err)
		}
		done <- err
		close(done)
	}()

	return done
}

// Wait blocks until all dispatched tasks have settled. Intended for tests
// and orderly shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
