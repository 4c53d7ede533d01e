// Package runner executes at most one background job at a time and lets
// callers cancel it.
package runner

import (
	"context"
	"sync"

	"pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
)

// Runner owns the single background worker of a scrape service
type Runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	logger logger.Logger
}

// New creates an idle runner
func New(log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{logger: log}
}

// Launch starts fn in a new goroutine. fn receives a context that is
// cancelled by Stop. Launch fails with errors.ErrBusy while a previous job
// has not returned yet.
func (r *Runner) Launch(fn func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		select {
		case <-r.done:
		default:
			return errors.ErrBusy
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go func() {
		defer close(done)
		defer cancel()

		r.logger.Debug("Worker started")
		fn(ctx)
		r.logger.Debug("Worker finished")
	}()
	return nil
}

// Running reports whether a job is in flight
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Stop cancels the running job. It returns false when nothing is running.
// Stop does not wait; use Wait for that.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
	}
	r.logger.Info("Stopping worker...")
	r.cancel()
	return true
}

// Wait blocks until the current job, if any, has returned
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Shutdown stops the running job and waits for it, giving up when ctx ends
func (r *Runner) Shutdown(ctx context.Context) error {
	r.Stop()
	finished := make(chan struct{})
	go func() {
		r.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
