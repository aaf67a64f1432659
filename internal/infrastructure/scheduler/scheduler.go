// Package scheduler runs the background jobs that keep the settlement
// pipeline moving: expired reservation sweeps, earning promotion and
// the nightly COD reconciliation.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalJob is a unit of background work executed on a fixed cadence.
type IntervalJob struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of interval jobs, one goroutine each. Jobs run
// under a per-execution timeout and a panicking job is contained and
// logged rather than taking the process down.
type Runner struct {
	jobs       []IntervalJob
	jobTimeout time.Duration
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRunner creates a runner over the given jobs.
func NewRunner(jobTimeout time.Duration, logger *zap.Logger, jobs ...IntervalJob) *Runner {
	return &Runner{
		jobs:       jobs,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start launches the job loops. Idempotent.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for _, job := range r.jobs {
		if job.Interval <= 0 {
			return fmt.Errorf("job %s has no interval", job.Name)
		}
		r.wg.Add(1)
		go r.runLoop(ctx, job)
		r.logger.Info("background job scheduled",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
	return nil
}

// Stop cancels the loops and waits for in-flight executions to finish,
// bounded by the given context.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background jobs stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) runLoop(ctx context.Context, job IntervalJob) {
	defer r.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job IntervalJob) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("background job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", rec))
		}
	}()

	runCtx := ctx
	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(runCtx); err != nil {
		r.logger.Error("background job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	r.logger.Debug("background job completed",
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(start)))
}
