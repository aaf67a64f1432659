package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailyTriggerConfig sets when the daily job fires, in the given
// location's wall-clock time.
type DailyTriggerConfig struct {
	Hour          int
	Minute        int
	Location      *time.Location
	CheckInterval time.Duration
}

// DefaultDailyTriggerConfig runs at 2am UTC, checking once a minute.
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		Hour:          2,
		Location:      time.UTC,
		CheckInterval: time.Minute,
	}
}

// DailyTrigger runs one job once per calendar day at a configured time.
// The COD reconciliation generator hangs off this: each night it closes
// out the previous day's collections.
type DailyTrigger struct {
	config DailyTriggerConfig
	name   string
	run    func(ctx context.Context, now time.Time) error
	logger *zap.Logger

	now func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a trigger for the given job. The job receives
// the trigger time and decides which business date to close out.
func NewDailyTrigger(config DailyTriggerConfig, name string, run func(ctx context.Context, now time.Time) error, logger *zap.Logger) *DailyTrigger {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &DailyTrigger{
		config: config,
		name:   name,
		run:    run,
		logger: logger,
		now:    time.Now,
	}
}

// Start starts the trigger loop. Idempotent.
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("daily trigger started",
		zap.String("job", t.name),
		zap.Int("hour", t.config.Hour),
		zap.Int("minute", t.config.Minute),
		zap.String("timezone", t.config.Location.String()))
	return nil
}

// Stop stops the trigger and waits for an in-flight run, bounded by ctx.
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *DailyTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

func (t *DailyTrigger) checkAndTrigger(ctx context.Context) {
	now := t.now().In(t.config.Location)
	currentDate := now.Format("2006-01-02")

	t.mu.Lock()
	alreadyRan := t.lastRunDate == currentDate
	t.mu.Unlock()
	if alreadyRan {
		return
	}

	// Not yet reached today's trigger time
	triggerAt := time.Date(now.Year(), now.Month(), now.Day(),
		t.config.Hour, t.config.Minute, 0, 0, t.config.Location)
	if now.Before(triggerAt) {
		return
	}

	t.mu.Lock()
	t.lastRunDate = currentDate
	t.mu.Unlock()

	t.logger.Info("daily trigger firing", zap.String("job", t.name))
	if err := t.run(ctx, now); err != nil {
		t.logger.Error("daily job failed",
			zap.String("job", t.name),
			zap.Error(err))
	}
}
