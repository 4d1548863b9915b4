package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsRelay/internal/ports"
)

// CronScheduler arms a constant-delay cron entry and disarms it exactly once.
type CronScheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	entry  cron.EntryID
	stop   chan struct{}
	logger cron.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler routes cron's own diagnostics to logger.
func NewCronScheduler(logger *slog.Logger) *CronScheduler {
	cronLogger := cron.DefaultLogger
	if logger != nil {
		cronLogger = cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	}
	return &CronScheduler{logger: cronLogger}
}

// Start fires job every interval until Stop is called or ctx is done.
// The first fire happens one interval after Start; starting an armed scheduler is a no-op.
func (c *CronScheduler) Start(ctx context.Context, every time.Duration, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if every < time.Second {
		return fmt.Errorf("scheduler interval %s is below one second", every)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return nil
	}

	cr := cron.New(
		cron.WithLogger(c.logger),
		cron.WithChain(cron.Recover(c.logger)),
	)
	c.entry = cr.Schedule(cron.Every(every), cron.FuncJob(func() {
		job(time.Now())
	}))
	cr.Start()

	stop := make(chan struct{})
	c.cron = cr
	c.stop = stop

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop(context.Background())
		case <-stop:
		}
	}()

	return nil
}

// Stop disarms the timer; jobs already running are left to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron == nil {
		return nil
	}
	c.cron.Stop()
	close(c.stop)
	c.cron = nil
	c.stop = nil
	return nil
}

// Next reports the next planned fire time while armed.
func (c *CronScheduler) Next() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron == nil {
		return time.Time{}, false
	}
	next := c.cron.Entry(c.entry).Next
	return next, !next.IsZero()
}
