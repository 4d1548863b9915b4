package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// Runner performs a single run.
type Runner interface {
	Run(ctx context.Context, cfg domain.AgentConfig, trigger domain.Trigger) domain.RunResult
}

var _ Runner = (*Pipeline)(nil)

// AgentDeps wires the pipeline with the timer driver and the activity log.
type AgentDeps struct {
	Runner   Runner
	Driver   ports.Scheduler
	Activity ports.ActivityLog
	Logger   *slog.Logger
}

// Agent is the scheduler state machine (Idle or Running). Runs never overlap:
// a trigger arriving during a run is queued, and queued triggers coalesce into
// at most one pending run.
type Agent struct {
	runner   Runner
	driver   ports.Scheduler
	activity ports.ActivityLog
	logger   *slog.Logger

	// ctl serializes Start and Stop so the timer is armed and disarmed in order.
	ctl sync.Mutex

	mu      sync.Mutex
	state   domain.AgentState
	cfg     domain.AgentConfig
	busy    bool
	idle    chan struct{}
	pending *pendingRun
	lastRun *domain.RunResult
}

type pendingRun struct {
	cfg     domain.AgentConfig
	trigger domain.Trigger
	waiters []chan domain.RunResult
}

// NewAgent builds an idle agent.
func NewAgent(deps AgentDeps) *Agent {
	return &Agent{
		runner:   deps.Runner,
		driver:   deps.Driver,
		activity: deps.Activity,
		logger:   deps.Logger,
		state:    domain.StateIdle,
	}
}

// Start validates the credentials, runs once immediately and arms the timer.
// It is only valid from Idle.
func (a *Agent) Start(ctx context.Context, cfg domain.AgentConfig) error {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		a.record(domain.LevelError, "Veuillez remplir tous les champs")
		return err
	}

	a.ctl.Lock()
	defer a.ctl.Unlock()

	a.mu.Lock()
	if a.state == domain.StateRunning {
		a.mu.Unlock()
		return domain.ErrAgentRunning
	}
	a.state = domain.StateRunning
	a.cfg = cfg
	a.mu.Unlock()

	a.record(domain.LevelSuccess, "🤖 Agent démarré")

	// The agent outlives the request that started it; Stop ends the schedule.
	bg := context.WithoutCancel(ctx)
	a.submit(bg, cfg, domain.TriggerStart, nil)

	if a.driver == nil {
		return nil
	}
	if err := a.driver.Start(bg, cfg.Interval(), a.onTick(bg)); err != nil {
		a.mu.Lock()
		a.state = domain.StateIdle
		a.mu.Unlock()
		a.record(domain.LevelError, "Agent arrêté: "+err.Error())
		return fmt.Errorf("arm scheduler: %w", err)
	}

	a.info("agent started", "category", cfg.Category, "interval", cfg.Interval())
	return nil
}

// Stop disarms the timer and returns to Idle. A run in flight completes;
// a queued run requested only by the timer is dropped. Stop on an idle agent is a no-op.
func (a *Agent) Stop(ctx context.Context) error {
	a.ctl.Lock()
	defer a.ctl.Unlock()

	a.mu.Lock()
	if a.state != domain.StateRunning {
		a.mu.Unlock()
		return nil
	}
	a.state = domain.StateIdle
	if a.pending != nil && len(a.pending.waiters) == 0 {
		a.pending = nil
	}
	a.mu.Unlock()

	var err error
	if a.driver != nil {
		if stopErr := a.driver.Stop(ctx); stopErr != nil {
			err = fmt.Errorf("disarm scheduler: %w", stopErr)
		}
	}

	a.record(domain.LevelInfo, "Agent arrêté")
	a.info("agent stopped")
	return err
}

// RunOnce performs one run with cfg in either state and waits for its result.
// The schedule is left untouched. Run failures are reported in the result;
// the returned error is a ConfigError or the caller's context error.
func (a *Agent) RunOnce(ctx context.Context, cfg domain.AgentConfig) (domain.RunResult, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		a.record(domain.LevelError, "Veuillez remplir tous les champs")
		return domain.RunResult{}, err
	}

	done := make(chan domain.RunResult, 1)
	a.submit(context.WithoutCancel(ctx), cfg, domain.TriggerManual, done)

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return domain.RunResult{}, ctx.Err()
	}
}

// Status returns a snapshot of the agent.
func (a *Agent) Status() domain.AgentStatus {
	a.mu.Lock()
	status := domain.AgentStatus{
		State:   a.state,
		Busy:    a.busy,
		Pending: a.pending != nil,
		Config:  a.cfg.Redacted(),
	}
	if a.lastRun != nil {
		last := *a.lastRun
		status.LastRun = &last
	}
	running := a.state == domain.StateRunning
	a.mu.Unlock()

	if running && a.driver != nil {
		if next, ok := a.driver.Next(); ok {
			status.NextRunAt = &next
		}
	}
	return status
}

// Wait blocks until no run is in flight or ctx is done.
func (a *Agent) Wait(ctx context.Context) error {
	a.mu.Lock()
	if !a.busy {
		a.mu.Unlock()
		return nil
	}
	idle := a.idle
	a.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Agent) onTick(ctx context.Context) func(time.Time) {
	return func(time.Time) {
		a.mu.Lock()
		if a.state != domain.StateRunning {
			a.mu.Unlock()
			return
		}
		cfg := a.cfg
		a.mu.Unlock()

		a.submit(ctx, cfg, domain.TriggerTimer, nil)
	}
}

// submit starts a run, or queues it behind the one in flight.
func (a *Agent) submit(ctx context.Context, cfg domain.AgentConfig, trigger domain.Trigger, waiter chan domain.RunResult) {
	a.mu.Lock()
	if a.busy {
		if a.pending == nil {
			a.pending = &pendingRun{cfg: cfg, trigger: trigger}
		} else if waiter != nil || len(a.pending.waiters) == 0 {
			// a manual request keeps its own config over a later timer fire
			a.pending.cfg = cfg
			a.pending.trigger = trigger
		}
		if waiter != nil {
			a.pending.waiters = append(a.pending.waiters, waiter)
		}
		a.mu.Unlock()
		a.debug("run queued", "trigger", trigger)
		return
	}

	a.busy = true
	a.idle = make(chan struct{})
	a.mu.Unlock()

	run := &pendingRun{cfg: cfg, trigger: trigger}
	if waiter != nil {
		run.waiters = append(run.waiters, waiter)
	}
	go a.drain(ctx, run)
}

// drain executes run, then any run queued meanwhile, until the queue is empty.
func (a *Agent) drain(ctx context.Context, run *pendingRun) {
	for run != nil {
		result := a.execute(ctx, run)

		a.mu.Lock()
		a.lastRun = &result
		next := a.pending
		a.pending = nil
		if next == nil {
			a.busy = false
			close(a.idle)
		}
		a.mu.Unlock()

		for _, waiter := range run.waiters {
			waiter <- result
		}
		run = next
	}
}

func (a *Agent) execute(ctx context.Context, run *pendingRun) (result domain.RunResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = domain.RunResult{
				Trigger:    run.trigger,
				StartedAt:  started,
				FinishedAt: time.Now(),
				Err:        fmt.Errorf("run panicked: %v", r),
			}
			a.record(domain.LevelError, result.Err.Error())
		}
	}()

	if a.runner == nil {
		return domain.RunResult{Trigger: run.trigger, StartedAt: started, FinishedAt: started}
	}
	return a.runner.Run(ctx, run.cfg, run.trigger)
}

func (a *Agent) record(level domain.LogLevel, message string) {
	if a.activity != nil {
		a.activity.Append(level, message)
	}
}

func (a *Agent) info(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Agent) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
