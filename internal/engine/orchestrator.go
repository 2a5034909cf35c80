package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/metrics"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "RUNNING"
	}
	return "IDLE"
}

type Schedule struct {
	Interval     time.Duration
	PollInterval time.Duration
	RunOnStart   bool
}

// Orchestrator fires a cycle whenever the schedule is due. Cycles never overlap: a
// tick that finds one running is dropped and counted, not queued.
type Orchestrator struct {
	engine  interfaces.Engine
	sched   Schedule
	metrics *metrics.Metrics
	now     func() time.Time

	state   atomic.Int32
	skipped atomic.Int64

	mu      sync.Mutex
	nextRun time.Time
}

func NewOrchestrator(engine interfaces.Engine, sched Schedule, m *metrics.Metrics) *Orchestrator {
	if sched.Interval <= 0 {
		sched.Interval = 8 * time.Hour
	}
	if sched.PollInterval <= 0 {
		sched.PollInterval = time.Minute
	}
	return &Orchestrator{engine: engine, sched: sched, metrics: m, now: time.Now}
}

func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Skipped reports how many due ticks were dropped because a cycle was in flight.
func (o *Orchestrator) Skipped() int64 { return o.skipped.Load() }

func (o *Orchestrator) NextRun() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nextRun
}

// Tick runs one cycle synchronously when now has reached the next run time.
// It reports whether a cycle ran and that cycle's error.
func (o *Orchestrator) Tick(ctx context.Context, now time.Time) (bool, error) {
	o.mu.Lock()
	due := !now.Before(o.nextRun)
	o.mu.Unlock()
	if !due {
		return false, nil
	}

	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		o.skipped.Add(1)
		o.metrics.SkipTick()
		logger.Warn(ctx, "Cycle still running, skipping tick", "skipped_total", o.skipped.Load())
		return false, nil
	}
	defer o.state.Store(int32(StateIdle))

	o.mu.Lock()
	o.nextRun = now.Add(o.sched.Interval)
	next := o.nextRun
	o.mu.Unlock()

	res, err := o.engine.RunCycle(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Cycle failed", err, "next_run", next)
		return true, err
	}
	logger.Info(ctx, "Cycle finished", "cycle_id", res.CycleID, "action", res.Decision.Action, "next_run", next)
	return true, nil
}

// Run polls until ctx is cancelled. Cycle errors are logged and never stop the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := o.now()
	if !o.sched.RunOnStart {
		o.mu.Lock()
		o.nextRun = start.Add(o.sched.Interval)
		o.mu.Unlock()
	}
	logger.Info(ctx, "Scheduler started",
		"interval", o.sched.Interval.String(),
		"poll_interval", o.sched.PollInterval.String(),
		"next_run", o.NextRun(),
	)

	_, _ = o.Tick(ctx, start)

	ticker := time.NewTicker(o.sched.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopped", "skipped_ticks", o.skipped.Load())
			return ctx.Err()
		case <-ticker.C:
			_, _ = o.Tick(ctx, o.now())
		}
	}
}
