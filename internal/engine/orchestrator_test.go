package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signal-trader/internal/metrics"
	"signal-trader/internal/types"
)

type funcEngine func(ctx context.Context) (*types.CycleResult, error)

func (f funcEngine) RunCycle(ctx context.Context) (*types.CycleResult, error) { return f(ctx) }

func okCycle(calls *atomic.Int32) funcEngine {
	return func(ctx context.Context) (*types.CycleResult, error) {
		calls.Add(1)
		return &types.CycleResult{CycleID: "c"}, nil
	}
}

var t0 = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

func TestNTicksPlaceNOrders(t *testing.T) {
	b := &mockBroker{}
	b.On("PlaceMarketOrder", mock.Anything, mock.Anything).Return(fillAt("100"), nil)
	d := &stubDecider{actions: []types.Action{types.ActionBuy, types.ActionSell, types.ActionBuy, types.ActionSell}}
	e, l := newTestEngine(t, d, b, &memStore{})

	o := NewOrchestrator(e, Schedule{Interval: 8 * time.Hour}, nil)
	for i := 0; i < 4; i++ {
		ran, err := o.Tick(context.Background(), t0.Add(time.Duration(i)*8*time.Hour))
		require.NoError(t, err)
		assert.True(t, ran)
	}
	b.AssertNumberOfCalls(t, "PlaceMarketOrder", 4)
	assert.Len(t, l.Records(), 4)
	assert.Equal(t, 4, l.Summary().TotalTrades)
}

func TestTickBeforeDueDoesNothing(t *testing.T) {
	var calls atomic.Int32
	o := NewOrchestrator(okCycle(&calls), Schedule{Interval: time.Hour}, nil)

	ran, _ := o.Tick(context.Background(), t0)
	assert.True(t, ran)
	ran, _ = o.Tick(context.Background(), t0.Add(59*time.Minute))
	assert.False(t, ran)
	ran, _ = o.Tick(context.Background(), t0.Add(time.Hour))
	assert.True(t, ran)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, t0.Add(2*time.Hour), o.NextRun())
}

func TestOverlappingTickIsSkipped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	eng := funcEngine(func(ctx context.Context) (*types.CycleResult, error) {
		calls.Add(1)
		close(started)
		<-release
		return &types.CycleResult{}, nil
	})
	m := metrics.New()
	o := NewOrchestrator(eng, Schedule{Interval: time.Hour}, m)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.Tick(context.Background(), t0)
	}()
	<-started
	assert.Equal(t, StateRunning, o.State())

	// a full interval later the first cycle is still in flight
	ran, err := o.Tick(context.Background(), t0.Add(2*time.Hour))
	assert.False(t, ran)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, o.Skipped())

	close(release)
	<-done
	assert.Equal(t, StateIdle, o.State())
	assert.EqualValues(t, 1, calls.Load())
}

func TestFailedCycleDoesNotStopSchedule(t *testing.T) {
	var calls atomic.Int32
	eng := funcEngine(func(ctx context.Context) (*types.CycleResult, error) {
		if calls.Add(1) == 1 {
			return &types.CycleResult{}, errors.New("boom")
		}
		return &types.CycleResult{}, nil
	})
	o := NewOrchestrator(eng, Schedule{Interval: time.Hour}, nil)

	ran, err := o.Tick(context.Background(), t0)
	assert.True(t, ran)
	assert.Error(t, err)
	assert.Equal(t, StateIdle, o.State())

	ran, err = o.Tick(context.Background(), t0.Add(time.Hour))
	assert.True(t, ran)
	assert.NoError(t, err)
}

func TestRunOnStartThenCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	eng := funcEngine(func(context.Context) (*types.CycleResult, error) {
		calls.Add(1)
		cancel()
		return &types.CycleResult{}, nil
	})
	o := NewOrchestrator(eng, Schedule{Interval: time.Hour, PollInterval: 10 * time.Millisecond, RunOnStart: true}, nil)

	err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRunWithoutRunOnStartWaits(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var calls atomic.Int32
	o := NewOrchestrator(okCycle(&calls), Schedule{Interval: time.Hour, PollInterval: 5 * time.Millisecond}, nil)

	err := o.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, calls.Load())
}
