package generation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler records waits instead of sleeping and runs an optional hook
// after each one, which is where tests change the world between checks.
type fakeScheduler struct {
	waits  []time.Duration
	onWait func(n int)
}

func (f *fakeScheduler) Wait(ctx context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	if f.onWait != nil {
		f.onWait(len(f.waits))
	}
	return ctx.Err()
}

func TestPollerReadyOnFirstPositiveCheck(t *testing.T) {
	sched := &fakeScheduler{}
	found := false
	sched.onWait = func(n int) {
		if n == 2 {
			found = true
		}
	}
	p := generation.NewPoller(6*time.Second, 30, sched)

	calls := 0
	out := p.Await(context.Background(),
		func(context.Context) (bool, error) { return found, nil },
		func() { calls++ },
	)

	assert.Equal(t, generation.StateReady, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []time.Duration{6 * time.Second, 6 * time.Second}, sched.waits)
}

func TestPollerChecksBeforeWaiting(t *testing.T) {
	sched := &fakeScheduler{}
	p := generation.NewPoller(time.Second, 5, sched)

	out := p.Await(context.Background(), func(context.Context) (bool, error) { return true, nil }, nil)

	assert.Equal(t, generation.StateReady, out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.Empty(t, sched.waits)
}

func TestPollerTimesOut(t *testing.T) {
	sched := &fakeScheduler{}
	p := generation.NewPoller(time.Second, 4, sched)

	called := false
	out := p.Await(context.Background(), func(context.Context) (bool, error) { return false, nil }, func() { called = true })

	assert.Equal(t, generation.StateTimedOut, out.State)
	assert.Equal(t, 4, out.Attempts)
	assert.NoError(t, out.Err)
	assert.False(t, called)
	// No wait after the final check.
	assert.Len(t, sched.waits, 3)
}

func TestPollerStopsOnCheckError(t *testing.T) {
	sched := &fakeScheduler{}
	p := generation.NewPoller(time.Second, 10, sched)
	storeDown := errors.New("connection refused")

	attempts := 0
	out := p.Await(context.Background(), func(context.Context) (bool, error) {
		attempts++
		if attempts == 2 {
			return false, storeDown
		}
		return false, nil
	}, nil)

	assert.Equal(t, generation.StateError, out.State)
	assert.Equal(t, 2, out.Attempts)
	assert.ErrorIs(t, out.Err, storeDown)
}

func TestPollerAbandonedOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := &fakeScheduler{onWait: func(int) { cancel() }}
	p := generation.NewPoller(time.Second, 10, sched)

	out := p.Await(ctx, func(context.Context) (bool, error) { return false, nil }, nil)

	assert.Equal(t, generation.StatePolling, out.State)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestRunStatusTransitions(t *testing.T) {
	now := time.Now()
	status := generation.RunStatus{State: generation.StateIdle}

	require.NoError(t, status.Advance(generation.StateProcessing, "", now))
	require.NoError(t, status.Advance(generation.StateDispatched, "", now))
	require.NoError(t, status.Advance(generation.StatePolling, "", now))
	require.NoError(t, status.Advance(generation.StateTimedOut, "", now))
	assert.Equal(t, "no confirmation yet, check again later", status.Message)

	// A finished run can be started again, but cannot jump straight to ready.
	assert.ErrorIs(t, status.Advance(generation.StateReady, "", now), generation.ErrInvalidTransition)
	require.NoError(t, status.Advance(generation.StateProcessing, "", now))
	require.NoError(t, status.Advance(generation.StateError, "boom", now))
	assert.Equal(t, "boom", status.Detail)

	assert.True(t, generation.StatePolling.InFlight())
	assert.False(t, generation.StateTimedOut.InFlight())
}
