package generation

import (
	"context"
	"time"
)

// Poll defaults: one check every 6 seconds for 3 minutes.
const (
	DefaultPollInterval = 6 * time.Second
	DefaultMaxAttempts  = 30
)

// Scheduler suspends between readiness checks. Tests swap in a fake.
type Scheduler interface {
	Wait(ctx context.Context, d time.Duration) error
}

// TimerScheduler waits on a real timer.
type TimerScheduler struct{}

func (TimerScheduler) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CheckFunc looks for the readiness sentinel. (false, nil) means "not yet";
// a non-nil error means the check itself could not run and stops polling.
type CheckFunc func(ctx context.Context) (bool, error)

// Outcome is how a poll ended. State is ready, timed_out or error. When the
// context was cancelled State stays polling and Err holds the context error.
type Outcome struct {
	State    State
	Attempts int
	Err      error
}

// Poller repeats a CheckFunc until it succeeds or the attempt budget runs out.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Scheduler   Scheduler

	// OnAttempt, when set, is called before every check.
	OnAttempt func(attempt int)
}

// NewPoller fills zero values with the defaults.
func NewPoller(interval time.Duration, maxAttempts int, scheduler Scheduler) Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	return Poller{Interval: interval, MaxAttempts: maxAttempts, Scheduler: scheduler}
}

// Await checks immediately, then once per Interval. onReady runs exactly
// once, on the first positive check.
func (p Poller) Await(ctx context.Context, check CheckFunc, onReady func()) Outcome {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if p.OnAttempt != nil {
			p.OnAttempt(attempt)
		}

		found, err := check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{State: StatePolling, Attempts: attempt, Err: ctx.Err()}
			}
			return Outcome{State: StateError, Attempts: attempt, Err: err}
		}
		if found {
			if onReady != nil {
				onReady()
			}
			return Outcome{State: StateReady, Attempts: attempt}
		}

		if attempt == p.MaxAttempts {
			break
		}
		if err := p.Scheduler.Wait(ctx, p.Interval); err != nil {
			return Outcome{State: StatePolling, Attempts: attempt, Err: err}
		}
	}
	return Outcome{State: StateTimedOut, Attempts: p.MaxAttempts}
}
