package generation

import (
	"errors"
	"fmt"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
)

// State is the lifecycle position of one generation run.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateDispatched State = "dispatched"
	StatePolling    State = "polling"
	StateReady      State = "ready"
	StateTimedOut   State = "timed_out"
	StateError      State = "error"
)

var ErrInvalidTransition = errors.New("invalid generation state transition")

// Terminal states may start over, which is how a user retries.
var transitions = map[State][]State{
	StateIdle:       {StateProcessing},
	StateProcessing: {StateDispatched, StateError},
	StateDispatched: {StatePolling, StateError},
	StatePolling:    {StateReady, StateTimedOut, StateError},
	StateReady:      {StateProcessing},
	StateTimedOut:   {StateProcessing},
	StateError:      {StateProcessing},
}

var stateMessages = map[State]string{
	StateIdle:       "not sent for generation",
	StateProcessing: "sending request",
	StateDispatched: "request accepted",
	StatePolling:    "waiting for generated content",
	StateReady:      "generation complete",
	StateTimedOut:   "no confirmation yet, check again later",
	StateError:      "generation request failed",
}

// CanTransition reports whether the state machine allows s -> to.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// InFlight reports whether a run in this state is still working.
func (s State) InFlight() bool {
	return s == StateProcessing || s == StateDispatched || s == StatePolling
}

// Message is the human readable description of the state.
func (s State) Message() string { return stateMessages[s] }

// RunStatus is the persisted view of the latest run for a plan.
type RunStatus struct {
	RunID     string      `json:"runId"`
	Tier      domain.Tier `json:"tier"`
	PlanID    string      `json:"planId"`
	State     State       `json:"state"`
	Message   string      `json:"message"`
	Detail    string      `json:"detail,omitempty"`
	Attempts  int         `json:"attempts"`
	Payload   Payload     `json:"payload,omitempty"`
	StartedAt time.Time   `json:"startedAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// NewRunStatus starts a status in the idle state.
func NewRunStatus(runID string, ref domain.PlanRef, now time.Time) RunStatus {
	return RunStatus{
		RunID:     runID,
		Tier:      ref.Tier,
		PlanID:    ref.ID.Hex(),
		State:     StateIdle,
		Message:   StateIdle.Message(),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the status to the next state, rejecting illegal moves.
func (r *RunStatus) Advance(to State, detail string, now time.Time) error {
	if !r.State.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to)
	}
	r.State = to
	r.Message = to.Message()
	r.Detail = detail
	r.UpdatedAt = now
	return nil
}
