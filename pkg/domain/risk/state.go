package risk

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of an IP.
type State string

const (
	StateUnknown     State = "unknown"
	StateAllowed     State = "allowed"
	StateMonitored   State = "monitored"
	StateUnderReview State = "under_review"
	StateBlocked     State = "blocked"
	StateExpired     State = "expired"
	StateUnblocked   State = "unblocked"
)

var ErrInvalidTransition = errors.New("invalid state transition")

var analysisOutcomes = []State{StateAllowed, StateMonitored, StateUnderReview, StateBlocked}

var transitions = map[State][]State{
	StateUnknown:     analysisOutcomes,
	StateAllowed:     analysisOutcomes,
	StateMonitored:   analysisOutcomes,
	StateUnderReview: analysisOutcomes,
	StateExpired:     analysisOutcomes,
	StateUnblocked:   analysisOutcomes,
	// a blocked IP only leaves through expiry or an explicit unblock; a
	// re-block overwrites the active record
	StateBlocked: {StateBlocked, StateExpired, StateUnblocked},
}

func (s State) CanTransition(to State) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s State) Transition(to State) (State, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return to, nil
}

func StateForAction(a Action) State {
	switch a {
	case ActionBlock:
		return StateBlocked
	case ActionReview:
		return StateUnderReview
	case ActionMonitor:
		return StateMonitored
	default:
		return StateAllowed
	}
}
