package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Transitions(t *testing.T) {
	next, err := StateUnknown.Transition(StateMonitored)
	assert.NoError(t, err)
	assert.Equal(t, StateMonitored, next)

	next, err = StateBlocked.Transition(StateExpired)
	assert.NoError(t, err)
	assert.Equal(t, StateExpired, next)

	_, err = StateBlocked.Transition(StateAllowed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.True(t, StateExpired.CanTransition(StateBlocked))
	assert.True(t, StateBlocked.CanTransition(StateBlocked))
	assert.False(t, StateMonitored.CanTransition(StateExpired))
}

func TestStateForAction(t *testing.T) {
	assert.Equal(t, StateBlocked, StateForAction(ActionBlock))
	assert.Equal(t, StateUnderReview, StateForAction(ActionReview))
	assert.Equal(t, StateMonitored, StateForAction(ActionMonitor))
	assert.Equal(t, StateAllowed, StateForAction(ActionAllow))
}
