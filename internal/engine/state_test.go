package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateScheduling, true},
		{StateScheduling, StateRunning, true},
		{StateScheduling, StateFailed, true},
		{StateRunning, StateAggregated, true},
		{StateAggregated, StateCompleted, true},
		{StateAggregated, StateFailed, true},
		{StateIdle, StateRunning, false},
		{StateRunning, StateCompleted, false},
		{StateCompleted, StateFailed, false},
		{StateFailed, StateScheduling, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"→"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRunning.Terminal())
}

func TestStateMachine_RejectsIllegalTransition(t *testing.T) {
	sm := newStateMachine()

	assert.Error(t, sm.advance(StateCompleted))
	assert.NoError(t, sm.advance(StateScheduling))
	assert.Equal(t, []State{StateIdle, StateScheduling}, sm.history)
}
