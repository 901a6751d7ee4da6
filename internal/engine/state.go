package engine

import "fmt"

// State is the lifecycle position of a run.
type State string

const (
	StateIdle       State = "idle"
	StateScheduling State = "scheduling"
	StateRunning    State = "running"
	StateAggregated State = "aggregated"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	StateIdle:       {StateScheduling},
	StateScheduling: {StateRunning, StateFailed},
	StateRunning:    {StateAggregated},
	StateAggregated: {StateCompleted, StateFailed},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether from → to is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// stateMachine tracks one run's state and the path it took.
type stateMachine struct {
	current State
	history []State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateIdle, history: []State{StateIdle}}
}

func (m *stateMachine) advance(to State) error {
	if !CanTransition(m.current, to) {
		return fmt.Errorf("illegal state transition %s → %s", m.current, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}
