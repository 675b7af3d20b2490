package tts

import (
	"fmt"
	"sync"
)

// StateType represents the state of a speaking session.
type StateType int

const (
	// StateIdle indicates there is no audio for the current text.
	StateIdle StateType = iota
	// StateGenerating indicates speech is being generated.
	StateGenerating
	// StateReady indicates audio is available and can be played.
	StateReady
	// StatePlaying indicates audio is being played.
	StatePlaying
	// StateError indicates generation or playback failed.
	StateError
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StateMachine guards the transitions of a speaking session.
type StateMachine struct {
	mu          sync.Mutex
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:       {StateGenerating, StateReady},
			StateGenerating: {StateReady, StateError, StateIdle},
			StateReady:      {StatePlaying, StateGenerating, StateIdle},
			StatePlaying:    {StateReady, StateIdle, StateError},
			StateError:      {StateIdle, StateGenerating},
		},
		onEnter: make(map[StateType]func()),
	}
}

// Transition moves to the given state, or returns ErrStateTransition.
func (sm *StateMachine) Transition(to StateType) error {
	sm.mu.Lock()
	from := sm.current
	if !sm.canLocked(to) {
		sm.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrStateTransition, from, to)
	}
	sm.current = to
	enter := sm.onEnter[to]
	sm.mu.Unlock()

	if enter != nil {
		enter()
	}
	return nil
}

// Can reports whether a transition to the given state is allowed.
func (sm *StateMachine) Can(to StateType) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.canLocked(to)
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onEnter[state] = fn
}

func (sm *StateMachine) canLocked(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			return true
		}
	}
	return false
}
