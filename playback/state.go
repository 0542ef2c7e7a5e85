package playback

import "time"

// StateType represents the playback state.
type StateType int

const (
	// StateStopped means no session is active. Initial state.
	StateStopped StateType = iota
	// StatePlaying means the timeline is advancing and narration runs.
	StatePlaying
	// StatePaused means a session exists but time is frozen. A session
	// whose elapsed time sits at the total duration is finished, which is
	// a sub-case of paused.
	StatePaused
)

// String returns the lowercase state name.
func (s StateType) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Active reports whether a playback session exists.
func (s StateType) Active() bool {
	return s == StatePlaying || s == StatePaused
}

// Status is a point-in-time snapshot of playback, safe to hold across
// controller calls.
type Status struct {
	State      StateType
	SlideIndex int
	Elapsed    time.Duration
	Duration   time.Duration
	Finished   bool
	Narrating  bool
}

// Remaining returns the time left in the presentation.
func (s Status) Remaining() time.Duration {
	if s.Elapsed >= s.Duration {
		return 0
	}
	return s.Duration - s.Elapsed
}

// StateMachine validates playback state transitions and runs registered
// enter/exit hooks. Not safe for concurrent use; the controller serializes
// access under its own lock.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType][]func()
	onExit      map[StateType][]func()
}

// NewStateMachine creates a machine in StateStopped with the playback
// transition table.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateStopped,
		transitions: map[StateType][]StateType{
			StateStopped: {StatePlaying, StatePaused},
			StatePlaying: {StatePaused, StateStopped},
			StatePaused:  {StatePlaying, StateStopped},
		},
		onEnter: make(map[StateType][]func()),
		onExit:  make(map[StateType][]func()),
	}
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// CanTransition reports whether moving to the given state is valid.
func (sm *StateMachine) CanTransition(to StateType) bool {
	for _, allowed := range sm.transitions[sm.current] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to the given state if the transition table allows it,
// running exit hooks for the old state and enter hooks for the new one.
// Returns false and stays put on an invalid transition.
func (sm *StateMachine) Transition(to StateType) bool {
	if !sm.CanTransition(to) {
		return false
	}

	for _, fn := range sm.onExit[sm.current] {
		if fn != nil {
			fn()
		}
	}
	sm.current = to
	for _, fn := range sm.onEnter[to] {
		if fn != nil {
			fn()
		}
	}
	return true
}

// OnEnter registers a hook to run when the machine enters state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = append(sm.onEnter[state], fn)
}

// OnExit registers a hook to run when the machine leaves state.
func (sm *StateMachine) OnExit(state StateType, fn func()) {
	sm.onExit[state] = append(sm.onExit[state], fn)
}
