package assistant

import (
	"sync"
	"time"
)

// State is the assistant's activation state.
type State int

const (
	// StateDormant means the assistant ignores everything except the
	// activation phrase.
	StateDormant State = iota
	// StateActive means heard utterances are dispatched to the pipeline.
	StateActive
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDormant:
		return "dormant"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Session is the in-memory activation state shared between the listen
// loop, the transient pipeline task and the feedback task. Each field is
// written only by the task that owns its transition; every access goes
// through the lock so readers always see a consistent snapshot.
type Session struct {
	mu              sync.Mutex
	state           State
	id              string
	lastActivation  time.Time
	lastInteraction time.Time
	processing      bool
}

// State returns the current activation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID returns the current activation session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Activate transitions to Active, stamps both clocks and adopts the given
// session identifier.
func (s *Session) Activate(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateActive
	s.id = id
	s.lastActivation = now
	s.lastInteraction = now
}

// Touch updates the last interaction time.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInteraction = now
}

// LastInteraction returns the last interaction time.
func (s *Session) LastInteraction() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInteraction
}

// Processing reports whether a pipeline run is in flight.
func (s *Session) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// BeginProcessing marks a pipeline run in flight. It fails if one is
// already running: at most one utterance is processed at a time.
func (s *Session) BeginProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	s.processing = true
	return true
}

// EndProcessing clears the in-flight flag.
func (s *Session) EndProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
}

// TryDeactivate transitions Active→Dormant when the idle threshold has
// elapsed and no pipeline run is in flight. It reports whether the
// transition happened on this call, so the dormancy notice is spoken
// exactly once and not on every polling tick.
func (s *Session) TryDeactivate(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.processing {
		return false
	}
	if now.Sub(s.lastInteraction) <= idle {
		return false
	}
	s.state = StateDormant
	return true
}
