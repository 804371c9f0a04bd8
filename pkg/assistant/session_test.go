package assistant

import (
	"testing"
	"time"
)

func TestSessionActivate(t *testing.T) {
	s := &Session{}
	if s.State() != StateDormant {
		t.Fatal("new session must be dormant")
	}

	now := time.Now()
	s.Activate("sess-1", now)
	if s.State() != StateActive {
		t.Fatal("expected active after Activate")
	}
	if s.ID() != "sess-1" {
		t.Fatalf("ID = %q", s.ID())
	}
	if !s.LastInteraction().Equal(now) {
		t.Fatal("LastInteraction not stamped")
	}
}

func TestSessionSingleFlight(t *testing.T) {
	s := &Session{}
	if !s.BeginProcessing() {
		t.Fatal("first BeginProcessing = false")
	}
	if s.BeginProcessing() {
		t.Fatal("second BeginProcessing must fail while in flight")
	}
	s.EndProcessing()
	if !s.BeginProcessing() {
		t.Fatal("BeginProcessing after EndProcessing = false")
	}
}

func TestSessionTryDeactivate(t *testing.T) {
	s := &Session{}
	now := time.Now()
	s.Activate("sess-1", now)

	// Not idle long enough.
	if s.TryDeactivate(now.Add(time.Second), 2*time.Second) {
		t.Fatal("deactivated before idle threshold")
	}

	// Idle, but a pipeline run is in flight.
	s.BeginProcessing()
	if s.TryDeactivate(now.Add(time.Minute), 2*time.Second) {
		t.Fatal("deactivated while processing")
	}
	s.EndProcessing()

	// Now it must transition, exactly once.
	if !s.TryDeactivate(now.Add(time.Minute), 2*time.Second) {
		t.Fatal("expected deactivation")
	}
	if s.State() != StateDormant {
		t.Fatal("state is not dormant after deactivation")
	}
	if s.TryDeactivate(now.Add(2*time.Minute), 2*time.Second) {
		t.Fatal("deactivation fired twice")
	}
}
