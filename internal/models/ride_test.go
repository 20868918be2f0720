package models

import (
	"testing"
)

func TestCanTransitionToHappyPath(t *testing.T) {
	order := []string{
		RideStatusRequested,
		RideStatusAccepted,
		RideStatusDriverArrived,
		RideStatusStarted,
		RideStatusCompleted,
	}

	for i := 0; i < len(order)-1; i++ {
		r := &Ride{Status: order[i]}
		if !r.CanTransitionTo(order[i+1]) {
			t.Errorf("expected %s -> %s to be allowed", order[i], order[i+1])
		}
	}
}

func TestCancelledReachableFromNonTerminal(t *testing.T) {
	for _, status := range []string{RideStatusRequested, RideStatusAccepted, RideStatusDriverArrived, RideStatusStarted} {
		r := &Ride{Status: status}
		if !r.CanTransitionTo(RideStatusCancelled) {
			t.Errorf("expected %s -> cancelled to be allowed", status)
		}
	}
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	all := []string{
		RideStatusRequested, RideStatusAccepted, RideStatusDriverArrived,
		RideStatusStarted, RideStatusCompleted, RideStatusCancelled,
	}

	for _, terminal := range []string{RideStatusCompleted, RideStatusCancelled} {
		r := &Ride{Status: terminal}
		for _, next := range all {
			if r.CanTransitionTo(next) {
				t.Errorf("terminal %s must not transition to %s", terminal, next)
			}
		}
	}
}

func TestNoSkippingStates(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		{RideStatusRequested, RideStatusDriverArrived},
		{RideStatusRequested, RideStatusStarted},
		{RideStatusRequested, RideStatusCompleted},
		{RideStatusAccepted, RideStatusStarted},
		{RideStatusAccepted, RideStatusCompleted},
		{RideStatusDriverArrived, RideStatusCompleted},
		// No regressions either.
		{RideStatusStarted, RideStatusAccepted},
		{RideStatusAccepted, RideStatusRequested},
	}

	for _, tt := range tests {
		r := &Ride{Status: tt.from}
		if r.CanTransitionTo(tt.to) {
			t.Errorf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestIsStaleStatus(t *testing.T) {
	tests := []struct {
		name           string
		held, incoming string
		want           bool
	}{
		{"forward progress is fresh", RideStatusRequested, RideStatusAccepted, false},
		{"replay of current status is stale", RideStatusAccepted, RideStatusAccepted, true},
		{"regression is stale", RideStatusStarted, RideStatusAccepted, true},
		{"cancel outranks started", RideStatusStarted, RideStatusCancelled, false},
		{"unknown incoming is stale", RideStatusRequested, "warp_drive", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStaleStatus(tt.held, tt.incoming); got != tt.want {
				t.Errorf("IsStaleStatus(%s, %s) = %v, want %v", tt.held, tt.incoming, got, tt.want)
			}
		})
	}
}

func TestEventStatusMappingRoundTrip(t *testing.T) {
	for _, status := range []string{
		RideStatusAccepted, RideStatusDriverArrived, RideStatusStarted,
		RideStatusCompleted, RideStatusCancelled,
	} {
		event, ok := EventForStatus(status)
		if !ok {
			t.Fatalf("EventForStatus(%s) not found", status)
		}
		back, ok := StatusForEvent(event)
		if !ok || back != status {
			t.Errorf("StatusForEvent(EventForStatus(%s)) = %s", status, back)
		}
	}

	if _, ok := StatusForEvent(EventLocationUpdate); ok {
		t.Error("location updates must not map to a status")
	}
}
