package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/arvindrao/savaari/internal/models"
)

type fakeRideAPI struct {
	mu         sync.Mutex
	ride       *models.RideResponse
	cancelErr  error
	cancelHits int
}

func (f *fakeRideAPI) GetRide(ctx context.Context, rideID string) (*models.RideResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ride == nil {
		return nil, errors.New("ride not found")
	}
	copy := *f.ride
	return &copy, nil
}

func (f *fakeRideAPI) CancelRide(ctx context.Context, rideID, reason string) (*models.RideResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelHits++
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	f.ride.Status = models.RideStatusCancelled
	copy := *f.ride
	return &copy, nil
}

func (f *fakeRideAPI) setStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ride.Status = status
}

func waitForState(t *testing.T, tracker *RideTracker, cond func(RideState) bool) RideState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := tracker.State()
		if cond(state) {
			return state
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached, final state: %+v", tracker.State())
	return RideState{}
}

func statusEvent(rideID, eventType string) models.RideEvent {
	return models.RideEvent{
		Type:      eventType,
		RideID:    rideID,
		Timestamp: time.Now(),
	}
}

func TestTrackerFollowsLifecycle(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusRequested}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusRequested, Callbacks{})
	defer tracker.Close()

	for _, eventType := range []string{
		models.EventRideAccepted,
		models.EventDriverArrived,
		models.EventRideStarted,
		models.EventRideCompleted,
	} {
		tracker.Apply(statusEvent("ride-1", eventType))
	}

	state := waitForState(t, tracker, func(s RideState) bool {
		return s.Confirmed == models.RideStatusCompleted
	})
	if state.Display() != models.RideStatusCompleted {
		t.Errorf("Display() = %s, want %s", state.Display(), models.RideStatusCompleted)
	}
}

func TestTrackerIgnoresStaleEvents(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusRequested}}

	var changes []string
	var mu sync.Mutex
	tracker := NewRideTracker(api, "ride-1", models.RideStatusRequested, Callbacks{
		OnStatusChange: func(s RideState) {
			mu.Lock()
			changes = append(changes, s.Confirmed)
			mu.Unlock()
		},
	})
	defer tracker.Close()

	// A replayed accepted event and an out-of-order regression must both
	// be dropped.
	tracker.Apply(statusEvent("ride-1", models.EventRideAccepted))
	tracker.Apply(statusEvent("ride-1", models.EventRideAccepted))
	tracker.Apply(models.RideEvent{Type: "unknown-event", RideID: "ride-1", Status: models.RideStatusRequested})

	waitForState(t, tracker, func(s RideState) bool {
		return s.Confirmed == models.RideStatusAccepted
	})

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 1 {
		t.Errorf("OnStatusChange fired %d times, want 1 (%v)", len(changes), changes)
	}
}

func TestTrackerIgnoresOtherRides(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusRequested}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusRequested, Callbacks{})
	defer tracker.Close()

	tracker.Apply(statusEvent("ride-2", models.EventRideAccepted))
	tracker.Apply(statusEvent("ride-1", models.EventRideAccepted))

	state := waitForState(t, tracker, func(s RideState) bool {
		return s.Confirmed == models.RideStatusAccepted
	})
	if state.RideID != "ride-1" {
		t.Errorf("RideID = %s, want ride-1", state.RideID)
	}
}

func TestTrackerCancelledAbsorbsFromStarted(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusStarted}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusStarted, Callbacks{})
	defer tracker.Close()

	tracker.Apply(statusEvent("ride-1", models.EventRideCancelled))

	waitForState(t, tracker, func(s RideState) bool {
		return s.Confirmed == models.RideStatusCancelled
	})
}

func TestTrackerTerminalStatusNeverRegresses(t *testing.T) {
	tests := []struct {
		name     string
		terminal string
		event    string
	}{
		{"cancelled after completed", models.RideStatusCompleted, models.EventRideCancelled},
		{"started after completed", models.RideStatusCompleted, models.EventRideStarted},
		{"completed after cancelled", models.RideStatusCancelled, models.EventRideCompleted},
		{"accepted after cancelled", models.RideStatusCancelled, models.EventRideAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: tt.terminal}}

			var fired bool
			var mu sync.Mutex
			tracker := NewRideTracker(api, "ride-1", tt.terminal, Callbacks{
				OnStatusChange: func(RideState) {
					mu.Lock()
					fired = true
					mu.Unlock()
				},
			})
			defer tracker.Close()

			tracker.Apply(statusEvent("ride-1", tt.event))

			time.Sleep(50 * time.Millisecond)
			if got := tracker.State().Confirmed; got != tt.terminal {
				t.Errorf("Confirmed = %s, want %s to stay put", got, tt.terminal)
			}
			mu.Lock()
			defer mu.Unlock()
			if fired {
				t.Error("OnStatusChange fired for an event against a terminal status")
			}
		})
	}
}

func TestTrackerLocationUpdates(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusAccepted}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusAccepted, Callbacks{})
	defer tracker.Close()

	lat, lng := 28.6139, 77.2090
	tracker.Apply(models.RideEvent{
		Type:     models.EventLocationUpdate,
		RideID:   "ride-1",
		DriverID: "driver-7",
		Lat:      &lat,
		Lng:      &lng,
	})

	state := waitForState(t, tracker, func(s RideState) bool {
		return s.Lat != nil
	})
	if *state.Lat != lat || *state.Lng != lng {
		t.Errorf("location = (%v, %v), want (%v, %v)", *state.Lat, *state.Lng, lat, lng)
	}
	if state.DriverID != "driver-7" {
		t.Errorf("DriverID = %s, want driver-7", state.DriverID)
	}
}

func TestTrackerLocationIgnoredAfterTerminal(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusCompleted}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusCompleted, Callbacks{})
	defer tracker.Close()

	lat, lng := 28.6139, 77.2090
	tracker.Apply(models.RideEvent{
		Type:   models.EventLocationUpdate,
		RideID: "ride-1",
		Lat:    &lat,
		Lng:    &lng,
	})

	// Give the loop time to process, then confirm nothing stuck.
	time.Sleep(50 * time.Millisecond)
	if state := tracker.State(); state.Lat != nil {
		t.Errorf("location applied after terminal status: %+v", state)
	}
}

func TestTrackerOptimisticCancelConfirmed(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusAccepted}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusAccepted, Callbacks{})
	defer tracker.Close()

	tracker.CancelOptimistically(context.Background(), "changed plans")

	// The UI flips immediately, before the server answers.
	state := waitForState(t, tracker, func(s RideState) bool {
		return s.Display() == models.RideStatusCancelled
	})
	_ = state

	waitForState(t, tracker, func(s RideState) bool {
		return s.Confirmed == models.RideStatusCancelled && s.Pending == ""
	})
}

func TestTrackerOptimisticCancelRolledBack(t *testing.T) {
	api := &fakeRideAPI{
		ride:      &models.RideResponse{ID: "ride-1", Status: models.RideStatusAccepted},
		cancelErr: &APIError{StatusCode: http.StatusConflict, Code: "ride_not_cancellable"},
	}

	rejected := make(chan error, 1)
	tracker := NewRideTracker(api, "ride-1", models.RideStatusAccepted, Callbacks{
		OnCancelRejected: func(s RideState, err error) {
			select {
			case rejected <- err:
			default:
			}
		},
	})
	defer tracker.Close()

	// The server view moved on to started; cancel arrives too late.
	api.setStatus(models.RideStatusStarted)
	tracker.CancelOptimistically(context.Background(), "changed plans")

	state := waitForState(t, tracker, func(s RideState) bool {
		return s.Pending == "" && s.Confirmed == models.RideStatusStarted
	})
	if state.Display() != models.RideStatusStarted {
		t.Errorf("Display() = %s, want %s after rollback", state.Display(), models.RideStatusStarted)
	}

	select {
	case err := <-rejected:
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsConflict() {
			t.Errorf("OnCancelRejected got %v, want conflict APIError", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnCancelRejected never fired")
	}
}

func TestTrackerCancelIgnoredWhenTerminal(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusCompleted}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusCompleted, Callbacks{})
	defer tracker.Close()

	tracker.CancelOptimistically(context.Background(), "too late")

	time.Sleep(50 * time.Millisecond)
	api.mu.Lock()
	hits := api.cancelHits
	api.mu.Unlock()
	if hits != 0 {
		t.Errorf("CancelRide called %d times on a completed ride, want 0", hits)
	}
}

func TestTrackerResync(t *testing.T) {
	api := &fakeRideAPI{ride: &models.RideResponse{ID: "ride-1", Status: models.RideStatusStarted}}
	tracker := NewRideTracker(api, "ride-1", models.RideStatusRequested, Callbacks{})
	defer tracker.Close()

	tracker.Resync(context.Background())

	waitForState(t, tracker, func(s RideState) bool {
		return s.Confirmed == models.RideStatusStarted
	})
}
