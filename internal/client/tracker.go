package client

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/arvindrao/savaari/internal/models"
)

// RideState is a snapshot of what the tracker believes about the ride.
// Confirmed is what the server has acknowledged; Pending is an optimistic
// local override (today only a cancel) awaiting the server's answer.
type RideState struct {
	RideID    string
	Confirmed string
	Pending   string
	DriverID  string
	Lat       *float64
	Lng       *float64
}

// Display returns the status the UI should show: the optimistic one when
// a local action is awaiting confirmation, the confirmed one otherwise.
func (s RideState) Display() string {
	if s.Pending != "" {
		return s.Pending
	}
	return s.Confirmed
}

// Callbacks fire from the tracker's event loop. Keep them fast; slow
// handlers stall event processing.
type Callbacks struct {
	OnStatusChange   func(state RideState)
	OnLocationUpdate func(state RideState)
	OnCancelRejected func(state RideState, err error)
}

type rideGetter interface {
	GetRide(ctx context.Context, rideID string) (*models.RideResponse, error)
	CancelRide(ctx context.Context, rideID, reason string) (*models.RideResponse, error)
}

// RideTracker holds the rider's view of one ride. All mutation funnels
// through a single event loop goroutine, so callers never race: realtime
// events, cancel requests, and resyncs are commands on one channel.
type RideTracker struct {
	api       rideGetter
	callbacks Callbacks

	commands chan func()
	done     chan struct{}

	mu    sync.RWMutex
	state RideState
}

func NewRideTracker(api rideGetter, rideID, initialStatus string, callbacks Callbacks) *RideTracker {
	t := &RideTracker{
		api:       api,
		callbacks: callbacks,
		commands:  make(chan func(), 32),
		done:      make(chan struct{}),
		state: RideState{
			RideID:    rideID,
			Confirmed: initialStatus,
		},
	}

	go t.loop()

	return t
}

func (t *RideTracker) loop() {
	for cmd := range t.commands {
		cmd()
	}
	close(t.done)
}

// Close stops the event loop. Pending commands still run.
func (t *RideTracker) Close() {
	close(t.commands)
	<-t.done
}

// State returns a copy of the current ride state.
func (t *RideTracker) State() RideState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Apply feeds a realtime event into the tracker. Stale or replayed status
// events are dropped; location updates always apply unless the ride is
// already terminal.
func (t *RideTracker) Apply(event models.RideEvent) {
	t.enqueue(func() { t.apply(event) })
}

func (t *RideTracker) apply(event models.RideEvent) {
	if event.RideID != t.state.RideID {
		return
	}

	if event.Type == models.EventLocationUpdate {
		if models.IsTerminalStatus(t.state.Confirmed) {
			return
		}
		t.mutate(func(s *RideState) {
			if event.DriverID != "" {
				s.DriverID = event.DriverID
			}
			s.Lat = event.Lat
			s.Lng = event.Lng
		})
		if t.callbacks.OnLocationUpdate != nil {
			t.callbacks.OnLocationUpdate(t.state)
		}
		return
	}

	status := event.Status
	if status == "" {
		var ok bool
		status, ok = models.StatusForEvent(event.Type)
		if !ok {
			return
		}
	}

	t.confirmStatus(status, event.DriverID)
}

func (t *RideTracker) confirmStatus(status, driverID string) {
	// A terminal status never changes, not even to cancelled: rank alone
	// would let a late cancelled event overwrite completed.
	if models.IsTerminalStatus(t.state.Confirmed) {
		return
	}
	if models.IsStaleStatus(t.state.Confirmed, status) {
		return
	}

	t.mutate(func(s *RideState) {
		s.Confirmed = status
		if driverID != "" {
			s.DriverID = driverID
		}
		// A confirmation at or past the pending status settles the
		// optimistic override.
		if s.Pending != "" && models.StatusRank(status) >= models.StatusRank(s.Pending) {
			s.Pending = ""
		}
	})

	if t.callbacks.OnStatusChange != nil {
		t.callbacks.OnStatusChange(t.state)
	}
}

// CancelOptimistically flips the displayed status to cancelled right away
// and asks the server to cancel. If the server refuses because the ride
// moved on, the optimistic state rolls back to whatever the server holds
// and OnCancelRejected fires.
func (t *RideTracker) CancelOptimistically(ctx context.Context, reason string) {
	t.enqueue(func() {
		if models.IsTerminalStatus(t.state.Confirmed) {
			return
		}

		t.mutate(func(s *RideState) {
			s.Pending = models.RideStatusCancelled
		})
		if t.callbacks.OnStatusChange != nil {
			t.callbacks.OnStatusChange(t.state)
		}

		go t.sendCancel(ctx, reason)
	})
}

func (t *RideTracker) sendCancel(ctx context.Context, reason string) {
	ride, err := t.api.CancelRide(ctx, t.stateRideID(), reason)
	if err != nil {
		t.enqueue(func() { t.rollbackCancel(ctx, err) })
		return
	}

	t.enqueue(func() { t.confirmStatus(ride.Status, "") })
}

func (t *RideTracker) rollbackCancel(ctx context.Context, cause error) {
	t.mutate(func(s *RideState) {
		s.Pending = ""
	})

	// The refusal means our view was behind; fetch the server's truth.
	var apiErr *APIError
	if errors.As(cause, &apiErr) && apiErr.IsConflict() {
		if ride, err := t.api.GetRide(ctx, t.stateRideID()); err == nil {
			t.confirmStatus(ride.Status, "")
		}
	}

	if t.callbacks.OnCancelRejected != nil {
		t.callbacks.OnCancelRejected(t.state, cause)
	}
}

// Resync fetches the authoritative ride from the server, used after a
// realtime stream drop where events may have been missed.
func (t *RideTracker) Resync(ctx context.Context) {
	ride, err := t.api.GetRide(ctx, t.stateRideID())
	if err != nil {
		log.Printf("tracker resync failed for ride %s: %v", t.stateRideID(), err)
		return
	}
	t.enqueue(func() { t.confirmStatus(ride.Status, "") })
}

func (t *RideTracker) stateRideID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.RideID
}

func (t *RideTracker) mutate(fn func(*RideState)) {
	t.mu.Lock()
	fn(&t.state)
	t.mu.Unlock()
}

func (t *RideTracker) enqueue(cmd func()) {
	defer func() {
		// A command sent after Close is dropped.
		recover()
	}()
	select {
	case t.commands <- cmd:
	case <-t.done:
	}
}
