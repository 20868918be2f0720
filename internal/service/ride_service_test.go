package service

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/arvindrao/savaari/internal/errors"
	"github.com/arvindrao/savaari/internal/models"
)

type stubRideRepo struct {
	ride      *models.Ride
	statuses  []string // optional per-GetByID status sequence
	cancelErr error
}

func (r *stubRideRepo) Create(ctx context.Context, ride *models.Ride) error { return nil }

func (r *stubRideRepo) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	if r.ride == nil {
		return nil, nil
	}
	ride := *r.ride
	if len(r.statuses) > 0 {
		ride.Status = r.statuses[0]
		r.statuses = r.statuses[1:]
	}
	return &ride, nil
}

func (r *stubRideRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Ride, error) {
	return nil, nil
}

func (r *stubRideRepo) UpdateStatus(ctx context.Context, id, status string) error { return nil }

func (r *stubRideRepo) AssignDriver(ctx context.Context, rideID, driverID string) error { return nil }

func (r *stubRideRepo) Cancel(ctx context.Context, id, cancelledBy, reason string) error {
	if r.cancelErr != nil {
		return r.cancelErr
	}
	r.ride.Status = models.RideStatusCancelled
	return nil
}

func (r *stubRideRepo) GetActiveRideByUserID(ctx context.Context, userID string) (*models.Ride, error) {
	return nil, nil
}

func TestCancelRideRejectsNonCancellableStatus(t *testing.T) {
	repo := &stubRideRepo{ride: &models.Ride{ID: "ride-1", Status: models.RideStatusCompleted}}
	svc := NewRideService(repo, nil, nil, nil, nil, nil, nil)

	_, err := svc.CancelRide(context.Background(), "ride-1", &models.CancelRideRequest{CancelledBy: "rider"})

	apiErr, ok := err.(*apperrors.APIError)
	if !ok {
		t.Fatalf("CancelRide() error = %v, want *APIError", err)
	}
	if apiErr.Code != "ride_not_cancellable" {
		t.Errorf("Code = %s, want ride_not_cancellable", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, models.RideStatusCompleted) {
		t.Errorf("Message = %q, want it to name the status %s", apiErr.Message, models.RideStatusCompleted)
	}
}

func TestCancelRideLostRaceSurfacesCurrentStatus(t *testing.T) {
	// The fetched row still says started, but by the time the guarded
	// UPDATE runs the ride has completed; the re-fetch sees that.
	repo := &stubRideRepo{
		ride:      &models.Ride{ID: "ride-1"},
		statuses:  []string{models.RideStatusStarted, models.RideStatusCompleted},
		cancelErr: apperrors.ErrRideNotCancellable,
	}
	svc := NewRideService(repo, nil, nil, nil, nil, nil, nil)

	_, err := svc.CancelRide(context.Background(), "ride-1", &models.CancelRideRequest{CancelledBy: "rider"})

	apiErr, ok := err.(*apperrors.APIError)
	if !ok {
		t.Fatalf("CancelRide() error = %v, want *APIError", err)
	}
	if apiErr.Code != "ride_not_cancellable" {
		t.Errorf("Code = %s, want ride_not_cancellable", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, models.RideStatusCompleted) {
		t.Errorf("Message = %q, want it to name the current status %s", apiErr.Message, models.RideStatusCompleted)
	}
}
