package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/arvindrao/savaari/internal/errors"
	"github.com/arvindrao/savaari/internal/models"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id string) (*models.Ride, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Ride, error)
	UpdateStatus(ctx context.Context, id, status string) error
	AssignDriver(ctx context.Context, rideID, driverID string) error
	Cancel(ctx context.Context, id, cancelledBy, reason string) error
	GetActiveRideByUserID(ctx context.Context, userID string) (*models.Ride, error)
}

type rideRepository struct {
	db *sqlx.DB
}

func NewRideRepository(db *sqlx.DB) RideRepository {
	return &rideRepository{db: db}
}

// statusTimestampColumn maps each lifecycle status to the column recording
// when it was reached.
var statusTimestampColumn = map[string]string{
	models.RideStatusAccepted:      "accepted_at",
	models.RideStatusDriverArrived: "arrived_at",
	models.RideStatusStarted:       "started_at",
	models.RideStatusCompleted:     "completed_at",
	models.RideStatusCancelled:     "cancelled_at",
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID == "" {
		ride.ID = uuid.New().String()
	}
	now := time.Now()
	ride.Status = models.RideStatusRequested
	ride.PaymentStatus = models.PaymentStatusPending
	ride.RequestedAt = now
	ride.CreatedAt = now
	ride.UpdatedAt = now

	query := `
		INSERT INTO rides (id, user_id, pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address, city, vehicle_type, ride_mode,
			seat_count, status, estimated_fare, discount_amount, total_fare,
			estimated_distance_km, estimated_duration_mins, payment_method,
			payment_status, idempotency_key, requested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err := r.db.ExecContext(ctx, query,
		ride.ID, ride.UserID, ride.PickupLat, ride.PickupLng, ride.PickupAddress,
		ride.DropoffLat, ride.DropoffLng, ride.DropoffAddress, ride.City, ride.VehicleType,
		ride.RideMode, ride.SeatCount, ride.Status, ride.EstimatedFare, ride.DiscountAmount,
		ride.TotalFare, ride.EstimatedDistance, ride.EstimatedDuration, ride.PaymentMethod,
		ride.PaymentStatus, ride.IdempotencyKey, ride.RequestedAt, ride.CreatedAt, ride.UpdatedAt)
	return err
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	query := `SELECT * FROM rides WHERE id = $1`
	err := r.db.GetContext(ctx, &ride, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &ride, err
}

func (r *rideRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Ride, error) {
	var ride models.Ride
	query := `SELECT * FROM rides WHERE idempotency_key = $1`
	err := r.db.GetContext(ctx, &ride, query, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &ride, err
}

func (r *rideRepository) UpdateStatus(ctx context.Context, id, status string) error {
	col, ok := statusTimestampColumn[status]
	if !ok {
		query := `UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3`
		_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
		return err
	}

	query := fmt.Sprintf(`UPDATE rides SET status = $1, %s = $2, updated_at = $2 WHERE id = $3`, col)
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

func (r *rideRepository) AssignDriver(ctx context.Context, rideID, driverID string) error {
	now := time.Now()
	query := `UPDATE rides SET driver_id = $1, status = $2, accepted_at = $3, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, driverID, models.RideStatusAccepted, now, rideID)
	return err
}

// Cancel marks a ride cancelled. The status guard is in the UPDATE itself
// so a cancel racing a completion cannot overwrite the terminal row;
// ErrRideNotCancellable signals the ride was already terminal.
func (r *rideRepository) Cancel(ctx context.Context, id, cancelledBy, reason string) error {
	now := time.Now()
	query := `
		UPDATE rides
		SET status = $1, cancelled_by = $2, cancellation_reason = $3, cancelled_at = $4, updated_at = $4
		WHERE id = $5 AND status NOT IN ($6, $7)
	`
	result, err := r.db.ExecContext(ctx, query,
		models.RideStatusCancelled, cancelledBy, reason, now, id,
		models.RideStatusCompleted, models.RideStatusCancelled)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrRideNotCancellable
	}
	return nil
}

func (r *rideRepository) GetActiveRideByUserID(ctx context.Context, userID string) (*models.Ride, error) {
	var ride models.Ride
	query := `
		SELECT * FROM rides
		WHERE user_id = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &ride, query, userID, models.RideStatusCompleted, models.RideStatusCancelled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &ride, err
}
