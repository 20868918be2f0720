package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arvindrao/savaari/internal/models"
)

type PassengerRepository interface {
	Add(ctx context.Context, p *models.RidePassenger) error
	ListByRideID(ctx context.Context, rideID string) ([]models.RidePassenger, error)
	SetFare(ctx context.Context, id string, fare float64) error
}

type passengerRepository struct {
	db *sqlx.DB
}

func NewPassengerRepository(db *sqlx.DB) PassengerRepository {
	return &passengerRepository{db: db}
}

func (r *passengerRepository) Add(ctx context.Context, p *models.RidePassenger) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()

	query := `
		INSERT INTO ride_passengers (id, ride_id, user_id, pickup_lat, pickup_lng,
			dropoff_lat, dropoff_lng, fare, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.RideID, p.UserID, p.PickupLat, p.PickupLng,
		p.DropoffLat, p.DropoffLng, p.Fare, p.CreatedAt)
	return err
}

func (r *passengerRepository) ListByRideID(ctx context.Context, rideID string) ([]models.RidePassenger, error) {
	var passengers []models.RidePassenger
	query := `SELECT * FROM ride_passengers WHERE ride_id = $1 ORDER BY created_at`
	err := r.db.SelectContext(ctx, &passengers, query, rideID)
	return passengers, err
}

func (r *passengerRepository) SetFare(ctx context.Context, id string, fare float64) error {
	query := `UPDATE ride_passengers SET fare = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, fare, id)
	return err
}
