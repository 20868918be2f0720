package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arvindrao/savaari/internal/models"
)

type DriverRepository interface {
	GetByID(ctx context.Context, id string) (*models.Driver, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateLocation(ctx context.Context, id string, lat, lng float64) error
}

type driverRepository struct {
	db *sqlx.DB
}

func NewDriverRepository(db *sqlx.DB) DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) GetByID(ctx context.Context, id string) (*models.Driver, error) {
	var driver models.Driver
	query := `SELECT * FROM drivers WHERE id = $1`
	err := r.db.GetContext(ctx, &driver, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &driver, err
}

func (r *driverRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE drivers SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

func (r *driverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	query := `UPDATE drivers SET current_lat = $1, current_lng = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, lat, lng, time.Now(), id)
	return err
}
