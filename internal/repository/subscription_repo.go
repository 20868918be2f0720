package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/arvindrao/savaari/internal/models"
)

type SubscriptionRepository interface {
	GetActiveByUserID(ctx context.Context, userID string) (*models.Subscription, error)
}

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetActiveByUserID fetches the newest active subscription for the user.
// Validity against the clock is the service's concern, not the query's.
func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE user_id = $1 AND status = $2
		ORDER BY expires_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &sub, query, userID, models.SubscriptionStatusActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &sub, err
}
