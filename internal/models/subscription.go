package models

import (
	"time"
)

// Subscription status constants
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

type Subscription struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	PlanName           string    `db:"plan_name" json:"plan_name"`
	DiscountPercentage float64   `db:"discount_percentage" json:"discount_percentage"`
	Status             string    `db:"status" json:"status"`
	StartsAt           time.Time `db:"starts_at" json:"starts_at"`
	ExpiresAt          time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// IsCurrentlyValid reports whether the subscription grants a discount at
// the given instant.
func (s *Subscription) IsCurrentlyValid(now time.Time) bool {
	return s.Status == SubscriptionStatusActive &&
		!now.Before(s.StartsAt) && now.Before(s.ExpiresAt)
}
