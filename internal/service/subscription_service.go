package service

import (
	"context"
	"time"

	"github.com/arvindrao/savaari/internal/repository"
	"github.com/arvindrao/savaari/internal/subscription"
)

type SubscriptionService interface {
	Validate(ctx context.Context, userID string) (*subscription.Validation, error)
}

type subscriptionService struct {
	subRepo repository.SubscriptionRepository
	now     func() time.Time
}

func NewSubscriptionService(subRepo repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{
		subRepo: subRepo,
		now:     time.Now,
	}
}

// Validate reports the rider's current discount eligibility. A rider with
// no live subscription gets a plain invalid result, not an error.
func (s *subscriptionService) Validate(ctx context.Context, userID string) (*subscription.Validation, error) {
	sub, err := s.subRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.IsCurrentlyValid(s.now()) {
		return &subscription.Validation{IsValid: false}, nil
	}

	pct := sub.DiscountPercentage
	return &subscription.Validation{
		IsValid:            true,
		DiscountPercentage: &pct,
		SubscriptionID:     sub.ID,
		PlanName:           sub.PlanName,
	}, nil
}
