package service

import (
	"context"
	"fmt"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

type subscriptionService struct {
	billing ports.BillingRepository
}

// NewSubscriptionService returns a read-only view of account subscriptions.
func NewSubscriptionService(billing ports.BillingRepository) ports.SubscriptionService {
	return &subscriptionService{billing: billing}
}

func (s *subscriptionService) Current(ctx context.Context, accountID string) (*domain.Subscription, error) {
	sub, err := s.billing.FindSubscription(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("current subscription: %w", err)
	}
	return sub, nil
}
