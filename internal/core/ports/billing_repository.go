package ports

import (
	"context"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// BillingRepository persists subscriptions and settled payments.
type BillingRepository interface {
	UpsertSubscription(ctx context.Context, sub *domain.Subscription) error
	// InsertPayment is idempotent on the payment's event id.
	InsertPayment(ctx context.Context, p *domain.Payment) error
	// FindSubscription returns domain.ErrSubscriptionNotFound when the account
	// never subscribed.
	FindSubscription(ctx context.Context, accountID string) (*domain.Subscription, error)
	FindSubscriptionByProviderRef(ctx context.Context, ref string) (*domain.Subscription, error)
}

// EventDeduplicator remembers which webhook events were already applied.
type EventDeduplicator interface {
	IsDuplicate(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// BillingEventService applies a single payment provider event.
type BillingEventService interface {
	Process(ctx context.Context, event domain.BillingEvent) error
}

// SubscriptionService exposes an account's billing state.
type SubscriptionService interface {
	Current(ctx context.Context, accountID string) (*domain.Subscription, error)
}
