package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
	"github.com/moviestream/streaming-api/internal/pkg/metrics"
)

type billingEventService struct {
	accounts ports.AccountRepository
	billing  ports.BillingRepository
	dedup    ports.EventDeduplicator
	log      zerolog.Logger
	now      func() time.Time
}

// NewBillingEventService returns a BillingEventService implementation.
func NewBillingEventService(
	accounts ports.AccountRepository,
	billing ports.BillingRepository,
	dedup ports.EventDeduplicator,
	log zerolog.Logger,
) ports.BillingEventService {
	return &billingEventService{
		accounts: accounts,
		billing:  billing,
		dedup:    dedup,
		log:      log,
		now:      time.Now,
	}
}

func isKnownBillingEvent(t string) bool {
	switch t {
	case domain.EventCheckoutCompleted, domain.EventInvoicePaid, domain.EventSubscriptionDeleted:
		return true
	}
	return false
}

// Process deduplicates and applies a single payment provider event.
func (s *billingEventService) Process(ctx context.Context, ev domain.BillingEvent) error {
	start := s.now()

	if !isKnownBillingEvent(ev.Type) {
		s.log.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("ignoring billing event type")
		return nil
	}

	// 1. Idempotency check, silently skip duplicates.
	isDup, err := s.dedup.IsDuplicate(ctx, ev.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", ev.ID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.BillingEventsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("event_id", ev.ID).Msg("duplicate billing event skipped")
		return nil
	}
	metrics.BillingEventsDedupTotal.WithLabelValues("miss").Inc()

	// 2. Resolve the account. Renewal invoices often carry no account
	// reference, only the provider subscription the checkout created.
	accountID, err := s.resolveAccountID(ctx, ev)
	if err != nil {
		metrics.BillingEventsErrorsTotal.WithLabelValues("account_lookup_failed").Inc()
		return fmt.Errorf("process billing event %s: %w", ev.ID, err)
	}
	if accountID == "" {
		metrics.BillingEventsErrorsTotal.WithLabelValues("missing_account").Inc()
		return fmt.Errorf("process billing event %s: %w: no account reference", ev.ID, domain.ErrInvalidInput)
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		metrics.BillingEventsErrorsTotal.WithLabelValues("account_not_found").Inc()
		return fmt.Errorf("process billing event %s: %w", ev.ID, err)
	}

	// 3. Apply.
	switch ev.Type {
	case domain.EventCheckoutCompleted, domain.EventInvoicePaid:
		err = s.activate(ctx, ev, account)
	case domain.EventSubscriptionDeleted:
		err = s.cancel(ctx, ev, account)
	}
	if err != nil {
		metrics.BillingEventsErrorsTotal.WithLabelValues("persist_failed").Inc()
		metrics.BillingEventProcessingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("process billing event %s: %w", ev.ID, err)
	}

	// 4. Mark only once applied, so a failed event can be retried.
	if markErr := s.dedup.Mark(ctx, ev.ID); markErr != nil {
		s.log.Warn().Err(markErr).Str("event_id", ev.ID).Msg("failed to set dedup key")
	}

	metrics.BillingEventsProcessedTotal.WithLabelValues(ev.Type).Inc()
	metrics.BillingEventProcessingDuration.WithLabelValues(ev.Type).Observe(time.Since(start).Seconds())
	s.log.Info().
		Str("event_id", ev.ID).
		Str("type", ev.Type).
		Str("account_id", account.ID).
		Msg("billing event processed")
	return nil
}

func (s *billingEventService) resolveAccountID(ctx context.Context, ev domain.BillingEvent) (string, error) {
	if ev.AccountID != "" || ev.ProviderRef == "" {
		return ev.AccountID, nil
	}
	sub, err := s.billing.FindSubscriptionByProviderRef(ctx, ev.ProviderRef)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find subscription %s: %w", ev.ProviderRef, err)
	}
	return sub.AccountID, nil
}

// planFor keeps the stored plan when the event does not name one, which is
// the case for most renewal invoices.
func (s *billingEventService) planFor(ctx context.Context, ev domain.BillingEvent, accountID string) string {
	if ev.PlanID != "" {
		return ev.PlanID
	}
	if cur, err := s.billing.FindSubscription(ctx, accountID); err == nil {
		return cur.PlanID
	}
	return ""
}

func (s *billingEventService) activate(ctx context.Context, ev domain.BillingEvent, account *domain.Account) error {
	now := s.now().UTC()
	if ev.AmountCents > 0 {
		paidAt := ev.Created
		if paidAt.IsZero() {
			paidAt = now
		}
		if err := s.billing.InsertPayment(ctx, &domain.Payment{
			EventID:     ev.ID,
			AccountID:   account.ID,
			AmountCents: ev.AmountCents,
			Currency:    ev.Currency,
			PaidAt:      paidAt,
		}); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
	}

	if err := s.billing.UpsertSubscription(ctx, &domain.Subscription{
		AccountID:        account.ID,
		PlanID:           s.planFor(ctx, ev, account.ID),
		Status:           domain.SubscriptionActive,
		ProviderRef:      ev.ProviderRef,
		CurrentPeriodEnd: ev.CurrentPeriodEnd,
		UpdatedAt:        now,
	}); err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	if account.Role == domain.RoleGuest {
		if _, err := s.accounts.UpdateRole(ctx, account.ID, domain.RoleSubscriber); err != nil {
			return fmt.Errorf("promote account: %w", err)
		}
		s.log.Info().Str("account_id", account.ID).Msg("account promoted to subscriber")
	}
	return nil
}

func (s *billingEventService) cancel(ctx context.Context, ev domain.BillingEvent, account *domain.Account) error {
	if err := s.billing.UpsertSubscription(ctx, &domain.Subscription{
		AccountID:        account.ID,
		PlanID:           s.planFor(ctx, ev, account.ID),
		Status:           domain.SubscriptionCanceled,
		ProviderRef:      ev.ProviderRef,
		CurrentPeriodEnd: ev.CurrentPeriodEnd,
		UpdatedAt:        s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}

	if account.Role == domain.RoleSubscriber {
		if _, err := s.accounts.UpdateRole(ctx, account.ID, domain.RoleGuest); err != nil {
			return fmt.Errorf("demote account: %w", err)
		}
		s.log.Info().Str("account_id", account.ID).Msg("account demoted to guest")
	}
	return nil
}
