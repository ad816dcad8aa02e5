package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Helper: build a service with one seeded account.
// ---------------------------------------------------------------------------

func newBillingSvc(role domain.Role) (ports.BillingEventService, *stubAccountRepo, *stubBillingRepo, *stubDedup) {
	accounts := newStubAccountRepo()
	accounts.seed(&domain.Account{ID: "acc-1", Email: "payer@example.com", Role: role, Active: true})
	billing := newStubBillingRepo()
	dedup := &stubDedup{}
	return NewBillingEventService(accounts, billing, dedup, zerolog.Nop()), accounts, billing, dedup
}

func paidEvent(id, typ string) domain.BillingEvent {
	return domain.BillingEvent{
		ID:               id,
		Type:             typ,
		Created:          time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		AccountID:        "acc-1",
		PlanID:           "premium",
		AmountCents:      1299,
		Currency:         "usd",
		ProviderRef:      "sub_123",
		CurrentPeriodEnd: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestBillingEventService_CheckoutPromotesGuest(t *testing.T) {
	svc, accounts, billing, dedup := newBillingSvc(domain.RoleGuest)

	if err := svc.Process(context.Background(), paidEvent("evt_1", domain.EventCheckoutCompleted)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts.byID["acc-1"].Role != domain.RoleSubscriber {
		t.Errorf("expected subscriber, got %s", accounts.byID["acc-1"].Role)
	}
	sub := billing.subs["acc-1"]
	if sub == nil || sub.Status != domain.SubscriptionActive || sub.PlanID != "premium" {
		t.Errorf("unexpected subscription: %+v", sub)
	}
	if p := billing.payments["evt_1"]; p == nil || p.AmountCents != 1299 {
		t.Errorf("expected payment to be recorded, got %+v", p)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != "evt_1" {
		t.Errorf("expected event to be marked, got %v", dedup.marked)
	}
}

func TestBillingEventService_InvoicePaidKeepsSubscriber(t *testing.T) {
	svc, accounts, billing, _ := newBillingSvc(domain.RoleSubscriber)

	if err := svc.Process(context.Background(), paidEvent("evt_2", domain.EventInvoicePaid)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts.roleSets) != 0 {
		t.Errorf("expected no role change, got %v", accounts.roleSets)
	}
	if billing.payments["evt_2"] == nil {
		t.Errorf("expected payment to be recorded")
	}
}

func TestBillingEventService_DeletedDemotesSubscriber(t *testing.T) {
	svc, accounts, billing, _ := newBillingSvc(domain.RoleSubscriber)

	ev := paidEvent("evt_3", domain.EventSubscriptionDeleted)
	ev.AmountCents = 0
	if err := svc.Process(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts.byID["acc-1"].Role != domain.RoleGuest {
		t.Errorf("expected guest, got %s", accounts.byID["acc-1"].Role)
	}
	if billing.subs["acc-1"].Status != domain.SubscriptionCanceled {
		t.Errorf("expected canceled subscription")
	}
	if len(billing.payments) != 0 {
		t.Errorf("cancellation must not record a payment")
	}
}

func TestBillingEventService_AdminNeverChanged(t *testing.T) {
	for _, typ := range []string{domain.EventCheckoutCompleted, domain.EventSubscriptionDeleted} {
		svc, accounts, _, _ := newBillingSvc(domain.RoleAdmin)
		if err := svc.Process(context.Background(), paidEvent("evt_"+typ, typ)); err != nil {
			t.Fatalf("%s: unexpected error: %v", typ, err)
		}
		if accounts.byID["acc-1"].Role != domain.RoleAdmin || len(accounts.roleSets) != 0 {
			t.Errorf("%s: admin role must not change", typ)
		}
	}
}

func TestBillingEventService_DuplicateSkipped(t *testing.T) {
	svc, accounts, billing, dedup := newBillingSvc(domain.RoleGuest)
	dedup.dupResult = true

	if err := svc.Process(context.Background(), paidEvent("evt_4", domain.EventCheckoutCompleted)); err != nil {
		t.Fatalf("expected nil for duplicate, got %v", err)
	}
	if len(billing.payments) != 0 || accounts.byID["acc-1"].Role != domain.RoleGuest {
		t.Errorf("duplicate must not be applied")
	}
}

func TestBillingEventService_DedupErrorProcessesAnyway(t *testing.T) {
	svc, accounts, _, dedup := newBillingSvc(domain.RoleGuest)
	dedup.dupErr = errors.New("redis down")

	if err := svc.Process(context.Background(), paidEvent("evt_5", domain.EventInvoicePaid)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts.byID["acc-1"].Role != domain.RoleSubscriber {
		t.Errorf("expected event to be applied despite dedup failure")
	}
}

func TestBillingEventService_UnknownTypeIgnored(t *testing.T) {
	svc, _, billing, dedup := newBillingSvc(domain.RoleGuest)

	if err := svc.Process(context.Background(), paidEvent("evt_6", "customer.created")); err != nil {
		t.Fatalf("expected unknown type to be ignored, got %v", err)
	}
	if len(billing.subs) != 0 || len(dedup.marked) != 0 {
		t.Errorf("unknown type must not touch storage")
	}
}

func TestBillingEventService_AccountErrors(t *testing.T) {
	svc, _, _, _ := newBillingSvc(domain.RoleGuest)

	ev := paidEvent("evt_7", domain.EventInvoicePaid)
	ev.AccountID = "missing"
	if err := svc.Process(context.Background(), ev); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	ev.AccountID = ""
	if err := svc.Process(context.Background(), ev); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBillingEventService_PersistError(t *testing.T) {
	svc, _, billing, _ := newBillingSvc(domain.RoleGuest)
	billing.err = errStoreDown

	if err := svc.Process(context.Background(), paidEvent("evt_8", domain.EventInvoicePaid)); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestBillingEventService_FailedApplyLeavesEventUnmarked(t *testing.T) {
	svc, accounts, billing, dedup := newBillingSvc(domain.RoleGuest)
	billing.err = errStoreDown

	if err := svc.Process(context.Background(), paidEvent("evt_x", domain.EventCheckoutCompleted)); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(dedup.marked) != 0 {
		t.Fatalf("failed event must stay unmarked, got %v", dedup.marked)
	}
	if accounts.byID["acc-1"].Role != domain.RoleGuest {
		t.Fatalf("expected role unchanged")
	}

	// The retry applies once the store is back.
	billing.err = nil
	if err := svc.Process(context.Background(), paidEvent("evt_x", domain.EventCheckoutCompleted)); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if accounts.byID["acc-1"].Role != domain.RoleSubscriber || len(dedup.marked) != 1 {
		t.Fatalf("expected retry to promote and mark, role=%s marked=%v", accounts.byID["acc-1"].Role, dedup.marked)
	}
}

func TestBillingEventService_RenewalResolvedByProviderRef(t *testing.T) {
	svc, accounts, billing, _ := newBillingSvc(domain.RoleSubscriber)
	billing.subs["acc-1"] = &domain.Subscription{AccountID: "acc-1", PlanID: "premium", ProviderRef: "sub_123", Status: domain.SubscriptionActive}

	ev := paidEvent("evt_renew", domain.EventInvoicePaid)
	ev.AccountID = ""
	ev.PlanID = ""
	if err := svc.Process(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := billing.payments["evt_renew"]
	if p == nil || p.AccountID != "acc-1" {
		t.Fatalf("expected payment for acc-1, got %+v", p)
	}
	if sub := billing.subs["acc-1"]; sub.PlanID != "premium" {
		t.Fatalf("renewal without plan must keep the stored plan, got %q", sub.PlanID)
	}
	if len(accounts.roleSets) != 0 {
		t.Fatalf("subscriber role must not change, got %v", accounts.roleSets)
	}
}

func TestBillingEventService_ProviderRefLookupFailureIsReturned(t *testing.T) {
	svc, _, billing, dedup := newBillingSvc(domain.RoleGuest)
	billing.err = errStoreDown

	ev := paidEvent("evt_lookup", domain.EventInvoicePaid)
	ev.AccountID = ""
	if err := svc.Process(context.Background(), ev); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(dedup.marked) != 0 {
		t.Fatalf("expected event unmarked")
	}
}

func TestSubscriptionService_Current(t *testing.T) {
	billing := newStubBillingRepo()
	billing.subs["acc-1"] = &domain.Subscription{AccountID: "acc-1", PlanID: "basic", Status: domain.SubscriptionActive}
	svc := NewSubscriptionService(billing)

	sub, err := svc.Current(context.Background(), "acc-1")
	if err != nil || sub.PlanID != "basic" {
		t.Fatalf("unexpected result: %+v %v", sub, err)
	}
	if _, err := svc.Current(context.Background(), "acc-2"); !errors.Is(err, domain.ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}
