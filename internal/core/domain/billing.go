package domain

import "time"

// SubscriptionStatus is the billing state of an account's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// Billing event types understood by the webhook processor.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventInvoicePaid         = "invoice.paid"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Subscription mirrors the payment provider's view of an account's plan.
type Subscription struct {
	AccountID        string             `json:"account_id" bson:"account_id"`
	PlanID           string             `json:"plan_id" bson:"plan_id"`
	Status           SubscriptionStatus `json:"status" bson:"status"`
	ProviderRef      string             `json:"provider_ref" bson:"provider_ref"`
	CurrentPeriodEnd time.Time          `json:"current_period_end" bson:"current_period_end"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// Payment is a settled charge; revenue figures are summed from these.
type Payment struct {
	EventID     string    `json:"event_id" bson:"event_id"`
	AccountID   string    `json:"account_id" bson:"account_id"`
	AmountCents int64     `json:"amount_cents" bson:"amount_cents"`
	Currency    string    `json:"currency" bson:"currency"`
	PaidAt      time.Time `json:"paid_at" bson:"paid_at"`
}

// BillingEvent is a payment provider webhook normalised for processing.
type BillingEvent struct {
	ID               string    `bson:"id"`
	Type             string    `bson:"type"`
	Created          time.Time `bson:"created"`
	AccountID        string    `bson:"account_id,omitempty"`
	PlanID           string    `bson:"plan_id,omitempty"`
	AmountCents      int64     `bson:"amount_cents"`
	Currency         string    `bson:"currency,omitempty"`
	ProviderRef      string    `bson:"provider_ref,omitempty"`
	CurrentPeriodEnd time.Time `bson:"current_period_end"`
}

// ShardKey is the key events are ordered by: the account when known,
// otherwise the provider subscription it will be resolved through.
func (e BillingEvent) ShardKey() string {
	if e.AccountID != "" {
		return e.AccountID
	}
	return e.ProviderRef
}

// FailedBillingEvent is an event the dispatcher gave up on. It is kept so an
// operator can replay it once the cause is fixed.
type FailedBillingEvent struct {
	Event    BillingEvent `json:"event" bson:"event"`
	Error    string       `json:"error" bson:"error"`
	Attempts int          `json:"attempts" bson:"attempts"`
	FailedAt time.Time    `json:"failed_at" bson:"failed_at"`
}
