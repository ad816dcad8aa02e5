// Package billing verifies and decodes payment provider webhooks. It speaks
// the provider's HTTP payload format directly instead of using its SDK.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

const (
	SignatureHeader  = "Stripe-Signature"
	DefaultTolerance = 5 * time.Minute
)

// Verifier checks webhook signatures of the form
// "t=<unix>,v1=<hex hmac-sha256(secret, "<t>.<body>")>".
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Verify returns domain.ErrInvalidSignature unless one of the v1 signatures
// matches and the timestamp is within tolerance.
func (v *Verifier) Verify(payload []byte, header string) error {
	if len(v.secret) == 0 {
		return fmt.Errorf("%w: webhook secret not configured", domain.ErrInvalidSignature)
	}

	var ts int64
	var sigs [][]byte
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", domain.ErrInvalidSignature)
			}
			ts = n
		case "v1":
			b, err := hex.DecodeString(val)
			if err == nil {
				sigs = append(sigs, b)
			}
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return fmt.Errorf("%w: malformed header", domain.ErrInvalidSignature)
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
	}

	expected := Sign(v.secret, ts, payload)
	for _, s := range sigs {
		if hmac.Equal(s, expected) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching signature", domain.ErrInvalidSignature)
}

// Sign computes the v1 signature for payload at ts.
func Sign(secret []byte, ts int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeaderValue builds a header value for payload, as the provider would.
func SignatureHeaderValue(secret string, ts time.Time, payload []byte) string {
	sig := Sign([]byte(secret), ts.Unix(), payload)
	return "t=" + strconv.FormatInt(ts.Unix(), 10) + ",v1=" + hex.EncodeToString(sig)
}

type envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object eventObject `json:"object"`
	} `json:"data"`
}

// eventObject holds the fields used from checkout sessions, invoices and
// subscriptions; each event type fills a different subset.
type eventObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	AmountTotal       int64             `json:"amount_total"`
	AmountPaid        int64             `json:"amount_paid"`
	Currency          string            `json:"currency"`
	Subscription      string            `json:"subscription"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	PeriodEnd         int64             `json:"period_end"`

	// Invoices carry the subscription's metadata here rather than at the top.
	SubscriptionDetails subscriptionDetails `json:"subscription_details"`
	Parent              struct {
		SubscriptionDetails subscriptionDetails `json:"subscription_details"`
	} `json:"parent"`
}

type subscriptionDetails struct {
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// metadata returns key from the first metadata map that has it.
func (o eventObject) metadata(key string) string {
	for _, m := range []map[string]string{
		o.Metadata,
		o.SubscriptionDetails.Metadata,
		o.Parent.SubscriptionDetails.Metadata,
	} {
		if v := m[key]; v != "" {
			return v
		}
	}
	return ""
}

// ParseEvent decodes a webhook body into a domain.BillingEvent.
func ParseEvent(payload []byte) (domain.BillingEvent, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.BillingEvent{}, fmt.Errorf("%w: decode webhook: %v", domain.ErrInvalidInput, err)
	}
	if env.ID == "" || env.Type == "" {
		return domain.BillingEvent{}, fmt.Errorf("%w: webhook missing id or type", domain.ErrInvalidInput)
	}

	obj := env.Data.Object
	ev := domain.BillingEvent{
		ID:          env.ID,
		Type:        env.Type,
		AccountID:   obj.metadata("account_id"),
		PlanID:      obj.metadata("plan_id"),
		Currency:    strings.ToLower(obj.Currency),
		ProviderRef: obj.Subscription,
	}
	if env.Created > 0 {
		ev.Created = time.Unix(env.Created, 0).UTC()
	}
	if ev.AccountID == "" {
		ev.AccountID = obj.ClientReferenceID
	}
	if ev.ProviderRef == "" {
		ev.ProviderRef = obj.Parent.SubscriptionDetails.Subscription
	}

	switch env.Type {
	case domain.EventCheckoutCompleted:
		ev.AmountCents = obj.AmountTotal
	case domain.EventInvoicePaid:
		ev.AmountCents = obj.AmountPaid
	case domain.EventSubscriptionDeleted:
		ev.ProviderRef = obj.ID
	}

	periodEnd := obj.CurrentPeriodEnd
	if periodEnd == 0 {
		periodEnd = obj.PeriodEnd
	}
	if periodEnd > 0 {
		ev.CurrentPeriodEnd = time.Unix(periodEnd, 0).UTC()
	}
	return ev, nil
}
