package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

var sigNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testVerifier() *Verifier {
	v := NewVerifier("whsec_test", 0)
	v.now = func() time.Time { return sigNow }
	return v
}

func TestVerifier_Valid(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	header := SignatureHeaderValue("whsec_test", sigNow.Add(-time.Minute), body)

	assert.NoError(t, testVerifier().Verify(body, header))
}

func TestVerifier_AcceptsAnyMatchingV1(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	header := SignatureHeaderValue("whsec_test", sigNow, body) + ",v1=deadbeef"

	assert.NoError(t, testVerifier().Verify(body, header))
}

func TestVerifier_Rejects(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	cases := map[string]string{
		"wrong secret":   SignatureHeaderValue("other", sigNow, body),
		"too old":        SignatureHeaderValue("whsec_test", sigNow.Add(-6*time.Minute), body),
		"in the future":  SignatureHeaderValue("whsec_test", sigNow.Add(6*time.Minute), body),
		"empty":          "",
		"no signature":   "t=1714564800",
		"bad timestamp":  "t=abc,v1=00",
		"tampered body":  SignatureHeaderValue("whsec_test", sigNow, []byte(`{"id":"evt_2"}`)),
	}
	for name, header := range cases {
		err := testVerifier().Verify(body, header)
		assert.True(t, errors.Is(err, domain.ErrInvalidSignature), "%s: got %v", name, err)
	}
}

func TestVerifier_NoSecret(t *testing.T) {
	v := NewVerifier("", time.Minute)
	err := v.Verify([]byte("{}"), SignatureHeaderValue("", time.Now(), []byte("{}")))
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestParseEvent_Checkout(t *testing.T) {
	body := []byte(`{
		"id": "evt_1", "type": "checkout.session.completed", "created": 1714564800,
		"data": {"object": {
			"id": "cs_1", "client_reference_id": "acc-1", "amount_total": 1299, "currency": "USD",
			"subscription": "sub_9", "metadata": {"plan_id": "premium"}
		}}
	}`)
	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", ev.AccountID)
	assert.Equal(t, "premium", ev.PlanID)
	assert.Equal(t, int64(1299), ev.AmountCents)
	assert.Equal(t, "usd", ev.Currency)
	assert.Equal(t, "sub_9", ev.ProviderRef)
	assert.Equal(t, time.Unix(1714564800, 0).UTC(), ev.Created)
}

func TestParseEvent_InvoiceAndDeletion(t *testing.T) {
	inv, err := ParseEvent([]byte(`{"id":"evt_2","type":"invoice.paid","data":{"object":{
		"amount_paid": 999, "currency":"eur", "subscription":"sub_1", "period_end": 1717200000,
		"metadata": {"account_id":"acc-2"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(999), inv.AmountCents)
	assert.Equal(t, "acc-2", inv.AccountID)
	assert.Equal(t, 2024, inv.CurrentPeriodEnd.Year())

	del, err := ParseEvent([]byte(`{"id":"evt_3","type":"customer.subscription.deleted","data":{"object":{
		"id":"sub_1","current_period_end":1717200000,"metadata":{"account_id":"acc-2"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "sub_1", del.ProviderRef)
	assert.Zero(t, del.AmountCents)
}

func TestParseEvent_Invalid(t *testing.T) {
	for _, body := range []string{`not json`, `{"type":"invoice.paid"}`, `{"id":"evt"}`} {
		_, err := ParseEvent([]byte(body))
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "body %q: got %v", body, err)
	}
}

func TestParseEvent_InvoiceSubscriptionDetails(t *testing.T) {
	legacy, err := ParseEvent([]byte(`{"id":"evt_4","type":"invoice.paid","data":{"object":{
		"amount_paid": 1299, "currency":"usd", "subscription":"sub_4",
		"subscription_details": {"metadata": {"account_id":"acc-4","plan_id":"premium"}}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "acc-4", legacy.AccountID)
	assert.Equal(t, "premium", legacy.PlanID)
	assert.Equal(t, "sub_4", legacy.ProviderRef)

	nested, err := ParseEvent([]byte(`{"id":"evt_5","type":"invoice.paid","data":{"object":{
		"amount_paid": 1299, "currency":"usd",
		"parent": {"subscription_details": {"subscription":"sub_5","metadata": {"account_id":"acc-5"}}}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "acc-5", nested.AccountID)
	assert.Equal(t, "sub_5", nested.ProviderRef)
}

func TestParseEvent_InvoiceWithoutAccountKeepsProviderRef(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_6","type":"invoice.paid","data":{"object":{
		"amount_paid": 1299, "currency":"usd", "subscription":"sub_6"}}}`))
	require.NoError(t, err)
	assert.Empty(t, ev.AccountID)
	assert.Equal(t, "sub_6", ev.ProviderRef)
}
