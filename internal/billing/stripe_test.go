package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func event(t *testing.T, typ string, object string) stripe.Event {
	t.Helper()
	return stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventType(typ),
		Data: &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

func TestDecodeCheckoutCompleted(t *testing.T) {
	evt := event(t, EventCheckoutCompleted, `{
		"id": "cs_test_1",
		"object": "checkout.session",
		"subscription": "sub_1",
		"customer": "cus_1",
		"metadata": {"subscription_id": "abc"}
	}`)

	out, err := decodeEvent(evt)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", out.CheckoutSessionID)
	assert.Equal(t, "sub_1", out.SubscriptionID)
	assert.Equal(t, "cus_1", out.CustomerID)
	assert.Equal(t, "abc", out.Metadata["subscription_id"])
	assert.Nil(t, out.PeriodEnd, "an unexpanded subscription carries no period")
}

func TestDecodeCheckoutCompleted_ExpandedSubscription(t *testing.T) {
	evt := event(t, EventCheckoutCompleted, `{
		"id": "cs_test_2",
		"object": "checkout.session",
		"subscription": {
			"id": "sub_2",
			"object": "subscription",
			"current_period_start": 1700000000,
			"current_period_end": 1702592000
		}
	}`)

	out, err := decodeEvent(evt)
	require.NoError(t, err)
	assert.Equal(t, "sub_2", out.SubscriptionID)
	require.NotNil(t, out.PeriodStart)
	require.NotNil(t, out.PeriodEnd)
	assert.Equal(t, int64(1700000000), out.PeriodStart.Unix())
	assert.Equal(t, int64(1702592000), out.PeriodEnd.Unix())
}

func TestDecodeSubscriptionUpdated(t *testing.T) {
	evt := event(t, EventSubscriptionUpdated, `{
		"id": "sub_1",
		"object": "subscription",
		"status": "past_due",
		"cancel_at_period_end": true,
		"current_period_start": 1700000000,
		"current_period_end": 1702592000,
		"customer": "cus_1"
	}`)

	out, err := decodeEvent(evt)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", out.SubscriptionID)
	assert.Equal(t, "past_due", out.Status)
	assert.True(t, out.CancelAtPeriodEnd)
	require.NotNil(t, out.PeriodEnd)
	assert.Equal(t, int64(1702592000), out.PeriodEnd.Unix())
}

func TestDecodeUnhandledEvent(t *testing.T) {
	out, err := decodeEvent(event(t, "customer.created", `{"id": "cus_1"}`))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", out.Type)
	assert.Empty(t, out.SubscriptionID)
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway(Config{SecretKey: "sk_test", WebhookSecret: "whsec_test"})
	_, err := g.ParseEvent([]byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef")
	assert.Error(t, err)
}
