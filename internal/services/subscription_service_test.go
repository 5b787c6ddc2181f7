package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/billing"
	"elderlink/internal/models"
	"elderlink/internal/utils"
)

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	s := f.subscriptionService()
	ctx := context.Background()
	_, family := f.user(models.RoleFamily)
	_, doctor := f.user(models.RoleDoctor)

	_, err := s.Checkout(ctx, doctor, models.PlanBasic)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.Checkout(ctx, family, "gold")
	assert.ErrorIs(t, err, ErrValidation)

	res, err := s.Checkout(ctx, family, models.PlanPremium)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPending, res.Subscription.Status)
	assert.EqualValues(t, 2499, res.Subscription.AmountCents)
	assert.Contains(t, res.CheckoutURL, res.Subscription.ID.String())
	require.Len(t, f.billing.Checkouts, 1)
	assert.Equal(t, models.PlanPremium, f.billing.Checkouts[0].Plan)

	plan, err := s.ActivePlan(ctx, family.ID)
	require.NoError(t, err)
	assert.Nil(t, plan, "pending subscriptions grant nothing")
}

func TestCheckout_Unavailable(t *testing.T) {
	f := newFixture(t)
	s := NewSubscriptionService(f.subscriptions, f.users, nil, f.notifier)
	_, family := f.user(models.RoleFamily)

	_, err := s.Checkout(context.Background(), family, models.PlanBasic)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCheckout_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.billing.Err = errors.New("stripe down")
	s := f.subscriptionService()
	_, family := f.user(models.RoleFamily)

	_, err := s.Checkout(context.Background(), family, models.PlanBasic)
	assert.ErrorIs(t, err, ErrUpstream)

	subs, _, err := f.subscriptions.List(context.Background(), string(models.SubscriptionPending), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestWebhook_Lifecycle(t *testing.T) {
	f := newFixture(t)
	s := f.subscriptionService()
	ctx := context.Background()
	_, family := f.user(models.RoleFamily)

	res, err := s.Checkout(ctx, family, models.PlanBasic)
	require.NoError(t, err)

	_, err = s.HandleWebhook(ctx, []byte(`{}`), "forged")
	assert.ErrorIs(t, err, ErrValidation)

	periodStart := f.now.Add(-time.Hour)
	periodEnd := periodStart.AddDate(0, 1, 0).Add(3 * time.Hour)
	f.billing.Periods = map[string][2]time.Time{"sub_123": {periodStart, periodEnd}}
	f.billing.Event = &billing.Event{
		ID:                "evt_1",
		Type:              billing.EventCheckoutCompleted,
		CheckoutSessionID: *res.Subscription.StripeCheckoutSessionID,
		SubscriptionID:    "sub_123",
		CustomerID:        "cus_123",
	}
	_, err = s.HandleWebhook(ctx, nil, "valid")
	require.NoError(t, err)

	current, err := s.Current(ctx, family)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, current.Status)
	require.NotNil(t, current.CurrentPeriodStart)
	require.NotNil(t, current.CurrentPeriodEnd)
	assert.Equal(t, periodStart, *current.CurrentPeriodStart, "the period comes from Stripe")
	assert.Equal(t, periodEnd, *current.CurrentPeriodEnd)

	plan, err := s.ActivePlan(ctx, family.ID)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, models.PlanBasic, plan.Code)

	_, err = s.Checkout(ctx, family, models.PlanPremium)
	assert.ErrorIs(t, err, ErrConflict)

	f.billing.Event = &billing.Event{ID: "evt_2", Type: billing.EventPaymentFailed, SubscriptionID: "sub_123"}
	_, err = s.HandleWebhook(ctx, nil, "valid")
	require.NoError(t, err)
	current, _ = s.Current(ctx, family)
	assert.Equal(t, models.SubscriptionPastDue, current.Status)

	end := f.now.AddDate(0, 2, 0)
	f.billing.Event = &billing.Event{ID: "evt_3", Type: billing.EventSubscriptionUpdated, SubscriptionID: "sub_123", Status: "active", PeriodEnd: &end}
	_, err = s.HandleWebhook(ctx, nil, "valid")
	require.NoError(t, err)
	current, _ = s.Current(ctx, family)
	assert.Equal(t, models.SubscriptionActive, current.Status)
	assert.Equal(t, end, *current.CurrentPeriodEnd)

	f.billing.Event = &billing.Event{ID: "evt_4", Type: billing.EventSubscriptionDeleted, SubscriptionID: "sub_123"}
	_, err = s.HandleWebhook(ctx, nil, "valid")
	require.NoError(t, err)
	current, _ = s.Current(ctx, family)
	assert.Equal(t, models.SubscriptionCancelled, current.Status)

	assert.Len(t, f.notifications.For(family.ID), 4)
}

func TestWebhook_CheckoutPeriod(t *testing.T) {
	f := newFixture(t)
	s := f.subscriptionService()
	ctx := context.Background()
	_, family := f.user(models.RoleFamily)

	res, err := s.Checkout(ctx, family, models.PlanPremium)
	require.NoError(t, err)
	completed := func(id string) *billing.Event {
		return &billing.Event{
			ID:                id,
			Type:              billing.EventCheckoutCompleted,
			CheckoutSessionID: *res.Subscription.StripeCheckoutSessionID,
			SubscriptionID:    "sub_456",
		}
	}

	f.billing.PeriodErr = errors.New("stripe unreachable")
	f.billing.Event = completed("evt_1")
	_, err = s.HandleWebhook(ctx, nil, "valid")
	assert.ErrorIs(t, err, ErrUpstream)
	current, err := s.Current(ctx, family)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPending, current.Status, "nothing is applied until the period is known")

	f.billing.PeriodErr = nil
	start := f.now.AddDate(0, 0, -2)
	end := time.Date(2031, 1, 31, 0, 0, 0, 0, time.UTC)
	f.billing.Event = completed("evt_1")
	f.billing.Event.PeriodStart, f.billing.Event.PeriodEnd = &start, &end
	_, err = s.HandleWebhook(ctx, nil, "valid")
	require.NoError(t, err)
	current, err = s.Current(ctx, family)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, current.Status)
	assert.Equal(t, start, *current.CurrentPeriodStart, "a period in the event is used as is")
	assert.Equal(t, end, *current.CurrentPeriodEnd)
}

func TestWebhook_UnknownSubscriptionIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	s := f.subscriptionService()
	f.billing.Event = &billing.Event{ID: "evt_x", Type: billing.EventPaymentFailed, SubscriptionID: "sub_missing"}

	evt, err := s.HandleWebhook(context.Background(), nil, "valid")
	require.NoError(t, err)
	assert.Equal(t, "evt_x", evt.ID)

	f.billing.Event = &billing.Event{ID: "evt_y", Type: "customer.created"}
	_, err = s.HandleWebhook(context.Background(), nil, "valid")
	assert.NoError(t, err)
}

func TestCancelCurrent(t *testing.T) {
	f := newFixture(t)
	s := f.subscriptionService()
	ctx := context.Background()
	_, family := f.user(models.RoleFamily)

	_, err := s.CancelCurrent(ctx, family)
	assert.ErrorIs(t, err, ErrNotFound)

	sub := f.subscriptions.Activate(family.ID, models.PlanPremium, 10*24*time.Hour)
	stripeID := "sub_live"
	sub.StripeSubscriptionID = &stripeID
	require.NoError(t, f.subscriptions.Update(ctx, sub))

	cancelled, err := s.CancelCurrent(ctx, family)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCancelled, cancelled.Status)
	assert.True(t, cancelled.CancelAtPeriodEnd)
	assert.Equal(t, []string{"sub_live"}, f.billing.Cancelled)

	plan, err := s.ActivePlan(ctx, family.ID)
	require.NoError(t, err)
	assert.NotNil(t, plan, "access continues until the period ends")

	_, err = s.CancelCurrent(ctx, family)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestExpireSubscriptions(t *testing.T) {
	f := newFixture(t)
	s := f.subscriptionService()
	ctx := context.Background()
	_, lapsed := f.user(models.RoleFamily)
	_, current := f.user(models.RoleFamily)
	f.subscriptions.Activate(lapsed.ID, models.PlanBasic, -48*time.Hour)
	f.subscriptions.Activate(current.ID, models.PlanBasic, 48*time.Hour)

	n, err := s.ExpireSubscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.notifications.For(lapsed.ID), 1)

	list, total, err := s.List(ctx, "expired", utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, lapsed.ID, list[0].UserID)

	_, _, err = s.List(ctx, "weird", utils.Pagination{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrValidation)
}
