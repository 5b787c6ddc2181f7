// Package billing wraps Stripe Checkout and webhook handling for family subscriptions.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"elderlink/internal/models"
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
)

type CheckoutRequest struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	Email          string
	Plan           models.PlanCode
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Event is the subset of a Stripe webhook event the subscription service acts on.
type Event struct {
	ID                string
	Type              string
	CheckoutSessionID string
	SubscriptionID    string
	CustomerID        string
	Status            string
	CancelAtPeriodEnd bool
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	Metadata          map[string]string
}

type Config struct {
	SecretKey     string
	WebhookSecret string
	Prices        map[models.PlanCode]string
	SuccessURL    string
	CancelURL     string
}

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	prices        map[models.PlanCode]string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(cfg Config) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		prices:        cfg.Prices,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	price, ok := g.prices[req.Plan]
	if !ok || price == "" {
		return nil, fmt.Errorf("no stripe price configured for plan %q", req.Plan)
	}

	metadata := map[string]string{
		"subscription_id": req.SubscriptionID.String(),
		"user_id":         req.UserID.String(),
		"plan":            string(req.Plan),
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.SubscriptionID.String()),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) CancelAtPeriodEnd(ctx context.Context, stripeSubscriptionID string) error {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	if _, err := g.api.Subscriptions.Update(stripeSubscriptionID, params); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

// SubscriptionPeriod fetches the current billing period of a Stripe subscription.
func (g *StripeGateway) SubscriptionPeriod(ctx context.Context, stripeSubscriptionID string) (start, end time.Time, err error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(stripeSubscriptionID, params)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub.CurrentPeriodStart == 0 || sub.CurrentPeriodEnd == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("subscription %s has no current period", sub.ID)
	}
	return *unixTime(sub.CurrentPeriodStart), *unixTime(sub.CurrentPeriodEnd), nil
}

// ParseEvent verifies the Stripe-Signature header and flattens the event payload.
// Event types the service does not handle come back with only ID and Type set.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", err)
	}
	return decodeEvent(evt)
}

func decodeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{ID: evt.ID, Type: string(evt.Type)}

	switch out.Type {
	case EventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.CheckoutSessionID = cs.ID
		out.Metadata = cs.Metadata
		if cs.Subscription != nil {
			out.SubscriptionID = cs.Subscription.ID
			// Set only when the subscription was expanded in the payload.
			out.PeriodStart = unixTime(cs.Subscription.CurrentPeriodStart)
			out.PeriodEnd = unixTime(cs.Subscription.CurrentPeriodEnd)
		}
		if cs.Customer != nil {
			out.CustomerID = cs.Customer.ID
		}

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		out.SubscriptionID = sub.ID
		out.Status = string(sub.Status)
		out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		out.Metadata = sub.Metadata
		out.PeriodStart = unixTime(sub.CurrentPeriodStart)
		out.PeriodEnd = unixTime(sub.CurrentPeriodEnd)
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}

	case EventPaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
	}
	return out, nil
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
