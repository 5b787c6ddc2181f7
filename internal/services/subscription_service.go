package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/billing"
	"elderlink/internal/models"
	"elderlink/internal/utils"
)

// ExpiryGrace is how long after a period ends a subscription is kept before it expires.
const ExpiryGrace = 24 * time.Hour

type SubscriptionService struct {
	subscriptions SubscriptionStore
	users         UserStore
	gateway       BillingGateway
	notifier      *NotificationService
	now           func() time.Time
}

func NewSubscriptionService(subscriptions SubscriptionStore, users UserStore, gateway BillingGateway, notifier *NotificationService) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		users:         users,
		gateway:       gateway,
		notifier:      notifier,
		now:           time.Now,
	}
}

func (s *SubscriptionService) Plans() []models.Plan {
	return models.Plans
}

type CheckoutResult struct {
	Subscription *models.Subscription `json:"subscription"`
	CheckoutURL  string               `json:"checkout_url"`
}

// Checkout stores a pending subscription and opens a Stripe Checkout session for it.
func (s *SubscriptionService) Checkout(ctx context.Context, actor Actor, code models.PlanCode) (*CheckoutResult, error) {
	if !actor.Is(models.RoleFamily) {
		return nil, fmt.Errorf("only family accounts subscribe: %w", ErrForbidden)
	}
	plan, ok := models.FindPlan(code)
	if !ok {
		return nil, fmt.Errorf("unknown plan %q: %w", code, ErrValidation)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("payments are not configured: %w", ErrUnavailable)
	}

	current, err := s.subscriptions.FindCurrentByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if current != nil && !current.CancelAtPeriodEnd && current.Entitled(s.now()) &&
		(current.Status == models.SubscriptionActive || current.Status == models.SubscriptionPastDue) {
		return nil, fmt.Errorf("already subscribed to %s: %w", current.Plan, ErrConflict)
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", actor.ID, ErrNotFound)
	}

	sub := &models.Subscription{
		UserID:      actor.ID,
		Plan:        plan.Code,
		Status:      models.SubscriptionPending,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckout(ctx, billing.CheckoutRequest{
		SubscriptionID: sub.ID,
		UserID:         actor.ID,
		Email:          user.Email,
		Plan:           plan.Code,
	})
	if err != nil {
		log.WithError(err).WithField("subscription_id", sub.ID).Error("Failed to create checkout session")
		sub.Status = models.SubscriptionExpired
		if uerr := s.subscriptions.Update(ctx, sub); uerr != nil {
			log.WithError(uerr).WithField("subscription_id", sub.ID).Warn("Failed to expire abandoned subscription")
		}
		return nil, fmt.Errorf("checkout failed: %w", ErrUpstream)
	}

	sub.StripeCheckoutSessionID = &session.ID
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		return nil, err
	}
	return &CheckoutResult{Subscription: sub, CheckoutURL: session.URL}, nil
}

func (s *SubscriptionService) Current(ctx context.Context, actor Actor) (*models.Subscription, error) {
	sub, err := s.subscriptions.FindCurrentByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("no subscription: %w", ErrNotFound)
	}
	return sub, nil
}

// CancelCurrent stops renewal. Access continues until the paid period ends.
func (s *SubscriptionService) CancelCurrent(ctx context.Context, actor Actor) (*models.Subscription, error) {
	sub, err := s.Current(ctx, actor)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionActive && sub.Status != models.SubscriptionPastDue {
		return nil, fmt.Errorf("subscription is %s: %w", sub.Status, ErrConflict)
	}

	if sub.StripeSubscriptionID != nil {
		if s.gateway == nil {
			return nil, fmt.Errorf("payments are not configured: %w", ErrUnavailable)
		}
		if err := s.gateway.CancelAtPeriodEnd(ctx, *sub.StripeSubscriptionID); err != nil {
			log.WithError(err).WithField("subscription_id", sub.ID).Error("Failed to cancel Stripe subscription")
			return nil, fmt.Errorf("cancel failed: %w", ErrUpstream)
		}
	}

	sub.Status = models.SubscriptionCancelled
	sub.CancelAtPeriodEnd = true
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		return nil, err
	}
	s.notify(ctx, sub, "Subscription cancelled", "Your subscription will not renew. Access continues until the end of the current period.")
	return sub, nil
}

// HandleWebhook verifies a Stripe event and applies it to the matching subscription.
// Events for unknown subscriptions are acknowledged and ignored.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("payments are not configured: %w", ErrUnavailable)
	}
	evt, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}

	entry := log.WithFields(log.Fields{"event_id": evt.ID, "event_type": evt.Type})

	var sub *models.Subscription
	switch evt.Type {
	case billing.EventCheckoutCompleted:
		sub, err = s.findForCheckout(ctx, evt)
	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted, billing.EventPaymentFailed:
		if evt.SubscriptionID != "" {
			sub, err = s.subscriptions.FindByStripeSubscription(ctx, evt.SubscriptionID)
		}
	default:
		entry.Debug("Ignoring webhook event")
		return evt, nil
	}
	if err != nil {
		return nil, err
	}
	if sub == nil {
		entry.Warn("Webhook event matches no subscription")
		return evt, nil
	}

	if evt.Type == billing.EventCheckoutCompleted && evt.PeriodEnd == nil && evt.SubscriptionID != "" {
		start, end, err := s.gateway.SubscriptionPeriod(ctx, evt.SubscriptionID)
		if err != nil {
			// Stripe redelivers events answered with an error.
			return nil, fmt.Errorf("%v: %w", err, ErrUpstream)
		}
		evt.PeriodStart, evt.PeriodEnd = &start, &end
	}

	before := sub.Status
	title, msg := s.apply(sub, evt)
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		return nil, err
	}
	entry.WithFields(log.Fields{
		"subscription_id": sub.ID,
		"from":            before,
		"to":              sub.Status,
	}).Info("Subscription updated from webhook")

	s.notify(ctx, sub, title, msg)
	return evt, nil
}

func (s *SubscriptionService) findForCheckout(ctx context.Context, evt *billing.Event) (*models.Subscription, error) {
	if evt.CheckoutSessionID != "" {
		sub, err := s.subscriptions.FindByCheckoutSession(ctx, evt.CheckoutSessionID)
		if err != nil || sub != nil {
			return sub, err
		}
	}
	if id, err := uuid.Parse(evt.Metadata["subscription_id"]); err == nil {
		return s.subscriptions.FindByID(ctx, id)
	}
	return nil, nil
}

// apply mutates sub from the event and returns the user-facing notice.
func (s *SubscriptionService) apply(sub *models.Subscription, evt *billing.Event) (string, string) {
	if evt.CustomerID != "" {
		sub.StripeCustomerID = &evt.CustomerID
	}
	if evt.SubscriptionID != "" {
		sub.StripeSubscriptionID = &evt.SubscriptionID
	}

	switch evt.Type {
	case billing.EventCheckoutCompleted:
		sub.Status = models.SubscriptionActive
		start, end := evt.PeriodStart, evt.PeriodEnd
		if start == nil || end == nil {
			// A checkout without a Stripe subscription id carries no period.
			now := s.now()
			next := now.AddDate(0, 1, 0)
			start, end = &now, &next
		}
		sub.CurrentPeriodStart = start
		sub.CurrentPeriodEnd = end
		return "Subscription active", fmt.Sprintf("Your %s plan is now active.", planName(sub.Plan))

	case billing.EventSubscriptionUpdated:
		if status, ok := mapStripeStatus(evt.Status, evt.CancelAtPeriodEnd); ok {
			sub.Status = status
		}
		sub.CancelAtPeriodEnd = evt.CancelAtPeriodEnd
		if evt.PeriodStart != nil {
			sub.CurrentPeriodStart = evt.PeriodStart
		}
		if evt.PeriodEnd != nil {
			sub.CurrentPeriodEnd = evt.PeriodEnd
		}
		return "Subscription updated", fmt.Sprintf("Your %s plan is now %s.", planName(sub.Plan), sub.Status)

	case billing.EventSubscriptionDeleted:
		sub.Status = models.SubscriptionCancelled
		sub.CancelAtPeriodEnd = false
		if evt.PeriodEnd != nil {
			sub.CurrentPeriodEnd = evt.PeriodEnd
		}
		return "Subscription ended", fmt.Sprintf("Your %s plan has been cancelled.", planName(sub.Plan))

	case billing.EventPaymentFailed:
		sub.Status = models.SubscriptionPastDue
		return "Payment failed", "We could not charge your card. Please update your payment method."
	}
	return "", ""
}

// mapStripeStatus converts a Stripe subscription status. Statuses with no
// local counterpart (incomplete, paused) leave the row unchanged.
func mapStripeStatus(status string, cancelAtPeriodEnd bool) (models.SubscriptionStatus, bool) {
	switch status {
	case "active", "trialing":
		if cancelAtPeriodEnd {
			return models.SubscriptionCancelled, true
		}
		return models.SubscriptionActive, true
	case "past_due", "unpaid":
		return models.SubscriptionPastDue, true
	case "canceled":
		return models.SubscriptionCancelled, true
	case "incomplete_expired":
		return models.SubscriptionExpired, true
	}
	return "", false
}

func planName(code models.PlanCode) string {
	if p, ok := models.FindPlan(code); ok {
		return p.Name
	}
	return string(code)
}

func (s *SubscriptionService) notify(ctx context.Context, sub *models.Subscription, title, msg string) {
	if title == "" {
		return
	}
	data := map[string]any{"subscription_id": sub.ID, "plan": sub.Plan, "status": sub.Status}
	s.notifier.NotifyMany(ctx, []uuid.UUID{sub.UserID}, models.NotificationSubscription, title, msg, data)
}

// ActivePlan returns the plan the user is entitled to now, or nil.
func (s *SubscriptionService) ActivePlan(ctx context.Context, userID uuid.UUID) (*models.Plan, error) {
	sub, err := s.subscriptions.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.Entitled(s.now()) {
		return nil, nil
	}
	plan, ok := models.FindPlan(sub.Plan)
	if !ok {
		return nil, nil
	}
	return &plan, nil
}

// ExpireSubscriptions expires subscriptions whose period ended more than a day ago.
func (s *SubscriptionService) ExpireSubscriptions(ctx context.Context) (int, error) {
	expired, err := s.subscriptions.ExpireEnded(ctx, s.now().Add(-ExpiryGrace))
	if err != nil {
		return 0, err
	}
	for i := range expired {
		s.notify(ctx, &expired[i], "Subscription expired",
			fmt.Sprintf("Your %s plan has expired. Renew to keep booking consultations.", planName(expired[i].Plan)))
	}
	return len(expired), nil
}

func (s *SubscriptionService) List(ctx context.Context, status string, page utils.Pagination) ([]models.Subscription, int64, error) {
	if status != "" && !models.SubscriptionStatus(status).Valid() {
		return nil, 0, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	return s.subscriptions.List(ctx, status, page.Limit, page.Offset())
}

