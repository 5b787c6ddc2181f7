package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionPending, SubscriptionActive, SubscriptionPastDue, SubscriptionCancelled, SubscriptionExpired:
		return true
	}
	return false
}

type PlanCode string

const (
	PlanBasic   PlanCode = "basic"
	PlanPremium PlanCode = "premium"
)

// Unlimited marks a plan limit with no cap.
const Unlimited = -1

type Plan struct {
	Code                  PlanCode `json:"code"`
	Name                  string   `json:"name"`
	PriceCents            int64    `json:"price_cents"`
	Currency              string   `json:"currency"`
	Interval              string   `json:"interval"`
	MaxElders             int      `json:"max_elders"`
	ConsultationsPerMonth int      `json:"consultations_per_month"`
}

var Plans = []Plan{
	{Code: PlanBasic, Name: "Basic", PriceCents: 999, Currency: "usd", Interval: "month", MaxElders: 1, ConsultationsPerMonth: 2},
	{Code: PlanPremium, Name: "Premium", PriceCents: 2499, Currency: "usd", Interval: "month", MaxElders: 5, ConsultationsPerMonth: Unlimited},
}

func FindPlan(code PlanCode) (Plan, bool) {
	for _, p := range Plans {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

type Subscription struct {
	ID                      uuid.UUID          `json:"id"`
	UserID                  uuid.UUID          `json:"user_id"`
	Plan                    PlanCode           `json:"plan"`
	Status                  SubscriptionStatus `json:"status"`
	AmountCents             int64              `json:"amount_cents"`
	Currency                string             `json:"currency"`
	StripeCustomerID        *string            `json:"-"`
	StripeSubscriptionID    *string            `json:"-"`
	StripeCheckoutSessionID *string            `json:"-"`
	CancelAtPeriodEnd       bool               `json:"cancel_at_period_end"`
	CurrentPeriodStart      *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd        *time.Time         `json:"current_period_end,omitempty"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

func (s *Subscription) Prepare() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SubscriptionPending
	}
}

// Entitled reports whether the subscription grants access at now.
// A cancelled subscription keeps access until its paid period ends.
func (s *Subscription) Entitled(now time.Time) bool {
	switch s.Status {
	case SubscriptionActive, SubscriptionPastDue:
		return s.CurrentPeriodEnd == nil || now.Before(*s.CurrentPeriodEnd)
	case SubscriptionCancelled:
		return s.CurrentPeriodEnd != nil && now.Before(*s.CurrentPeriodEnd)
	}
	return false
}
