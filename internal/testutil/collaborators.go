package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"elderlink/internal/billing"
	"elderlink/internal/zoom"
)

// Pushed is one live event captured by Pusher.
type Pushed struct {
	UserID  uuid.UUID
	Event   string
	Payload any
}

type Pusher struct {
	mu     sync.Mutex
	Events []Pushed
}

func (p *Pusher) SendToUser(userID uuid.UUID, event string, payload any) {
	p.mu.Lock()
	p.Events = append(p.Events, Pushed{UserID: userID, Event: event, Payload: payload})
	p.mu.Unlock()
}

// Count returns how many events named event were pushed to userID.
func (p *Pusher) Count(userID uuid.UUID, event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.Events {
		if e.UserID == userID && e.Event == event {
			n++
		}
	}
	return n
}

// Mail is one message captured by Mailer.
type Mail struct {
	To      []string
	Subject string
	Body    string
}

type Mailer struct {
	mu   sync.Mutex
	Sent []Mail
	Err  error
}

func (m *Mailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// Meetings fakes the Zoom client.
type Meetings struct {
	mu        sync.Mutex
	Created   []zoom.MeetingRequest
	Deleted   []string
	CreateErr error
	next      int
}

func (m *Meetings) CreateMeeting(_ context.Context, req zoom.MeetingRequest) (*zoom.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.next++
	m.Created = append(m.Created, req)
	id := fmt.Sprintf("%d", 1000+m.next)
	return &zoom.Meeting{
		ID:       id,
		JoinURL:  "https://zoom.example/j/" + id,
		StartURL: "https://zoom.example/s/" + id,
		Password: "secret",
	}, nil
}

func (m *Meetings) DeleteMeeting(_ context.Context, id string) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, id)
	m.mu.Unlock()
	return nil
}

// ErrBadSignature is returned by Billing.ParseEvent for any other signature.
var ErrBadSignature = errors.New("bad signature")

// Billing fakes the Stripe gateway. ParseEvent hands back Event for a "valid" signature.
type Billing struct {
	mu        sync.Mutex
	Checkouts []billing.CheckoutRequest
	Cancelled []string
	Event     *billing.Event
	Err       error

	// Periods answers SubscriptionPeriod by Stripe subscription id.
	Periods   map[string][2]time.Time
	PeriodErr error
}

func (b *Billing) CreateCheckout(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	b.Checkouts = append(b.Checkouts, req)
	id := "cs_test_" + req.SubscriptionID.String()
	return &billing.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (b *Billing) CancelAtPeriodEnd(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Cancelled = append(b.Cancelled, id)
	return nil
}

func (b *Billing) SubscriptionPeriod(_ context.Context, id string) (time.Time, time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PeriodErr != nil {
		return time.Time{}, time.Time{}, b.PeriodErr
	}
	p, ok := b.Periods[id]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("no such subscription: %s", id)
	}
	return p[0], p[1], nil
}

func (b *Billing) ParseEvent(_ []byte, signature string) (*billing.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if signature != "valid" || b.Event == nil {
		return nil, ErrBadSignature
	}
	return b.Event, nil
}
