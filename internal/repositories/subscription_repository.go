package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elderlink/internal/models"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, user_id, plan, status, amount_cents, currency, stripe_customer_id,
	stripe_subscription_id, stripe_checkout_session_id, cancel_at_period_end, current_period_start,
	current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Plan,
		&s.Status,
		&s.AmountCents,
		&s.Currency,
		&s.StripeCustomerID,
		&s.StripeSubscriptionID,
		&s.StripeCheckoutSessionID,
		&s.CancelAtPeriodEnd,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSubscriptions(rows pgx.Rows) ([]models.Subscription, error) {
	defer rows.Close()
	subs := []models.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *models.Subscription) error {
	s.Prepare()
	now := time.Now()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, user_id, plan, status, amount_cents, currency, stripe_customer_id,
			stripe_subscription_id, stripe_checkout_session_id, cancel_at_period_end, current_period_start,
			current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`,
		s.ID,
		s.UserID,
		string(s.Plan),
		string(s.Status),
		s.AmountCents,
		s.Currency,
		s.StripeCustomerID,
		s.StripeSubscriptionID,
		s.StripeCheckoutSessionID,
		s.CancelAtPeriodEnd,
		s.CurrentPeriodStart,
		s.CurrentPeriodEnd,
		now,
	)
	if err != nil {
		return err
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *SubscriptionRepository) findOne(ctx context.Context, where string, args ...any) (*models.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return r.findOne(ctx, `id = $1`, id)
}

// FindCurrentByUser prefers a subscription that is not pending, newest first.
func (r *SubscriptionRepository) FindCurrentByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return r.findOne(ctx, `user_id = $1
		ORDER BY (status = 'pending') ASC, created_at DESC
		LIMIT 1`, userID)
}

func (r *SubscriptionRepository) FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Subscription, error) {
	return r.findOne(ctx, `stripe_checkout_session_id = $1`, sessionID)
}

func (r *SubscriptionRepository) FindByStripeSubscription(ctx context.Context, stripeID string) (*models.Subscription, error) {
	return r.findOne(ctx, `stripe_subscription_id = $1`, stripeID)
}

func (r *SubscriptionRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Subscription, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE ($1 = '' OR status::text = $1)`, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE ($1 = '' OR status::text = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	subs, err := collectSubscriptions(rows)
	return subs, total, err
}

func (r *SubscriptionRepository) Update(ctx context.Context, s *models.Subscription) error {
	s.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET
			plan = $2, status = $3, amount_cents = $4, currency = $5, stripe_customer_id = $6,
			stripe_subscription_id = $7, stripe_checkout_session_id = $8, cancel_at_period_end = $9,
			current_period_start = $10, current_period_end = $11, updated_at = $12
		WHERE id = $1
	`,
		s.ID,
		string(s.Plan),
		string(s.Status),
		s.AmountCents,
		s.Currency,
		s.StripeCustomerID,
		s.StripeSubscriptionID,
		s.StripeCheckoutSessionID,
		s.CancelAtPeriodEnd,
		s.CurrentPeriodStart,
		s.CurrentPeriodEnd,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// ExpireEnded moves live subscriptions whose period ended before cutoff to expired.
func (r *SubscriptionRepository) ExpireEnded(ctx context.Context, cutoff time.Time) ([]models.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE subscriptions SET status = 'expired', updated_at = NOW()
		WHERE status IN ('active', 'past_due', 'cancelled')
		  AND current_period_end IS NOT NULL AND current_period_end < $1
		RETURNING `+subscriptionColumns, cutoff)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}
