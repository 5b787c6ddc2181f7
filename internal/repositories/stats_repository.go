package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"elderlink/internal/models"
)

// StatsRepository runs the aggregate queries behind the admin and pharmacist dashboards.
type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

func (r *StatsRepository) groupCount(ctx context.Context, query string, args ...any) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectCounts(rows)
}

func (r *StatsRepository) scalar(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// UsersByRole counts live accounts per role. Roles without accounts report zero.
func (r *StatsRepository) UsersByRole(ctx context.Context) (map[string]int64, error) {
	counts, err := r.groupCount(ctx, `SELECT role::text, COUNT(*) FROM users WHERE deleted_at IS NULL GROUP BY role`)
	if err != nil {
		return nil, err
	}
	for _, role := range models.Roles {
		if _, ok := counts[string(role)]; !ok {
			counts[string(role)] = 0
		}
	}
	return counts, nil
}

func (r *StatsRepository) AppointmentsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, `SELECT status::text, COUNT(*) FROM appointments GROUP BY status`)
}

func (r *StatsRepository) PrescriptionsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, `SELECT status::text, COUNT(*) FROM prescriptions GROUP BY status`)
}

func (r *StatsRepository) NewUsersByMonth(ctx context.Context, since time.Time) (map[string]int64, error) {
	return r.groupCount(ctx, `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*)
		FROM users WHERE created_at >= $1 AND deleted_at IS NULL
		GROUP BY month
	`, since)
}

func (r *StatsRepository) TotalElders(ctx context.Context) (int64, error) {
	return r.scalar(ctx, `SELECT COUNT(*) FROM elders`)
}

func (r *StatsRepository) ActiveEmergencies(ctx context.Context) (int64, error) {
	return r.scalar(ctx, `SELECT COUNT(*) FROM emergency_alerts WHERE status <> 'resolved'`)
}

func (r *StatsRepository) ActiveSubscriptions(ctx context.Context) (int64, error) {
	return r.scalar(ctx, `SELECT COUNT(*) FROM subscriptions WHERE status IN ('active', 'past_due')`)
}

// RevenueSince sums the amounts of subscriptions whose current period started in [since, now).
func (r *StatsRepository) RevenueSince(ctx context.Context, since time.Time) (int64, error) {
	return r.scalar(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM subscriptions
		WHERE status IN ('active', 'past_due', 'cancelled', 'expired')
		  AND current_period_start >= $1
	`, since)
}

func (r *StatsRepository) TotalStockValue(ctx context.Context, pharmacistID uuid.UUID) (int64, error) {
	return r.scalar(ctx, `
		SELECT COALESCE(SUM(quantity::BIGINT * unit_price_cents), 0)::BIGINT
		FROM inventory_items WHERE pharmacist_id = $1
	`, pharmacistID)
}
