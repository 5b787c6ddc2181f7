package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
)

const (
	adminStatsKey = "admin:stats"
	adminStatsTTL = 60 * time.Second

	adminStatsMonths     = 6
	pharmacistStatsMonth = 12
	topMedicinesLimit    = 5
)

type StatsService struct {
	stats         StatsStore
	prescriptions PrescriptionStore
	inventory     InventoryStore
	cache         Cache
	now           func() time.Time
}

func NewStatsService(stats StatsStore, prescriptions PrescriptionStore, inventory InventoryStore, cache Cache) *StatsService {
	return &StatsService{
		stats:         stats,
		prescriptions: prescriptions,
		inventory:     inventory,
		cache:         cache,
		now:           time.Now,
	}
}

// AdminStats returns platform counters, served from cache for a minute unless refresh is set.
func (s *StatsService) AdminStats(ctx context.Context, refresh bool) (*models.AdminStats, error) {
	if !refresh && s.cache != nil {
		raw, ok, err := s.cache.CacheGet(ctx, adminStatsKey)
		if err != nil {
			log.WithError(err).Warn("Failed to read cached admin stats")
		} else if ok {
			var cached models.AdminStats
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	out, err := s.computeAdminStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.cache.CacheSet(ctx, adminStatsKey, raw, adminStatsTTL); err != nil {
				log.WithError(err).Warn("Failed to cache admin stats")
			}
		}
	}
	return out, nil
}

func (s *StatsService) computeAdminStats(ctx context.Context) (*models.AdminStats, error) {
	now := s.now().UTC()
	out := &models.AdminStats{GeneratedAt: now.Format(time.RFC3339)}

	var err error
	if out.UsersByRole, err = s.stats.UsersByRole(ctx); err != nil {
		return nil, err
	}
	for _, n := range out.UsersByRole {
		out.TotalUsers += n
	}
	if out.TotalElders, err = s.stats.TotalElders(ctx); err != nil {
		return nil, err
	}
	if out.AppointmentsByStatus, err = s.stats.AppointmentsByStatus(ctx); err != nil {
		return nil, err
	}
	if out.PrescriptionsByStatus, err = s.stats.PrescriptionsByStatus(ctx); err != nil {
		return nil, err
	}
	if out.ActiveEmergencies, err = s.stats.ActiveEmergencies(ctx); err != nil {
		return nil, err
	}
	if out.ActiveSubscriptions, err = s.stats.ActiveSubscriptions(ctx); err != nil {
		return nil, err
	}
	if out.RevenueThisMonthCents, err = s.stats.RevenueSince(ctx, monthStart(now)); err != nil {
		return nil, err
	}

	months := lastMonths(now, adminStatsMonths)
	since, _ := time.Parse("2006-01", months[0])
	byMonth, err := s.stats.NewUsersByMonth(ctx, since)
	if err != nil {
		return nil, err
	}
	out.NewUsersByMonth = zeroFill(months, byMonth)
	return out, nil
}

func (s *StatsService) PharmacistAnalytics(ctx context.Context, actor Actor) (*models.PharmacistAnalytics, error) {
	if !actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	return s.pharmacistAnalytics(ctx, actor.ID)
}

func (s *StatsService) pharmacistAnalytics(ctx context.Context, pharmacistID uuid.UUID) (*models.PharmacistAnalytics, error) {
	now := s.now().UTC()
	months := lastMonths(now, pharmacistStatsMonth)
	since, _ := time.Parse("2006-01", months[0])

	handled, err := s.prescriptions.HandledByMonth(ctx, pharmacistID, since)
	if err != nil {
		return nil, err
	}
	top, err := s.prescriptions.TopMedicines(ctx, pharmacistID, topMedicinesLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []models.MedicineUsage{}
	}
	stock, err := s.inventory.ListByPharmacist(ctx, pharmacistID)
	if err != nil {
		return nil, err
	}
	value, err := s.stats.TotalStockValue(ctx, pharmacistID)
	if err != nil {
		return nil, err
	}

	alerts := BuildAlerts(stock, now)
	return &models.PharmacistAnalytics{
		PrescriptionsByMonth: zeroFill(months, handled),
		TopMedicines:         top,
		LowStockCount:        int64(len(alerts.LowStock)),
		ExpiringSoonCount:    int64(len(alerts.ExpiringSoon)),
		TotalStockValueCents: value,
	}, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// lastMonths lists the n months ending with now's month, oldest first, as YYYY-MM.
func lastMonths(now time.Time, n int) []string {
	first := monthStart(now).AddDate(0, -(n - 1), 0)
	out := make([]string, n)
	for i := range out {
		out[i] = first.AddDate(0, i, 0).Format("2006-01")
	}
	return out
}

func zeroFill(months []string, counts map[string]int64) []models.MonthlyCount {
	out := make([]models.MonthlyCount, len(months))
	for i, m := range months {
		out[i] = models.MonthlyCount{Month: m, Count: counts[m]}
	}
	return out
}
