package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/utils"
)

type InventoryService struct {
	inventory InventoryStore
	notifier  *NotificationService
	now       func() time.Time
}

func NewInventoryService(inventory InventoryStore, notifier *NotificationService) *InventoryService {
	return &InventoryService{inventory: inventory, notifier: notifier, now: time.Now}
}

type InventoryInput struct {
	MedicineName   string
	GenericName    string
	Manufacturer   string
	BatchNumber    string
	Quantity       int
	Unit           string
	UnitPriceCents int64
	ReorderLevel   int
	ExpiryDate     time.Time
}

func (in InventoryInput) apply(item *models.InventoryItem) error {
	if strings.TrimSpace(in.MedicineName) == "" {
		return fmt.Errorf("medicine name is required: %w", ErrValidation)
	}
	if in.Quantity < 0 || in.UnitPriceCents < 0 || in.ReorderLevel < 0 {
		return fmt.Errorf("quantity, price and reorder level must not be negative: %w", ErrValidation)
	}
	if in.ExpiryDate.IsZero() {
		return fmt.Errorf("expiry date is required: %w", ErrValidation)
	}
	item.MedicineName = in.MedicineName
	item.GenericName = utils.StringPtr(in.GenericName)
	item.Manufacturer = utils.StringPtr(in.Manufacturer)
	item.BatchNumber = utils.StringPtr(in.BatchNumber)
	item.Quantity = in.Quantity
	item.Unit = strings.TrimSpace(in.Unit)
	item.UnitPriceCents = in.UnitPriceCents
	item.ReorderLevel = in.ReorderLevel
	item.ExpiryDate = in.ExpiryDate
	return nil
}

type InventoryListFilter struct {
	Search   string
	LowStock bool
}

func (s *InventoryService) Create(ctx context.Context, actor Actor, in InventoryInput) (*models.InventoryItem, error) {
	if !actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	item := &models.InventoryItem{PharmacistID: actor.ID}
	if err := in.apply(item); err != nil {
		return nil, err
	}
	if err := s.inventory.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// List shows pharmacists their own stock; admins see every pharmacist's stock read-only.
func (s *InventoryService) List(ctx context.Context, actor Actor, f InventoryListFilter, page utils.Pagination) ([]models.InventoryItem, int64, error) {
	filter := repositories.InventoryFilter{
		Search:   f.Search,
		LowStock: f.LowStock,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	}
	switch actor.Role {
	case models.RolePharmacist:
		filter.PharmacistID = &actor.ID
	case models.RoleAdmin:
	default:
		return nil, 0, ErrForbidden
	}
	return s.inventory.List(ctx, filter)
}

func (s *InventoryService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.inventory.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
	}
	if actor.Is(models.RoleAdmin) || (actor.Is(models.RolePharmacist) && item.PharmacistID == actor.ID) {
		return item, nil
	}
	return nil, fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
}

func (s *InventoryService) owned(ctx context.Context, actor Actor, id uuid.UUID) (*models.InventoryItem, error) {
	if !actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	return s.Get(ctx, actor, id)
}

func (s *InventoryService) Update(ctx context.Context, actor Actor, id uuid.UUID, in InventoryInput) (*models.InventoryItem, error) {
	item, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(item); err != nil {
		return nil, err
	}
	if err := s.inventory.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.inventory.Delete(ctx, id)
}

// Adjust adds delta (negative to remove) to a batch. The result may not go below zero.
func (s *InventoryService) Adjust(ctx context.Context, actor Actor, id uuid.UUID, delta int, reason string) (*models.InventoryItem, error) {
	before, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, fmt.Errorf("delta must not be zero: %w", ErrValidation)
	}

	item, err := s.inventory.Adjust(ctx, id, delta, actor.ID, strings.TrimSpace(reason))
	if err != nil {
		if errors.Is(err, repositories.ErrInsufficientStock) {
			return nil, fmt.Errorf("only %d %s in stock: %w", before.Quantity, before.Unit, ErrInsufficientStock)
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"inventory_item_id": id,
		"pharmacist_id":     actor.ID,
		"delta":             delta,
		"reason":            reason,
		"quantity":          item.Quantity,
	}).Info("Inventory adjusted")

	if !before.IsLowStock() && item.IsLowStock() {
		s.notifier.NotifyMany(ctx, []uuid.UUID{actor.ID}, models.NotificationInventory,
			"Low stock", fmt.Sprintf("%s is down to %d %s.", item.MedicineName, item.Quantity, item.Unit),
			map[string]any{"inventory_item_id": item.ID})
	}
	return item, nil
}

// Movements lists the ledger of quantity changes for a batch the actor can see.
func (s *InventoryService) Movements(ctx context.Context, actor Actor, id uuid.UUID, page utils.Pagination) ([]models.StockMovement, int64, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, 0, err
	}
	return s.inventory.Movements(ctx, id, page.Limit, page.Offset())
}

func (s *InventoryService) Alerts(ctx context.Context, actor Actor) (*models.InventoryAlerts, error) {
	if !actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	stock, err := s.inventory.ListByPharmacist(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	alerts := BuildAlerts(stock, s.now())
	return &alerts, nil
}

// SendDigests notifies every pharmacist who has low, expiring or expired stock.
func (s *InventoryService) SendDigests(ctx context.Context) (int, error) {
	pharmacists, err := s.inventory.PharmacistIDs(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	sent := 0
	for _, id := range pharmacists {
		stock, err := s.inventory.ListByPharmacist(ctx, id)
		if err != nil {
			log.WithError(err).WithField("pharmacist_id", id).Warn("Failed to load stock for digest")
			continue
		}
		alerts := BuildAlerts(stock, now)
		if alerts.Empty() {
			continue
		}
		msg := fmt.Sprintf("%d low stock, %d expiring within 30 days, %d expired.",
			len(alerts.LowStock), len(alerts.ExpiringSoon), len(alerts.Expired))
		data := map[string]any{
			"low_stock":     len(alerts.LowStock),
			"expiring_soon": len(alerts.ExpiringSoon),
			"expired":       len(alerts.Expired),
		}
		if _, err := s.notifier.Notify(ctx, id, models.NotificationInventory, "Daily inventory digest", msg, data); err != nil {
			log.WithError(err).WithField("pharmacist_id", id).Warn("Failed to send inventory digest")
			continue
		}
		sent++
	}
	return sent, nil
}
