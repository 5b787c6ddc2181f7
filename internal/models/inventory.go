package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const ExpiryWarningWindow = 30 * 24 * time.Hour

type InventoryItem struct {
	ID             uuid.UUID `json:"id"`
	PharmacistID   uuid.UUID `json:"pharmacist_id"`
	MedicineName   string    `json:"medicine_name"`
	GenericName    *string   `json:"generic_name,omitempty"`
	Manufacturer   *string   `json:"manufacturer,omitempty"`
	BatchNumber    *string   `json:"batch_number,omitempty"`
	Quantity       int       `json:"quantity"`
	Unit           string    `json:"unit"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	ReorderLevel   int       `json:"reorder_level"`
	ExpiryDate     time.Time `json:"expiry_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (i *InventoryItem) Prepare() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.MedicineName = strings.TrimSpace(i.MedicineName)
	if i.Unit == "" {
		i.Unit = "unit"
	}
}

func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// IsExpired treats the expiry date as the last usable day.
func (i *InventoryItem) IsExpired(now time.Time) bool {
	y, m, d := i.ExpiryDate.Date()
	endOfDay := time.Date(y, m, d, 23, 59, 59, 0, i.ExpiryDate.Location())
	return now.After(endOfDay)
}

func (i *InventoryItem) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !i.IsExpired(now) && i.ExpiryDate.Before(now.Add(window))
}

// MatchesMedicine compares names case-insensitively, ignoring surrounding space.
func (i *InventoryItem) MatchesMedicine(name string) bool {
	return strings.EqualFold(strings.TrimSpace(i.MedicineName), strings.TrimSpace(name))
}

type InventoryAlerts struct {
	LowStock     []InventoryItem `json:"low_stock"`
	ExpiringSoon []InventoryItem `json:"expiring_soon"`
	Expired      []InventoryItem `json:"expired"`
}

func (a InventoryAlerts) Empty() bool {
	return len(a.LowStock) == 0 && len(a.ExpiringSoon) == 0 && len(a.Expired) == 0
}

// StockAllocation is the quantity taken from one inventory batch when dispatching.
type StockAllocation struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	MedicineName    string    `json:"medicine_name"`
	Quantity        int       `json:"quantity"`
}

const (
	MovementAdjustment = "adjustment"
	MovementDispatch   = "dispatch"
)

// StockMovement is one ledger row for a change to an inventory batch's quantity.
type StockMovement struct {
	ID              uuid.UUID  `json:"id"`
	InventoryItemID uuid.UUID  `json:"inventory_item_id"`
	ActorID         uuid.UUID  `json:"actor_id"`
	Delta           int        `json:"delta"`
	Kind            string     `json:"kind"`
	Reason          *string    `json:"reason,omitempty"`
	PrescriptionID  *uuid.UUID `json:"prescription_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
