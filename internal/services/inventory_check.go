package services

import (
	"sort"
	"strings"
	"time"

	"elderlink/internal/models"
)

type StockCheckItem struct {
	MedicineName string `json:"medicine_name"`
	Required     int    `json:"required"`
	Available    int    `json:"available"`
	Sufficient   bool   `json:"sufficient"`
}

type StockCheck struct {
	CanFulfil bool             `json:"can_fulfil"`
	Items     []StockCheckItem `json:"items"`
}

func medicineKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CheckStock compares prescription lines against non-expired batches.
// Lines naming the same medicine share its stock, so each is sufficient only
// if the combined requirement fits.
func CheckStock(items []models.PrescriptionItem, stock []models.InventoryItem, now time.Time) StockCheck {
	available := map[string]int{}
	for i := range stock {
		if stock[i].IsExpired(now) || stock[i].Quantity <= 0 {
			continue
		}
		available[medicineKey(stock[i].MedicineName)] += stock[i].Quantity
	}

	required := map[string]int{}
	for _, item := range items {
		required[medicineKey(item.MedicineName)] += item.Quantity
	}

	result := StockCheck{CanFulfil: true, Items: make([]StockCheckItem, 0, len(items))}
	for _, item := range items {
		key := medicineKey(item.MedicineName)
		line := StockCheckItem{
			MedicineName: item.MedicineName,
			Required:     item.Quantity,
			Available:    available[key],
			Sufficient:   required[key] <= available[key],
		}
		if !line.Sufficient {
			result.CanFulfil = false
		}
		result.Items = append(result.Items, line)
	}
	return result
}

// PlanDispatch allocates each line from the earliest-expiring usable batches.
// Expired batches are never drawn from. If any line cannot be covered it
// returns a *ShortageError and no allocations.
func PlanDispatch(items []models.PrescriptionItem, stock []models.InventoryItem, now time.Time) ([]models.StockAllocation, error) {
	check := CheckStock(items, stock, now)
	if !check.CanFulfil {
		shortages := []StockCheckItem{}
		for _, line := range check.Items {
			if !line.Sufficient {
				shortages = append(shortages, line)
			}
		}
		return nil, &ShortageError{Shortages: shortages}
	}

	batches := make([]models.InventoryItem, 0, len(stock))
	for i := range stock {
		if !stock[i].IsExpired(now) && stock[i].Quantity > 0 {
			batches = append(batches, stock[i])
		}
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
	})

	remaining := make(map[int]int, len(batches))
	for i := range batches {
		remaining[i] = batches[i].Quantity
	}

	allocations := []models.StockAllocation{}
	for _, item := range items {
		need := item.Quantity
		for i := range batches {
			if need == 0 {
				break
			}
			if remaining[i] == 0 || !batches[i].MatchesMedicine(item.MedicineName) {
				continue
			}
			take := min(need, remaining[i])
			remaining[i] -= take
			need -= take
			allocations = append(allocations, models.StockAllocation{
				InventoryItemID: batches[i].ID,
				MedicineName:    batches[i].MedicineName,
				Quantity:        take,
			})
		}
	}
	return allocations, nil
}

// BuildAlerts classifies stock into low-stock, expiring-soon and expired lists.
func BuildAlerts(stock []models.InventoryItem, now time.Time) models.InventoryAlerts {
	alerts := models.InventoryAlerts{
		LowStock:     []models.InventoryItem{},
		ExpiringSoon: []models.InventoryItem{},
		Expired:      []models.InventoryItem{},
	}
	for _, item := range stock {
		if item.IsExpired(now) {
			alerts.Expired = append(alerts.Expired, item)
			continue
		}
		if item.ExpiresWithin(now, models.ExpiryWarningWindow) {
			alerts.ExpiringSoon = append(alerts.ExpiringSoon, item)
		}
		if item.IsLowStock() {
			alerts.LowStock = append(alerts.LowStock, item)
		}
	}
	return alerts
}
