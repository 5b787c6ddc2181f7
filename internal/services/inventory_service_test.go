package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
	"elderlink/internal/utils"
)

func TestInventoryCRUD_OwnerScoped(t *testing.T) {
	f := newFixture(t)
	s := f.inventoryService()
	ctx := context.Background()
	_, pharmacist := f.user(models.RolePharmacist)
	_, rival := f.user(models.RolePharmacist)
	_, admin := f.user(models.RoleAdmin)
	_, family := f.user(models.RoleFamily)

	in := InventoryInput{
		MedicineName:   "Atorvastatin",
		BatchNumber:    "B-77",
		Quantity:       40,
		Unit:           "tablet",
		UnitPriceCents: 35,
		ReorderLevel:   10,
		ExpiryDate:     f.now.AddDate(1, 0, 0),
	}
	item, err := s.Create(ctx, pharmacist, in)
	require.NoError(t, err)
	require.NotNil(t, item.BatchNumber)
	assert.Nil(t, item.GenericName)

	_, err = s.Create(ctx, family, in)
	assert.ErrorIs(t, err, ErrForbidden)

	bad := in
	bad.Quantity = -1
	_, err = s.Create(ctx, pharmacist, bad)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Get(ctx, rival, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, admin, item.ID)
	assert.NoError(t, err)
	_, err = s.Update(ctx, admin, item.ID, in)
	assert.ErrorIs(t, err, ErrForbidden, "admins have read-only access")

	in.Quantity = 25
	updated, err := s.Update(ctx, pharmacist, item.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Quantity)

	page := utils.Pagination{Page: 1, Limit: 20}
	_, total, err := s.List(ctx, rival, InventoryListFilter{}, page)
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = s.List(ctx, admin, InventoryListFilter{Search: "atorva"}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	assert.ErrorIs(t, s.Delete(ctx, rival, item.ID), ErrNotFound)
	require.NoError(t, s.Delete(ctx, pharmacist, item.ID))
}

func TestInventoryAdjust(t *testing.T) {
	f := newFixture(t)
	s := f.inventoryService()
	ctx := context.Background()
	_, pharmacist := f.user(models.RolePharmacist)
	item := f.inventory.Seed(pharmacist.ID, "Insulin", 12, 5, 90)

	got, err := s.Adjust(ctx, pharmacist, item.ID, -6, "dispensed at counter")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	assert.Empty(t, f.notifications.For(pharmacist.ID))

	_, err = s.Adjust(ctx, pharmacist, item.ID, -7, "")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err = s.Adjust(ctx, pharmacist, item.ID, -1, "broken vial")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	assert.Len(t, f.notifications.For(pharmacist.ID), 1, "crossing the reorder level notifies once")

	_, err = s.Adjust(ctx, pharmacist, item.ID, 0, "")
	assert.ErrorIs(t, err, ErrValidation)

	movements, total, err := s.Movements(ctx, pharmacist, item.ID, utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "rejected adjustments are not recorded")
	require.Len(t, movements, 2)
	assert.Equal(t, -1, movements[0].Delta)
	require.NotNil(t, movements[0].Reason)
	assert.Equal(t, "broken vial", *movements[0].Reason)
	assert.Equal(t, pharmacist.ID, movements[0].ActorID)
	assert.Equal(t, -6, movements[1].Delta)
}

func TestInventoryMovements_Visibility(t *testing.T) {
	f := newFixture(t)
	s := f.inventoryService()
	ctx := context.Background()
	_, pharmacist := f.user(models.RolePharmacist)
	_, rival := f.user(models.RolePharmacist)
	_, admin := f.user(models.RoleAdmin)
	item := f.inventory.Seed(pharmacist.ID, "Warfarin", 30, 5, 90)
	page := utils.Pagination{Page: 1, Limit: 20}

	_, err := s.Adjust(ctx, pharmacist, item.ID, 10, "delivery")
	require.NoError(t, err)

	_, _, err = s.Movements(ctx, rival, item.ID, page)
	assert.ErrorIs(t, err, ErrNotFound)

	movements, _, err := s.Movements(ctx, admin, item.ID, page)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementAdjustment, movements[0].Kind)
	assert.Nil(t, movements[0].PrescriptionID)
}

func TestInventoryAlertsAndDigest(t *testing.T) {
	f := newFixture(t)
	s := f.inventoryService()
	ctx := context.Background()
	_, pharmacist := f.user(models.RolePharmacist)
	_, healthy := f.user(models.RolePharmacist)

	f.inventory.Seed(pharmacist.ID, "Low", 1, 5, 200)
	f.inventory.Seed(pharmacist.ID, "Expiring", 50, 5, 10)
	f.inventory.Seed(pharmacist.ID, "Expired", 50, 5, -2)
	f.inventory.Seed(healthy.ID, "Fine", 50, 5, 200)

	alerts, err := s.Alerts(ctx, pharmacist)
	require.NoError(t, err)
	assert.Len(t, alerts.LowStock, 1)
	assert.Len(t, alerts.ExpiringSoon, 1)
	assert.Len(t, alerts.Expired, 1)

	sent, err := s.SendDigests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, f.notifications.For(pharmacist.ID), 1)
	assert.Empty(t, f.notifications.For(healthy.ID))
}

func TestBuildAlerts_ExpiredNotCountedAsLow(t *testing.T) {
	now := time.Now()
	alerts := BuildAlerts([]models.InventoryItem{
		{MedicineName: "Old", Quantity: 0, ReorderLevel: 5, ExpiryDate: now.AddDate(0, 0, -10)},
	}, now)
	assert.Len(t, alerts.Expired, 1)
	assert.Empty(t, alerts.LowStock)
	assert.False(t, alerts.Empty())
}
