package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
	"elderlink/internal/utils"
)

func issue(t *testing.T, f *fixture, p bookingParties, items ...PrescriptionItemInput) *models.Prescription {
	t.Helper()
	rx, err := f.prescriptionService().Create(context.Background(), p.doctor, PrescriptionInput{
		ElderID:   p.elder.ID,
		Diagnosis: "Seasonal flu",
		Items:     items,
	})
	require.NoError(t, err)
	return rx
}

func TestPrescriptionCreate(t *testing.T) {
	f := newFixture(t)
	s := f.prescriptionService()
	ctx := context.Background()
	p := f.parties()
	_, stranger := f.user(models.RoleDoctor)

	rx := issue(t, f, p, PrescriptionItemInput{MedicineName: " Paracetamol ", Dosage: "500mg", Quantity: 10})
	assert.Equal(t, models.PrescriptionPending, rx.Status)
	assert.Equal(t, p.elder.FamilyID, rx.FamilyID)
	assert.Equal(t, "Paracetamol", rx.Items[0].MedicineName)
	assert.Len(t, f.notifications.For(p.family.ID), 1)

	_, err := s.Create(ctx, stranger, PrescriptionInput{
		ElderID: p.elder.ID, Diagnosis: "x", Items: []PrescriptionItemInput{{MedicineName: "A", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Create(ctx, p.doctor, PrescriptionInput{ElderID: p.elder.ID, Diagnosis: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Create(ctx, p.doctor, PrescriptionInput{
		ElderID: p.elder.ID, Diagnosis: "x", Items: []PrescriptionItemInput{{MedicineName: "A", Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Create(ctx, p.family, PrescriptionInput{ElderID: p.elder.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPrescriptionDispatch_FirstExpiryFirstOut(t *testing.T) {
	f := newFixture(t)
	s := f.prescriptionService()
	ctx := context.Background()
	p := f.parties()
	_, pharmacist := f.user(models.RolePharmacist)

	early := f.inventory.Seed(pharmacist.ID, "Paracetamol", 5, 2, 10)
	late := f.inventory.Seed(pharmacist.ID, "paracetamol", 10, 2, 100)
	expired := f.inventory.Seed(pharmacist.ID, "Paracetamol", 50, 2, -3)

	rx := issue(t, f, p, PrescriptionItemInput{MedicineName: "Paracetamol", Quantity: 8})

	check, err := s.InventoryCheck(ctx, pharmacist, rx.ID)
	require.NoError(t, err)
	assert.True(t, check.CanFulfil)
	assert.Equal(t, 15, check.Items[0].Available)

	_, err = s.Dispatch(ctx, pharmacist, rx.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "must be processed first")

	_, err = s.Process(ctx, pharmacist, rx.ID)
	require.NoError(t, err)

	res, err := s.Dispatch(ctx, pharmacist, rx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionDispatched, res.Prescription.Status)
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, early.ID, res.Allocations[0].InventoryItemID)
	assert.Equal(t, 5, res.Allocations[0].Quantity)
	assert.Equal(t, late.ID, res.Allocations[1].InventoryItemID)
	assert.Equal(t, 3, res.Allocations[1].Quantity)

	for id, want := range map[uuid.UUID]int{early.ID: 0, late.ID: 7, expired.ID: 50} {
		item, err := f.inventory.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, item.Quantity)
	}

	movements, _, err := f.inventory.Movements(ctx, late.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -3, movements[0].Delta)
	assert.Equal(t, models.MovementDispatch, movements[0].Kind)
	require.NotNil(t, movements[0].PrescriptionID)
	assert.Equal(t, rx.ID, *movements[0].PrescriptionID)

	family := f.notifications.For(p.family.ID)
	assert.Equal(t, models.NotificationDispatch, family[len(family)-1].Type)
	assert.NotEmpty(t, f.notifications.For(pharmacist.ID), "emptied batch raises a low-stock notice")
}

func TestPrescriptionDispatch_ShortageLeavesStockUntouched(t *testing.T) {
	f := newFixture(t)
	s := f.prescriptionService()
	ctx := context.Background()
	p := f.parties()
	_, pharmacist := f.user(models.RolePharmacist)
	batch := f.inventory.Seed(pharmacist.ID, "Amoxicillin", 4, 0, 60)

	rx := issue(t, f, p,
		PrescriptionItemInput{MedicineName: "Amoxicillin", Quantity: 3},
		PrescriptionItemInput{MedicineName: "amoxicillin", Quantity: 3},
	)
	_, err := s.Process(ctx, pharmacist, rx.ID)
	require.NoError(t, err)

	_, err = s.Dispatch(ctx, pharmacist, rx.ID)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var shortage *ShortageError
	require.True(t, errors.As(err, &shortage))
	assert.Len(t, shortage.Shortages, 2, "both lines share the same stock")

	item, err := f.inventory.FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)

	got, err := s.Get(ctx, pharmacist, rx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionProcessing, got.Status)
}

func TestPrescriptionDispatch_OnlyClaimingPharmacist(t *testing.T) {
	f := newFixture(t)
	s := f.prescriptionService()
	ctx := context.Background()
	p := f.parties()
	_, first := f.user(models.RolePharmacist)
	_, second := f.user(models.RolePharmacist)
	f.inventory.Seed(second.ID, "Ibuprofen", 10, 0, 60)

	rx := issue(t, f, p, PrescriptionItemInput{MedicineName: "Ibuprofen", Quantity: 1})
	_, err := s.Process(ctx, first, rx.ID)
	require.NoError(t, err)

	_, err = s.Dispatch(ctx, second, rx.ID)
	assert.ErrorIs(t, err, ErrNotFound, "claimed prescriptions leave other pharmacists' queues")

	_, err = s.Process(ctx, second, rx.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrescriptionDeliverAndCancel(t *testing.T) {
	f := newFixture(t)
	s := f.prescriptionService()
	ctx := context.Background()
	p := f.parties()
	_, pharmacist := f.user(models.RolePharmacist)
	f.inventory.Seed(pharmacist.ID, "Metformin", 30, 0, 200)

	rx := issue(t, f, p, PrescriptionItemInput{MedicineName: "Metformin", Quantity: 30})
	_, err := s.Deliver(ctx, p.family, rx.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Process(ctx, pharmacist, rx.ID)
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, pharmacist, rx.ID)
	require.NoError(t, err)

	_, err = s.Cancel(ctx, p.doctor, rx.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "dispatched prescriptions cannot be cancelled")

	delivered, err := s.Deliver(ctx, p.family, rx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)

	other := issue(t, f, p, PrescriptionItemInput{MedicineName: "Metformin", Quantity: 1})
	_, err = s.Cancel(ctx, pharmacist, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	cancelled, err := s.Cancel(ctx, p.doctor, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionCancelled, cancelled.Status)
}

func TestPrescriptionList_RoleScoped(t *testing.T) {
	f := newFixture(t)
	s := f.prescriptionService()
	ctx := context.Background()
	p := f.parties()
	other := f.parties()
	_, pharmacist := f.user(models.RolePharmacist)
	issue(t, f, p, PrescriptionItemInput{MedicineName: "A", Quantity: 1})
	issue(t, f, other, PrescriptionItemInput{MedicineName: "B", Quantity: 1})

	page := utils.Pagination{Page: 1, Limit: 20}
	mine, total, err := s.List(ctx, p.family, "", page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, mine, 1)

	queue, total, err := s.List(ctx, pharmacist, "", page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, queue, 2)

	_, err = s.Get(ctx, other.family, mine[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckStock_IgnoresExpiredBatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stock := []models.InventoryItem{
		{MedicineName: "Aspirin", Quantity: 10, ExpiryDate: now.AddDate(0, 0, -1)},
		{MedicineName: "Aspirin", Quantity: 3, ExpiryDate: now},
	}
	check := CheckStock([]models.PrescriptionItem{{MedicineName: "aspirin", Quantity: 3}}, stock, now)
	assert.True(t, check.CanFulfil, "a batch is usable through its expiry date")
	assert.Equal(t, 3, check.Items[0].Available)

	check = CheckStock([]models.PrescriptionItem{{MedicineName: "aspirin", Quantity: 4}}, stock, now)
	assert.False(t, check.CanFulfil)
}
