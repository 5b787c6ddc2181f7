package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"elderlink/internal/database"
	"elderlink/internal/models"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("elderlink"),
		postgres.WithUsername("elderlink"),
		postgres.WithPassword("elderlink"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	pool, err := database.ConnectWithConfig(ctx, poolConfig)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(ctx, pool))
	return pool
}

func seedUser(t *testing.T, repo *UserRepository, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: "User " + email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestRepositories(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := NewUserRepository(pool)
	elders := NewElderRepository(pool)
	assignments := NewAssignmentRepository(pool)
	appointments := NewAppointmentRepository(pool)
	prescriptions := NewPrescriptionRepository(pool)
	inventory := NewInventoryRepository(pool)
	notifications := NewNotificationRepository(pool)

	admin := seedUser(t, users, "admin@example.com", models.RoleAdmin)
	family := seedUser(t, users, "family@example.com", models.RoleFamily)
	doctor := seedUser(t, users, "doctor@example.com", models.RoleDoctor)
	pharmacist := seedUser(t, users, "pharma@example.com", models.RolePharmacist)

	elder := &models.Elder{
		FamilyID:          family.ID,
		FullName:          "Grace Hopper",
		DateOfBirth:       time.Date(1940, 12, 9, 0, 0, 0, 0, time.UTC),
		Gender:            "female",
		MedicalConditions: []string{"hypertension"},
	}
	require.NoError(t, elders.Create(ctx, elder))

	t.Run("users", func(t *testing.T) {
		found, err := users.FindByEmail(ctx, "  FAMILY@example.com ")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, family.ID, found.ID)

		dup := &models.User{Name: "Dup", Email: "family@example.com", PasswordHash: "x"}
		err = users.Create(ctx, dup)
		assert.True(t, IsUniqueViolation(err))

		missing, err := users.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)

		n, err := users.CountActiveByRole(ctx, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("assignments", func(t *testing.T) {
		a := &models.Assignment{FamilyID: family.ID, DoctorID: doctor.ID, AssignedBy: admin.ID}
		require.NoError(t, assignments.Create(ctx, a))

		again := &models.Assignment{FamilyID: family.ID, DoctorID: doctor.ID, AssignedBy: admin.ID}
		assert.True(t, IsUniqueViolation(assignments.Create(ctx, again)))

		active, err := assignments.IsActive(ctx, family.ID, doctor.ID)
		require.NoError(t, err)
		assert.True(t, active)

		assigned, total, err := elders.List(ctx, ElderFilter{DoctorID: &doctor.ID, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, assigned, 1)
		assert.Equal(t, []string{"hypertension"}, assigned[0].MedicalConditions)

		beyond, total, err := elders.List(ctx, ElderFilter{FamilyID: &family.ID, Limit: 10, Offset: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total, "total ignores the page window")
		assert.Empty(t, beyond)
	})

	t.Run("appointment overlap", func(t *testing.T) {
		start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
		first := &models.Appointment{ElderID: elder.ID, FamilyID: family.ID, DoctorID: doctor.ID, ScheduledAt: start}
		require.NoError(t, appointments.Create(ctx, first))

		clash := &models.Appointment{
			ElderID: elder.ID, FamilyID: family.ID, DoctorID: doctor.ID,
			ScheduledAt: start.Add(15 * time.Minute),
		}
		assert.ErrorIs(t, appointments.Create(ctx, clash), ErrSlotTaken)

		adjacent := &models.Appointment{
			ElderID: elder.ID, FamilyID: family.ID, DoctorID: doctor.ID,
			ScheduledAt: start.Add(30 * time.Minute),
		}
		assert.NoError(t, appointments.Create(ctx, adjacent))

		first.Status = models.AppointmentConfirmed
		require.NoError(t, appointments.Transition(ctx, first, models.AppointmentPending))
		assert.ErrorIs(t, appointments.Transition(ctx, first, models.AppointmentPending), ErrStaleState)
	})

	t.Run("inventory adjust", func(t *testing.T) {
		item := &models.InventoryItem{
			PharmacistID: pharmacist.ID,
			MedicineName: "Aspirin",
			Quantity:     5,
			ExpiryDate:   time.Now().AddDate(1, 0, 0),
		}
		require.NoError(t, inventory.Create(ctx, item))

		_, err := inventory.Adjust(ctx, item.ID, -6, pharmacist.ID, "count")
		assert.ErrorIs(t, err, ErrInsufficientStock)

		updated, err := inventory.Adjust(ctx, item.ID, -5, pharmacist.ID, "expired strip")
		require.NoError(t, err)
		assert.Equal(t, 0, updated.Quantity)

		movements, total, err := inventory.Movements(ctx, item.ID, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total, "a rejected adjustment leaves no movement")
		require.Len(t, movements, 1)
		assert.Equal(t, -5, movements[0].Delta)
		assert.Equal(t, models.MovementAdjustment, movements[0].Kind)
		assert.Equal(t, pharmacist.ID, movements[0].ActorID)
		require.NotNil(t, movements[0].Reason)
		assert.Equal(t, "expired strip", *movements[0].Reason)
		assert.Nil(t, movements[0].PrescriptionID)
	})

	t.Run("dispatch", func(t *testing.T) {
		batch := &models.InventoryItem{
			PharmacistID: pharmacist.ID,
			MedicineName: "Metformin",
			Quantity:     10,
			ExpiryDate:   time.Now().AddDate(0, 6, 0),
		}
		require.NoError(t, inventory.Create(ctx, batch))

		p := &models.Prescription{
			ElderID:   elder.ID,
			DoctorID:  doctor.ID,
			Diagnosis: "type 2 diabetes",
			Items: []models.PrescriptionItem{
				{MedicineName: "metformin", Dosage: "500mg", Frequency: "twice daily", DurationDays: 30, Quantity: 4},
			},
		}
		require.NoError(t, prescriptions.Create(ctx, p))

		p.Status = models.PrescriptionProcessing
		p.PharmacistID = &pharmacist.ID
		require.NoError(t, prescriptions.Transition(ctx, p, models.PrescriptionPending))

		planner := func(items []models.PrescriptionItem, stock []models.InventoryItem) ([]models.StockAllocation, error) {
			require.Len(t, items, 1)
			for _, s := range stock {
				if s.MatchesMedicine(items[0].MedicineName) {
					return []models.StockAllocation{{InventoryItemID: s.ID, Quantity: items[0].Quantity}}, nil
				}
			}
			return nil, ErrInsufficientStock
		}
		allocs, err := prescriptions.Dispatch(ctx, p.ID, pharmacist.ID, time.Now(), planner)
		require.NoError(t, err)
		require.Len(t, allocs, 1)

		after, err := inventory.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, after.Quantity)

		got, err := prescriptions.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PrescriptionDispatched, got.Status)
		assert.Equal(t, family.ID, got.FamilyID)
		require.Len(t, got.Items, 1)

		movements, _, err := inventory.Movements(ctx, batch.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, -4, movements[0].Delta)
		assert.Equal(t, models.MovementDispatch, movements[0].Kind)
		require.NotNil(t, movements[0].PrescriptionID)
		assert.Equal(t, p.ID, *movements[0].PrescriptionID)

		_, err = prescriptions.Dispatch(ctx, p.ID, pharmacist.ID, time.Now(), planner)
		assert.ErrorIs(t, err, ErrStaleState)

		movements, _, err = inventory.Movements(ctx, batch.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, movements, 1)
	})

	t.Run("notifications are owner scoped", func(t *testing.T) {
		n := &models.Notification{
			UserID:  family.ID,
			Type:    models.NotificationSystem,
			Title:   "Welcome",
			Message: "hello",
			Data:    json.RawMessage(`{"k":"v"}`),
		}
		require.NoError(t, notifications.Create(ctx, n))

		ok, err := notifications.MarkRead(ctx, n.ID, doctor.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		list, total, err := notifications.List(ctx, family.ID, true, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.JSONEq(t, `{"k":"v"}`, string(list[0].Data))

		ok, err = notifications.MarkRead(ctx, n.ID, family.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		unread, err := notifications.CountUnread(ctx, family.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)
	})
}

func TestUserBootstrap(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	stats := NewStatsRepository(pool)

	empty, err := stats.UsersByRole(ctx)
	require.NoError(t, err)
	for _, role := range models.Roles {
		assert.Contains(t, empty, string(role))
		assert.Zero(t, empty[string(role)])
	}

	choose := func(first bool) (models.Role, error) {
		if first {
			return models.RoleAdmin, nil
		}
		return models.RoleFamily, nil
	}
	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &models.User{Name: "Racer", Email: fmt.Sprintf("racer%d@example.com", i), PasswordHash: "x"}
			assert.NoError(t, users.CreateWithRole(ctx, u, choose))
		}(i)
	}
	wg.Wait()

	admins, err := users.CountActiveByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, admins, "exactly one registration sees an empty table")

	byRole, err := stats.UsersByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"admin": 1, "family": n - 1, "doctor": 0, "pharmacist": 0}, byRole)
}
