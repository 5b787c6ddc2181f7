package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
)

func TestAssignmentLifecycle(t *testing.T) {
	f := newFixture(t)
	s := NewAssignmentService(f.assignments, f.users, f.notifier)
	s.now = f.clock
	ctx := context.Background()

	admin, _ := f.user(models.RoleAdmin)
	family, familyActor := f.user(models.RoleFamily)
	doctor, doctorActor := f.user(models.RoleDoctor)

	a, err := s.Create(ctx, admin.ID, AssignmentInput{FamilyID: family.ID, DoctorID: doctor.ID, Notes: "primary care"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, a.Status)
	assert.Len(t, f.notifications.For(family.ID), 1)
	assert.Len(t, f.notifications.For(doctor.ID), 1)

	_, err = s.Create(ctx, admin.ID, AssignmentInput{FamilyID: family.ID, DoctorID: doctor.ID})
	assert.ErrorIs(t, err, ErrConflict)

	mine, err := s.Mine(ctx, doctorActor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	mine, err = s.Mine(ctx, familyActor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	ended, err := s.End(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, f.now, *ended.EndedAt)

	_, err = s.End(ctx, a.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Create(ctx, admin.ID, AssignmentInput{FamilyID: family.ID, DoctorID: doctor.ID})
	assert.NoError(t, err, "a new assignment may follow an ended one")
}

func TestAssignmentCreate_ValidatesRoles(t *testing.T) {
	f := newFixture(t)
	s := NewAssignmentService(f.assignments, f.users, f.notifier)
	admin, _ := f.user(models.RoleAdmin)
	family, _ := f.user(models.RoleFamily)
	pharmacist, _ := f.user(models.RolePharmacist)

	_, err := s.Create(context.Background(), admin.ID, AssignmentInput{FamilyID: family.ID, DoctorID: pharmacist.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Create(context.Background(), admin.ID, AssignmentInput{FamilyID: pharmacist.ID, DoctorID: family.ID})
	assert.ErrorIs(t, err, ErrValidation)
}
