package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
)

func TestDoctorProfiles(t *testing.T) {
	f := newFixture(t)
	svc := NewDoctorService(f.doctors)
	ctx := context.Background()

	cardio, _ := f.user(models.RoleDoctor)
	_, _ = f.user(models.RoleDoctor)
	family, _ := f.user(models.RoleFamily)

	d, err := svc.UpsertProfile(ctx, cardio.ID, DoctorProfileInput{
		Specialization:       "  Cardiology ",
		LicenseNumber:        "MD-1001",
		YearsExperience:      12,
		ConsultationFeeCents: 4500,
	})
	require.NoError(t, err)
	require.NotNil(t, d.Profile)
	assert.Equal(t, "Cardiology", d.Profile.Specialization)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.List(ctx, "cardio")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, cardio.ID, filtered[0].ID)

	_, err = svc.Get(ctx, family.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpsertProfile(ctx, cardio.ID, DoctorProfileInput{YearsExperience: -1})
	assert.ErrorIs(t, err, ErrValidation)
}
