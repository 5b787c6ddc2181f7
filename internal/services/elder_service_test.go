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

func elderInput(name string) ElderInput {
	return ElderInput{
		FullName:          name,
		DateOfBirth:       time.Date(1942, 3, 9, 0, 0, 0, 0, time.UTC),
		Gender:            " Female ",
		MedicalConditions: []string{"hypertension", " ", "diabetes"},
	}
}

func TestElderCreate_PlanLimit(t *testing.T) {
	f := newFixture(t)
	s := f.elderService(true)
	ctx := context.Background()
	_, family := f.user(models.RoleFamily)

	_, err := s.Create(ctx, family, elderInput("Grandma"))
	assert.ErrorIs(t, err, ErrSubscriptionRequired)

	f.subscriptions.Activate(family.ID, models.PlanBasic, 30*24*time.Hour)

	elder, err := s.Create(ctx, family, elderInput("Grandma"))
	require.NoError(t, err)
	assert.Equal(t, "female", elder.Gender)
	assert.Equal(t, []string{"hypertension", "diabetes"}, elder.MedicalConditions)
	assert.Equal(t, elder.AgeAt(f.now), elder.Age)
	assert.Positive(t, elder.Age)

	_, err = s.Create(ctx, family, elderInput("Grandpa"))
	assert.ErrorIs(t, err, ErrPlanLimit)
}

func TestElderCreate_WithoutSubscriptionRequirement(t *testing.T) {
	f := newFixture(t)
	s := f.elderService(false)
	_, family := f.user(models.RoleFamily)
	_, doctor := f.user(models.RoleDoctor)

	_, err := s.Create(context.Background(), family, elderInput("Grandma"))
	require.NoError(t, err)

	_, err = s.Create(context.Background(), doctor, elderInput("Grandma"))
	assert.ErrorIs(t, err, ErrForbidden)

	in := elderInput("Unborn")
	in.DateOfBirth = f.now.Add(24 * time.Hour)
	_, err = s.Create(context.Background(), family, in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestElderVisibility(t *testing.T) {
	f := newFixture(t)
	s := f.elderService(false)
	ctx := context.Background()
	_, family := f.user(models.RoleFamily)
	_, stranger := f.user(models.RoleFamily)
	_, doctor := f.user(models.RoleDoctor)
	_, admin := f.user(models.RoleAdmin)
	elder := f.elder(family)

	_, err := s.Get(ctx, stranger, elder.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, doctor, elder.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	f.assignments.Assign(family.ID, doctor.ID)
	got, err := s.Get(ctx, doctor, elder.ID)
	require.NoError(t, err)
	assert.Equal(t, elder.ID, got.ID)

	list, total, err := s.List(ctx, doctor, utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	_, err = s.Get(ctx, admin, elder.ID)
	assert.NoError(t, err)

	_, err = s.Update(ctx, doctor, elder.ID, elderInput("Changed"))
	assert.ErrorIs(t, err, ErrNotFound, "only the owning family edits")
	assert.ErrorIs(t, s.Delete(ctx, stranger, elder.ID), ErrNotFound)
	require.NoError(t, s.Delete(ctx, family, elder.ID))
}

func TestElderList_PaginatesEveryRole(t *testing.T) {
	f := newFixture(t)
	s := f.elderService(false)
	ctx := context.Background()
	_, family := f.user(models.RoleFamily)
	_, doctor := f.user(models.RoleDoctor)
	_, admin := f.user(models.RoleAdmin)
	f.assignments.Assign(family.ID, doctor.ID)
	dob := time.Date(1938, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, name := range []string{"Ada", "Bea", "Cy"} {
		f.elders.Seed(family.ID, name, dob)
	}

	for _, actor := range []Actor{family, doctor, admin} {
		t.Run(string(actor.Role), func(t *testing.T) {
			first, total, err := s.List(ctx, actor, utils.Pagination{Page: 1, Limit: 2})
			require.NoError(t, err)
			assert.EqualValues(t, 3, total)
			assert.Len(t, first, 2)

			second, _, err := s.List(ctx, actor, utils.Pagination{Page: 2, Limit: 2})
			require.NoError(t, err)
			require.Len(t, second, 1)
			assert.NotContains(t, []string{first[0].FullName, first[1].FullName}, second[0].FullName)
			assert.Positive(t, second[0].Age)
		})
	}
}
