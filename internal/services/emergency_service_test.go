package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
	"elderlink/internal/utils"
)

func TestRaiseEmergency_FansOut(t *testing.T) {
	f := newFixture(t)
	s := f.emergencyService()
	ctx := context.Background()
	p := f.parties()
	_, admin := f.user(models.RoleAdmin)
	_, bystander := f.user(models.RoleDoctor)

	lat, lng := 51.5, -0.12
	alert, err := s.Raise(ctx, p.family, EmergencyInput{ElderID: p.elder.ID, Message: "Fell in the kitchen", Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyActive, alert.Status)
	assert.Equal(t, p.elder.FullName, alert.ElderName)

	for _, id := range []Actor{p.family, p.doctor, admin} {
		assert.Len(t, f.notifications.For(id.ID), 1)
		assert.Equal(t, 1, f.pusher.Count(id.ID, EventEmergency))
	}
	assert.Empty(t, f.notifications.For(bystander.ID))

	require.Len(t, f.mailer.Sent, 1)
	assert.Len(t, f.mailer.Sent[0].To, 1)
	assert.Contains(t, f.mailer.Sent[0].Body, "Fell in the kitchen")
}

func TestRaiseEmergency_Validation(t *testing.T) {
	f := newFixture(t)
	s := f.emergencyService()
	ctx := context.Background()
	p := f.parties()
	_, stranger := f.user(models.RoleFamily)
	lat := 10.0

	_, err := s.Raise(ctx, p.family, EmergencyInput{ElderID: p.elder.ID, Message: " "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Raise(ctx, p.family, EmergencyInput{ElderID: p.elder.ID, Message: "help", Latitude: &lat})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Raise(ctx, stranger, EmergencyInput{ElderID: p.elder.ID, Message: "help"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Raise(ctx, p.doctor, EmergencyInput{ElderID: p.elder.ID, Message: "help"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEmergencyLifecycle(t *testing.T) {
	f := newFixture(t)
	s := f.emergencyService()
	ctx := context.Background()
	p := f.parties()
	_, pharmacist := f.user(models.RolePharmacist)
	_, outsider := f.user(models.RoleDoctor)

	alert, err := s.Raise(ctx, p.family, EmergencyInput{ElderID: p.elder.ID, Message: "Chest pain"})
	require.NoError(t, err)

	_, err = s.Acknowledge(ctx, p.family, alert.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.Acknowledge(ctx, outsider, alert.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, pharmacist, alert.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	acked, err := s.Acknowledge(ctx, p.doctor, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedBy)
	assert.Equal(t, p.doctor.ID, *acked.AcknowledgedBy)

	_, err = s.Acknowledge(ctx, p.doctor, alert.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	resolved, err := s.Resolve(ctx, p.family, alert.ID, "Ambulance arrived")
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyResolved, resolved.Status)
	require.NotNil(t, resolved.ResolutionNotes)

	_, err = s.Resolve(ctx, p.doctor, alert.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	page := utils.Pagination{Page: 1, Limit: 10}
	list, total, err := s.List(ctx, p.doctor, "resolved", page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)
	_, total, err = s.List(ctx, outsider, "", page)
	require.NoError(t, err)
	assert.Zero(t, total)
	_, _, err = s.List(ctx, pharmacist, "", page)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEmergency_ActiveCanResolveDirectly(t *testing.T) {
	f := newFixture(t)
	s := f.emergencyService()
	p := f.parties()
	_, admin := f.user(models.RoleAdmin)

	alert, err := s.Raise(context.Background(), p.family, EmergencyInput{ElderID: p.elder.ID, Message: "False alarm"})
	require.NoError(t, err)
	resolved, err := s.Resolve(context.Background(), admin, alert.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyResolved, resolved.Status)
	assert.Nil(t, resolved.ResolutionNotes)
}
