package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
	"elderlink/internal/utils"
)

type bookingParties struct {
	family Actor
	doctor Actor
	elder  *models.Elder
}

func (f *fixture) parties() bookingParties {
	_, family := f.user(models.RoleFamily)
	_, doctor := f.user(models.RoleDoctor)
	f.assignments.Assign(family.ID, doctor.ID)
	return bookingParties{family: family, doctor: doctor, elder: f.elder(family)}
}

// nextMonth returns 09:00 UTC on the first day of the month after now.
func nextMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 9, 0, 0, 0, time.UTC)
}

func book(t *testing.T, s *AppointmentService, p bookingParties, at time.Time) *models.Appointment {
	t.Helper()
	a, err := s.Create(context.Background(), p.family, AppointmentInput{
		ElderID:     p.elder.ID,
		DoctorID:    p.doctor.ID,
		ScheduledAt: at,
		Reason:      "check-up",
	})
	require.NoError(t, err)
	return a
}

func TestAppointmentCreate(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	p := f.parties()
	at := f.now.Add(48 * time.Hour)

	a := book(t, s, p, at)
	assert.Equal(t, models.AppointmentPending, a.Status)
	assert.Equal(t, models.DefaultAppointmentMinutes, a.DurationMinutes)
	assert.EqualValues(t, 48*3600, a.StartsInSeconds)
	assert.Len(t, f.notifications.For(p.doctor.ID), 1)
	assert.Equal(t, 1, f.pusher.Count(p.doctor.ID, EventAppointment))
}

func TestAppointmentCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	ctx := context.Background()
	p := f.parties()
	_, otherFamily := f.user(models.RoleFamily)
	_, unassigned := f.user(models.RoleDoctor)
	at := f.now.Add(24 * time.Hour)

	cases := []struct {
		name  string
		actor Actor
		in    AppointmentInput
		want  error
	}{
		{"past", p.family, AppointmentInput{ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: f.now.Add(-time.Minute)}, ErrValidation},
		{"too short", p.family, AppointmentInput{ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: at, DurationMinutes: 10}, ErrValidation},
		{"too long", p.family, AppointmentInput{ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: at, DurationMinutes: 121}, ErrValidation},
		{"foreign elder", otherFamily, AppointmentInput{ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: at}, ErrNotFound},
		{"unassigned doctor", p.family, AppointmentInput{ElderID: p.elder.ID, DoctorID: unassigned.ID, ScheduledAt: at}, ErrForbidden},
		{"doctor books", p.doctor, AppointmentInput{ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: at}, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, tc.actor, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAppointmentCreate_DoubleBooking(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	p := f.parties()
	at := f.now.Add(24 * time.Hour)
	book(t, s, p, at)

	_, err := s.Create(context.Background(), p.family, AppointmentInput{
		ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: at.Add(15 * time.Minute),
	})
	assert.ErrorIs(t, err, ErrConflict)

	book(t, s, p, at.Add(30*time.Minute))
}

func TestAppointmentCreate_ConsultationQuota(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(true)
	p := f.parties()
	base := nextMonth(f.now)

	_, err := s.Create(context.Background(), p.family, AppointmentInput{ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: base})
	assert.ErrorIs(t, err, ErrSubscriptionRequired)

	f.subscriptions.Activate(p.family.ID, models.PlanBasic, 90*24*time.Hour)
	book(t, s, p, base)
	book(t, s, p, base.Add(2*time.Hour))

	_, err = s.Create(context.Background(), p.family, AppointmentInput{
		ElderID: p.elder.ID, DoctorID: p.doctor.ID, ScheduledAt: base.Add(4 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrPlanLimit)
}

func TestAppointmentConfirm_CreatesMeeting(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	ctx := context.Background()
	p := f.parties()
	a := book(t, s, p, f.now.Add(time.Hour))

	_, err := s.Confirm(ctx, p.family, a.ID)
	assert.ErrorIs(t, err, ErrNotFound, "families cannot confirm")

	confirmed, err := s.Confirm(ctx, p.doctor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.MeetingID)
	require.Len(t, f.meetings.Created, 1)
	assert.Equal(t, a.ScheduledAt, f.meetings.Created[0].StartTime)

	hostLink, err := s.MeetingLink(ctx, p.doctor, a.ID)
	require.NoError(t, err)
	assert.True(t, hostLink.Host)
	assert.Contains(t, hostLink.URL, "/s/")

	guestLink, err := s.MeetingLink(ctx, p.family, a.ID)
	require.NoError(t, err)
	assert.False(t, guestLink.Host)
	assert.Contains(t, guestLink.URL, "/j/")

	_, err = s.Confirm(ctx, p.doctor, a.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAppointmentConfirm_MeetingFailureKeepsPending(t *testing.T) {
	f := newFixture(t)
	f.meetings.CreateErr = errors.New("zoom is down")
	s := f.appointmentService(false)
	p := f.parties()
	a := book(t, s, p, f.now.Add(time.Hour))

	_, err := s.Confirm(context.Background(), p.doctor, a.ID)
	assert.ErrorIs(t, err, ErrUpstream)

	got, err := s.Get(context.Background(), p.family, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentPending, got.Status)

	_, err = s.MeetingLink(context.Background(), p.family, a.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAppointmentCancel_DropsMeeting(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	ctx := context.Background()
	p := f.parties()
	a := book(t, s, p, f.now.Add(time.Hour))
	confirmed, err := s.Confirm(ctx, p.doctor, a.ID)
	require.NoError(t, err)

	cancelled, err := s.Cancel(ctx, p.family, a.ID, "feeling better")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)
	assert.Equal(t, []string{*confirmed.MeetingID}, f.meetings.Deleted)

	_, err = s.Cancel(ctx, p.doctor, a.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAppointmentComplete_NotBeforeStart(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	ctx := context.Background()
	p := f.parties()
	a := book(t, s, p, f.now.Add(time.Hour))
	_, err := s.Confirm(ctx, p.doctor, a.ID)
	require.NoError(t, err)

	_, err = s.Complete(ctx, p.doctor, a.ID, "all good")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f.now = f.now.Add(90 * time.Minute)
	done, err := s.Complete(ctx, p.doctor, a.ID, "all good")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, done.Status)
	require.NotNil(t, done.DoctorNotes)
	assert.Equal(t, "all good", *done.DoctorNotes)
}

func TestAppointmentReject(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	p := f.parties()
	a := book(t, s, p, f.now.Add(time.Hour))

	rejected, err := s.Reject(context.Background(), p.doctor, a.ID, "on leave")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentRejected, rejected.Status)

	notes := f.notifications.For(p.family.ID)
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1].Message, "on leave")
}

func TestAppointmentList_ScopedAndUpcoming(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	ctx := context.Background()
	p := f.parties()
	other := f.parties()
	first := book(t, s, p, f.now.Add(3*time.Hour))
	book(t, s, p, f.now.Add(time.Hour))
	book(t, s, other, f.now.Add(time.Hour))
	_, err := s.Cancel(ctx, p.family, first.ID, "")
	require.NoError(t, err)

	page := utils.Pagination{Page: 1, Limit: 20}
	all, total, err := s.List(ctx, p.family, AppointmentListFilter{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	upcoming, _, err := s.List(ctx, p.doctor, AppointmentListFilter{Upcoming: true}, page)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.NotEqual(t, first.ID, upcoming[0].ID)

	_, _, err = s.List(ctx, p.family, AppointmentListFilter{Status: "bogus"}, page)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSendReminders_OncePerAppointment(t *testing.T) {
	f := newFixture(t)
	s := f.appointmentService(false)
	ctx := context.Background()
	p := f.parties()
	soon := book(t, s, p, f.now.Add(20*time.Minute))
	later := book(t, s, p, f.now.Add(3*time.Hour))
	_, err := s.Confirm(ctx, p.doctor, soon.ID)
	require.NoError(t, err)
	_, err = s.Confirm(ctx, p.doctor, later.ID)
	require.NoError(t, err)

	sent, err := s.SendReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.mailer.Sent, 1)
	assert.Len(t, f.mailer.Sent[0].To, 2)

	sent, err = s.SendReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
