package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/utils"
	"elderlink/internal/zoom"
)

// ReminderLead is how far ahead of a confirmed appointment the reminder goes out.
const ReminderLead = 30 * time.Minute

type AppointmentService struct {
	appointments         AppointmentStore
	elders               ElderStore
	assignments          AssignmentStore
	users                UserStore
	notifier             *NotificationService
	meetings             MeetingScheduler
	mailer               Mailer
	entitlements         Entitlements
	subscriptionRequired bool
	now                  func() time.Time
}

type AppointmentDeps struct {
	Appointments         AppointmentStore
	Elders               ElderStore
	Assignments          AssignmentStore
	Users                UserStore
	Notifier             *NotificationService
	Meetings             MeetingScheduler
	Mailer               Mailer
	Entitlements         Entitlements
	SubscriptionRequired bool
}

func NewAppointmentService(d AppointmentDeps) *AppointmentService {
	return &AppointmentService{
		appointments:         d.Appointments,
		elders:               d.Elders,
		assignments:          d.Assignments,
		users:                d.Users,
		notifier:             d.Notifier,
		meetings:             d.Meetings,
		mailer:               d.Mailer,
		entitlements:         d.Entitlements,
		subscriptionRequired: d.SubscriptionRequired,
		now:                  time.Now,
	}
}

type AppointmentInput struct {
	ElderID         uuid.UUID
	DoctorID        uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Reason          string
}

type AppointmentListFilter struct {
	Status   string
	Upcoming bool
}

// MeetingLink is the role-specific way into an appointment's video meeting.
type MeetingLink struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	MeetingID     string    `json:"meeting_id"`
	URL           string    `json:"url"`
	Host          bool      `json:"host"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	IsLive        bool      `json:"is_live"`
}

func (s *AppointmentService) Create(ctx context.Context, actor Actor, in AppointmentInput) (*models.Appointment, error) {
	if !actor.Is(models.RoleFamily) {
		return nil, fmt.Errorf("only family accounts book appointments: %w", ErrForbidden)
	}

	now := s.now()
	if !in.ScheduledAt.After(now) {
		return nil, fmt.Errorf("scheduled_at must be in the future: %w", ErrValidation)
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = models.DefaultAppointmentMinutes
	}
	if in.DurationMinutes < models.MinAppointmentMinutes || in.DurationMinutes > models.MaxAppointmentMinutes {
		return nil, fmt.Errorf("duration must be between %d and %d minutes: %w",
			models.MinAppointmentMinutes, models.MaxAppointmentMinutes, ErrValidation)
	}

	elder, err := s.elders.FindByID(ctx, in.ElderID)
	if err != nil {
		return nil, err
	}
	if elder == nil || elder.FamilyID != actor.ID {
		return nil, fmt.Errorf("elder %s: %w", in.ElderID, ErrNotFound)
	}

	assigned, err := s.assignments.IsActive(ctx, actor.ID, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, fmt.Errorf("doctor is not assigned to your family: %w", ErrForbidden)
	}

	if err := s.checkConsultationQuota(ctx, actor.ID, in.ScheduledAt); err != nil {
		return nil, err
	}

	a := &models.Appointment{
		ElderID:         elder.ID,
		FamilyID:        actor.ID,
		DoctorID:        in.DoctorID,
		ScheduledAt:     in.ScheduledAt.UTC(),
		DurationMinutes: in.DurationMinutes,
		Reason:          strings.TrimSpace(in.Reason),
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		if errors.Is(err, repositories.ErrSlotTaken) {
			return nil, fmt.Errorf("doctor already has an appointment at this time: %w", ErrConflict)
		}
		return nil, err
	}
	a.ElderName = elder.FullName
	a.ApplyCountdown(now)

	s.announce(ctx, a, a.DoctorID, "New appointment request",
		fmt.Sprintf("%s requested a consultation on %s.", elder.FullName, formatTime(a.ScheduledAt)))
	return a, nil
}

func (s *AppointmentService) checkConsultationQuota(ctx context.Context, familyID uuid.UUID, at time.Time) error {
	if !s.subscriptionRequired || s.entitlements == nil {
		return nil
	}
	plan, err := s.entitlements.ActivePlan(ctx, familyID)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrSubscriptionRequired
	}
	if plan.ConsultationsPerMonth == models.Unlimited {
		return nil
	}
	at = at.UTC()
	from := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	used, err := s.appointments.CountConsultations(ctx, familyID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return err
	}
	if used >= plan.ConsultationsPerMonth {
		return fmt.Errorf("%s plan allows %d consultations per month: %w",
			plan.Name, plan.ConsultationsPerMonth, ErrPlanLimit)
	}
	return nil
}

func (s *AppointmentService) List(ctx context.Context, actor Actor, f AppointmentListFilter, page utils.Pagination) ([]models.Appointment, int64, error) {
	if f.Status != "" && !models.AppointmentStatus(f.Status).Valid() {
		return nil, 0, fmt.Errorf("unknown status %q: %w", f.Status, ErrValidation)
	}
	now := s.now()
	filter := repositories.AppointmentFilter{
		Status:   f.Status,
		Upcoming: f.Upcoming,
		Now:      now,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	}
	switch actor.Role {
	case models.RoleFamily:
		filter.FamilyID = &actor.ID
	case models.RoleDoctor:
		filter.DoctorID = &actor.ID
	case models.RoleAdmin:
	default:
		return nil, 0, ErrForbidden
	}

	items, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].ApplyCountdown(now)
	}
	return items, total, nil
}

func (s *AppointmentService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Appointment, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	a.ApplyCountdown(s.now())
	return a, nil
}

// load returns the appointment if the actor is a party to it (or an admin).
func (s *AppointmentService) load(ctx context.Context, actor Actor, id uuid.UUID) (*models.Appointment, error) {
	a, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	switch {
	case actor.Is(models.RoleAdmin),
		actor.Is(models.RoleFamily) && a.FamilyID == actor.ID,
		actor.Is(models.RoleDoctor) && a.DoctorID == actor.ID:
		return a, nil
	}
	return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
}

func (s *AppointmentService) transition(ctx context.Context, a *models.Appointment, next models.AppointmentStatus) error {
	from := a.Status
	if !from.CanTransitionTo(next) {
		return fmt.Errorf("cannot move appointment from %s to %s: %w", from, next, ErrInvalidTransition)
	}
	a.Status = next
	if err := s.appointments.Transition(ctx, a, from); err != nil {
		a.Status = from
		if errors.Is(err, repositories.ErrStaleState) {
			return fmt.Errorf("appointment changed concurrently: %w", ErrInvalidTransition)
		}
		return err
	}
	return nil
}

// Confirm accepts a pending request. When a meeting provider is configured
// the video meeting is created first, so a confirmed appointment always has one.
func (s *AppointmentService) Confirm(ctx context.Context, actor Actor, id uuid.UUID) (*models.Appointment, error) {
	a, err := s.doctorOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(models.AppointmentConfirmed) {
		return nil, fmt.Errorf("cannot confirm a %s appointment: %w", a.Status, ErrInvalidTransition)
	}

	if s.meetings != nil {
		meeting, err := s.meetings.CreateMeeting(ctx, zoom.MeetingRequest{
			Topic:           fmt.Sprintf("ElderLink consultation: %s", a.ElderName),
			Agenda:          a.Reason,
			StartTime:       a.ScheduledAt,
			DurationMinutes: a.DurationMinutes,
		})
		if err != nil {
			log.WithError(err).WithField("appointment_id", a.ID).Error("Failed to create meeting")
			return nil, fmt.Errorf("could not create video meeting: %w", ErrUpstream)
		}
		a.MeetingID = &meeting.ID
		a.MeetingJoinURL = &meeting.JoinURL
		a.MeetingStartURL = &meeting.StartURL
	}

	if err := s.transition(ctx, a, models.AppointmentConfirmed); err != nil {
		s.dropMeeting(ctx, a)
		return nil, err
	}
	a.ApplyCountdown(s.now())

	s.announce(ctx, a, a.FamilyID, "Appointment confirmed",
		fmt.Sprintf("Dr. %s confirmed the consultation for %s on %s.", a.DoctorName, a.ElderName, formatTime(a.ScheduledAt)))
	return a, nil
}

func (s *AppointmentService) Reject(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Appointment, error) {
	a, err := s.doctorOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	a.StatusReason = utils.StringPtr(reason)
	if err := s.transition(ctx, a, models.AppointmentRejected); err != nil {
		return nil, err
	}
	a.ApplyCountdown(s.now())

	msg := fmt.Sprintf("Dr. %s declined the consultation for %s.", a.DoctorName, a.ElderName)
	if a.StatusReason != nil {
		msg += " Reason: " + *a.StatusReason
	}
	s.announce(ctx, a, a.FamilyID, "Appointment rejected", msg)
	return a, nil
}

func (s *AppointmentService) Complete(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*models.Appointment, error) {
	a, err := s.doctorOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AppointmentConfirmed && s.now().Before(a.ScheduledAt) {
		return nil, fmt.Errorf("appointment has not started yet: %w", ErrInvalidTransition)
	}
	a.DoctorNotes = utils.StringPtr(notes)
	if err := s.transition(ctx, a, models.AppointmentCompleted); err != nil {
		return nil, err
	}
	a.ApplyCountdown(s.now())

	s.announce(ctx, a, a.FamilyID, "Consultation completed",
		fmt.Sprintf("The consultation for %s with Dr. %s is complete.", a.ElderName, a.DoctorName))
	return a, nil
}

// Cancel may be called by either party. The video meeting is removed best-effort.
func (s *AppointmentService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Appointment, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Is(models.RoleAdmin) {
		return nil, fmt.Errorf("only the family or doctor can cancel: %w", ErrForbidden)
	}
	a.StatusReason = utils.StringPtr(reason)
	if err := s.transition(ctx, a, models.AppointmentCancelled); err != nil {
		return nil, err
	}
	s.dropMeeting(ctx, a)
	a.ApplyCountdown(s.now())

	other := a.DoctorID
	if actor.ID == a.DoctorID {
		other = a.FamilyID
	}
	s.announce(ctx, a, other, "Appointment cancelled",
		fmt.Sprintf("The consultation for %s on %s was cancelled.", a.ElderName, formatTime(a.ScheduledAt)))
	return a, nil
}

func (s *AppointmentService) MeetingLink(ctx context.Context, actor Actor, id uuid.UUID) (*MeetingLink, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AppointmentConfirmed {
		return nil, fmt.Errorf("meeting is only available for confirmed appointments: %w", ErrConflict)
	}
	if a.MeetingID == nil {
		return nil, fmt.Errorf("no video meeting for this appointment: %w", ErrNotFound)
	}

	a.ApplyCountdown(s.now())
	link := &MeetingLink{
		AppointmentID: a.ID,
		MeetingID:     *a.MeetingID,
		StartsAt:      a.ScheduledAt,
		EndsAt:        a.EndsAt(),
		IsLive:        a.IsLive,
	}
	if actor.ID == a.DoctorID && a.MeetingStartURL != nil {
		link.URL = *a.MeetingStartURL
		link.Host = true
	} else if a.MeetingJoinURL != nil {
		link.URL = *a.MeetingJoinURL
	}
	return link, nil
}

// SendReminders notifies both parties of confirmed appointments starting
// within ReminderLead. Each appointment is reminded at most once.
func (s *AppointmentService) SendReminders(ctx context.Context) (int, error) {
	due, err := s.appointments.DueForReminder(ctx, s.now(), ReminderLead)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		a := &due[i]
		claimed, err := s.appointments.MarkReminderSent(ctx, a.ID)
		if err != nil {
			log.WithError(err).WithField("appointment_id", a.ID).Warn("Failed to claim reminder")
			continue
		}
		if !claimed {
			continue
		}

		title := "Upcoming consultation"
		msg := fmt.Sprintf("The consultation for %s with Dr. %s starts at %s.", a.ElderName, a.DoctorName, formatTime(a.ScheduledAt))
		data := map[string]any{"appointment_id": a.ID, "scheduled_at": a.ScheduledAt}
		s.notifier.NotifyMany(ctx, []uuid.UUID{a.FamilyID, a.DoctorID}, models.NotificationAppointment, title, msg, data)
		s.emailUsers(ctx, []uuid.UUID{a.FamilyID, a.DoctorID}, title, msg)
		sent++
	}
	return sent, nil
}

func (s *AppointmentService) doctorOwned(ctx context.Context, actor Actor, id uuid.UUID) (*models.Appointment, error) {
	a, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil || !actor.Is(models.RoleDoctor) || a.DoctorID != actor.ID {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (s *AppointmentService) dropMeeting(ctx context.Context, a *models.Appointment) {
	if s.meetings == nil || a.MeetingID == nil {
		return
	}
	if err := s.meetings.DeleteMeeting(ctx, *a.MeetingID); err != nil {
		log.WithError(err).WithField("meeting_id", *a.MeetingID).Warn("Failed to delete meeting")
	}
}

// announce persists a notification for the other party and pushes the updated appointment.
func (s *AppointmentService) announce(ctx context.Context, a *models.Appointment, to uuid.UUID, title, msg string) {
	data := map[string]any{"appointment_id": a.ID, "status": a.Status}
	s.notifier.NotifyMany(ctx, []uuid.UUID{to}, models.NotificationAppointment, title, msg, data)
	s.notifier.Push(to, EventAppointment, a)
}

func (s *AppointmentService) emailUsers(ctx context.Context, ids []uuid.UUID, subject, body string) {
	if s.mailer == nil || s.users == nil {
		return
	}
	to := make([]string, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.FindByID(ctx, id)
		if err != nil || u == nil {
			continue
		}
		to = append(to, u.Email)
	}
	if err := s.mailer.Send(to, subject, body); err != nil {
		log.WithError(err).Warn("Failed to send reminder email")
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}
