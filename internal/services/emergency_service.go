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
)

type EmergencyService struct {
	emergencies EmergencyStore
	elders      ElderStore
	assignments AssignmentStore
	users       UserStore
	notifier    *NotificationService
	mailer      Mailer
	now         func() time.Time
}

type EmergencyDeps struct {
	Emergencies EmergencyStore
	Elders      ElderStore
	Assignments AssignmentStore
	Users       UserStore
	Notifier    *NotificationService
	Mailer      Mailer
}

func NewEmergencyService(d EmergencyDeps) *EmergencyService {
	return &EmergencyService{
		emergencies: d.Emergencies,
		elders:      d.Elders,
		assignments: d.Assignments,
		users:       d.Users,
		notifier:    d.Notifier,
		mailer:      d.Mailer,
		now:         time.Now,
	}
}

type EmergencyInput struct {
	ElderID   uuid.UUID
	Message   string
	Latitude  *float64
	Longitude *float64
}

// Raise records an alert for one of the family's elders and fans it out to the
// family, every actively assigned doctor and all admins.
func (s *EmergencyService) Raise(ctx context.Context, actor Actor, in EmergencyInput) (*models.EmergencyAlert, error) {
	if !actor.Is(models.RoleFamily) {
		return nil, fmt.Errorf("only family accounts raise emergencies: %w", ErrForbidden)
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, fmt.Errorf("message is required: %w", ErrValidation)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, fmt.Errorf("latitude and longitude go together: %w", ErrValidation)
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180) {
		return nil, fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}

	elder, err := s.elders.FindByID(ctx, in.ElderID)
	if err != nil {
		return nil, err
	}
	if elder == nil || elder.FamilyID != actor.ID {
		return nil, fmt.Errorf("elder %s: %w", in.ElderID, ErrNotFound)
	}

	alert := &models.EmergencyAlert{
		ElderID:   elder.ID,
		FamilyID:  elder.FamilyID,
		RaisedBy:  actor.ID,
		Message:   msg,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Status:    models.EmergencyActive,
	}
	if err := s.emergencies.Create(ctx, alert); err != nil {
		return nil, err
	}
	alert.ElderName = elder.FullName

	doctors, err := s.assignments.ActiveDoctorIDs(ctx, elder.FamilyID)
	if err != nil {
		log.WithError(err).WithField("family_id", elder.FamilyID).Warn("Failed to load assigned doctors")
	}
	admins, err := s.users.ListIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.WithError(err).Warn("Failed to load admins")
	}

	recipients := append([]uuid.UUID{elder.FamilyID}, doctors...)
	recipients = append(recipients, admins...)

	title := "Emergency: " + elder.FullName
	data := map[string]any{"emergency_id": alert.ID, "elder_id": elder.ID, "status": alert.Status}
	s.notifier.NotifyMany(ctx, recipients, models.NotificationEmergency, title, msg, data)
	s.broadcast(recipients, alert)
	s.emailDoctors(ctx, doctors, alert)

	log.WithFields(log.Fields{
		"emergency_id": alert.ID,
		"elder_id":     elder.ID,
		"recipients":   len(recipients),
	}).Warn("Emergency raised")
	return alert, nil
}

func (s *EmergencyService) broadcast(userIDs []uuid.UUID, alert *models.EmergencyAlert) {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s.notifier.Push(id, EventEmergency, alert)
	}
}

func (s *EmergencyService) emailDoctors(ctx context.Context, doctorIDs []uuid.UUID, alert *models.EmergencyAlert) {
	if s.mailer == nil || len(doctorIDs) == 0 {
		return
	}
	to := make([]string, 0, len(doctorIDs))
	for _, id := range doctorIDs {
		u, err := s.users.FindByID(ctx, id)
		if err != nil || u == nil {
			continue
		}
		to = append(to, u.Email)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "An emergency was raised for %s at %s.\n\n", alert.ElderName, formatTime(alert.CreatedAt))
	fmt.Fprintf(&b, "Message: %s\n", alert.Message)
	if alert.Latitude != nil {
		fmt.Fprintf(&b, "Location: %.6f, %.6f\n", *alert.Latitude, *alert.Longitude)
	}
	if err := s.mailer.Send(to, "Emergency: "+alert.ElderName, b.String()); err != nil {
		log.WithError(err).WithField("emergency_id", alert.ID).Warn("Failed to email emergency alert")
	}
}

func (s *EmergencyService) List(ctx context.Context, actor Actor, status string, page utils.Pagination) ([]models.EmergencyAlert, int64, error) {
	if status != "" && !models.EmergencyStatus(status).Valid() {
		return nil, 0, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	filter := repositories.EmergencyFilter{Status: status, Limit: page.Limit, Offset: page.Offset()}
	switch actor.Role {
	case models.RoleFamily:
		filter.FamilyID = &actor.ID
	case models.RoleDoctor:
		filter.DoctorID = &actor.ID
	case models.RoleAdmin:
	default:
		return nil, 0, ErrForbidden
	}
	return s.emergencies.List(ctx, filter)
}

func (s *EmergencyService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.EmergencyAlert, error) {
	if actor.Is(models.RolePharmacist) {
		return nil, ErrForbidden
	}
	alert, err := s.emergencies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, fmt.Errorf("emergency %s: %w", id, ErrNotFound)
	}
	ok, err := canSeeFamily(ctx, s.assignments, actor, alert.FamilyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("emergency %s: %w", id, ErrNotFound)
	}
	return alert, nil
}

func (s *EmergencyService) Acknowledge(ctx context.Context, actor Actor, id uuid.UUID) (*models.EmergencyAlert, error) {
	if !actor.Is(models.RoleDoctor) && !actor.Is(models.RoleAdmin) {
		return nil, fmt.Errorf("only doctors and admins acknowledge emergencies: %w", ErrForbidden)
	}
	alert, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alert.AcknowledgedBy = &actor.ID
	alert.AcknowledgedAt = &now
	if err := s.transition(ctx, alert, models.EmergencyAcknowledged); err != nil {
		return nil, err
	}

	s.notifyFamily(ctx, alert, "Emergency acknowledged", "Help is on the way for "+alert.ElderName+".")
	return alert, nil
}

func (s *EmergencyService) Resolve(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*models.EmergencyAlert, error) {
	alert, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alert.ResolvedBy = &actor.ID
	alert.ResolvedAt = &now
	alert.ResolutionNotes = utils.StringPtr(notes)
	if err := s.transition(ctx, alert, models.EmergencyResolved); err != nil {
		return nil, err
	}

	s.notifyFamily(ctx, alert, "Emergency resolved", "The emergency for "+alert.ElderName+" was resolved.")
	return alert, nil
}

func (s *EmergencyService) transition(ctx context.Context, alert *models.EmergencyAlert, next models.EmergencyStatus) error {
	from := alert.Status
	if !from.CanTransitionTo(next) {
		return fmt.Errorf("emergency is %s, cannot become %s: %w", from, next, ErrInvalidTransition)
	}
	alert.Status = next
	if err := s.emergencies.Transition(ctx, alert, from); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return fmt.Errorf("emergency changed concurrently: %w", ErrInvalidTransition)
		}
		return err
	}
	return nil
}

// notifyFamily tells the family and the assigned doctors about a status change.
func (s *EmergencyService) notifyFamily(ctx context.Context, alert *models.EmergencyAlert, title, msg string) {
	recipients := []uuid.UUID{alert.FamilyID}
	if doctors, err := s.assignments.ActiveDoctorIDs(ctx, alert.FamilyID); err == nil {
		recipients = append(recipients, doctors...)
	}
	data := map[string]any{"emergency_id": alert.ID, "status": alert.Status}
	s.notifier.NotifyMany(ctx, recipients, models.NotificationEmergency, title, msg, data)
	s.broadcast(recipients, alert)
}
