package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/utils"
)

type AssignmentService struct {
	assignments AssignmentStore
	users       UserStore
	notifier    *NotificationService
	now         func() time.Time
}

func NewAssignmentService(assignments AssignmentStore, users UserStore, notifier *NotificationService) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		users:       users,
		notifier:    notifier,
		now:         time.Now,
	}
}

type AssignmentInput struct {
	FamilyID uuid.UUID
	DoctorID uuid.UUID
	Notes    string
}

func (s *AssignmentService) Create(ctx context.Context, adminID uuid.UUID, in AssignmentInput) (*models.Assignment, error) {
	family, err := s.requireRole(ctx, in.FamilyID, models.RoleFamily)
	if err != nil {
		return nil, err
	}
	doctor, err := s.requireRole(ctx, in.DoctorID, models.RoleDoctor)
	if err != nil {
		return nil, err
	}

	active, err := s.assignments.IsActive(ctx, in.FamilyID, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("doctor is already assigned to this family: %w", ErrConflict)
	}

	a := &models.Assignment{
		FamilyID:   in.FamilyID,
		DoctorID:   in.DoctorID,
		AssignedBy: adminID,
		Notes:      utils.StringPtr(in.Notes),
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, fmt.Errorf("doctor is already assigned to this family: %w", ErrConflict)
		}
		return nil, err
	}
	a.FamilyName = family.Name
	a.DoctorName = doctor.Name

	data := map[string]any{"assignment_id": a.ID}
	s.notifier.NotifyMany(ctx, []uuid.UUID{a.FamilyID}, models.NotificationAssignment,
		"Doctor assigned", fmt.Sprintf("Dr. %s is now caring for your family.", doctor.Name), data)
	s.notifier.NotifyMany(ctx, []uuid.UUID{a.DoctorID}, models.NotificationAssignment,
		"New family assigned", fmt.Sprintf("You have been assigned to the %s family.", family.Name), data)
	return a, nil
}

func (s *AssignmentService) requireRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != role || !user.IsActive() {
		return nil, fmt.Errorf("%s is not an active %s account: %w", id, role, ErrValidation)
	}
	return user, nil
}

func (s *AssignmentService) List(ctx context.Context, filter repositories.AssignmentFilter) ([]models.Assignment, error) {
	if filter.Status != "" && filter.Status != models.AssignmentActive && filter.Status != models.AssignmentEnded {
		return nil, fmt.Errorf("unknown status %q: %w", filter.Status, ErrValidation)
	}
	return s.assignments.List(ctx, filter)
}

// Mine lists active assignments where the actor is the family or the doctor.
func (s *AssignmentService) Mine(ctx context.Context, actor Actor) ([]models.Assignment, error) {
	filter := repositories.AssignmentFilter{Status: models.AssignmentActive}
	switch actor.Role {
	case models.RoleFamily:
		filter.FamilyID = &actor.ID
	case models.RoleDoctor:
		filter.DoctorID = &actor.ID
	default:
		return nil, fmt.Errorf("only families and doctors have assignments: %w", ErrForbidden)
	}
	return s.assignments.List(ctx, filter)
}

func (s *AssignmentService) End(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	if a.Status != models.AssignmentActive {
		return nil, fmt.Errorf("assignment already ended: %w", ErrInvalidTransition)
	}

	now := s.now()
	if err := s.assignments.End(ctx, id, now); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return nil, fmt.Errorf("assignment already ended: %w", ErrInvalidTransition)
		}
		return nil, err
	}
	a.Status = models.AssignmentEnded
	a.EndedAt = &now

	s.notifier.NotifyMany(ctx, []uuid.UUID{a.FamilyID, a.DoctorID}, models.NotificationAssignment,
		"Assignment ended", fmt.Sprintf("The care assignment between %s and Dr. %s has ended.", a.FamilyName, a.DoctorName),
		map[string]any{"assignment_id": a.ID})
	return a, nil
}
