package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/utils"
)

type ElderService struct {
	elders               ElderStore
	assignments          AssignmentStore
	entitlements         Entitlements
	subscriptionRequired bool
	now                  func() time.Time
}

func NewElderService(elders ElderStore, assignments AssignmentStore, entitlements Entitlements, subscriptionRequired bool) *ElderService {
	return &ElderService{
		elders:               elders,
		assignments:          assignments,
		entitlements:         entitlements,
		subscriptionRequired: subscriptionRequired,
		now:                  time.Now,
	}
}

type ElderInput struct {
	FullName              string
	DateOfBirth           time.Time
	Gender                string
	BloodType             string
	Address               string
	MedicalConditions     []string
	Allergies             []string
	EmergencyContactName  string
	EmergencyContactPhone string
}

func (in ElderInput) apply(e *models.Elder, now time.Time) error {
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("full name is required: %w", ErrValidation)
	}
	if in.DateOfBirth.IsZero() || in.DateOfBirth.After(now) {
		return fmt.Errorf("date of birth must be in the past: %w", ErrValidation)
	}
	e.FullName = in.FullName
	e.DateOfBirth = in.DateOfBirth
	e.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
	e.BloodType = utils.StringPtr(in.BloodType)
	e.Address = utils.StringPtr(in.Address)
	e.MedicalConditions = cleanList(in.MedicalConditions)
	e.Allergies = cleanList(in.Allergies)
	e.EmergencyContactName = utils.StringPtr(in.EmergencyContactName)
	e.EmergencyContactPhone = utils.StringPtr(in.EmergencyContactPhone)
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *ElderService) Create(ctx context.Context, actor Actor, in ElderInput) (*models.Elder, error) {
	if !actor.Is(models.RoleFamily) {
		return nil, fmt.Errorf("only family accounts register elders: %w", ErrForbidden)
	}
	if err := s.checkElderLimit(ctx, actor.ID); err != nil {
		return nil, err
	}

	now := s.now()
	elder := &models.Elder{FamilyID: actor.ID}
	if err := in.apply(elder, now); err != nil {
		return nil, err
	}
	if err := s.elders.Create(ctx, elder); err != nil {
		return nil, err
	}
	elder.Age = elder.AgeAt(now)
	return elder, nil
}

func (s *ElderService) checkElderLimit(ctx context.Context, familyID uuid.UUID) error {
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
	if plan.MaxElders == models.Unlimited {
		return nil
	}
	count, err := s.elders.CountByFamily(ctx, familyID)
	if err != nil {
		return err
	}
	if count >= plan.MaxElders {
		return fmt.Errorf("%s plan allows %d elder(s): %w", plan.Name, plan.MaxElders, ErrPlanLimit)
	}
	return nil
}

// List returns the elders visible to the actor: a family's own, a doctor's
// assigned families', or every elder for admins.
func (s *ElderService) List(ctx context.Context, actor Actor, page utils.Pagination) ([]models.Elder, int64, error) {
	filter := repositories.ElderFilter{Limit: page.Limit, Offset: page.Offset()}
	switch actor.Role {
	case models.RoleFamily:
		filter.FamilyID = &actor.ID
	case models.RoleDoctor:
		filter.DoctorID = &actor.ID
	case models.RoleAdmin:
	default:
		return nil, 0, ErrForbidden
	}
	elders, total, err := s.elders.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	for i := range elders {
		elders[i].Age = elders[i].AgeAt(now)
	}
	return elders, total, nil
}

func (s *ElderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Elder, error) {
	elder, err := s.elders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if elder == nil {
		return nil, fmt.Errorf("elder %s: %w", id, ErrNotFound)
	}
	visible, err := canSeeFamily(ctx, s.assignments, actor, elder.FamilyID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, fmt.Errorf("elder %s: %w", id, ErrNotFound)
	}
	elder.Age = elder.AgeAt(s.now())
	return elder, nil
}

func (s *ElderService) Update(ctx context.Context, actor Actor, id uuid.UUID, in ElderInput) (*models.Elder, error) {
	elder, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := in.apply(elder, now); err != nil {
		return nil, err
	}
	if err := s.elders.Update(ctx, elder); err != nil {
		return nil, err
	}
	elder.Age = elder.AgeAt(now)
	return elder, nil
}

func (s *ElderService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.elders.Delete(ctx, id)
}

// owned loads an elder that belongs to the acting family.
func (s *ElderService) owned(ctx context.Context, actor Actor, id uuid.UUID) (*models.Elder, error) {
	elder, err := s.elders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if elder == nil || elder.FamilyID != actor.ID {
		return nil, fmt.Errorf("elder %s: %w", id, ErrNotFound)
	}
	return elder, nil
}

// canSeeFamily reports whether actor may read records belonging to familyID.
func canSeeFamily(ctx context.Context, assignments AssignmentStore, actor Actor, familyID uuid.UUID) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleFamily:
		return actor.ID == familyID, nil
	case models.RoleDoctor:
		return assignments.IsActive(ctx, familyID, actor.ID)
	}
	return false, nil
}
