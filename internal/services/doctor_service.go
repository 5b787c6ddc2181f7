package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/utils"
)

type DoctorService struct {
	doctors DoctorStore
}

func NewDoctorService(doctors DoctorStore) *DoctorService {
	return &DoctorService{doctors: doctors}
}

type DoctorProfileInput struct {
	Specialization       string
	LicenseNumber        string
	YearsExperience      int
	ConsultationFeeCents int64
	Bio                  string
}

func (s *DoctorService) List(ctx context.Context, specialization string) ([]models.Doctor, error) {
	return s.doctors.List(ctx, strings.TrimSpace(specialization))
}

func (s *DoctorService) Get(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	d, err := s.doctors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	return d, nil
}

func (s *DoctorService) UpsertProfile(ctx context.Context, doctorID uuid.UUID, in DoctorProfileInput) (*models.Doctor, error) {
	if in.YearsExperience < 0 || in.ConsultationFeeCents < 0 {
		return nil, fmt.Errorf("experience and fee must not be negative: %w", ErrValidation)
	}
	profile := &models.DoctorProfile{
		UserID:               doctorID,
		Specialization:       strings.TrimSpace(in.Specialization),
		LicenseNumber:        strings.TrimSpace(in.LicenseNumber),
		YearsExperience:      in.YearsExperience,
		ConsultationFeeCents: in.ConsultationFeeCents,
		Bio:                  utils.StringPtr(in.Bio),
	}
	if err := s.doctors.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return s.Get(ctx, doctorID)
}
