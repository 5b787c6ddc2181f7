package models

import (
	"time"

	"github.com/google/uuid"
)

type DoctorProfile struct {
	UserID               uuid.UUID `json:"user_id"`
	Specialization       string    `json:"specialization"`
	LicenseNumber        string    `json:"license_number"`
	YearsExperience      int       `json:"years_experience"`
	ConsultationFeeCents int64     `json:"consultation_fee_cents"`
	Bio                  *string   `json:"bio,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Doctor is a doctor user joined with its (optional) profile.
type Doctor struct {
	ID      uuid.UUID      `json:"id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   *string        `json:"phone,omitempty"`
	Status  string         `json:"status"`
	Profile *DoctorProfile `json:"profile,omitempty"`
}
