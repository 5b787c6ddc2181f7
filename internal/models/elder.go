package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Elder struct {
	ID                    uuid.UUID `json:"id"`
	FamilyID              uuid.UUID `json:"family_id"`
	FullName              string    `json:"full_name"`
	DateOfBirth           time.Time `json:"date_of_birth"`
	Gender                string    `json:"gender"`
	BloodType             *string   `json:"blood_type,omitempty"`
	Address               *string   `json:"address,omitempty"`
	MedicalConditions     []string  `json:"medical_conditions"`
	Allergies             []string  `json:"allergies"`
	EmergencyContactName  *string   `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string   `json:"emergency_contact_phone,omitempty"`
	Age                   int       `json:"age"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (e *Elder) Prepare() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.FullName = strings.TrimSpace(e.FullName)
	if e.MedicalConditions == nil {
		e.MedicalConditions = []string{}
	}
	if e.Allergies == nil {
		e.Allergies = []string{}
	}
}

// AgeAt returns full years elapsed between the date of birth and now.
func (e *Elder) AgeAt(now time.Time) int {
	if e.DateOfBirth.IsZero() || now.Before(e.DateOfBirth) {
		return 0
	}
	years := now.Year() - e.DateOfBirth.Year()
	if now.Month() < e.DateOfBirth.Month() ||
		(now.Month() == e.DateOfBirth.Month() && now.Day() < e.DateOfBirth.Day()) {
		years--
	}
	return years
}
