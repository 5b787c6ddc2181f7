package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AssignmentActive = "active"
	AssignmentEnded  = "ended"
)

// Assignment links a family account to the doctor caring for its elders.
type Assignment struct {
	ID         uuid.UUID  `json:"id"`
	FamilyID   uuid.UUID  `json:"family_id"`
	DoctorID   uuid.UUID  `json:"doctor_id"`
	AssignedBy uuid.UUID  `json:"assigned_by"`
	Status     string     `json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`

	FamilyName string `json:"family_name,omitempty"`
	DoctorName string `json:"doctor_name,omitempty"`
}

func (a *Assignment) Prepare() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AssignmentActive
	}
}
