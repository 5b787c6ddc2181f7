package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionPending    PrescriptionStatus = "pending"
	PrescriptionProcessing PrescriptionStatus = "processing"
	PrescriptionDispatched PrescriptionStatus = "dispatched"
	PrescriptionDelivered  PrescriptionStatus = "delivered"
	PrescriptionCancelled  PrescriptionStatus = "cancelled"
)

var prescriptionTransitions = map[PrescriptionStatus][]PrescriptionStatus{
	PrescriptionPending:    {PrescriptionProcessing, PrescriptionCancelled},
	PrescriptionProcessing: {PrescriptionDispatched, PrescriptionCancelled},
	PrescriptionDispatched: {PrescriptionDelivered},
}

func (s PrescriptionStatus) CanTransitionTo(next PrescriptionStatus) bool {
	for _, allowed := range prescriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PrescriptionStatus) Valid() bool {
	switch s {
	case PrescriptionPending, PrescriptionProcessing, PrescriptionDispatched, PrescriptionDelivered, PrescriptionCancelled:
		return true
	}
	return false
}

type Prescription struct {
	ID            uuid.UUID          `json:"id"`
	ElderID       uuid.UUID          `json:"elder_id"`
	DoctorID      uuid.UUID          `json:"doctor_id"`
	AppointmentID *uuid.UUID         `json:"appointment_id,omitempty"`
	PharmacistID  *uuid.UUID         `json:"pharmacist_id,omitempty"`
	Diagnosis     string             `json:"diagnosis"`
	Notes         *string            `json:"notes,omitempty"`
	Status        PrescriptionStatus `json:"status"`
	IssuedAt      time.Time          `json:"issued_at"`
	DispatchedAt  *time.Time         `json:"dispatched_at,omitempty"`
	DeliveredAt   *time.Time         `json:"delivered_at,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Items         []PrescriptionItem `json:"items"`

	ElderName  string    `json:"elder_name,omitempty"`
	DoctorName string    `json:"doctor_name,omitempty"`
	FamilyID   uuid.UUID `json:"family_id"`
}

type PrescriptionItem struct {
	ID             uuid.UUID `json:"id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	MedicineName   string    `json:"medicine_name"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	DurationDays   int       `json:"duration_days"`
	Quantity       int       `json:"quantity"`
}

func (p *Prescription) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PrescriptionPending
	}
	for i := range p.Items {
		if p.Items[i].ID == uuid.Nil {
			p.Items[i].ID = uuid.New()
		}
		p.Items[i].PrescriptionID = p.ID
		p.Items[i].MedicineName = strings.TrimSpace(p.Items[i].MedicineName)
	}
}
