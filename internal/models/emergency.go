package models

import (
	"time"

	"github.com/google/uuid"
)

type EmergencyStatus string

const (
	EmergencyActive       EmergencyStatus = "active"
	EmergencyAcknowledged EmergencyStatus = "acknowledged"
	EmergencyResolved     EmergencyStatus = "resolved"
)

func (s EmergencyStatus) CanTransitionTo(next EmergencyStatus) bool {
	switch s {
	case EmergencyActive:
		return next == EmergencyAcknowledged || next == EmergencyResolved
	case EmergencyAcknowledged:
		return next == EmergencyResolved
	}
	return false
}

func (s EmergencyStatus) Valid() bool {
	return s == EmergencyActive || s == EmergencyAcknowledged || s == EmergencyResolved
}

type EmergencyAlert struct {
	ID              uuid.UUID       `json:"id"`
	ElderID         uuid.UUID       `json:"elder_id"`
	FamilyID        uuid.UUID       `json:"family_id"`
	RaisedBy        uuid.UUID       `json:"raised_by"`
	Message         string          `json:"message"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Longitude       *float64        `json:"longitude,omitempty"`
	Status          EmergencyStatus `json:"status"`
	AcknowledgedBy  *uuid.UUID      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time      `json:"acknowledged_at,omitempty"`
	ResolvedBy      *uuid.UUID      `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	ResolutionNotes *string         `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`

	ElderName string `json:"elder_name,omitempty"`
}

func (e *EmergencyAlert) Prepare() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = EmergencyActive
	}
}
