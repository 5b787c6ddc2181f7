package models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentRejected  AppointmentStatus = "rejected"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:   {AppointmentConfirmed, AppointmentRejected, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled},
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentRejected, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

const (
	DefaultAppointmentMinutes = 30
	MinAppointmentMinutes     = 15
	MaxAppointmentMinutes     = 120
)

type Appointment struct {
	ID              uuid.UUID         `json:"id"`
	ElderID         uuid.UUID         `json:"elder_id"`
	FamilyID        uuid.UUID         `json:"family_id"`
	DoctorID        uuid.UUID         `json:"doctor_id"`
	ScheduledAt     time.Time         `json:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status"`
	StatusReason    *string           `json:"status_reason,omitempty"`
	DoctorNotes     *string           `json:"doctor_notes,omitempty"`
	MeetingID       *string           `json:"meeting_id,omitempty"`
	MeetingJoinURL  *string           `json:"meeting_join_url,omitempty"`
	MeetingStartURL *string           `json:"-"`
	ReminderSent    bool              `json:"reminder_sent"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	ElderName  string `json:"elder_name,omitempty"`
	DoctorName string `json:"doctor_name,omitempty"`

	StartsInSeconds int64 `json:"starts_in_seconds"`
	IsLive          bool  `json:"is_live"`
}

func (a *Appointment) Prepare() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentPending
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = DefaultAppointmentMinutes
	}
}

func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether [start, start+minutes) intersects this appointment.
func (a *Appointment) Overlaps(start time.Time, minutes int) bool {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return start.Before(a.EndsAt()) && a.ScheduledAt.Before(end)
}

// ApplyCountdown fills the computed countdown fields relative to now.
func (a *Appointment) ApplyCountdown(now time.Time) {
	a.StartsInSeconds = 0
	if until := a.ScheduledAt.Sub(now); until > 0 {
		a.StartsInSeconds = int64(until / time.Second)
	}
	a.IsLive = a.Status == AppointmentConfirmed &&
		!now.Before(a.ScheduledAt) && !now.After(a.EndsAt())
}

// Blocking statuses occupy the doctor's calendar.
func (a *Appointment) Blocking() bool {
	return a.Status == AppointmentPending || a.Status == AppointmentConfirmed
}
