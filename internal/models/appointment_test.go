package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyCountdown(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   AppointmentStatus
		now      time.Time
		live     bool
		startsIn int64
	}{
		{"before start", AppointmentConfirmed, start.Add(-90 * time.Second), false, 90},
		{"at start", AppointmentConfirmed, start, true, 0},
		{"in the middle", AppointmentConfirmed, start.Add(15 * time.Minute), true, 0},
		{"at the end", AppointmentConfirmed, start.Add(30 * time.Minute), true, 0},
		{"after the end", AppointmentConfirmed, start.Add(30*time.Minute + time.Second), false, 0},
		{"pending in window", AppointmentPending, start.Add(5 * time.Minute), false, 0},
		{"cancelled in window", AppointmentCancelled, start, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Appointment{Status: tt.status, ScheduledAt: start, DurationMinutes: 30}
			a.ApplyCountdown(tt.now)
			assert.Equal(t, tt.live, a.IsLive)
			assert.Equal(t, tt.startsIn, a.StartsInSeconds)
		})
	}
}
