package zoom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMeeting(t *testing.T) {
	start := time.Date(2030, 1, 2, 15, 0, 0, 0, time.FixedZone("X", 3600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/me/meetings", r.URL.Path)

		var body createMeetingBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, scheduledMeeting, body.Type)
		assert.Equal(t, "2030-01-02T14:00:00Z", body.StartTime)
		assert.Equal(t, 45, body.Duration)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 89123456789, "join_url": "https://zoom.us/j/1", "start_url": "https://zoom.us/s/1"}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.Client(), srv.URL)
	m, err := c.CreateMeeting(context.Background(), MeetingRequest{
		Topic:           "Consultation",
		StartTime:       start,
		DurationMinutes: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, "89123456789", m.ID)
	assert.Equal(t, "https://zoom.us/j/1", m.JoinURL)
	assert.Equal(t, "https://zoom.us/s/1", m.StartURL)
}

func TestCreateMeetingAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": 300, "message": "Invalid start time"}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.Client(), srv.URL)
	_, err := c.CreateMeeting(context.Background(), MeetingRequest{Topic: "x", StartTime: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid start time")
}

func TestDeleteMeeting(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"deleted", http.StatusNoContent, false},
		{"already gone", http.StatusNotFound, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/meetings/123", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewClientWithHTTP(srv.Client(), srv.URL).DeleteMeeting(context.Background(), "123")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
