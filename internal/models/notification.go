package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationAppointment  NotificationType = "appointment"
	NotificationPrescription NotificationType = "prescription"
	NotificationDispatch     NotificationType = "dispatch"
	NotificationEmergency    NotificationType = "emergency"
	NotificationAssignment   NotificationType = "assignment"
	NotificationSubscription NotificationType = "subscription"
	NotificationInventory    NotificationType = "inventory"
	NotificationSystem       NotificationType = "system"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      json.RawMessage  `json:"data,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}

func (n *Notification) Prepare() {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Type == "" {
		n.Type = NotificationSystem
	}
	if len(n.Data) == 0 {
		n.Data = json.RawMessage("{}")
	}
}
