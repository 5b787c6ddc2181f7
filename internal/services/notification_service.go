package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/utils"
)

// Live event names sent over the realtime channel.
const (
	EventNotification = "notification"
	EventEmergency    = "emergency"
	EventAppointment  = "appointment"
)

type NotificationService struct {
	store  NotificationStore
	pusher Pusher
}

func NewNotificationService(store NotificationStore, pusher Pusher) *NotificationService {
	return &NotificationService{store: store, pusher: pusher}
}

// Notify persists a notification for userID and pushes it to the user's live sockets.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID uuid.UUID,
	typ models.NotificationType,
	title, message string,
	data any,
) (*models.Notification, error) {
	n := &models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
		n.Data = raw
	}

	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}
	s.Push(userID, EventNotification, n)
	return n, nil
}

// NotifyMany delivers the same notification to each distinct user. Failures are
// logged and do not stop delivery to the remaining users.
func (s *NotificationService) NotifyMany(
	ctx context.Context,
	userIDs []uuid.UUID,
	typ models.NotificationType,
	title, message string,
	data any,
) {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.Notify(ctx, id, typ, title, message, data); err != nil {
			log.WithError(err).WithField("user_id", id).Warn("Failed to deliver notification")
		}
	}
}

func (s *NotificationService) Push(userID uuid.UUID, event string, payload any) {
	if s.pusher == nil {
		return
	}
	s.pusher.SendToUser(userID, event, payload)
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page utils.Pagination) ([]models.Notification, int64, error) {
	return s.store.List(ctx, userID, unreadOnly, page.Limit, page.Offset())
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}
