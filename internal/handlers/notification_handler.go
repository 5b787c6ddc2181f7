package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"elderlink/internal/middlewares"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /api/v1/notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	page := pagination(c)
	items, total, err := h.notificationService.List(c.Request.Context(), middlewares.CurrentUserID(c), c.Query("unread") == "true", page)
	if err != nil {
		respondError(c, err, "Failed to list notifications")
		return
	}
	paginated(c, items, page, total, "Notifications retrieved successfully")
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notificationService.UnreadCount(c.Request.Context(), middlewares.CurrentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"unread": n}, "Unread count retrieved successfully")
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), middlewares.CurrentUserID(c), id); err != nil {
		respondError(c, err, "Failed to mark notification read")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), middlewares.CurrentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to mark notifications read")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"updated": n}, "Notifications marked as read")
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.Delete(c.Request.Context(), middlewares.CurrentUserID(c), id); err != nil {
		respondError(c, err, "Failed to delete notification")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Notification deleted successfully")
}
