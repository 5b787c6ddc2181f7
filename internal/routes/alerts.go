package routes

import (
	"github.com/gin-gonic/gin"

	"elderlink/internal/handlers"
	"elderlink/internal/middlewares"
	"elderlink/internal/models"
)

type NotificationRoutes struct {
	handler *handlers.NotificationHandler
	guards  Guards
}

func NewNotificationRoutes(handler *handlers.NotificationHandler, guards Guards) *NotificationRoutes {
	return &NotificationRoutes{handler: handler, guards: guards}
}

func (r *NotificationRoutes) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications", r.guards.Authenticate)
	{
		notifications.GET("", r.handler.List)
		notifications.GET("/unread-count", r.handler.UnreadCount)
		notifications.PUT("/read-all", r.handler.MarkAllRead)
		notifications.PUT("/:id/read", r.handler.MarkRead)
		notifications.DELETE("/:id", r.handler.Delete)
	}
}

type EmergencyRoutes struct {
	handler *handlers.EmergencyHandler
	guards  Guards
}

func NewEmergencyRoutes(handler *handlers.EmergencyHandler, guards Guards) *EmergencyRoutes {
	return &EmergencyRoutes{handler: handler, guards: guards}
}

func (r *EmergencyRoutes) RegisterRoutes(router *gin.RouterGroup) {
	emergencies := router.Group("/emergencies", r.guards.Authenticate,
		middlewares.RequireRoles(models.RoleFamily, models.RoleDoctor, models.RoleAdmin))
	{
		emergencies.POST("", middlewares.RequireRoles(models.RoleFamily), r.handler.Raise)
		emergencies.GET("", r.handler.List)
		emergencies.GET("/:id", r.handler.Get)
		emergencies.PATCH("/:id/acknowledge", middlewares.RequireRoles(models.RoleDoctor, models.RoleAdmin), r.handler.Acknowledge)
		emergencies.PATCH("/:id/resolve", r.handler.Resolve)
	}
}
