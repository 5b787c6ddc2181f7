package routes

import (
	"github.com/gin-gonic/gin"

	"elderlink/internal/handlers"
)

// Handlers bundles every handler the API exposes.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Google       *handlers.GoogleAuthHandler
	User         *handlers.UserHandler
	Doctor       *handlers.DoctorHandler
	Elder        *handlers.ElderHandler
	Assignment   *handlers.AssignmentHandler
	Appointment  *handlers.AppointmentHandler
	Prescription *handlers.PrescriptionHandler
	Inventory    *handlers.InventoryHandler
	Notification *handlers.NotificationHandler
	Emergency    *handlers.EmergencyHandler
	Subscription *handlers.SubscriptionHandler
	Stats        *handlers.StatsHandler
	Health       *handlers.HealthHandler
	WebSocket    gin.HandlerFunc
}

// Guards are the middlewares routes attach per group.
type Guards struct {
	Authenticate       gin.HandlerFunc
	ActiveSubscription gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, h Handlers, g Guards) {
	router.GET("/", h.Health.Root)
	router.GET("/healthz", h.Health.Healthz)

	api := router.Group("/api/v1")

	NewAuthRoutes(h.Auth, h.Google, g).RegisterRoutes(api)
	NewUserRoutes(h.User, g).RegisterRoutes(api)
	NewDoctorRoutes(h.Doctor, g).RegisterRoutes(api)
	NewElderRoutes(h.Elder, g).RegisterRoutes(api)
	NewAssignmentRoutes(h.Assignment, g).RegisterRoutes(api)
	NewAppointmentRoutes(h.Appointment, g).RegisterRoutes(api)
	NewPrescriptionRoutes(h.Prescription, g).RegisterRoutes(api)
	NewInventoryRoutes(h.Inventory, g).RegisterRoutes(api)
	NewNotificationRoutes(h.Notification, g).RegisterRoutes(api)
	NewEmergencyRoutes(h.Emergency, g).RegisterRoutes(api)
	NewSubscriptionRoutes(h.Subscription, g).RegisterRoutes(api)
	NewStatsRoutes(h.Stats, g).RegisterRoutes(api)

	api.GET("/ws", h.WebSocket)
}
