package routes

import (
	"github.com/gin-gonic/gin"

	"elderlink/internal/handlers"
	"elderlink/internal/middlewares"
	"elderlink/internal/models"
)

type DoctorRoutes struct {
	handler *handlers.DoctorHandler
	guards  Guards
}

func NewDoctorRoutes(handler *handlers.DoctorHandler, guards Guards) *DoctorRoutes {
	return &DoctorRoutes{handler: handler, guards: guards}
}

func (r *DoctorRoutes) RegisterRoutes(router *gin.RouterGroup) {
	doctors := router.Group("/doctors", r.guards.Authenticate)
	{
		doctors.GET("", r.handler.List)
		doctors.GET("/:id", r.handler.Get)
		doctors.PUT("/me/profile", middlewares.RequireRoles(models.RoleDoctor), r.handler.UpsertProfile)
	}
}

type ElderRoutes struct {
	handler *handlers.ElderHandler
	guards  Guards
}

func NewElderRoutes(handler *handlers.ElderHandler, guards Guards) *ElderRoutes {
	return &ElderRoutes{handler: handler, guards: guards}
}

func (r *ElderRoutes) RegisterRoutes(router *gin.RouterGroup) {
	elders := router.Group("/elders", r.guards.Authenticate)
	{
		// Doctors and admins read; only the owning family writes.
		elders.GET("", middlewares.RequireRoles(models.RoleFamily, models.RoleDoctor, models.RoleAdmin), r.handler.List)
		elders.GET("/:id", middlewares.RequireRoles(models.RoleFamily, models.RoleDoctor, models.RoleAdmin), r.handler.Get)

		family := elders.Group("", middlewares.RequireRoles(models.RoleFamily))
		family.POST("", r.handler.Create)
		family.PUT("/:id", r.handler.Update)
		family.DELETE("/:id", r.handler.Delete)
	}
}

type AssignmentRoutes struct {
	handler *handlers.AssignmentHandler
	guards  Guards
}

func NewAssignmentRoutes(handler *handlers.AssignmentHandler, guards Guards) *AssignmentRoutes {
	return &AssignmentRoutes{handler: handler, guards: guards}
}

func (r *AssignmentRoutes) RegisterRoutes(router *gin.RouterGroup) {
	assignments := router.Group("/assignments", r.guards.Authenticate)
	{
		assignments.GET("/mine", middlewares.RequireRoles(models.RoleFamily, models.RoleDoctor), r.handler.Mine)

		admin := assignments.Group("", middlewares.RequireAdmin())
		admin.POST("", r.handler.Create)
		admin.GET("", r.handler.List)
		admin.DELETE("/:id", r.handler.End)
	}
}

type AppointmentRoutes struct {
	handler *handlers.AppointmentHandler
	guards  Guards
}

func NewAppointmentRoutes(handler *handlers.AppointmentHandler, guards Guards) *AppointmentRoutes {
	return &AppointmentRoutes{handler: handler, guards: guards}
}

func (r *AppointmentRoutes) RegisterRoutes(router *gin.RouterGroup) {
	appointments := router.Group("/appointments", r.guards.Authenticate)
	{
		appointments.POST("", middlewares.RequireRoles(models.RoleFamily), r.guards.ActiveSubscription, r.handler.Create)
		appointments.GET("", r.handler.List)
		appointments.GET("/:id", r.handler.Get)
		appointments.GET("/:id/meeting", r.handler.Meeting)
		appointments.PATCH("/:id/cancel", middlewares.RequireRoles(models.RoleFamily, models.RoleDoctor), r.handler.Cancel)

		doctor := appointments.Group("", middlewares.RequireRoles(models.RoleDoctor))
		doctor.PATCH("/:id/confirm", r.handler.Confirm)
		doctor.PATCH("/:id/reject", r.handler.Reject)
		doctor.PATCH("/:id/complete", r.handler.Complete)
	}
}
