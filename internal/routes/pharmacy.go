package routes

import (
	"github.com/gin-gonic/gin"

	"elderlink/internal/handlers"
	"elderlink/internal/middlewares"
	"elderlink/internal/models"
)

type PrescriptionRoutes struct {
	handler *handlers.PrescriptionHandler
	guards  Guards
}

func NewPrescriptionRoutes(handler *handlers.PrescriptionHandler, guards Guards) *PrescriptionRoutes {
	return &PrescriptionRoutes{handler: handler, guards: guards}
}

func (r *PrescriptionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	prescriptions := router.Group("/prescriptions", r.guards.Authenticate)
	{
		prescriptions.GET("", r.handler.List)
		prescriptions.GET("/:id", r.handler.Get)
		prescriptions.GET("/:id/pdf", r.handler.PDF)
		prescriptions.PATCH("/:id/deliver", middlewares.RequireRoles(models.RolePharmacist, models.RoleFamily), r.handler.Deliver)

		doctor := prescriptions.Group("", middlewares.RequireRoles(models.RoleDoctor))
		doctor.POST("", r.handler.Create)
		doctor.PATCH("/:id/cancel", r.handler.Cancel)

		pharmacist := prescriptions.Group("", middlewares.RequireRoles(models.RolePharmacist))
		pharmacist.GET("/:id/inventory-check", r.handler.InventoryCheck)
		pharmacist.PATCH("/:id/process", r.handler.Process)
		pharmacist.PATCH("/:id/dispatch", r.handler.Dispatch)
	}
}

type InventoryRoutes struct {
	handler *handlers.InventoryHandler
	guards  Guards
}

func NewInventoryRoutes(handler *handlers.InventoryHandler, guards Guards) *InventoryRoutes {
	return &InventoryRoutes{handler: handler, guards: guards}
}

func (r *InventoryRoutes) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory", r.guards.Authenticate)
	{
		// Admins have read-only access to every pharmacist's stock.
		inventory.GET("", middlewares.RequireRoles(models.RolePharmacist, models.RoleAdmin), r.handler.List)
		inventory.GET("/:id", middlewares.RequireRoles(models.RolePharmacist, models.RoleAdmin), r.handler.Get)
		inventory.GET("/:id/movements", middlewares.RequireRoles(models.RolePharmacist, models.RoleAdmin), r.handler.Movements)

		pharmacist := inventory.Group("", middlewares.RequireRoles(models.RolePharmacist))
		pharmacist.GET("/alerts", r.handler.Alerts)
		pharmacist.POST("", r.handler.Create)
		pharmacist.PUT("/:id", r.handler.Update)
		pharmacist.DELETE("/:id", r.handler.Delete)
		pharmacist.PATCH("/:id/adjust", r.handler.Adjust)
	}
}
