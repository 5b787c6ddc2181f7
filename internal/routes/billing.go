package routes

import (
	"github.com/gin-gonic/gin"

	"elderlink/internal/handlers"
	"elderlink/internal/middlewares"
	"elderlink/internal/models"
)

type SubscriptionRoutes struct {
	handler *handlers.SubscriptionHandler
	guards  Guards
}

func NewSubscriptionRoutes(handler *handlers.SubscriptionHandler, guards Guards) *SubscriptionRoutes {
	return &SubscriptionRoutes{handler: handler, guards: guards}
}

func (r *SubscriptionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	subs := router.Group("/subscriptions")
	{
		// Public routes; the webhook is authenticated by its Stripe signature.
		subs.GET("/plans", r.handler.Plans)
		subs.POST("/webhook", r.handler.Webhook)

		family := subs.Group("", r.guards.Authenticate, middlewares.RequireRoles(models.RoleFamily))
		family.POST("/checkout", r.handler.Checkout)
		family.GET("/me", r.handler.Current)
		family.POST("/me/cancel", r.handler.Cancel)

		subs.GET("", r.guards.Authenticate, middlewares.RequireAdmin(), r.handler.List)
	}
}

type StatsRoutes struct {
	handler *handlers.StatsHandler
	guards  Guards
}

func NewStatsRoutes(handler *handlers.StatsHandler, guards Guards) *StatsRoutes {
	return &StatsRoutes{handler: handler, guards: guards}
}

func (r *StatsRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/admin/stats", r.guards.Authenticate, middlewares.RequireAdmin(), r.handler.AdminStats)
	router.GET("/pharmacist/analytics", r.guards.Authenticate, middlewares.RequireRoles(models.RolePharmacist), r.handler.PharmacistAnalytics)
}
