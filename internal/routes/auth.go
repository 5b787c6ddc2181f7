package routes

import (
	"github.com/gin-gonic/gin"

	"elderlink/internal/handlers"
)

type AuthRoutes struct {
	handler *handlers.AuthHandler
	google  *handlers.GoogleAuthHandler
	guards  Guards
}

func NewAuthRoutes(handler *handlers.AuthHandler, google *handlers.GoogleAuthHandler, guards Guards) *AuthRoutes {
	return &AuthRoutes{handler: handler, google: google, guards: guards}
}

func (r *AuthRoutes) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		// Public routes
		auth.POST("/register", r.handler.Register)
		auth.POST("/login", r.handler.Login)
		auth.POST("/refresh", r.handler.Refresh)
		auth.GET("/google/login", r.google.Login)
		auth.GET("/google/callback", r.google.Callback)

		// Protected routes
		auth.POST("/logout", r.guards.Authenticate, r.handler.Logout)
	}
}
