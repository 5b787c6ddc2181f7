package routes

import (
	"github.com/gin-gonic/gin"

	"elderlink/internal/handlers"
	"elderlink/internal/middlewares"
)

type UserRoutes struct {
	userHandler *handlers.UserHandler
	guards      Guards
}

func NewUserRoutes(userHandler *handlers.UserHandler, guards Guards) *UserRoutes {
	return &UserRoutes{userHandler: userHandler, guards: guards}
}

func (r *UserRoutes) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(r.guards.Authenticate) // All user routes require authentication
	{
		users.GET("/me", r.userHandler.GetMe)
		users.PATCH("/me", r.userHandler.UpdateMe)

		// Admin-only routes
		admin := users.Group("", middlewares.RequireAdmin())
		admin.GET("", r.userHandler.ListUsers)
		admin.GET("/:user_id", r.userHandler.GetUser)
		admin.PATCH("/:user_id", r.userHandler.UpdateUser)
		admin.DELETE("/:user_id", r.userHandler.DeleteUser)
	}
}
