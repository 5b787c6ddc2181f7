package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"elderlink/internal/middlewares"
	"elderlink/internal/models"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middlewares.CurrentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve user")
		return
	}
	responses.Success(c, http.StatusOK, user, "User retrieved successfully")
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		Name            *string `json:"name"             binding:"omitempty,max=120"`
		Phone           *string `json:"phone"            binding:"omitempty,max=32"`
		CurrentPassword string  `json:"current_password" binding:"required_with=NewPassword"`
		NewPassword     string  `json:"new_password"     binding:"omitempty,min=8"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middlewares.CurrentUserID(c), services.UpdateProfileInput{
		Name:            req.Name,
		Phone:           req.Phone,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	responses.Success(c, http.StatusOK, user, "User updated successfully")
}

// ListUsers handles GET /api/v1/users (admin only)
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := pagination(c)
	users, total, err := h.userService.List(c.Request.Context(), c.Query("role"), c.Query("status"), page)
	if err != nil {
		respondError(c, err, "Failed to list users")
		return
	}
	paginated(c, users, page, total, "Users retrieved successfully")
}

// GetUser handles GET /api/v1/users/:user_id (admin only)
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve user")
		return
	}
	responses.Success(c, http.StatusOK, user, "User retrieved successfully")
}

// UpdateUser handles PATCH /api/v1/users/:user_id (admin only)
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	var req struct {
		Role   *string `json:"role"   binding:"omitempty,role"`
		Status *string `json:"status" binding:"omitempty,oneof=active disabled"`
	}
	if !bindJSON(c, &req) {
		return
	}

	in := services.AdminUpdateInput{Status: req.Status}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}
	user, err := h.userService.AdminUpdate(c.Request.Context(), middlewares.CurrentUserID(c), id, in)
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	responses.Success(c, http.StatusOK, user, "User updated successfully")
}

// DeleteUser handles DELETE /api/v1/users/:user_id (admin only)
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), middlewares.CurrentUserID(c), id); err != nil {
		respondError(c, err, "Failed to delete user")
		return
	}
	responses.Success(c, http.StatusOK, nil, "User deleted successfully")
}
