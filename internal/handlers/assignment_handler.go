package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elderlink/internal/middlewares"
	"elderlink/internal/repositories"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type AssignmentHandler struct {
	assignmentService *services.AssignmentService
}

func NewAssignmentHandler(assignmentService *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// Create handles POST /api/v1/assignments (admin only)
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req struct {
		FamilyID uuid.UUID `json:"family_id" binding:"required"`
		DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
		Notes    string    `json:"notes"     binding:"max=1000"`
	}
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.assignmentService.Create(c.Request.Context(), middlewares.CurrentUserID(c), services.AssignmentInput{
		FamilyID: req.FamilyID,
		DoctorID: req.DoctorID,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, err, "Failed to assign doctor")
		return
	}
	responses.Success(c, http.StatusCreated, a, "Doctor assigned successfully")
}

// List handles GET /api/v1/assignments?family_id=&doctor_id=&status= (admin only)
func (h *AssignmentHandler) List(c *gin.Context) {
	familyID, ok := queryID(c, "family_id")
	if !ok {
		return
	}
	doctorID, ok := queryID(c, "doctor_id")
	if !ok {
		return
	}
	list, err := h.assignmentService.List(c.Request.Context(), repositories.AssignmentFilter{
		FamilyID: familyID,
		DoctorID: doctorID,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, err, "Failed to list assignments")
		return
	}
	responses.Success(c, http.StatusOK, list, "Assignments retrieved successfully")
}

func (h *AssignmentHandler) Mine(c *gin.Context) {
	list, err := h.assignmentService.Mine(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err, "Failed to list assignments")
		return
	}
	responses.Success(c, http.StatusOK, list, "Assignments retrieved successfully")
}

// End handles DELETE /api/v1/assignments/:id (admin only)
func (h *AssignmentHandler) End(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.assignmentService.End(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to end assignment")
		return
	}
	responses.Success(c, http.StatusOK, a, "Assignment ended successfully")
}
