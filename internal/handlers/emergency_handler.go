package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type EmergencyHandler struct {
	emergencyService *services.EmergencyService
}

func NewEmergencyHandler(emergencyService *services.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{emergencyService: emergencyService}
}

// Raise handles POST /api/v1/emergencies (family only)
func (h *EmergencyHandler) Raise(c *gin.Context) {
	var req struct {
		ElderID   uuid.UUID `json:"elder_id"  binding:"required"`
		Message   string    `json:"message"   binding:"required,max=1000"`
		Latitude  *float64  `json:"latitude"  binding:"omitempty,gte=-90,lte=90"`
		Longitude *float64  `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	}
	if !bindJSON(c, &req) {
		return
	}
	alert, err := h.emergencyService.Raise(c.Request.Context(), actor(c), services.EmergencyInput{
		ElderID:   req.ElderID,
		Message:   req.Message,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		respondError(c, err, "Failed to raise emergency")
		return
	}
	responses.Success(c, http.StatusCreated, alert, "Emergency raised, help has been notified")
}

func (h *EmergencyHandler) List(c *gin.Context) {
	page := pagination(c)
	items, total, err := h.emergencyService.List(c.Request.Context(), actor(c), c.Query("status"), page)
	if err != nil {
		respondError(c, err, "Failed to list emergencies")
		return
	}
	paginated(c, items, page, total, "Emergencies retrieved successfully")
}

func (h *EmergencyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	alert, err := h.emergencyService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve emergency")
		return
	}
	responses.Success(c, http.StatusOK, alert, "Emergency retrieved successfully")
}

func (h *EmergencyHandler) Acknowledge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	alert, err := h.emergencyService.Acknowledge(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to acknowledge emergency")
		return
	}
	responses.Success(c, http.StatusOK, alert, "Emergency acknowledged")
}

func (h *EmergencyHandler) Resolve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, ok := bindOptionalNote(c)
	if !ok {
		return
	}
	alert, err := h.emergencyService.Resolve(c.Request.Context(), actor(c), id, req.Notes)
	if err != nil {
		respondError(c, err, "Failed to resolve emergency")
		return
	}
	responses.Success(c, http.StatusOK, alert, "Emergency resolved")
}
