package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type AppointmentHandler struct {
	appointmentService *services.AppointmentService
}

func NewAppointmentHandler(appointmentService *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

// Create handles POST /api/v1/appointments (family only)
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req struct {
		ElderID         uuid.UUID `json:"elder_id"         binding:"required"`
		DoctorID        uuid.UUID `json:"doctor_id"        binding:"required"`
		ScheduledAt     time.Time `json:"scheduled_at"     binding:"required,future"`
		DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=15,max=120"`
		Reason          string    `json:"reason"           binding:"max=1000"`
	}
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.appointmentService.Create(c.Request.Context(), actor(c), services.AppointmentInput{
		ElderID:         req.ElderID,
		DoctorID:        req.DoctorID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
	})
	if err != nil {
		respondError(c, err, "Failed to book appointment")
		return
	}
	responses.Success(c, http.StatusCreated, a, "Appointment requested successfully")
}

// List handles GET /api/v1/appointments?status=&upcoming=true
func (h *AppointmentHandler) List(c *gin.Context) {
	page := pagination(c)
	items, total, err := h.appointmentService.List(c.Request.Context(), actor(c), services.AppointmentListFilter{
		Status:   c.Query("status"),
		Upcoming: c.Query("upcoming") == "true",
	}, page)
	if err != nil {
		respondError(c, err, "Failed to list appointments")
		return
	}
	paginated(c, items, page, total, "Appointments retrieved successfully")
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.appointmentService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve appointment")
		return
	}
	responses.Success(c, http.StatusOK, a, "Appointment retrieved successfully")
}

type noteRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
	Notes  string `json:"notes"  binding:"max=4000"`
}

// bindOptionalNote accepts an empty body.
func bindOptionalNote(c *gin.Context) (noteRequest, bool) {
	var req noteRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	return req, bindJSON(c, &req)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.transition(c, "Appointment confirmed", func(id uuid.UUID, _ noteRequest) (*models.Appointment, error) {
		return h.appointmentService.Confirm(c.Request.Context(), actor(c), id)
	})
}

func (h *AppointmentHandler) Reject(c *gin.Context) {
	h.transition(c, "Appointment rejected", func(id uuid.UUID, req noteRequest) (*models.Appointment, error) {
		return h.appointmentService.Reject(c.Request.Context(), actor(c), id, req.Reason)
	})
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.transition(c, "Appointment completed", func(id uuid.UUID, req noteRequest) (*models.Appointment, error) {
		return h.appointmentService.Complete(c.Request.Context(), actor(c), id, req.Notes)
	})
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.transition(c, "Appointment cancelled", func(id uuid.UUID, req noteRequest) (*models.Appointment, error) {
		return h.appointmentService.Cancel(c.Request.Context(), actor(c), id, req.Reason)
	})
}

func (h *AppointmentHandler) transition(c *gin.Context, message string, apply func(uuid.UUID, noteRequest) (*models.Appointment, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, ok := bindOptionalNote(c)
	if !ok {
		return
	}
	a, err := apply(id, req)
	if err != nil {
		respondError(c, err, "Failed to update appointment")
		return
	}
	responses.Success(c, http.StatusOK, a, message)
}

// Meeting handles GET /api/v1/appointments/:id/meeting
func (h *AppointmentHandler) Meeting(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	link, err := h.appointmentService.MeetingLink(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Meeting unavailable")
		return
	}
	responses.Success(c, http.StatusOK, link, "Meeting link retrieved successfully")
}
