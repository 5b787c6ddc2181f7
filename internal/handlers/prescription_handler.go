package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/pdf"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type PrescriptionHandler struct {
	prescriptionService *services.PrescriptionService
}

func NewPrescriptionHandler(prescriptionService *services.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionService: prescriptionService}
}

type prescriptionItemRequest struct {
	MedicineName string `json:"medicine_name" binding:"required,max=200"`
	Dosage       string `json:"dosage"        binding:"required,max=100"`
	Frequency    string `json:"frequency"     binding:"max=100"`
	DurationDays int    `json:"duration_days" binding:"gte=0,lte=365"`
	Quantity     int    `json:"quantity"      binding:"required,gt=0"`
}

// Create handles POST /api/v1/prescriptions (doctor only)
func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req struct {
		ElderID       uuid.UUID                 `json:"elder_id"       binding:"required"`
		AppointmentID *uuid.UUID                `json:"appointment_id"`
		Diagnosis     string                    `json:"diagnosis"      binding:"required,max=2000"`
		Notes         string                    `json:"notes"          binding:"max=4000"`
		Items         []prescriptionItemRequest `json:"items"          binding:"required,min=1,max=50,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}

	in := services.PrescriptionInput{
		ElderID:       req.ElderID,
		AppointmentID: req.AppointmentID,
		Diagnosis:     req.Diagnosis,
		Notes:         req.Notes,
		Items:         make([]services.PrescriptionItemInput, len(req.Items)),
	}
	for i, item := range req.Items {
		in.Items[i] = services.PrescriptionItemInput(item)
	}

	p, err := h.prescriptionService.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err, "Failed to issue prescription")
		return
	}
	responses.Success(c, http.StatusCreated, p, "Prescription issued successfully")
}

func (h *PrescriptionHandler) List(c *gin.Context) {
	page := pagination(c)
	items, total, err := h.prescriptionService.List(c.Request.Context(), actor(c), c.Query("status"), page)
	if err != nil {
		respondError(c, err, "Failed to list prescriptions")
		return
	}
	paginated(c, items, page, total, "Prescriptions retrieved successfully")
}

func (h *PrescriptionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.prescriptionService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve prescription")
		return
	}
	responses.Success(c, http.StatusOK, p, "Prescription retrieved successfully")
}

// PDF handles GET /api/v1/prescriptions/:id/pdf
func (h *PrescriptionHandler) PDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.prescriptionService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve prescription")
		return
	}
	doc, err := pdf.RenderPrescription(p)
	if err != nil {
		respondError(c, err, "Failed to render prescription")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="prescription-%s.pdf"`, p.ID))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *PrescriptionHandler) InventoryCheck(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	check, err := h.prescriptionService.InventoryCheck(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to check inventory")
		return
	}
	responses.Success(c, http.StatusOK, check, "Inventory checked successfully")
}

func (h *PrescriptionHandler) Process(c *gin.Context) {
	h.transition(c, "Prescription claimed", h.prescriptionService.Process)
}

func (h *PrescriptionHandler) Deliver(c *gin.Context) {
	h.transition(c, "Prescription delivered", h.prescriptionService.Deliver)
}

func (h *PrescriptionHandler) Cancel(c *gin.Context) {
	h.transition(c, "Prescription cancelled", h.prescriptionService.Cancel)
}

// Dispatch replies 422 with the per-item shortages when stock is insufficient.
func (h *PrescriptionHandler) Dispatch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.prescriptionService.Dispatch(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to dispatch prescription")
		return
	}
	responses.Success(c, http.StatusOK, res, "Prescription dispatched")
}

type prescriptionTransition func(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Prescription, error)

func (h *PrescriptionHandler) transition(c *gin.Context, message string, apply prescriptionTransition) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := apply(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to update prescription")
		return
	}
	responses.Success(c, http.StatusOK, p, message)
}
