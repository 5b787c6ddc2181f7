package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"elderlink/internal/middlewares"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type DoctorHandler struct {
	doctorService *services.DoctorService
}

func NewDoctorHandler(doctorService *services.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorService: doctorService}
}

// List handles GET /api/v1/doctors?specialization=
func (h *DoctorHandler) List(c *gin.Context) {
	doctors, err := h.doctorService.List(c.Request.Context(), c.Query("specialization"))
	if err != nil {
		respondError(c, err, "Failed to list doctors")
		return
	}
	responses.Success(c, http.StatusOK, doctors, "Doctors retrieved successfully")
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doctor, err := h.doctorService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve doctor")
		return
	}
	responses.Success(c, http.StatusOK, doctor, "Doctor retrieved successfully")
}

// UpsertProfile handles PUT /api/v1/doctors/me/profile
func (h *DoctorHandler) UpsertProfile(c *gin.Context) {
	var req struct {
		Specialization       string `json:"specialization"         binding:"required,max=120"`
		LicenseNumber        string `json:"license_number"         binding:"required,max=64"`
		YearsExperience      int    `json:"years_experience"       binding:"gte=0,lte=80"`
		ConsultationFeeCents int64  `json:"consultation_fee_cents" binding:"gte=0"`
		Bio                  string `json:"bio"                    binding:"max=2000"`
	}
	if !bindJSON(c, &req) {
		return
	}

	doctor, err := h.doctorService.UpsertProfile(c.Request.Context(), middlewares.CurrentUserID(c), services.DoctorProfileInput{
		Specialization:       req.Specialization,
		LicenseNumber:        req.LicenseNumber,
		YearsExperience:      req.YearsExperience,
		ConsultationFeeCents: req.ConsultationFeeCents,
		Bio:                  req.Bio,
	})
	if err != nil {
		respondError(c, err, "Failed to save profile")
		return
	}
	responses.Success(c, http.StatusOK, doctor, "Profile saved successfully")
}
