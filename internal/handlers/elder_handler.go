package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"elderlink/internal/responses"
	"elderlink/internal/services"
)

const dateLayout = "2006-01-02"

type ElderHandler struct {
	elderService *services.ElderService
}

func NewElderHandler(elderService *services.ElderService) *ElderHandler {
	return &ElderHandler{elderService: elderService}
}

type elderRequest struct {
	FullName              string   `json:"full_name"               binding:"required,max=120"`
	DateOfBirth           string   `json:"date_of_birth"           binding:"required,datetime=2006-01-02"`
	Gender                string   `json:"gender"                  binding:"omitempty,oneof=male female other"`
	BloodType             string   `json:"blood_type"              binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Address               string   `json:"address"                 binding:"max=500"`
	MedicalConditions     []string `json:"medical_conditions"      binding:"max=50,dive,max=200"`
	Allergies             []string `json:"allergies"               binding:"max=50,dive,max=200"`
	EmergencyContactName  string   `json:"emergency_contact_name"  binding:"max=120"`
	EmergencyContactPhone string   `json:"emergency_contact_phone" binding:"max=32"`
}

func (r elderRequest) input() (services.ElderInput, error) {
	dob, err := time.Parse(dateLayout, r.DateOfBirth)
	if err != nil {
		return services.ElderInput{}, err
	}
	return services.ElderInput{
		FullName:              r.FullName,
		DateOfBirth:           dob,
		Gender:                r.Gender,
		BloodType:             r.BloodType,
		Address:               r.Address,
		MedicalConditions:     r.MedicalConditions,
		Allergies:             r.Allergies,
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
	}, nil
}

func (h *ElderHandler) bind(c *gin.Context) (services.ElderInput, bool) {
	var req elderRequest
	if !bindJSON(c, &req) {
		return services.ElderInput{}, false
	}
	in, err := req.input()
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid date_of_birth")
		return services.ElderInput{}, false
	}
	return in, true
}

func (h *ElderHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	elder, err := h.elderService.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err, "Failed to add elder")
		return
	}
	responses.Success(c, http.StatusCreated, elder, "Elder added successfully")
}

func (h *ElderHandler) List(c *gin.Context) {
	page := pagination(c)
	elders, total, err := h.elderService.List(c.Request.Context(), actor(c), page)
	if err != nil {
		respondError(c, err, "Failed to list elders")
		return
	}
	paginated(c, elders, page, total, "Elders retrieved successfully")
}

func (h *ElderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	elder, err := h.elderService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve elder")
		return
	}
	responses.Success(c, http.StatusOK, elder, "Elder retrieved successfully")
}

func (h *ElderHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	elder, err := h.elderService.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err, "Failed to update elder")
		return
	}
	responses.Success(c, http.StatusOK, elder, "Elder updated successfully")
}

func (h *ElderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.elderService.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err, "Failed to delete elder")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Elder deleted successfully")
}
