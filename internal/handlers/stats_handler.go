package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// AdminStats handles GET /api/v1/admin/stats?refresh=true
func (h *StatsHandler) AdminStats(c *gin.Context) {
	stats, err := h.statsService.AdminStats(c.Request.Context(), c.Query("refresh") == "true")
	if err != nil {
		respondError(c, err, "Failed to load statistics")
		return
	}
	responses.Success(c, http.StatusOK, stats, "Statistics retrieved successfully")
}

// PharmacistAnalytics handles GET /api/v1/pharmacist/analytics
func (h *StatsHandler) PharmacistAnalytics(c *gin.Context) {
	out, err := h.statsService.PharmacistAnalytics(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err, "Failed to load analytics")
		return
	}
	responses.Success(c, http.StatusOK, out, "Analytics retrieved successfully")
}
