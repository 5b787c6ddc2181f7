package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

const maxWebhookBody = 64 << 10

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) Plans(c *gin.Context) {
	responses.Success(c, http.StatusOK, h.subscriptionService.Plans(), "Plans retrieved successfully")
}

// Checkout handles POST /api/v1/subscriptions/checkout (family only)
func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required,oneof=basic premium"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.subscriptionService.Checkout(c.Request.Context(), actor(c), models.PlanCode(req.Plan))
	if err != nil {
		respondError(c, err, "Failed to start checkout")
		return
	}
	responses.Success(c, http.StatusCreated, res, "Checkout session created")
}

func (h *SubscriptionHandler) Current(c *gin.Context) {
	sub, err := h.subscriptionService.Current(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve subscription")
		return
	}
	responses.Success(c, http.StatusOK, sub, "Subscription retrieved successfully")
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.subscriptionService.CancelCurrent(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err, "Failed to cancel subscription")
		return
	}
	responses.Success(c, http.StatusOK, sub, "Subscription will end with the current period")
}

// List handles GET /api/v1/subscriptions?status= (admin only)
func (h *SubscriptionHandler) List(c *gin.Context) {
	page := pagination(c)
	items, total, err := h.subscriptionService.List(c.Request.Context(), c.Query("status"), page)
	if err != nil {
		respondError(c, err, "Failed to list subscriptions")
		return
	}
	paginated(c, items, page, total, "Subscriptions retrieved successfully")
}

// Webhook handles POST /api/v1/subscriptions/webhook. The raw body is needed
// for signature verification, so it is read before any binding.
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not read payload")
		return
	}
	evt, err := h.subscriptionService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.WithError(err).Warn("Rejected Stripe webhook")
		respondError(c, err, "Webhook rejected")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"received": true, "event_id": evt.ID}, "Webhook processed")
}
