package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/responses"
)

// RequireRoles lets the request through only for the listed roles.
// This middleware should be used after Authenticate.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == "" {
			responses.Fail(c, http.StatusUnauthorized, errors.New("no authenticated user"), "Authentication required")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		responses.Fail(c, http.StatusForbidden, errors.New("role not permitted"), "Access denied for your role")
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// PlanResolver returns the plan a user is currently entitled to, or nil.
type PlanResolver interface {
	ActivePlan(ctx context.Context, userID uuid.UUID) (*models.Plan, error)
}

// RequireActiveSubscription rejects family callers without an entitled plan
// with 402. Other roles pass. It is a no-op when required is false.
func RequireActiveSubscription(plans PlanResolver, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !required || CurrentRole(c) != models.RoleFamily {
			c.Next()
			return
		}
		userID := CurrentUserID(c)
		plan, err := plans.ActivePlan(c.Request.Context(), userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Failed to resolve subscription")
			responses.Fail(c, http.StatusInternalServerError, err, "Could not verify subscription")
			return
		}
		if plan == nil {
			responses.Fail(c, http.StatusPaymentRequired, errors.New("no active subscription"), "An active subscription is required")
			return
		}
		c.Set("plan", plan)
		c.Next()
	}
}
