package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/responses"
	"elderlink/internal/utils"
)

// Context keys set by Authenticate.
const (
	UserIDKey = "userId"
	RoleKey   = "userRole"
	ClaimsKey = "claims"
)

// TokenAuthenticator verifies an access token and checks it has not been revoked.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.Claims, error)
}

func Authenticate(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			responses.Fail(c, http.StatusUnauthorized, errors.New("missing authorization header"), "Authentication required")
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			responses.Fail(c, http.StatusUnauthorized, errors.New("invalid authorization format"), "Authentication required")
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			responses.Fail(c, http.StatusUnauthorized, err, "Invalid or expired token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			responses.Fail(c, http.StatusUnauthorized, err, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(RoleKey, models.Role(claims.Role))
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CurrentUserID returns the id Authenticate stored, or uuid.Nil.
func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func CurrentRole(c *gin.Context) models.Role {
	if v, ok := c.Get(RoleKey); ok {
		if role, ok := v.(models.Role); ok {
			return role
		}
	}
	return ""
}

func CurrentClaims(c *gin.Context) *utils.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok {
			return claims
		}
	}
	return nil
}
