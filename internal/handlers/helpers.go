package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/middlewares"
	"elderlink/internal/responses"
	"elderlink/internal/services"
	"elderlink/internal/utils"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrSubscriptionRequired), errors.Is(err, services.ErrPlanLimit):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError replies with the status matching err. Unexpected errors are
// logged and their text is not sent to the client.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error(message)
		_ = c.Error(err)
		responses.Fail(c, status, errors.New("internal server error"), message)
		return
	}

	var shortage *services.ShortageError
	if errors.As(err, &shortage) {
		c.AbortWithStatusJSON(status, responses.APIResponse{
			Status:  "error",
			Message: message,
			Data:    gin.H{"shortages": shortage.Shortages},
			Error:   err.Error(),
		})
		return
	}
	responses.Fail(c, status, err, message)
}

func actor(c *gin.Context) services.Actor {
	return services.Actor{ID: middlewares.CurrentUserID(c), Role: middlewares.CurrentRole(c)}
}

// pathID parses a uuid route parameter, replying 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param(name))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := utils.ParseUUID(raw)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

func pagination(c *gin.Context) utils.Pagination {
	return utils.ParsePagination(c.Query("page"), c.Query("limit"))
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return false
	}
	return true
}

func paginated(c *gin.Context, data any, page utils.Pagination, total int64, message string) {
	responses.Paginated(c, http.StatusOK, data, responses.Meta{Page: page.Page, Limit: page.Limit, Total: total}, message)
}
