package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/services"
	"elderlink/internal/testutil"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		services.ErrNotFound:             http.StatusNotFound,
		services.ErrForbidden:            http.StatusForbidden,
		services.ErrConflict:             http.StatusConflict,
		services.ErrInvalidTransition:    http.StatusConflict,
		services.ErrValidation:           http.StatusBadRequest,
		services.ErrInsufficientStock:    http.StatusUnprocessableEntity,
		services.ErrUnauthorized:         http.StatusUnauthorized,
		services.ErrSubscriptionRequired: http.StatusPaymentRequired,
		services.ErrPlanLimit:            http.StatusPaymentRequired,
		services.ErrUnavailable:          http.StatusServiceUnavailable,
		services.ErrUpstream:             http.StatusBadGateway,
		errors.New("boom"):               http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func serveError(err error) *httptest.ResponseRecorder {
	r := testutil.NewRouter()
	r.GET("/", func(c *gin.Context) { respondError(c, err, "Operation failed") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	w := serveError(errors.New("pq: relation users does not exist"))
	testutil.AssertStatus(t, w, http.StatusInternalServerError)

	body := testutil.AssertJSON(t, w)
	assert.Equal(t, "internal server error", body["error"])
	assert.Equal(t, "Operation failed", body["message"])
}

func TestRespondError_Shortages(t *testing.T) {
	err := &services.ShortageError{Shortages: []services.StockCheckItem{
		{MedicineName: "Amlodipine", Required: 30, Available: 12},
	}}
	w := serveError(fmt.Errorf("dispatch: %w", err))
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)

	var data struct {
		Shortages []services.StockCheckItem `json:"shortages"`
	}
	testutil.DecodeData(t, w, &data)
	require.Len(t, data.Shortages, 1)
	assert.Equal(t, 12, data.Shortages[0].Available)
	assert.Contains(t, testutil.AssertJSON(t, w)["error"], "Amlodipine (need 30, have 12)")
}
