package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrValidation           = errors.New("validation failed")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrSubscriptionRequired = errors.New("an active subscription is required")
	ErrPlanLimit            = errors.New("plan limit reached")
	ErrUnavailable          = errors.New("service unavailable")
	ErrUpstream             = errors.New("upstream provider error")
)

// ShortageError lists the prescription lines the pharmacist cannot cover.
type ShortageError struct {
	Shortages []StockCheckItem
}

func (e *ShortageError) Error() string {
	names := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		names = append(names, fmt.Sprintf("%s (need %d, have %d)", s.MedicineName, s.Required, s.Available))
	}
	return "insufficient stock: " + strings.Join(names, ", ")
}

func (e *ShortageError) Unwrap() error {
	return ErrInsufficientStock
}
