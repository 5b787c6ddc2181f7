package services

import (
	"github.com/google/uuid"

	"elderlink/internal/models"
)

// Actor is the authenticated caller on whose behalf a service call runs.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

func (a Actor) Is(role models.Role) bool {
	return a.Role == role
}
