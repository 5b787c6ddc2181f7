package models

import (
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleFamily     Role = "family"
	RoleDoctor     Role = "doctor"
	RolePharmacist Role = "pharmacist"
)

var Roles = []Role{RoleAdmin, RoleFamily, RoleDoctor, RolePharmacist}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User matches the users table. Rows are soft-deleted through DeletedAt.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Password     string     `json:"-"`
	Role         Role       `json:"role"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	DeletedAt    *time.Time `json:"-"`
}

func (u *User) Prepare() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = html.EscapeString(strings.ToLower(strings.TrimSpace(u.Email)))
	u.Name = html.EscapeString(strings.TrimSpace(u.Name))
	if u.Role == "" {
		u.Role = RoleFamily
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive && u.DeletedAt == nil
}
