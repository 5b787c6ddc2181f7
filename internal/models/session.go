package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a refresh-token record, persisted through gorm.
type Session struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RefreshToken string    `gorm:"type:text;not null;index" json:"-"`
	IsRevoked    bool      `gorm:"not null;default:false" json:"is_revoked"`
	UserAgent    string    `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	ExpiresAt    time.Time `gorm:"type:timestamptz;not null;index" json:"expires_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Session) Usable(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}
