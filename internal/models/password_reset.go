package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PasswordReset is a one-time token paired with a short numeric code. Data
// carries what is needed to finish the reset without another lookup.
type PasswordReset struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string         `gorm:"size:255;not null;index" json:"email"`
	Token     string         `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Code      string         `gorm:"size:6;not null" json:"-"`
	UserRole  string         `gorm:"size:20;not null" json:"userRole"`
	Data      datatypes.JSON `json:"data"`
	IsUsed    bool           `gorm:"not null;default:false;index" json:"isUsed"`
	ExpiresAt time.Time      `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (r *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *PasswordReset) Usable(now time.Time) bool {
	return !r.IsUsed && r.ExpiresAt.After(now)
}
