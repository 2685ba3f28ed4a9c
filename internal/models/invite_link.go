package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InviteStatus string

const (
	InviteActive  InviteStatus = "ACTIVE"
	InviteExpired InviteStatus = "EXPIRED"
)

// StatusOf is the only place invite expiry is decided.
func StatusOf(expiresAt, now time.Time) InviteStatus {
	if expiresAt.After(now) {
		return InviteActive
	}
	return InviteExpired
}

// HoursRemaining is floored at zero and rounded to two decimals.
func HoursRemaining(expiresAt, now time.Time) float64 {
	hours := expiresAt.Sub(now).Hours()
	if hours <= 0 {
		return 0
	}
	return math.Round(hours*100) / 100
}

type InviteLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token     string    `gorm:"size:64;not null;uniqueIndex" json:"token"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	DoctorUID string    `gorm:"size:64;not null;index" json:"doctorUid"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i *InviteLink) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *InviteLink) Status(now time.Time) InviteStatus {
	return StatusOf(i.ExpiresAt, now)
}
