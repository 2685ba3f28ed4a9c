package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

type Doctor struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UID          string    `gorm:"size:64;not null;uniqueIndex" json:"uid"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:'doctor'" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Role == "" {
		d.Role = RoleDoctor
	}
	return nil
}
