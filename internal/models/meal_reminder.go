package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderSending = "SENDING"
	ReminderSent    = "SENT"
	ReminderFailed  = "FAILED"
	// ReminderManual marks a successful send from SendOne or the test
	// endpoint. It never counts as the slot's scheduled reminder.
	ReminderManual = "MANUAL"
)

// MealReminder records one delivery attempt series for a patient and slot.
// SlotDate is the UTC calendar day (YYYY-MM-DD).
//
// Claimed is true on the row the dispatcher owns for a slot and NULL on every
// other row. NULLs never collide in a unique index, so the index admits one
// dispatcher row per patient, slot and day and any number of manual rows.
type MealReminder struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_meal_reminder_claim,priority:1" json:"patientId"`
	MealType  MealType  `gorm:"size:16;not null;uniqueIndex:idx_meal_reminder_claim,priority:2" json:"mealType"`
	SlotDate  string    `gorm:"size:10;not null;uniqueIndex:idx_meal_reminder_claim,priority:3" json:"slotDate"`
	Claimed   *bool     `gorm:"uniqueIndex:idx_meal_reminder_claim,priority:4" json:"claimed,omitempty"`
	Status    string    `gorm:"size:10;not null" json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `gorm:"type:text" json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m *MealReminder) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
