package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner}

// ParseMealType accepts any casing and surrounding whitespace.
func ParseMealType(s string) (MealType, bool) {
	mt := MealType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MealTypes {
		if mt == known {
			return mt, true
		}
	}
	return "", false
}

type DietPlan struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Diagnosis Diagnosis                   `gorm:"size:32;not null;uniqueIndex:idx_diet_plan_diag_meal,priority:1" json:"diagnosis"`
	MealType  MealType                    `gorm:"size:16;not null;uniqueIndex:idx_diet_plan_diag_meal,priority:2" json:"mealType"`
	Items     datatypes.JSONSlice[string] `json:"items"`
	Notes     string                      `gorm:"type:text" json:"notes"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

func (p *DietPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
