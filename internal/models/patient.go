package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientStatus string

const (
	PatientPending  PatientStatus = "PENDING"
	PatientApproved PatientStatus = "APPROVED"
)

func (s PatientStatus) Valid() bool {
	return s == PatientPending || s == PatientApproved
}

type Diagnosis string

const (
	DiagnosisDiabetes     Diagnosis = "DIABETES"
	DiagnosisHypertension Diagnosis = "HYPERTENSION"
	DiagnosisArthritis    Diagnosis = "ARTHRITIS"
	DiagnosisGastritis    Diagnosis = "GASTRITIS"
	DiagnosisPCOS         Diagnosis = "PCOS"
	DiagnosisObesity      Diagnosis = "OBESITY"
)

var Diagnoses = []Diagnosis{
	DiagnosisDiabetes,
	DiagnosisHypertension,
	DiagnosisArthritis,
	DiagnosisGastritis,
	DiagnosisPCOS,
	DiagnosisObesity,
}

func (d Diagnosis) Valid() bool {
	for _, known := range Diagnoses {
		if d == known {
			return true
		}
	}
	return false
}

// Patient is approved when Status is APPROVED. InviteToken records the invite
// the patient registered with and is kept after approval.
type Patient struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorUID    string        `gorm:"size:64;not null;index" json:"doctorUid"`
	Name         string        `gorm:"size:255;not null" json:"name"`
	Email        string        `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string        `gorm:"not null" json:"-"`
	Diagnosis    Diagnosis     `gorm:"size:32;not null;index" json:"diagnosis"`
	Status       PatientStatus `gorm:"size:16;not null;default:'PENDING';index" json:"status"`
	InviteToken  *string       `gorm:"size:64" json:"inviteToken,omitempty"`
	ApprovedAt   *time.Time    `json:"approvedAt,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PatientPending
	}
	return nil
}
