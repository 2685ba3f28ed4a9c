package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siddhasavor/backend/internal/access"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/notify"
	"github.com/siddhasavor/backend/internal/observability"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrPatientIDRequired = errors.New("patient ID is required")
	ErrInvalidAction     = errors.New("invalid action")
	ErrReasonRequired    = errors.New("rejection reason is required")
	ErrInvalidDiagnosis  = errors.New("unknown diagnosis")
	ErrInvalidStatus     = errors.New("status must be PENDING or APPROVED")
)

// PatientService owns the pending → approved lifecycle. Every method that
// takes a doctorUID limits itself to that doctor's patients; "" means admin.
type PatientService struct {
	db      *gorm.DB
	tokens  *TokenService
	gateway notify.Gateway
	now     func() time.Time
}

func NewPatientService(db *gorm.DB, tokens *TokenService, gateway notify.Gateway) *PatientService {
	return &PatientService{
		db:      db,
		tokens:  tokens,
		gateway: gateway,
		now:     utcNow,
	}
}

// Register creates a PENDING patient from a patient invite.
func (s *PatientService) Register(ctx context.Context, req *dto.PatientRegisterRequest) (*models.Patient, error) {
	defer observability.FromContext(ctx).Time(ctx, "patients.register")()

	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	diagnosis := models.Diagnosis(strings.ToUpper(strings.TrimSpace(req.Diagnosis)))
	if !diagnosis.Valid() {
		return nil, ErrInvalidDiagnosis
	}

	invite, err := s.tokens.ResolveInvite(ctx, req.Token, models.RolePatient)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Patient{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token := invite.Token
	patient := models.Patient{
		DoctorUID:    invite.DoctorUID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Diagnosis:    diagnosis,
		Status:       models.PatientPending,
		InviteToken:  &token,
	}
	if err := s.db.WithContext(ctx).Create(&patient).Error; err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	slog.InfoContext(ctx, "patient registered", "patient_id", patient.ID, "doctor_uid", patient.DoctorUID)
	return &patient, nil
}

// Approve moves a PENDING patient to APPROVED. Approving an already approved
// patient succeeds without writing.
func (s *PatientService) Approve(ctx context.Context, doctorUID string, patientID uuid.UUID, action string) (*models.Patient, error) {
	defer observability.FromContext(ctx).Time(ctx, "patients.approve")()

	if patientID == uuid.Nil {
		return nil, ErrPatientIDRequired
	}
	if action != ActionApprove {
		return nil, ErrInvalidAction
	}

	now := s.now()
	result := s.db.WithContext(ctx).Model(&models.Patient{}).
		Scopes(access.ForDoctor(doctorUID)).
		Where("id = ? AND status = ?", patientID, models.PatientPending).
		Updates(map[string]interface{}{
			"status":      models.PatientApproved,
			"approved_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to approve patient: %w", result.Error)
	}
	transitioned := result.RowsAffected > 0

	patient, err := s.find(ctx, doctorUID, patientID)
	if err != nil {
		return nil, err
	}

	if transitioned {
		slog.InfoContext(ctx, "patient approved", "patient_id", patient.ID, "doctor_uid", patient.DoctorUID)
		s.notify(ctx, notify.ComposeApproval(patient.Name, patient.Email), patient.ID)
	}
	return patient, nil
}

// Reject deletes the patient together with its reminder history and then
// tells the patient why.
func (s *PatientService) Reject(ctx context.Context, doctorUID string, patientID uuid.UUID, action, reason string) error {
	defer observability.FromContext(ctx).Time(ctx, "patients.reject")()

	if patientID == uuid.Nil {
		return ErrPatientIDRequired
	}
	if action != ActionReject {
		return ErrInvalidAction
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	var patient models.Patient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(access.ForDoctor(doctorUID)).Where("id = ?", patientID).First(&patient).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPatientNotFound
			}
			return fmt.Errorf("failed to load patient: %w", err)
		}
		if err := tx.Where("patient_id = ?", patientID).Delete(&models.MealReminder{}).Error; err != nil {
			return fmt.Errorf("failed to delete reminders: %w", err)
		}
		result := tx.Scopes(access.ForDoctor(doctorUID)).Where("id = ?", patientID).Delete(&models.Patient{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete patient: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrPatientNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "patient rejected", "patient_id", patient.ID, "doctor_uid", patient.DoctorUID)
	s.notify(ctx, notify.ComposeRejection(patient.Name, patient.Email, reason), patient.ID)
	return nil
}

// ListForDoctor returns a doctor's patients, newest first. An empty status
// returns every patient.
func (s *PatientService) ListForDoctor(ctx context.Context, doctorUID, status string) ([]models.Patient, error) {
	query := s.db.WithContext(ctx).Scopes(access.ForDoctor(doctorUID))
	if status != "" {
		st := models.PatientStatus(strings.ToUpper(status))
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		query = query.Where("status = ?", st)
	}

	var patients []models.Patient
	if err := query.Order("created_at DESC").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// Authenticate checks patient credentials. Pending patients cannot sign in.
func (s *PatientService) Authenticate(ctx context.Context, email, password string) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(patient.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if patient.Status != models.PatientApproved {
		return nil, ErrPatientPending
	}
	return &patient, nil
}

func (s *PatientService) find(ctx context.Context, doctorUID string, patientID uuid.UUID) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).Scopes(access.ForDoctor(doctorUID)).Where("id = ?", patientID).First(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	return &patient, nil
}

// notify never fails the caller.
func (s *PatientService) notify(ctx context.Context, msg notify.Message, patientID uuid.UUID) {
	if s.gateway == nil {
		return
	}
	if err := s.gateway.Send(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "patient notification failed",
			"action", "patients.notify",
			"patient_id", patientID,
			"subject", msg.Subject,
			"error", err.Error(),
		)
	}
}
