package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/notify"
	"github.com/siddhasavor/backend/internal/observability"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const slotDateLayout = "2006-01-02"

// ReminderService sends meal reminders to approved patients whose diagnosis
// has a plan for the slot.
type ReminderService struct {
	db          *gorm.DB
	plans       *DietPlanService
	gateway     notify.Gateway
	maxAttempts int
	interval    time.Duration
	now         func() time.Time
}

func NewReminderService(db *gorm.DB, cfg *config.Config, plans *DietPlanService, gateway notify.Gateway) *ReminderService {
	attempts := cfg.ReminderMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	interval := cfg.ReminderRetryInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ReminderService{
		db:          db,
		plans:       plans,
		gateway:     gateway,
		maxAttempts: attempts,
		interval:    interval,
		now:         utcNow,
	}
}

// Dispatch sends one reminder per eligible patient for mealType. Patients whose
// slot is already claimed today by another dispatch are skipped.
func (s *ReminderService) Dispatch(ctx context.Context, mealType string) (*dto.DispatchReport, error) {
	defer observability.FromContext(ctx).Time(ctx, "reminders.dispatch")()

	slot, ok := models.ParseMealType(mealType)
	if !ok {
		return nil, ErrInvalidMealType
	}
	report := &dto.DispatchReport{MealType: string(slot)}

	plans, err := s.plans.ForMeal(ctx, slot)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		slog.WarnContext(ctx, "no diet plans for meal slot", "meal_type", slot)
		return report, nil
	}

	diagnoses := make([]models.Diagnosis, 0, len(plans))
	for d := range plans {
		diagnoses = append(diagnoses, d)
	}

	var patients []models.Patient
	err = s.db.WithContext(ctx).
		Where("status = ? AND diagnosis IN ?", models.PatientApproved, diagnoses).
		Order("created_at ASC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}
	report.Candidates = len(patients)

	slotDate := s.now().Format(slotDateLayout)
	for i := range patients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p := &patients[i]

		claim, ok, err := s.claimSlot(ctx, p, slot, slotDate)
		if err != nil {
			return report, err
		}
		if !ok {
			report.Skipped++
			continue
		}

		plan := plans[p.Diagnosis]
		attempts, sendErr := s.deliver(ctx, p, slot, &plan)
		s.settleClaim(ctx, claim, attempts, sendErr)
		if sendErr != nil {
			report.Failed++
			continue
		}
		report.Sent++
	}

	slog.InfoContext(ctx, "meal reminders dispatched",
		"meal_type", report.MealType,
		"candidates", report.Candidates,
		"sent", report.Sent,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// SendOne sends a reminder to a single patient regardless of earlier sends
// today and returns the terminal error, if any.
func (s *ReminderService) SendOne(ctx context.Context, patient *models.Patient, mealType string) error {
	slot, ok := models.ParseMealType(mealType)
	if !ok {
		return ErrInvalidMealType
	}

	plan, err := s.plans.Get(ctx, patient.Diagnosis, slot)
	if err != nil && !errors.Is(err, ErrDietPlanNotFound) {
		return err
	}
	attempts, sendErr := s.deliver(ctx, patient, slot, plan)

	record := models.MealReminder{
		PatientID: patient.ID,
		MealType:  slot,
		SlotDate:  s.now().Format(slotDateLayout),
		Status:    models.ReminderManual,
		Attempts:  attempts,
	}
	if sendErr != nil {
		record.Status = models.ReminderFailed
		record.LastError = sendErr.Error()
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.ErrorContext(ctx, "failed to record meal reminder", "patient_id", patient.ID, "error", err.Error())
	}
	return sendErr
}

// SendTest sends a reminder to email. A registered patient gets their own
// plan; anyone else gets the generic message. The slot defaults to breakfast.
func (s *ReminderService) SendTest(ctx context.Context, email, name, mealType string) error {
	if strings.TrimSpace(mealType) == "" {
		mealType = string(models.MealBreakfast)
	}
	slot, ok := models.ParseMealType(mealType)
	if !ok {
		return ErrInvalidMealType
	}

	email = normalizeEmail(email)
	var patient models.Patient
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&patient).Error
	switch {
	case err == nil:
		return s.SendOne(ctx, &patient, string(slot))
	case errors.Is(err, gorm.ErrRecordNotFound):
		if strings.TrimSpace(name) == "" {
			name = "there"
		}
		msg := notify.ComposeMealReminder(notify.MealReminder{
			PatientName:  name,
			PatientEmail: email,
			MealType:     string(slot),
		})
		_, err := s.send(ctx, msg)
		return err
	default:
		return fmt.Errorf("failed to look up patient: %w", err)
	}
}

// claimSlot inserts the dispatcher's row for (patient, slot, day). ok is false
// when another dispatch already holds the slot.
func (s *ReminderService) claimSlot(ctx context.Context, p *models.Patient, slot models.MealType, slotDate string) (*models.MealReminder, bool, error) {
	claimed := true
	record := models.MealReminder{
		PatientID: p.ID,
		MealType:  slot,
		SlotDate:  slotDate,
		Claimed:   &claimed,
		Status:    models.ReminderSending,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to claim reminder slot: %w", result.Error)
	}
	return &record, result.RowsAffected == 1, nil
}

// settleClaim stores the outcome on a claimed row. A failed send gives the
// claim back so a later dispatch can retry the slot the same day.
func (s *ReminderService) settleClaim(ctx context.Context, record *models.MealReminder, attempts int, sendErr error) {
	updates := map[string]interface{}{
		"status":   models.ReminderSent,
		"attempts": attempts,
	}
	if sendErr != nil {
		updates["status"] = models.ReminderFailed
		updates["last_error"] = sendErr.Error()
		updates["claimed"] = nil
	}
	err := s.db.WithContext(context.WithoutCancel(ctx)).Model(&models.MealReminder{}).
		Where("id = ?", record.ID).
		Updates(updates).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to record meal reminder", "patient_id", record.PatientID, "error", err.Error())
	}
}

// deliver composes and sends one reminder. plan may be nil.
func (s *ReminderService) deliver(ctx context.Context, p *models.Patient, slot models.MealType, plan *models.DietPlan) (int, error) {
	payload := notify.MealReminder{
		PatientName:  p.Name,
		PatientEmail: p.Email,
		Diagnosis:    string(p.Diagnosis),
		MealType:     string(slot),
	}
	if plan != nil {
		payload.MealItems = []string(plan.Items)
		payload.Notes = plan.Notes
	}

	attempts, err := s.send(ctx, notify.ComposeMealReminder(payload))
	if err != nil {
		slog.ErrorContext(ctx, "meal reminder failed",
			"action", "reminders.send",
			"patient_id", p.ID,
			"meal_type", slot,
			"attempts", attempts,
			"error", err.Error(),
		)
	}
	return attempts, err
}

// send runs the gateway under the retry policy and reports how many attempts
// were made. Invalid recipients are not retried.
func (s *ReminderService) send(ctx context.Context, msg notify.Message) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		err := s.gateway.Send(ctx, msg)
		if errors.Is(err, notify.ErrInvalidRecipient) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, s.retryPolicy(ctx))
	return attempts, err
}

func (s *ReminderService) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.interval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.maxAttempts-1)), ctx)
}
