// Package workers runs the background jobs: meal reminders per slot and
// password reset cleanup.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/observability"
)

type ReminderDispatcher interface {
	Dispatch(ctx context.Context, mealType string) (*dto.DispatchReport, error)
}

type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderDispatcher
	tokens    TokenCleaner
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registers one dispatch job per meal slot and the reset token
// cleanup job. An unknown timezone falls back to UTC.
func NewScheduler(cfg *config.Config, reminders ReminderDispatcher, tokens TokenCleaner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		logger.Warn("unknown scheduler timezone, using UTC", "timezone", cfg.SchedulerTimezone, "error", err.Error())
		loc = time.UTC
	}

	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		reminders: reminders,
		tokens:    tokens,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	slots := map[models.MealType]string{
		models.MealBreakfast: cfg.BreakfastCron,
		models.MealLunch:     cfg.LunchCron,
		models.MealDinner:    cfg.DinnerCron,
	}
	for _, meal := range models.MealTypes {
		meal := meal
		if _, err := s.cron.AddFunc(slots[meal], func() { s.RunSlot(meal) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid %s schedule %q: %w", meal, slots[meal], err)
		}
	}
	if _, err := s.cron.AddFunc(cfg.ResetCleanupCron, s.RunCleanup); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cfg.ResetCleanupCron, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits up to timeout for running jobs, then cancels their context.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.logger.Warn("scheduler jobs still running at shutdown")
	}
	s.cancel()
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) jobContext(name string) context.Context {
	scope := observability.NewScope(s.logger.With("job", name), nil)
	return observability.WithScope(s.ctx, scope)
}

// RunSlot dispatches reminders for one meal slot.
func (s *Scheduler) RunSlot(meal models.MealType) {
	ctx := s.jobContext("reminders." + string(meal))
	if _, err := s.reminders.Dispatch(ctx, string(meal)); err != nil {
		s.logger.ErrorContext(ctx, "scheduled dispatch failed",
			"action", "reminders.dispatch",
			"meal_type", meal,
			"error", err.Error(),
		)
	}
}

func (s *Scheduler) RunCleanup() {
	ctx := s.jobContext("password_reset.cleanup")
	n, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled reset cleanup failed", "action", "password_reset.cleanup", "error", err.Error())
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired reset tokens removed", "count", n)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
