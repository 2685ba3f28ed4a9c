package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/database"
	"github.com/siddhasavor/backend/internal/handlers"
	"github.com/siddhasavor/backend/internal/logging"
	"github.com/siddhasavor/backend/internal/middleware"
	"github.com/siddhasavor/backend/internal/notify"
	"github.com/siddhasavor/backend/internal/routes"
	"github.com/siddhasavor/backend/internal/services"
	"github.com/siddhasavor/backend/internal/validation"
	"github.com/siddhasavor/backend/internal/workers"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db, 5*time.Second)
	logger := slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.LogLevel),
		pgLogHandler,
	))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Log cleanup
	logging.StartCleanup(ctx, db, cfg.LogRetention)

	gateway, err := notify.New(cfg)
	if err != nil {
		slog.Error("notification gateway misconfigured", "provider", cfg.NotifyProvider, "error", err)
		os.Exit(1)
	}
	slog.Info("notification gateway ready", "provider", cfg.NotifyProvider)

	// Services
	tokenService := services.NewTokenService(db, cfg)
	patientService := services.NewPatientService(db, tokenService, gateway)
	authService := services.NewAuthService(db, cfg, tokenService, patientService, gateway)
	dietPlanService := services.NewDietPlanService(db)
	reminderService := services.NewReminderService(db, cfg, dietPlanService, gateway)

	if _, err := dietPlanService.SeedDefaults(ctx); err != nil {
		slog.Error("diet plan seeding failed", "error", err)
	}

	// Handlers
	validate := validation.New()
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, tokenService, validate),
		Patient:  handlers.NewPatientHandler(patientService, validate),
		Invite:   handlers.NewInviteHandler(tokenService, validate),
		Admin:    handlers.NewAdminHandler(authService, tokenService),
		Reminder: handlers.NewReminderHandler(reminderService, validate),
		DietPlan: handlers.NewDietPlanHandler(dietPlanService, validate),
		Health:   handlers.NewHealthHandler(db),
	}

	// Scheduler
	var scheduler *workers.Scheduler
	if cfg.EnableScheduler {
		scheduler, err = workers.NewScheduler(cfg, reminderService, tokenService, logger)
		if err != nil {
			slog.Error("scheduler setup failed", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.Observability(logger))

	routes.Setup(app, cfg, h)

	if cfg.EnableTestRoutes {
		slog.Warn("test routes enabled", "path", "/api/test/meal-reminder")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop(30 * time.Second)
	}
	cancel()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
