package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Admin
	AdminEmails string
	AdminToken  string

	// Server
	Port             string
	CORSOrigins      string
	BaseURL          string
	EnableTestRoutes bool
	RateLimit        int // requests per minute per IP
	AuthRateLimit    int

	// Tokens
	InviteTTL        time.Duration
	PasswordResetTTL time.Duration

	// Notifications
	NotifyProvider string // smtp, sendgrid, log
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	MailFrom       string
	MailFromName   string
	SendGridAPIKey string

	// Meal reminders
	ReminderMaxAttempts   int
	ReminderRetryInterval time.Duration
	EnableScheduler       bool
	SchedulerTimezone     string
	BreakfastCron         string
	LunchCron             string
	DinnerCron            string
	ResetCleanupCron      string

	// Observability
	SentryDSN    string
	AppEnv       string
	LogLevel     string
	LogRetention time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "siddha_savor"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),
		AdminToken:  getEnv("ADMIN_TOKEN", ""),

		Port:             getEnv("PORT", "8080"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		EnableTestRoutes: parseBool(getEnv("ENABLE_TEST_ROUTES", "false")),
		RateLimit:        parseInt(getEnv("RATE_LIMIT", "60"), 60),
		AuthRateLimit:    parseInt(getEnv("AUTH_RATE_LIMIT", "10"), 10),

		InviteTTL:        parseDuration(getEnv("INVITE_TTL", "48h"), 48*time.Hour),
		PasswordResetTTL: parseDuration(getEnv("PASSWORD_RESET_TTL", "1h"), time.Hour),

		NotifyProvider: getEnv("NOTIFY_PROVIDER", "log"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       parseInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@siddhasavor.com"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "Siddha Savor"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		ReminderMaxAttempts:   parseInt(getEnv("REMINDER_MAX_ATTEMPTS", "3"), 3),
		ReminderRetryInterval: parseDuration(getEnv("REMINDER_RETRY_INTERVAL", "500ms"), 500*time.Millisecond),
		EnableScheduler:       parseBool(getEnv("ENABLE_SCHEDULER", "true")),
		SchedulerTimezone:     getEnv("SCHEDULER_TIMEZONE", "Asia/Kolkata"),
		BreakfastCron:         getEnv("REMINDER_BREAKFAST_CRON", "0 8 * * *"),
		LunchCron:             getEnv("REMINDER_LUNCH_CRON", "0 13 * * *"),
		DinnerCron:            getEnv("REMINDER_DINNER_CRON", "0 19 * * *"),
		ResetCleanupCron:      getEnv("RESET_CLEANUP_CRON", "@hourly"),

		SentryDSN:    getEnv("SENTRY_DSN", ""),
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
