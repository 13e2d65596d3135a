package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Metrics struct {
		Addr string
	}

	// Domain holds the tunables of the matching and retention rules.
	Domain Domain

	Jobs struct {
		SweepCron     string
		ReconcileCron string
	}
}

// Domain rules are kept in their own struct so services and tests can take
// them without dragging in the infra sections.
type Domain struct {
	MatchThreshold         int           `validate:"gte=0,lte=100"`
	VideoUnlockMessages    int           `validate:"gt=0"`
	ExtendedUnlockMessages int           `validate:"gt=0"`
	MessageRetention       time.Duration `validate:"gt=0"`
	FlaggedRetention       time.Duration `validate:"gt=0"`
	RecordingRetention     time.Duration `validate:"gt=0"`
	SafetyReportWindow     time.Duration `validate:"gt=0"`
	LateReportWindow       time.Duration `validate:"gt=0"`
	LateReportRetention    time.Duration `validate:"gt=0"`
	DailySwipeLimit        int           `validate:"gt=0"`
	RetentionHorizon       time.Duration `validate:"gt=0"`
}

// DefaultDomain returns the production rule set. Tests start from this and
// override individual fields.
func DefaultDomain() Domain {
	return Domain{
		MatchThreshold:         80,
		VideoUnlockMessages:    5,
		ExtendedUnlockMessages: 10,
		MessageRetention:       90 * 24 * time.Hour,
		FlaggedRetention:       180 * 24 * time.Hour,
		RecordingRetention:     30 * 24 * time.Hour,
		SafetyReportWindow:     24 * time.Hour,
		LateReportWindow:       30 * 24 * time.Hour,
		LateReportRetention:    7 * 24 * time.Hour,
		DailySwipeLimit:        100,
		RetentionHorizon:       7 * 24 * time.Hour,
	}
}

func New() (*Config, error) {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "matchcore")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "matchcore")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", ":9090")

	// Domain rules
	d := DefaultDomain()
	d.MatchThreshold = getEnvInt("MATCH_THRESHOLD", d.MatchThreshold)
	d.VideoUnlockMessages = getEnvInt("VIDEO_UNLOCK_MESSAGES", d.VideoUnlockMessages)
	d.ExtendedUnlockMessages = getEnvInt("EXTENDED_UNLOCK_MESSAGES", d.ExtendedUnlockMessages)
	d.MessageRetention = getEnvDays("MESSAGE_RETENTION_DAYS", 90)
	d.FlaggedRetention = getEnvDays("FLAGGED_RETENTION_DAYS", 180)
	d.RecordingRetention = getEnvDays("RECORDING_RETENTION_DAYS", 30)
	d.SafetyReportWindow = getEnvDays("SAFETY_REPORT_WINDOW_DAYS", 1)
	d.LateReportWindow = getEnvDays("LATE_REPORT_WINDOW_DAYS", 30)
	d.LateReportRetention = getEnvDays("LATE_REPORT_RETENTION_DAYS", 7)
	d.DailySwipeLimit = getEnvInt("DAILY_SWIPE_LIMIT", d.DailySwipeLimit)
	d.RetentionHorizon = getEnvDays("RETENTION_HORIZON_DAYS", 7)
	cfg.Domain = d

	// Background jobs
	cfg.Jobs.SweepCron = getEnvDefault("SWEEP_CRON", "0 3 * * *")
	cfg.Jobs.ReconcileCron = getEnvDefault("RECONCILE_CRON", "30 3 * * *")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDays(k string, def int) time.Duration {
	return time.Duration(getEnvInt(k, def)) * 24 * time.Hour
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
