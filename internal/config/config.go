package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Константы для окна уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Config holds process-wide settings read from the environment
type Config struct {
	// Telegram bot token
	TelegramToken string
	// Base URL of the REST backend; empty means local content
	APIURL string
	// Timeout for a single backend request
	HTTPTimeout time.Duration
	// "sqlite" or "postgres"
	DBType string
	// DSN for postgres or file path for sqlite
	DatabaseURL string
	// When set, the key-value store lives in Redis
	RedisURL string
	// "dev" or "prod"
	LogMode string
	// Streak reminders on/off
	SchedulerEnabled bool
	// Reminder window, hours of day (0-23), inclusive
	NotificationStartHour int
	NotificationEndHour   int
	// Optional xlsx/csv curriculum imported at startup
	CurriculumFile string
	// Telegram user IDs allowed to run /import
	AdminUserIDs []int64
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout:           15 * time.Second,
		DBType:                "sqlite",
		DatabaseURL:           "data/signlingo.db",
		LogMode:               "dev",
		SchedulerEnabled:      true,
		NotificationStartHour: DefaultNotificationStartHour,
		NotificationEndHour:   DefaultNotificationEndHour,
	}
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables over DefaultConfig
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(os.Getenv("API_URL")), "/")
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.CurriculumFile = strings.TrimSpace(os.Getenv("CURRICULUM_FILE"))

	if v := strings.TrimSpace(os.Getenv("DB_TYPE")); v != "" {
		v = strings.ToLower(v)
		if v != "sqlite" && v != "postgres" {
			return nil, fmt.Errorf("unsupported DB_TYPE %q", v)
		}
		cfg.DBType = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.LogMode = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	cfg.SchedulerEnabled = os.Getenv("ENABLE_SCHEDULER") != "false"

	cfg.NotificationStartHour = hourFromEnv("NOTIFICATION_START_HOUR", cfg.NotificationStartHour)
	cfg.NotificationEndHour = hourFromEnv("NOTIFICATION_END_HOUR", cfg.NotificationEndHour)

	if ids := os.Getenv("ADMIN_USER_IDS"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin user ID %q: %w", idStr, err)
			}
			cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
		}
	}

	return cfg, nil
}

// UseBackend reports whether content and completions go to the REST backend
func (c *Config) UseBackend() bool {
	return c.APIURL != ""
}

func hourFromEnv(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return def
	}
	return h
}
