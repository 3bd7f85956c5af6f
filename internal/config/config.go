package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string
	BotDisabled    bool
	DBDSN          string
	Environment    string
	ServiceName    string
	LogLevel       string // пусто - уровень по умолчанию для окружения
	MigrationsPath string
	MetricsAddr    string

	// Location часовой пояс, в котором считаются даты и часы занятий
	Location         *time.Location
	StaffTelegramIDs []int64

	MaxReschedules       int
	RescheduleMinNotice  time.Duration
	AutoCompleteInterval time.Duration
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		Environment:    getEnv("ENV", "development"),
		ServiceName:    getEnv("SERVICE_NAME", "training_scheduler"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		MetricsAddr:    getEnv("METRICS_ADDR", ":9090"),
	}

	var err error

	if cfg.BotDisabled, err = getBool("BOT_DISABLED", false); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.TelegramToken == "" && !cfg.BotDisabled {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	tz := getEnv("TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if cfg.StaffTelegramIDs, err = parseIDs(os.Getenv("STAFF_TELEGRAM_IDS")); err != nil {
		return nil, fmt.Errorf("invalid STAFF_TELEGRAM_IDS: %w", err)
	}

	if cfg.MaxReschedules, err = getInt("MAX_RESCHEDULES_PER_BOOKING", 2); err != nil {
		return nil, err
	}
	if cfg.MaxReschedules < 0 {
		return nil, fmt.Errorf("MAX_RESCHEDULES_PER_BOOKING must not be negative")
	}

	noticeHours, err := getInt("RESCHEDULE_MIN_NOTICE_HOURS", 23)
	if err != nil {
		return nil, err
	}
	if noticeHours < 0 {
		return nil, fmt.Errorf("RESCHEDULE_MIN_NOTICE_HOURS must not be negative")
	}
	cfg.RescheduleMinNotice = time.Duration(noticeHours) * time.Hour

	if cfg.AutoCompleteInterval, err = getDuration("AUTO_COMPLETE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutoCompleteInterval <= 0 {
		return nil, fmt.Errorf("AUTO_COMPLETE_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
