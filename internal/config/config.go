package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"olo_mining/internal/logger"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	AppPort    string
	JWTSecret  string
	SessionTTL time.Duration

	StoreBackend  string
	SQLitePath    string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminPIN          string
	WithdrawDelay     time.Duration
	TaskVerifySeconds int
	TickInterval      time.Duration
	TasksSeedFile     string

	BotToken         string
	BotUsername      string
	AdminTelegramIDs []int64
	DevMode          bool

	APIRateLimit  int
	APIRateWindow time.Duration
	AllowedOrigin string

	LogLevel string
	LogJSON  bool
}

// Load reads .env (if present) and the environment; invalid settings are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppPort:       getEnvString("APP_PORT", "8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		StoreBackend:  strings.ToLower(getEnvString("STORE_BACKEND", BackendSQLite)),
		SQLitePath:    getEnvString("SQLITE_PATH", "olo.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		AdminPIN:      getEnvString("ADMIN_PIN", "8822"),
		TasksSeedFile: os.Getenv("TASKS_SEED_FILE"),
		BotToken:      os.Getenv("BOT_TOKEN"),
		BotUsername:   getEnvString("BOT_USERNAME", "olo_mining_bot"),
		DevMode:       getEnvBool("DEV_MODE", false),
		APIRateLimit:  getEnvInt("API_RATE_LIMIT", 120),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogJSON:       getEnvBool("LOG_JSON", false),

		TaskVerifySeconds: getEnvInt("TASK_VERIFY_SECONDS", 10),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	var err error
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.WithdrawDelay, err = getEnvDuration("WITHDRAW_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.TickInterval, err = getEnvDuration("TICK_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.APIRateWindow, err = getEnvDuration("API_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("REDIS_ADDR is required for the redis store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if len(cfg.AdminPIN) != 4 {
		logger.Warn("ADMIN_PIN is not 4 digits", "length", len(cfg.AdminPIN))
	}
	if cfg.TaskVerifySeconds <= 0 {
		cfg.TaskVerifySeconds = 10
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	// chat ids, comma separated
	if raw := os.Getenv("ADMIN_TELEGRAM_IDS"); raw != "" {
		for _, idStr := range strings.Split(raw, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
			}
		}
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
