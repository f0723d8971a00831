package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы хранилища
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverJSON     = "json"
	DriverMemory   = "memory"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Telegram  TelegramConfig  `json:"telegram"`
	Reminders RemindersConfig `json:"reminders"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	LogLevel  string          `json:"log_level"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig содержит настройки хранилища
type DatabaseConfig struct {
	Driver         string        `json:"driver"`
	Path           string        `json:"path"`
	URL            string        `json:"-"`
	RedisAddr      string        `json:"redis_addr"`
	RedisPassword  string        `json:"-"`
	RedisDB        int           `json:"redis_db"`
	RedisKeyPrefix string        `json:"redis_key_prefix"`
	DataDir        string        `json:"data_dir"`
	MaxConnections int           `json:"max_connections"`
	ConnTimeout    time.Duration `json:"conn_timeout"`
}

// TelegramConfig содержит настройки отправки напоминаний в Telegram
type TelegramConfig struct {
	Token  string `json:"-"`
	ChatID int64  `json:"chat_id"`
}

// Enabled сообщает, настроена ли отправка через Telegram
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

// RemindersConfig содержит настройки напоминаний о записях
type RemindersConfig struct {
	Enabled  bool `json:"enabled"`
	LeadMins int  `json:"lead_mins"`
}

// Lead возвращает интервал между напоминанием и началом приема
func (r RemindersConfig) Lead() time.Duration {
	return time.Duration(r.LeadMins) * time.Minute
}

// RateLimitConfig содержит настройки ограничения частоты запросов
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
}

// Load загружает конфигурацию из .env и переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
			Path:           getEnv("DB_FILE", "medbook.db"),
			URL:            os.Getenv("DATABASE_URL"),
			RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:  os.Getenv("REDIS_PASSWORD"),
			RedisDB:        getEnvAsInt("REDIS_DB", 0),
			RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "medbook"),
			DataDir:        getEnv("DATA_DIR", "data"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			ConnTimeout:    getEnvAsDuration("DB_CONN_TIMEOUT", 5*time.Second),
		},
		Telegram: TelegramConfig{
			Token:  os.Getenv("TELEGRAM_TOKEN"),
			ChatID: getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		},
		Reminders: RemindersConfig{
			Enabled:  getEnvAsBool("REMINDERS_ENABLED", true),
			LeadMins: getEnvAsInt("REMINDER_LEAD_MINS", 60),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 120),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_FILE is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverRedis:
		if c.Database.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis driver")
		}
	case DriverJSON:
		if c.Database.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the json driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Database.Driver)
	}

	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be positive")
	}

	// Токен без чата бесполезен
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	if c.Reminders.LeadMins < 0 {
		return fmt.Errorf("REMINDER_LEAD_MINS must be non-negative")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be non-negative")
	}

	return nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAsInt получает переменную окружения как число
func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvAsDuration получает переменную окружения как duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
