// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the configuration shared by the server, the worker and charterctl.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int
	// AutoMigrate applies pending migrations when the server starts
	AutoMigrate bool

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	BaseCurrency    string
	BOTAPIURL       string
	BOTClientID     string
	FXAPIURL        string
	FXFallbackRates string
	FXCacheTTL      time.Duration

	LedgerWebhookURL string
	OutboxBatchSize  int
	OutboxInterval   time.Duration
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads .env files (when present) and the environment. Variables already
// set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 20),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getEnv("JWT_ISSUER", "charterbooks"),
		JWTTTL:    getEnvDuration("JWT_TTL", 15*time.Minute),

		BaseCurrency:    strings.ToUpper(getEnv("BASE_CURRENCY", "THB")),
		BOTAPIURL:       os.Getenv("BOT_API_URL"),
		BOTClientID:     os.Getenv("BOT_CLIENT_ID"),
		FXAPIURL:        os.Getenv("FX_API_URL"),
		FXFallbackRates: os.Getenv("FX_FALLBACK_RATES"),
		FXCacheTTL:      getEnvDuration("FX_CACHE_TTL", 6*time.Hour),

		LedgerWebhookURL: os.Getenv("LEDGER_WEBHOOK_URL"),
		OutboxBatchSize:  getEnvInt("OUTBOX_BATCH_SIZE", 50),
		OutboxInterval:   getEnvDuration("OUTBOX_INTERVAL", 5*time.Second),
	}
	return cfg, nil
}

// Require returns an error naming every empty setting among keys.
// Keys are environment variable names.
func (c *Config) Require(keys ...string) error {
	values := map[string]string{
		"DATABASE_URL":       c.DatabaseURL,
		"JWT_SECRET":         c.JWTSecret,
		"LEDGER_WEBHOOK_URL": c.LedgerWebhookURL,
	}

	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
