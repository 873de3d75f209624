package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string `env:"PORT"           envDefault:"8080"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH"    envDefault:"health-risk.db"`

	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER"       envDefault:"health-risk-backend"`
	SessionTTL      time.Duration `env:"SESSION_TTL"      envDefault:"30m"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL" envDefault:"24h"`

	FrontendURL       string  `env:"FRONTEND_URL"         envDefault:"http://localhost:5173"`
	SendGridAPIKey    string  `env:"SENDGRID_API_KEY"`
	MailFromAddress   string  `env:"MAIL_FROM_ADDRESS"    envDefault:"noreply@localhost"`
	MailFromName      string  `env:"MAIL_FROM_NAME"       envDefault:"Health Risk"`
	MailRatePerSecond float64 `env:"MAIL_RATE_PER_SECOND" envDefault:"5"`

	RedisURL     string        `env:"REDIS_URL"`
	ResendLimit  int           `env:"RESEND_LIMIT"  envDefault:"3"`
	ResendWindow time.Duration `env:"RESEND_WINDOW" envDefault:"15m"`

	ModelRegistry string `env:"MODEL_REGISTRY" envDefault:"models/registry.yaml"`
	S3Region      string `env:"S3_REGION"`
	S3Endpoint    string `env:"S3_ENDPOINT"`

	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel    string   `env:"LOG_LEVEL"            envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT"           envDefault:"json"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.VerificationTTL <= 0 {
		return errors.New("VERIFICATION_TTL must be positive")
	}
	if c.ResendLimit <= 0 || c.ResendWindow <= 0 {
		return errors.New("RESEND_LIMIT and RESEND_WINDOW must be positive")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.CORSOrigins = parseOrigins(c.CORSOrigins)
}

func parseOrigins(input []string) []string {
	var out []string
	for _, part := range input {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
