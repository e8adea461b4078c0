// Package config loads service configuration from the environment.
//
// A local .env file is read first (if present) so development setups do not
// need exported variables. Real environment variables always win.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported email providers.
const (
	EmailResend = "resend"
	EmailSMTP   = "smtp"
	EmailLog    = "log"
)

// Config is the full service configuration.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Email     EmailConfig
	OAuth     OAuthConfig
	Shutdown  ShutdownConfig
}

type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

type DatabaseConfig struct {
	Driver      string
	URL         string
	MaxConns    int32
	SQLitePath  string
	AutoMigrate bool
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      string
	ResetTokenTTL string
	BcryptCost    int
	FrontendURL   string
}

type EmailConfig struct {
	Provider     string
	FromEmail    string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	CookieSecret       string
}

type ShutdownConfig struct {
	Timeout             string
	ReadinessDrainDelay string
}

// Load reads configuration from .env and the process environment.
func Load() *Config {
	// Missing .env is the normal case in containers.
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "poker-service"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			Env:     getEnv("ENV", "development"),
			Port:    getEnv("PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getEnvBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRate: getEnvFloat("OTEL_SAMPLE_RATE", 1.0),
		},
		Profiling: ProfilingConfig{
			Enabled:  getEnvBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PYROSCOPE_ENDPOINT", "http://localhost:4040"),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			URL:         getEnv("DATABASE_URL", ""),
			MaxConns:    int32(getEnvInt("DB_MAX_CONNS", 10)),
			SQLitePath:  getEnv("SQLITE_PATH", "poker.db"),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			TokenTTL:      getEnv("TOKEN_TTL", "1h"),
			ResetTokenTTL: getEnv("RESET_TOKEN_TTL", "1h"),
			BcryptCost:    getEnvInt("BCRYPT_COST", 10),
			FrontendURL:   strings.TrimRight(getEnv("FRONTEND_URL", ""), "/"),
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(getEnv("EMAIL_PROVIDER", EmailLog)),
			FromEmail:    getEnv("EMAIL_FROM", "Poker Tracker <noreply@example.com>"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPass:     getEnv("SMTP_PASS", ""),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
			CookieSecret:       getEnv("COOKIE_SECRET", ""),
		},
		Shutdown: ShutdownConfig{
			Timeout:             getEnv("SHUTDOWN_TIMEOUT", "10s"),
			ReadinessDrainDelay: getEnv("READINESS_DRAIN_DELAY", "5s"),
		},
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
		errs = append(errs, fmt.Errorf("invalid TOKEN_TTL: %w", err))
	}
	if _, err := time.ParseDuration(c.Auth.ResetTokenTTL); err != nil {
		errs = append(errs, fmt.Errorf("invalid RESET_TOKEN_TTL: %w", err))
	}

	switch c.Email.Provider {
	case EmailResend:
		if c.Email.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required for the resend provider"))
		}
	case EmailSMTP:
		if c.Email.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp provider"))
		}
	case EmailLog:
	default:
		errs = append(errs, fmt.Errorf("unsupported EMAIL_PROVIDER %q", c.Email.Provider))
	}

	if c.GoogleOAuthEnabled() && c.OAuth.CookieSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("COOKIE_SECRET is required when Google sign-in is enabled"))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.Tracing.SampleRate))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Service.Env == "development"
}

// GoogleOAuthEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleOAuthEnabled() bool {
	return c.OAuth.GoogleClientID != "" && c.OAuth.GoogleClientSecret != ""
}

var (
	ephemeralOnce   sync.Once
	ephemeralSecret string
)

// SigningSecret returns the JWT secret. Without JWT_SECRET (only allowed in
// development) a random secret is generated once per process, so tokens do
// not survive a restart.
func (c *Config) SigningSecret() string {
	if c.Auth.JWTSecret != "" {
		return c.Auth.JWTSecret
	}
	ephemeralOnce.Do(func() {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			panic(fmt.Sprintf("config: generate signing secret: %v", err))
		}
		ephemeralSecret = hex.EncodeToString(b)
	})
	return ephemeralSecret
}

// OAuthCookieKey returns the key that signs the OAuth state cookie.
func (c *Config) OAuthCookieKey() []byte {
	if c.OAuth.CookieSecret != "" {
		return []byte(c.OAuth.CookieSecret)
	}
	return []byte(c.SigningSecret())
}

// GetTokenTTLDuration returns the access token lifetime.
func (c *Config) GetTokenTTLDuration() time.Duration {
	return parseDuration(c.Auth.TokenTTL, time.Hour)
}

// GetResetTokenTTLDuration returns the password reset token lifetime.
func (c *Config) GetResetTokenTTLDuration() time.Duration {
	return parseDuration(c.Auth.ResetTokenTTL, time.Hour)
}

// GetShutdownTimeoutDuration returns the graceful shutdown timeout.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.Shutdown.Timeout, 10*time.Second)
}

// GetReadinessDrainDelayDuration returns how long /ready reports shutting_down
// before the HTTP server stops accepting connections.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDuration(c.Shutdown.ReadinessDrainDelay, 0)
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}
