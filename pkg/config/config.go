package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guardpost/guardpost/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store configuration
	Store StoreConfig

	// Invitation configuration
	Invites InviteConfig

	// Hashing configuration
	Hash HashConfig

	// SMTP configuration
	SMTP SMTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig holds the paths of the credential and invite store files
type StoreConfig struct {
	// UsersFile is the credential store shared with the identity provider.
	// The provider reads it; only this service (or a manual edit) writes it.
	UsersFile string

	// InvitesFile holds pending invitations; owned exclusively by this service.
	InvitesFile string
}

// InviteConfig holds invitation workflow settings
type InviteConfig struct {
	// BaseURL is the public URL used to build acceptance links
	BaseURL string

	// TTL is the default invitation lifetime
	TTL time.Duration

	// AdminGroup is the group name that grants administrative access
	AdminGroup string

	// SweepInterval is the cron cadence for pruning expired invitations
	SweepInterval time.Duration
}

// HashConfig holds password hashing settings
type HashConfig struct {
	// Timeout bounds a single hashing call
	Timeout time.Duration
}

// SMTPConfig holds mail delivery settings. Host empty disables delivery;
// invitation links are then returned to the caller only.
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Invites:       loadInviteConfig(),
		Hash:          loadHashConfig(),
		SMTP:          loadSMTPConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("GUARDPOST_HOST", "0.0.0.0"),
		Port:            getEnv("GUARDPOST_PORT", "8080"),
		ReadTimeout:     getEnvDuration("GUARDPOST_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("GUARDPOST_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvDuration("GUARDPOST_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("GUARDPOST_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadStoreConfig loads store file paths from environment
func loadStoreConfig() StoreConfig {
	return StoreConfig{
		UsersFile:   getEnv("GUARDPOST_USERS_FILE", "/config/users_database.yml"),
		InvitesFile: getEnv("GUARDPOST_INVITES_FILE", "/data/invites.json"),
	}
}

// loadInviteConfig loads invitation workflow settings from environment
func loadInviteConfig() InviteConfig {
	return InviteConfig{
		BaseURL:       strings.TrimRight(getEnv("GUARDPOST_BASE_URL", "http://localhost:8080"), "/"),
		TTL:           getEnvDuration("GUARDPOST_INVITE_TTL", 60*time.Minute),
		AdminGroup:    getEnv("GUARDPOST_ADMIN_GROUP", "admins"),
		SweepInterval: getEnvDuration("GUARDPOST_INVITE_SWEEP_INTERVAL", 5*time.Minute),
	}
}

// loadHashConfig loads hashing settings from environment
func loadHashConfig() HashConfig {
	return HashConfig{
		Timeout: getEnvDuration("GUARDPOST_HASH_TIMEOUT", 30*time.Second),
	}
}

// loadSMTPConfig loads SMTP settings from environment
func loadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     getEnv("GUARDPOST_SMTP_HOST", ""),
		Port:     getEnvInt("GUARDPOST_SMTP_PORT", 587),
		TLS:      getEnvBool("GUARDPOST_SMTP_TLS", true),
		Username: getEnv("GUARDPOST_SMTP_USERNAME", ""),
		Password: getEnv("GUARDPOST_SMTP_PASSWORD", ""),
		From:     getEnv("GUARDPOST_SMTP_FROM", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("GUARDPOST_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("GUARDPOST_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Store.UsersFile == "" {
		return fmt.Errorf("users file path is required")
	}
	if c.Store.InvitesFile == "" {
		return fmt.Errorf("invites file path is required")
	}
	if c.Store.UsersFile == c.Store.InvitesFile {
		return fmt.Errorf("users file and invites file must be different")
	}

	if c.Invites.TTL <= 0 {
		return fmt.Errorf("invite TTL must be positive")
	}
	if c.Invites.AdminGroup == "" {
		return fmt.Errorf("admin group is required")
	}
	if _, err := url.Parse(c.Invites.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if c.Hash.Timeout <= 0 {
		return fmt.Errorf("hash timeout must be positive")
	}

	if c.SMTP.Host != "" {
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP from address is required when SMTP host is set")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
