// Package config handles application configuration management.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Status   StatusConfig
	Archive  ArchiveConfig
	// LogLevel controls logging verbosity (4=info, 5=debug)
	LogLevel    int
	Environment string
}

// ServerConfig holds HTTP server and CORS configuration.
type ServerConfig struct {
	Address string
	// AllowedOrigins is a comma-separated list of allowed origins for CORS
	AllowedOrigins string
}

// DatabaseConfig holds MySQL database connection parameters.
type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	MigrationsPath string
}

// AuthConfig holds authentication and session configuration.
type AuthConfig struct {
	// Method specifies authentication type: "local", "oidc", or "both"
	Method string

	// SessionSecret must be changed from default in production
	SessionSecret string

	// Cookie configuration
	CookieDomain   string
	CookieSameSite string

	// OIDC configuration
	OIDCProviderURL  string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// StatusConfig holds status workflow configuration.
type StatusConfig struct {
	// VocabularyPath optionally points at a YAML file overriding the
	// built-in secondary status vocabularies. Empty means defaults.
	VocabularyPath string
}

// ArchiveConfig holds the completed-project archival schedule.
type ArchiveConfig struct {
	// Interval between archival sweeps. Zero disables the scheduler.
	Interval time.Duration
	// Retention is how long a completed project stays active before
	// the sweep archives it.
	Retention time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("DEPOTRACK_SERVER_ADDRESS", ":8080"),
			AllowedOrigins: getEnv("DEPOTRACK_ALLOWED_ORIGINS", ""),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DEPOTRACK_DB_HOST", "localhost"),
			Port:           getEnvInt("DEPOTRACK_DB_PORT", 3306),
			User:           getEnv("DEPOTRACK_DB_USER", "depotrack"),
			Password:       getEnv("DEPOTRACK_DB_PASSWORD", "depotrack"),
			Database:       getEnv("DEPOTRACK_DB_NAME", "depotrack"),
			MigrationsPath: getEnv("DEPOTRACK_MIGRATIONS_PATH", "migrations"),
		},
		Auth: AuthConfig{
			Method:           getEnv("DEPOTRACK_AUTH_METHOD", "local"),
			SessionSecret:    getEnv("DEPOTRACK_SESSION_SECRET", "your-secret-key-change-in-production"),
			CookieDomain:     getEnv("DEPOTRACK_COOKIE_DOMAIN", ""),
			CookieSameSite:   getEnv("DEPOTRACK_COOKIE_SAMESITE", "lax"),
			OIDCProviderURL:  getEnv("DEPOTRACK_OIDC_PROVIDER_URL", ""),
			OIDCClientID:     getEnv("DEPOTRACK_OIDC_CLIENT_ID", ""),
			OIDCClientSecret: getEnv("DEPOTRACK_OIDC_CLIENT_SECRET", ""),
			OIDCRedirectURL:  getEnv("DEPOTRACK_OIDC_REDIRECT_URL", "http://localhost:8080/api/v1/auth/callback"),
		},
		Status: StatusConfig{
			VocabularyPath: getEnv("DEPOTRACK_STATUS_VOCABULARY", ""),
		},
		Archive: ArchiveConfig{
			Interval:  getEnvDuration("DEPOTRACK_ARCHIVE_INTERVAL", time.Hour),
			Retention: getEnvDuration("DEPOTRACK_ARCHIVE_RETENTION", 30*24*time.Hour),
		},
		LogLevel:    getEnvInt("DEPOTRACK_LOG_LEVEL", 4),
		Environment: getEnv("DEPOTRACK_ENV", "development"),
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable key, or defaultValue if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of the environment variable key, or
// defaultValue if unset or unparseable.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration returns the duration value of the environment variable key,
// or defaultValue if unset or unparseable.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
