package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/tapstone/edcd/pkg/hmacsig"
	"github.com/tapstone/edcd/pkg/jwtx"
)

type Config struct {
	JWTSecret  string        // Required: symmetric key for signing tokens
	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 7 days)

	SignatureSecret    string        // Required: shared secret for terminal echo signatures
	SignatureAlgorithm string        // Optional: HmacSHA256 or HmacSHA512 (default: HmacSHA256)
	SignatureWindow    time.Duration // Optional: clock tolerance for echo signatures (default: 120s)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./edcd.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

var (
	ErrMissingJWTSecret       = errors.New("EDCD_JWT_SECRET is required")
	ErrMissingSignatureSecret = errors.New("EDCD_SIGNATURE_SECRET is required")
)

func LoadConfig() Config {
	return Config{
		JWTSecret:  os.Getenv("EDCD_JWT_SECRET"),
		AccessTTL:  getEnvDurationOrDefault("EDCD_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("EDCD_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		SignatureSecret:    os.Getenv("EDCD_SIGNATURE_SECRET"),
		SignatureAlgorithm: getEnvOrDefault("EDCD_SIGNATURE_ALGORITHM", "HmacSHA256"),
		SignatureWindow:    getEnvDurationOrDefault("EDCD_SIGNATURE_WINDOW", hmacsig.DefaultToleranceWindow),

		DatabaseFile:        getEnvOrDefault("EDCD_DATABASE_FILE", "edcd.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports the first missing required setting.
func (cfg Config) Validate() error {
	if cfg.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if cfg.SignatureSecret == "" {
		return ErrMissingSignatureSecret
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
