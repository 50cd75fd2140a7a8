package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
// Components receive it explicitly at construction; there is no package-level
// singleton.
type Config struct {
	Port         string
	Environment  string // "development", "production", "test"
	ClientOrigin string

	DatabaseURL string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration

	// S3 logo storage
	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	// Optional Redis for distributed rate limiting
	RedisHost     string
	RedisPort     string
	RedisPassword string

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. Token secrets are required;
// everything else has a development default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8000"),
		Environment:        getEnvOrDefault("ENVIRONMENT", "development"),
		ClientOrigin:       getEnvOrDefault("CLIENT_ORIGIN", "http://localhost:5173"),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AWSRegion:          getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:          os.Getenv("AWS_BUCKET"),
		CDNBaseURL:         os.Getenv("CDN_BASE_URL"),
		RedisHost:          os.Getenv("REDIS_HOST"),
		RedisPort:          getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:            getEnvOrDefault("LOG_FILE", "server.log"),
	}

	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET environment variable is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET environment variable is required")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	var err error
	cfg.AccessTokenExpiry, err = parseExpiry(getEnvOrDefault("ACCESS_TOKEN_EXPIRY", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRY: %w", err)
	}
	cfg.RefreshTokenExpiry, err = parseExpiry(getEnvOrDefault("REFRESH_TOKEN_EXPIRY", "7d"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_EXPIRY: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode. It controls
// cookie Secure flags and stack-trace exposure in error responses.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// parseExpiry parses a duration string, additionally accepting a "d" suffix
// for days ("7d") since token lifetimes are usually expressed that way.
func parseExpiry(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("malformed day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
