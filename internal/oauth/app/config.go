package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Grant-state backends.
const (
	BackendSqlite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Audience    string   // Required: audience assertions must carry
	Issuer      string   // Required: trusted assertion issuer (also the allowed email domain)
	AuthSecrets []string // Required: ordered HMAC secret set for compact assertions (comma separated env)

	VerificationURL  string        // Required: remote verification endpoint for legacy assertion bundles
	SessionVerifyURL string        // Optional: session verification endpoint for the direct-credential grant
	VerifierPoolSize int           // Optional: connection pool size to the remote verifiers (default: 10)
	VerifierTimeout  time.Duration // Optional: remote verification timeout (default: 10s)

	AccessTTL  time.Duration // Optional: access token lifetime (default: 1h)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 0, never expires)

	DatabaseFile string // Optional: path to SQLite database file (default: ./oauth.db)

	GrantBackend  string // Optional: code/token backend (sqlite, redis) (default: sqlite)
	RedisAddr     string // Required when GrantBackend=redis
	RedisPassword string // Optional
	RedisDB       int    // Optional (default: 0)

	ClientCacheTTL time.Duration // Optional: client registry cache TTL (default: 1m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 9010)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Audience:         os.Getenv("OAUTH_AUDIENCE"),
		Issuer:           os.Getenv("OAUTH_ISSUER"),
		VerificationURL:  os.Getenv("OAUTH_VERIFICATION_URL"),
		SessionVerifyURL: os.Getenv("OAUTH_SESSION_VERIFY_URL"),
		VerifierPoolSize: getEnvIntOrDefault("OAUTH_VERIFIER_POOL_SIZE", 10),
		VerifierTimeout:  getEnvDurationOrDefault("OAUTH_VERIFIER_TIMEOUT", 10*time.Second),

		AccessTTL:  getEnvDurationOrDefault("OAUTH_ACCESS_TTL", time.Hour),
		RefreshTTL: getEnvDurationOrDefault("OAUTH_REFRESH_TTL", 0),

		DatabaseFile: getEnvOrDefault("OAUTH_DATABASE_FILE", "oauth.db"),

		GrantBackend:  getEnvOrDefault("OAUTH_GRANT_BACKEND", BackendSqlite),
		RedisAddr:     os.Getenv("OAUTH_REDIS_ADDR"),
		RedisPassword: os.Getenv("OAUTH_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("OAUTH_REDIS_DB", 0),

		ClientCacheTTL: getEnvDurationOrDefault("OAUTH_CLIENT_CACHE_TTL", time.Minute),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 9010),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	for _, secret := range strings.Split(os.Getenv("OAUTH_AUTH_SECRETS"), ",") {
		secret = strings.TrimSpace(secret)
		if secret != "" {
			cfg.AuthSecrets = append(cfg.AuthSecrets, secret)
		}
	}

	if cfg.Audience == "" {
		return cfg, fmt.Errorf("OAUTH_AUDIENCE is required")
	}
	if cfg.Issuer == "" {
		return cfg, fmt.Errorf("OAUTH_ISSUER is required")
	}
	if len(cfg.AuthSecrets) == 0 {
		return cfg, fmt.Errorf("OAUTH_AUTH_SECRETS is required")
	}
	if cfg.VerificationURL == "" {
		return cfg, fmt.Errorf("OAUTH_VERIFICATION_URL is required")
	}
	if cfg.GrantBackend != BackendSqlite && cfg.GrantBackend != BackendRedis {
		return cfg, fmt.Errorf("unknown grant backend %q", cfg.GrantBackend)
	}
	if cfg.GrantBackend == BackendRedis && cfg.RedisAddr == "" {
		return cfg, fmt.Errorf("OAUTH_REDIS_ADDR is required for the redis grant backend")
	}

	return cfg, nil
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

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
