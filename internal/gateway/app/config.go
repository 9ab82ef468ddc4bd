package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/crmconnect/pkg/hubspot"
)

// MasterKeyEnv carries inline master key material when no key file is set.
const MasterKeyEnv = "GATEWAY_MASTER_KEY"

type Config struct {
	DatabaseFile        string        // Optional: path to SQLite database file (default: gateway.db)
	MasterKeyPath       string        // Optional: master key file, created on first start when missing
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	OTELEndpoint        string        // Optional: OTLP/HTTP collector URL, tracing is off when empty

	HubSpot hubspot.Config
}

func LoadConfig() (Config, error) {
	cfg := Config{
		DatabaseFile:        getEnvOrDefault("GATEWAY_DATABASE_FILE", "gateway.db"),
		MasterKeyPath:       os.Getenv("GATEWAY_MASTER_KEY_PATH"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		OTELEndpoint:        os.Getenv("OTEL_ENDPOINT"),
	}

	hs, err := hubspot.LoadConfig()
	if err != nil {
		return Config{}, fmt.Errorf("hubspot config: %w", err)
	}
	cfg.HubSpot = hs

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

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
