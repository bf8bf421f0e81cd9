package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	JwtSecret             string
	DatabaseURL           string
	ProviderAPIURL        string
	ProviderAccessKeyId   string
	ProviderSecretKey     string
	ProviderTimeout       time.Duration
	DefaultRegion         string
	StatsSampleLimit      int
	BackfillSamples       int
	BackfillIntervalMin   int
	OtelEnabled           bool
	OtelEndpoint          string
	OtelServiceName       string
	OtelInsecure          bool
	Version               string
	Env                   string
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		JwtSecret:           getEnv("JWT_SECRET", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		ProviderAPIURL:      getEnv("PROVIDER_API_URL", ""),
		ProviderAccessKeyId: getEnv("PROVIDER_ACCESS_KEY_ID", ""),
		ProviderSecretKey:   getEnv("PROVIDER_SECRET_ACCESS_KEY", ""),
		ProviderTimeout:     time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 5)) * time.Second,
		DefaultRegion:       getEnv("DEFAULT_REGION", "us-east-1"),
		StatsSampleLimit:    getEnvInt("STATS_SAMPLE_LIMIT", 10),
		BackfillSamples:     getEnvInt("BACKFILL_SAMPLES", 24),
		BackfillIntervalMin: getEnvInt("BACKFILL_INTERVAL_MINUTES", 30),
		OtelEnabled:         getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OtelServiceName:     getEnv("OTEL_SERVICE_NAME", "mirage"),
		OtelInsecure:        getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		Version:             getEnv("VERSION", "dev"),
		Env:                 getEnv("ENV", "development"),
	}

	return cfg
}

// RealProviderConfigured reports whether upstream provider credentials
// are present. Resolved once at startup; this is the capability switch
// that decides whether the real provider is ever attempted.
func (c *Config) RealProviderConfigured() bool {
	return c.ProviderAPIURL != "" && c.ProviderAccessKeyId != "" && c.ProviderSecretKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
