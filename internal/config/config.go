package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-olza-admin-secret"

// DefaultFallbackNotice is shown when the upstream country list is unavailable.
const DefaultFallbackNotice = "Unable to load available options from the Olza API. Showing default values instead."

type Config struct {
	// Database
	DatabaseURL string

	// API Configuration
	APIPort string
	APIHost string

	// Auth
	JWTSecret  string
	SessionTTL time.Duration
	NonceTTL   time.Duration

	// Bootstrap admin, created when no admin user exists
	AdminUsername string
	AdminPassword string

	// Pickup point cache
	DataDir string

	// Upstream call budgets
	CountriesTimeout time.Duration
	ConfigTimeout    time.Duration
	FindTimeout      time.Duration

	FallbackNotice string

	// CORS
	AllowedOrigins []string

	// Kafka
	KafkaBrokers string
	KafkaTopic   string

	// Secret Manager (production only)
	GCPProject    string
	JWTSecretName string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:      getEnv("DATABASE_URL", "sqlite://olza-admin.db"),
		APIPort:          getEnv("API_PORT", "8080"),
		APIHost:          getEnv("API_HOST", "0.0.0.0"),
		JWTSecret:        getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		NonceTTL:         getEnvAsDuration("NONCE_TTL", 12*time.Hour),
		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		DataDir:          getEnv("DATA_DIR", "./data"),
		CountriesTimeout: getEnvAsDuration("COUNTRIES_TIMEOUT", 60*time.Second),
		ConfigTimeout:    getEnvAsDuration("CONFIG_TIMEOUT", 60*time.Second),
		FindTimeout:      getEnvAsDuration("FIND_TIMEOUT", 300*time.Second),
		FallbackNotice:   getEnv("FALLBACK_NOTICE", DefaultFallbackNotice),
		AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "pickup-point-events"),
		GCPProject:       getEnv("GCP_PROJECT", ""),
		JWTSecretName:    getEnv("JWT_SECRET_NAME", ""),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Validate rejects settings that would leave the service insecure or unusable.
func (c *Config) Validate() error {
	if err := c.ValidateRefresh(); err != nil {
		return err
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// ValidateRefresh checks what a pickup point refresh needs. It never signs
// tokens, so the JWT secret is not required.
func (c *Config) ValidateRefresh() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.ConfigTimeout <= 0 || c.FindTimeout <= 0 || c.CountriesTimeout <= 0 {
		return fmt.Errorf("upstream timeouts must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Brokers splits KAFKA_BROKERS into broker addresses.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return splitList(value)
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
