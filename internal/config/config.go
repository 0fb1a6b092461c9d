package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the mining service.
// Everything comes from the environment, optionally seeded from a
// config.env / .env file.
type Config struct {
	HTTPPort    string
	JWTSecret   string
	AllowedCORS []string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBDatabase string

	// Backend REST API consumed for session liveness. The record
	// reads/writes still go to the backing store directly while
	// the migration is in flight.
	BackendBaseURL string

	RedisURL string // empty disables the event publisher

	HeartbeatInterval time.Duration
	InactivityTimeout time.Duration
}

// Load reads configuration from the environment.
func Load() *Config {
	// Try multiple possible paths for config.env
	configPaths := []string{
		"config.env",
		"./config.env",
		"../config.env",
	}
	var configLoaded bool
	for _, configPath := range configPaths {
		if err := godotenv.Load(configPath); err == nil {
			configLoaded = true
			break
		}
	}
	if !configLoaded {
		// Fallback to .env if config.env not found
		_ = godotenv.Load()
	}

	return &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8090"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		AllowedCORS: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 3306),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBDatabase: getEnv("DB_DATABASE", "social_db"),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000"),

		RedisURL: getEnv("REDIS_URL", ""),

		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", 30*time.Second),
		InactivityTimeout: getEnvDuration("INACTIVITY_TIMEOUT", 30*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
