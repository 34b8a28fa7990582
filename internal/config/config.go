package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service. Values come from
// environment variables, optionally loaded from a .env file via godotenv.
type Config struct {
	// Server settings
	Port        string
	Environment string
	Debug       bool

	// Database settings
	DatabaseDSN string

	// Identity provider settings
	IdentityEndpoint  string
	IdentityProjectID string
	IdentityAPIKey    string

	// Redis change-notification channel
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ audit/event publishing
	AMQPURL      string
	AMQPExchange string

	// Tracing
	OTLPEndpoint string

	// Cleanup sweep
	SweepInterval time.Duration
}

// Load reads configuration from the environment and validates required values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Println("no .env file found, using environment variables only")
		} else {
			log.Printf("warning: error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8083"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Debug:       getEnvAsBool("DEBUG", false),

		DatabaseDSN: getEnv("DB_DSN", ""),

		IdentityEndpoint:  getEnv("IDENTITY_ENDPOINT", ""),
		IdentityProjectID: getEnv("IDENTITY_PROJECT_ID", ""),
		IdentityAPIKey:    getEnv("IDENTITY_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "room_service_events"),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing required values. Absence of a required value is a
// startup-fatal condition for the caller.
func (c *Config) Validate() error {
	var missing []string

	if c.DatabaseDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if c.IdentityEndpoint == "" {
		missing = append(missing, "IDENTITY_ENDPOINT")
	}
	if c.IdentityProjectID == "" {
		missing = append(missing, "IDENTITY_PROJECT_ID")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.RedisAddr == "" {
		log.Println("warning: REDIS_ADDR is not set, change notifications run in-process only")
	}
	if c.AMQPURL == "" {
		log.Println("warning: AMQP_URL is not set, audit events will be logged only")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}
