package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the PropServe SLA service
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig

	// MongoDB configuration
	MongoDB MongoDBConfig

	// Redis configuration (scheduler leader election)
	Redis RedisConfig

	// SMTP configuration for the email channel
	SMTP SMTPConfig

	// Gateway configuration for the SMS/WhatsApp channel
	Gateway GatewayConfig

	// Scheduler configuration for the scan cadence
	Scheduler SchedulerConfig

	// Development mode
	DevMode bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port        int
	CORSOrigins []string
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SMTPConfig holds email channel configuration
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	Enabled     bool
}

// GatewayConfig holds SMS/WhatsApp gateway configuration
type GatewayConfig struct {
	BaseURL       string
	APIKey        string
	SenderID      string
	Enabled       bool
	RatePerMinute int
}

// SchedulerConfig holds scan scheduler configuration
type SchedulerConfig struct {
	// Interval is how often the scheduler triggers a scan
	Interval time.Duration

	// Concurrency bounds parallel request evaluation within a scan
	Concurrency int

	// LeaderElection enables the Redis lease so only one instance
	// drives the cadence in a multi-instance deployment
	LeaderElection bool

	// InstanceID uniquely identifies this instance (defaults to HOSTNAME)
	InstanceID string

	// TTL is how long the leader lease is valid before expiring
	TTL time.Duration

	// RefreshInterval is how often to refresh the lease while leading
	RefreshInterval time.Duration
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Port:        getEnvInt("HTTP_PORT", 8080),
			CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:4200"}),
		},

		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "propserve"),
		},

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", "localhost"),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "alerts@propserve.dev"),
			Enabled:     getEnvBool("SMTP_ENABLED", false),
		},

		Gateway: GatewayConfig{
			BaseURL:       getEnv("GATEWAY_BASE_URL", ""),
			APIKey:        getEnv("GATEWAY_API_KEY", ""),
			SenderID:      getEnv("GATEWAY_SENDER_ID", "PROPSERVE"),
			Enabled:       getEnvBool("GATEWAY_ENABLED", false),
			RatePerMinute: getEnvInt("GATEWAY_RATE_PER_MINUTE", 60),
		},

		Scheduler: SchedulerConfig{
			Interval:        getEnvDuration("SCAN_INTERVAL", 5*time.Minute),
			Concurrency:     getEnvInt("SCAN_CONCURRENCY", 8),
			LeaderElection:  getEnvBool("LEADER_ELECTION_ENABLED", false),
			InstanceID:      getEnv("HOSTNAME", ""),
			TTL:             getEnvDuration("LEADER_TTL", 30*time.Second),
			RefreshInterval: getEnvDuration("LEADER_REFRESH_INTERVAL", 10*time.Second),
		},

		DevMode: getEnvBool("PROPSERVE_DEV", false),
	}

	return cfg, nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return defaultValue
}
