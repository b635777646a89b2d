package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// OwnerKey scopes every row, cache key and feed channel to one board.
	OwnerKey   string
	InstanceID string
	// UseMemoryStore runs without Postgres and Redis.
	UseMemoryStore bool
	// ClinicTimezone decides which calendar day and week "today" is.
	ClinicTimezone string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// BoardPasswordHash is a bcrypt hash of the shared staff password.
	// BoardPassword is a plain fallback for local runs.
	BoardPasswordHash string
	BoardPassword     string
	SessionJWTSecret  string
	SessionTTL        time.Duration
	LoginRatePerMin   int

	SuppressTTL        time.Duration
	FeedRetryInterval  time.Duration
	CORSAllowedOrigins []string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	ExportBucket        string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OwnerKey:       getEnv("BOARD_OWNER_KEY", "bonhyang_clinic_shared"),
		InstanceID:     getEnv("INSTANCE_ID", ""),
		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "Asia/Seoul"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		BoardPasswordHash: getEnv("BOARD_PASSWORD_HASH", ""),
		BoardPassword:     getEnv("BOARD_PASSWORD", ""),
		SessionJWTSecret:  getEnv("SESSION_JWT_SECRET", ""),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		LoginRatePerMin:   getEnvAsInt("LOGIN_RATE_PER_MIN", 10),

		SuppressTTL:        getEnvAsDuration("ECHO_SUPPRESS_TTL", 10*time.Second),
		FeedRetryInterval:  getEnvAsDuration("FEED_RETRY_INTERVAL", 5*time.Second),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		AWSRegion:           getEnv("AWS_REGION", "ap-northeast-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ExportBucket:        getEnv("EXPORT_BUCKET", ""),
	}
}

// Location returns the clinic time zone, or UTC when the name is invalid.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil || c.ClinicTimezone == "" {
		return time.UTC
	}
	return loc
}

// Clock returns the current time in the clinic time zone.
func (c *Config) Clock() func() time.Time {
	loc := c.Location()
	return func() time.Time { return time.Now().In(loc) }
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
