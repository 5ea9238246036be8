package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	DBDebug       bool
	PublicBaseURL string
	CORSOrigins   []string

	JWTSecret      string
	JWTExpiryHours int

	// Email
	EmailProvider  string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	// AWS (SES + S3 logo bucket)
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogoBucket         string
	LogoPublicBaseURL  string

	// Twilio SMS
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	// Prefixed to ten-digit local numbers before sending
	TwilioCountryCode string

	// Redis backed rate limiting for the public endpoints
	RedisAddr        string
	RedisPassword    string
	PublicRateLimit  int
	PublicRateWindow time.Duration

	DigestCron         string
	DigestPendingAge   time.Duration
	DesignerSessionTTL time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DB_URL", ""),
		DBDebug:       getEnvAsBool("DB_DEBUG", false),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),

		EmailProvider:  strings.ToLower(getEnv("EMAIL_PROVIDER", "stub")),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "no-reply@talktrack.app"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Talktrack"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogoBucket:         getEnv("LOGO_BUCKET", ""),
		LogoPublicBaseURL:  getEnv("LOGO_PUBLIC_BASE_URL", ""),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioCountryCode: getEnv("TWILIO_COUNTRY_CODE", "+234"),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		PublicRateLimit:  getEnvAsInt("PUBLIC_RATE_LIMIT", 30),
		PublicRateWindow: getEnvAsDuration("PUBLIC_RATE_WINDOW", time.Minute),

		DigestCron:         getEnv("DIGEST_CRON", "0 8 * * *"),
		DigestPendingAge:   getEnvAsDuration("DIGEST_PENDING_AGE", 24*time.Hour),
		DesignerSessionTTL: getEnvAsDuration("DESIGNER_SESSION_TTL", 30*time.Minute),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
