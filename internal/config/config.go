package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	PostgresURI    string
	RedisURI       string
	MongoURI       string
	Port           string
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	Host           string   // Raw HOST env (e.g. https://api.autoagora.cy)
	AllowedHost    string   // Hostname only, for the production host check
	Environment    string   // ENV: production, development, etc.

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// SMS provider (fire-and-forget dispatch). Empty URL means codes are
	// only logged, which is fine for local development.
	SMSAPIURL string
	SMSAPIKey string
	SMSSender string

	// PaymentWebhookSecret guards the provider confirmation callback.
	PaymentWebhookSecret string
	// AdminToken guards operational endpoints (on-demand sweep).
	AdminToken string

	// SweepInterval is how often the expiration sweeper runs.
	SweepInterval time.Duration

	// DebugVerificationCodes echoes issued codes in API responses.
	// Ignored in production regardless of the env var.
	DebugVerificationCodes bool
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// Host check only applies in production; development skips it.
	var allowedHost string
	if env == "production" {
		allowedHost = stripToHostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	sweepInterval := time.Hour
	if v := getEnv("SWEEP_INTERVAL_MINUTES", ""); v != "" {
		if mins, err := strconv.Atoi(v); err == nil && mins > 0 {
			sweepInterval = time.Duration(mins) * time.Minute
		}
	}

	return &Config{
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/autoagora?sslmode=disable"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/autoagora")),
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins,
		Host:           host,
		AllowedHost:    allowedHost,
		Environment:    env,

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		SMSAPIURL: getEnv("SMS_API_URL", ""),
		SMSAPIKey: getEnv("SMS_API_KEY", ""),
		SMSSender: getEnv("SMS_SENDER", "AutoAgora"),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		AdminToken:           getEnv("ADMIN_TOKEN", ""),

		SweepInterval:          sweepInterval,
		DebugVerificationCodes: getEnv("DEBUG_VERIFICATION_CODES", "") == "true",
	}
}

// stripToHostname reduces a URL-ish value to its bare hostname.
func stripToHostname(v string) string {
	v = strings.TrimPrefix(strings.TrimPrefix(v, "https://"), "http://")
	if idx := strings.Index(v, "/"); idx != -1 {
		v = v[:idx]
	}
	if idx := strings.Index(v, ":"); idx != -1 {
		v = v[:idx]
	}
	return strings.TrimSpace(v)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// EchoVerificationCodes reports whether issued codes may be echoed in API
// responses. Never true in production.
func (c *Config) EchoVerificationCodes() bool {
	return c.DebugVerificationCodes && !c.IsProduction()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
