package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	JWTSecret      string

	CORSAllowedOrigins []string
	RateLimit          string // ulule formatted, e.g. "100-M"

	// Cost-center classifier. An empty URL disables the fallback.
	ClassifierURL     string
	ClassifierTimeout time.Duration

	// Empty schedule disables the in-process sweep.
	AlertSweepSchedule        string
	UnderutilizationThreshold decimal.Decimal
	SlackWebhookURL           string
	PosthogAPIKey             string
	PosthogEndpoint           string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CLASSIFIER_URL", "")
	v.SetDefault("CLASSIFIER_TIMEOUT", "3s")
	v.SetDefault("ALERT_SWEEP_SCHEDULE", "")
	v.SetDefault("UNDERUTILIZATION_THRESHOLD", "50")
	v.SetDefault("SLACK_WEBHOOK_URL", "")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:        v.GetString("PGSQL_URL"),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimit:          v.GetString("RATE_LIMIT"),
		ClassifierURL:      v.GetString("CLASSIFIER_URL"),
		AlertSweepSchedule: v.GetString("ALERT_SWEEP_SCHEDULE"),
		SlackWebhookURL:    v.GetString("SLACK_WEBHOOK_URL"),
		PosthogAPIKey:      v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:    v.GetString("POSTHOG_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	timeoutStr := v.GetString("CLASSIFIER_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		timeout = 3 * time.Second
		log.Printf("Warning: Invalid value for CLASSIFIER_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.ClassifierTimeout = timeout

	thresholdStr := v.GetString("UNDERUTILIZATION_THRESHOLD")
	threshold, err := decimal.NewFromString(thresholdStr)
	if err != nil || !threshold.IsPositive() || threshold.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("invalid UNDERUTILIZATION_THRESHOLD %q: must be a percent in (0, 100]", thresholdStr)
	}
	cfg.UnderutilizationThreshold = threshold

	if cfg.ClassifierURL == "" {
		log.Println("Warning: CLASSIFIER_URL not set. Lines without a matching rule will need manual assignment.")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
