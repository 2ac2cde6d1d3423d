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

type Config struct {
	Port                string
	DBUrl               string
	DBMaxConns          int
	DBMinConns          int
	DBConnLifetime      time.Duration
	DBConnIdleTime      time.Duration
	JWTSecret           string
	AppEnv              string
	CheckoutBaseURL     string
	CheckoutReturnURL   string
	PriorityActorEmails []string
	DefaultSessionPrice float64
	PendingPaymentLease time.Duration
	SweepInterval       time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DBUrl:               getEnv("DB_URL", ""),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", 2),
		DBConnLifetime:      time.Duration(getEnvInt("DB_CONN_LIFETIME_MINUTES", 60)) * time.Minute,
		DBConnIdleTime:      time.Duration(getEnvInt("DB_CONN_IDLE_MINUTES", 30)) * time.Minute,
		JWTSecret:           jwtSecret,
		AppEnv:              normalizeEnv(getEnv("APP_ENV", "production")),
		CheckoutBaseURL:     getEnv("CHECKOUT_BASE_URL", ""),
		CheckoutReturnURL:   getEnv("CHECKOUT_RETURN_URL", ""),
		PriorityActorEmails: splitEmails(getEnv("PRIORITY_ACTOR_EMAILS", "")),
		DefaultSessionPrice: getEnvFloat("DEFAULT_SESSION_PRICE", 35),
		PendingPaymentLease: time.Duration(getEnvInt("PENDING_LEASE_MINUTES", 30)) * time.Minute,
		SweepInterval:       time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// splitEmails parses the comma-separated priority actor list. Policy lives in
// configuration so changing who bypasses the penalty and waiting rules does
// not require a code change.
func splitEmails(value string) []string {
	parts := strings.Split(value, ",")
	emails := make([]string, 0, len(parts))
	for _, part := range parts {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
