package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// DatabaseConfig holds the connection string and pool tuning.
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MailConfig holds the transactional email settings.
type MailConfig struct {
	ResendAPIKey     string
	ResendBaseURL    string
	From             string
	AdminNotifyEmail string
	SiteURL          string
}

// Config aggregates application-wide configuration values.
type Config struct {
	Database         DatabaseConfig
	JWTSecret        string
	Port             string
	TokenTTL         time.Duration
	AdminEmails      []string
	MaxPendingClaims int
	RateLimitSignup  RateLimitConfig
	RateLimitEvents  RateLimitConfig
	Mail             MailConfig
	MapboxToken      string
	MapboxBaseURL    string
	UploadDir        string
	UploadBaseURL    string
	SessionSecret    string
	AutoMigrate      bool
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		Port:             getEnv("PORT", "8080"),
		TokenTTL:         parseDuration(os.Getenv("JWT_TTL"), 24*time.Hour),
		AdminEmails:      parseList(os.Getenv("ADMIN_EMAILS")),
		MaxPendingClaims: parseInt(getEnv("MAX_PENDING_CLAIMS", "3"), 3),
		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		MapboxBaseURL:    getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		UploadBaseURL:    strings.TrimRight(getEnv("UPLOAD_BASE_URL", "/uploads"), "/"),
		SessionSecret:    getEnv("SESSION_SECRET", "dev-session-secret"),
		AutoMigrate:      parseBool(getEnv("AUTO_MIGRATE", "true"), true),
	}

	cfg.Database = DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxConns:        int32(parseInt(getEnv("DB_MAX_CONNS", "10"), 10)),
		MinConns:        int32(parseNonNegative(os.Getenv("DB_MIN_CONNS"), 0)),
		MaxConnLifetime: parseDuration(os.Getenv("DB_MAX_CONN_LIFETIME"), time.Hour),
		MaxConnIdleTime: parseDuration(os.Getenv("DB_MAX_CONN_IDLE_TIME"), 15*time.Minute),
	}
	if cfg.Database.MinConns > cfg.Database.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", cfg.Database.MinConns, cfg.Database.MaxConns)
	}

	cfg.Mail = MailConfig{
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		ResendBaseURL: strings.TrimRight(getEnv("RESEND_BASE_URL", "https://api.resend.com"), "/"),
		From:          getEnv("EMAIL_FROM", "NutmegLocal <onboarding@resend.dev>"),
		SiteURL:       strings.TrimRight(getEnv("SITE_URL", "https://nutmeglocal.com"), "/"),
	}
	cfg.Mail.AdminNotifyEmail = os.Getenv("ADMIN_NOTIFY_EMAIL")
	if cfg.Mail.AdminNotifyEmail == "" && len(cfg.AdminEmails) > 0 {
		cfg.Mail.AdminNotifyEmail = cfg.AdminEmails[0]
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SIGNUP", "5/15min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SIGNUP value: %w", err)
	}
	cfg.RateLimitSignup = rl

	rl, err = parseRateLimit(getEnv("RATE_LIMIT_EVENTS", "120/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_EVENTS value: %w", err)
	}
	cfg.RateLimitEvents = rl

	return cfg, nil
}

// parseRateLimit accepts "<requests>/<unit>" or "<requests>/<n><unit>", e.g. "5/min" or "5/15min".
func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	window := strings.ToLower(strings.TrimSpace(parts[1]))
	digits := 0
	for digits < len(window) && window[digits] >= '0' && window[digits] <= '9' {
		digits++
	}
	multiplier := 1
	if digits > 0 {
		multiplier, err = strconv.Atoi(window[:digits])
		if err != nil || multiplier <= 0 {
			return RateLimitConfig{}, fmt.Errorf("invalid interval multiplier: %s", window[:digits])
		}
	}

	unit := window[digits:]
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: time.Duration(multiplier) * interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(input))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(input string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseNonNegative(input string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func parseBool(input string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return v
}

func parseList(input string) []string {
	var out []string
	for _, item := range strings.Split(input, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
