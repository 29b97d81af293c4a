package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Scheduler    SchedulerConfig
	Moderation   ModerationConfig
	Geo          GeoConfig
	Registration RegistrationConfig
	Uploads      UploadsConfig
	Metrics      MetricsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	RateLimit      int           // Writes per minute per caller on report, vote and comment routes
	AuthRateLimit  int           // Requests per minute per client on register, verify and login
	TrustedProxies []string      // Proxy IPs or CIDRs whose X-Forwarded-For is believed
	IdempotencyTTL time.Duration // How long Idempotency-Key replays are kept
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	Namespace    string
	Database     string
	User         string
	Password     string
	QueryTimeout time.Duration
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	ExpirationMins int
	Issuer         string
}

// SchedulerConfig holds background sweep settings
type SchedulerConfig struct {
	Enabled            bool
	ReportExpiry       string // Cron spec
	ResolvedCleanup    string
	RestrictionCleanup string
	Timeout            time.Duration // Per-run bound
	ResolvedRetention  time.Duration
}

// ModerationConfig holds community moderation settings
type ModerationConfig struct {
	FakeVoteThreshold   int
	RestrictionDuration time.Duration
}

// GeoConfig holds proximity search settings
type GeoConfig struct {
	ProviderMatchRadiusKm float64
}

// RegistrationConfig holds email-code registration settings
type RegistrationConfig struct {
	CodeTTL     time.Duration
	MaxAttempts int
}

// UploadsConfig holds photo storage settings
type UploadsConfig struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
	MaxPhotos int
}

// MetricsConfig holds Prometheus exporter settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from a .env file, when present, and then from
// environment variables with sensible defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			RateLimit:      getIntEnv("RATE_LIMIT_PER_MINUTE", 30),
			AuthRateLimit:  getIntEnv("AUTH_RATE_LIMIT_PER_MINUTE", 10),
			TrustedProxies: getSliceEnv("TRUSTED_PROXIES", nil),
			IdempotencyTTL: getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "8000"),
			Namespace:    getEnv("DB_NAMESPACE", "raasta"),
			Database:     getEnv("DB_DATABASE", "main"),
			User:         getEnv("DB_USER", "root"),
			Password:     getEnv("DB_PASSWORD", "root"),
			QueryTimeout: getDurationEnv("DB_QUERY_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			PrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			ExpirationMins: getIntEnv("JWT_EXPIRATION_MINS", 7*24*60),
			Issuer:         getEnv("JWT_ISSUER", "api.raastasathi.in"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getBoolEnv("SCHEDULER_ENABLED", true),
			ReportExpiry:       getEnv("SCHEDULE_REPORT_EXPIRY", "@every 5m"),
			ResolvedCleanup:    getEnv("SCHEDULE_RESOLVED_CLEANUP", "@hourly"),
			RestrictionCleanup: getEnv("SCHEDULE_RESTRICTION_CLEANUP", "@every 6h"),
			Timeout:            getDurationEnv("SWEEP_TIMEOUT", 2*time.Minute),
			ResolvedRetention:  getDurationEnv("RESOLVED_RETENTION", 30*24*time.Hour),
		},
		Moderation: ModerationConfig{
			FakeVoteThreshold:   getIntEnv("FAKE_VOTE_THRESHOLD", 3),
			RestrictionDuration: getDurationEnv("RESTRICTION_DURATION", 7*24*time.Hour),
		},
		Geo: GeoConfig{
			ProviderMatchRadiusKm: getFloatEnv("PROVIDER_MATCH_RADIUS_KM", 10),
		},
		Registration: RegistrationConfig{
			CodeTTL:     getDurationEnv("REGISTRATION_CODE_TTL", 15*time.Minute),
			MaxAttempts: getIntEnv("REGISTRATION_MAX_ATTEMPTS", 5),
		},
		Uploads: UploadsConfig{
			Dir:       getEnv("UPLOAD_DIR", "./uploads"),
			URLPrefix: getEnv("UPLOAD_URL_PREFIX", "/uploads/"),
			MaxBytes:  int64(getIntEnv("UPLOAD_MAX_BYTES", 5<<20)),
			MaxPhotos: getIntEnv("UPLOAD_MAX_PHOTOS", 5),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn, or error, got '%s'", c.Server.LogLevel))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if c.Server.AuthRateLimit <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_PER_MINUTE must be positive"))
	}
	for _, proxy := range c.Server.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err != nil && net.ParseIP(proxy) == nil {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES entry '%s' is not an IP or CIDR", proxy))
		}
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// JWT validation - critical for production
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Scheduler validation
	if c.Scheduler.Enabled {
		for key, spec := range map[string]string{
			"SCHEDULE_REPORT_EXPIRY":       c.Scheduler.ReportExpiry,
			"SCHEDULE_RESOLVED_CLEANUP":    c.Scheduler.ResolvedCleanup,
			"SCHEDULE_RESTRICTION_CLEANUP": c.Scheduler.RestrictionCleanup,
		} {
			if _, err := cron.ParseStandard(spec); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}
	if c.Scheduler.Timeout <= 0 {
		errs = append(errs, errors.New("SWEEP_TIMEOUT must be positive"))
	}
	if c.Scheduler.ResolvedRetention <= 0 {
		errs = append(errs, errors.New("RESOLVED_RETENTION must be positive"))
	}

	// Moderation validation
	if c.Moderation.FakeVoteThreshold < 1 {
		errs = append(errs, errors.New("FAKE_VOTE_THRESHOLD must be at least 1"))
	}
	if c.Moderation.RestrictionDuration <= 0 {
		errs = append(errs, errors.New("RESTRICTION_DURATION must be positive"))
	}

	if c.Geo.ProviderMatchRadiusKm <= 0 || c.Geo.ProviderMatchRadiusKm > 100 {
		errs = append(errs, errors.New("PROVIDER_MATCH_RADIUS_KM must be between 0 and 100"))
	}

	if c.Registration.CodeTTL <= 0 {
		errs = append(errs, errors.New("REGISTRATION_CODE_TTL must be positive"))
	}
	if c.Registration.MaxAttempts < 1 {
		errs = append(errs, errors.New("REGISTRATION_MAX_ATTEMPTS must be at least 1"))
	}

	// Upload validation
	if c.Uploads.Dir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR is required"))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Uploads.MaxPhotos < 0 || c.Uploads.MaxPhotos > 5 {
		errs = append(errs, errors.New("UPLOAD_MAX_PHOTOS must be between 0 and 5"))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("METRICS_PATH must start with '/'"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
