package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// RateLimit configures the HTTP request limiter.
type RateLimit struct {
	Enabled  bool
	Strategy string
	Window   time.Duration
	Max      int
	Prefix   string
}

// Auth configures the operator login. Disabled leaves every route public.
type Auth struct {
	Enabled              bool
	OperatorEmail        string
	OperatorPasswordHash string
	JWTSecret            string
	JWTIssuer            string
	JWTAudience          string
	TokenTTL             time.Duration
	ClockSkew            time.Duration
}

// Worker holds the cron specs of the periodic sweeps.
type Worker struct {
	Concurrency     int
	QuoteExpiryCron string
	InvoiceDueCron  string
	LowStockCron    string
	SweepLockTTL    time.Duration
}

// Obs configures logging and telemetry.
type Obs struct {
	LogLevel      string
	LogFormat     string
	ServiceName   string
	OTLPEndpoint  string
	TraceSampling float64
}

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	StoreDriver        string
	DatabaseURL        string
	DBMaxConns         int
	DBAutoMigrate      bool
	RedisURL           string
	CORSAllowedOrigins []string
	CatalogPath        string
	IdempotencyTTL     time.Duration
	DashboardCacheTTL  time.Duration
	LockTTL            time.Duration
	LockRetryBackoff   time.Duration
	RateLimit          RateLimit
	Auth               Auth
	Worker             Worker
	Obs                Obs
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		StoreDriver:        strings.ToLower(valueOrDefault(k.String("STORE_DRIVER"), DriverPostgres)),
		DatabaseURL:        k.String("DATABASE_URL"),
		DBMaxConns:         parseInt(k.String("DB_MAX_CONNS"), 10),
		DBAutoMigrate:      parseBool(valueOrDefault(k.String("DB_AUTO_MIGRATE"), "true")),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CatalogPath:        strings.TrimSpace(k.String("CATALOG_PATH")),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		DashboardCacheTTL:  parseDuration(k.String("DASHBOARD_CACHE_TTL"), "60s"),
		LockTTL:            parseDuration(k.String("LOCK_TTL"), "10s"),
		LockRetryBackoff:   parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		RateLimit: RateLimit{
			Enabled:  parseBool(valueOrDefault(k.String("RATE_LIMIT_ENABLED"), "true")),
			Strategy: strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_STRATEGY"), "sliding")),
			Window:   parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
			Max:      parseInt(k.String("RATE_LIMIT_MAX"), 120),
			Prefix:   valueOrDefault(k.String("RATE_LIMIT_PREFIX"), "rl"),
		},
		Auth: Auth{
			Enabled:              parseBool(k.String("AUTH_ENABLED")),
			OperatorEmail:        strings.TrimSpace(k.String("AUTH_OPERATOR_EMAIL")),
			OperatorPasswordHash: strings.TrimSpace(k.String("AUTH_OPERATOR_PASSWORD_HASH")),
			JWTSecret:            k.String("JWT_SECRET"),
			JWTIssuer:            valueOrDefault(k.String("JWT_ISSUER"), "quotex-api"),
			JWTAudience:          valueOrDefault(k.String("JWT_AUDIENCE"), "quotex-app"),
			TokenTTL:             parseDuration(k.String("JWT_TTL"), "12h"),
			ClockSkew:            parseDuration(k.String("JWT_CLOCK_SKEW"), "30s"),
		},
		Worker: Worker{
			Concurrency:     parseInt(k.String("WORKER_CONCURRENCY"), 5),
			QuoteExpiryCron: valueOrDefault(k.String("WORKER_QUOTE_EXPIRY_CRON"), "@every 1h"),
			InvoiceDueCron:  valueOrDefault(k.String("WORKER_INVOICE_OVERDUE_CRON"), "0 6 * * *"),
			LowStockCron:    valueOrDefault(k.String("WORKER_LOW_STOCK_CRON"), "0 7 * * *"),
			SweepLockTTL:    parseDuration(k.String("WORKER_SWEEP_LOCK_TTL"), "5m"),
		},
		Obs: Obs{
			LogLevel:      valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			LogFormat:     valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			ServiceName:   valueOrDefault(k.String("OBS_SERVICE_NAME"), "quotex-api"),
			OTLPEndpoint:  strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TraceSampling: parseFloat(k.String("OBS_TRACE_SAMPLING"), 1),
		},
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER %q is not supported", cfg.StoreDriver)
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.Auth.Enabled {
		if cfg.Auth.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required when AUTH_ENABLED is set")
		}
		if cfg.Auth.OperatorEmail == "" || cfg.Auth.OperatorPasswordHash == "" {
			return nil, errors.New("AUTH_OPERATOR_EMAIL and AUTH_OPERATOR_PASSWORD_HASH are required when AUTH_ENABLED is set")
		}
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "production" || env == "prod"
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
