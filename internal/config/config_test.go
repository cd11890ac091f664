package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"STORE_DRIVER": "memory",
		"REDIS_URL":    "redis://localhost:6379/0",
		"PORT":         "9090",
	})
	require.NoError(t, err)
	require.Equal(t, config.DriverMemory, cfg.StoreDriver)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, "sliding", cfg.RateLimit.Strategy)
	require.Equal(t, 120, cfg.RateLimit.Max)
	require.Equal(t, "@every 1h", cfg.Worker.QuoteExpiryCron)
	require.False(t, cfg.Auth.Enabled)
}

func TestLoadRequiresDatabaseForPostgres(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"STORE_DRIVER": "postgres",
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"STORE_DRIVER": "sqlite",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoadAuthNeedsSecret(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"STORE_DRIVER": "memory",
		"REDIS_URL":    "redis://localhost:6379/0",
		"AUTH_ENABLED": "true",
		"JWT_SECRET":   "",
	})
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadParsesOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"STORE_DRIVER":         "memory",
		"REDIS_URL":            "redis://localhost:6379/0",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
		"RATE_LIMIT_STRATEGY":  "FIXED",
		"RATE_LIMIT_MAX":       "bogus",
		"LOCK_TTL":             "3s",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, "fixed", cfg.RateLimit.Strategy)
	require.Equal(t, 120, cfg.RateLimit.Max)
	require.Equal(t, 3*time.Second, cfg.LockTTL)
}
