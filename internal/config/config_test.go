package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqlEnv(t *testing.T, driver string) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sql")
	t.Setenv("DB_DRIVER", driver)
	t.Setenv("DB_WRITER_DSN", "file:painel.db")
	t.Setenv("AUTH_DRIVER", "static")
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("MESSAGING_ENABLED", "false")
}

func TestNewAcceptsMigratedDrivers(t *testing.T) {
	for _, driver := range []string{"postgres", "MySQL", " sqlite "} {
		sqlEnv(t, driver)
		cfg, err := New()
		require.NoError(t, err, driver)
		assert.True(t, cfg.Database.Enabled)
		assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	}
}

func TestNewRejectsUnknownDatabaseDriver(t *testing.T) {
	sqlEnv(t, "oracle")
	_, err := New()
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewNormalizesEnvironment(t *testing.T) {
	sqlEnv(t, "sqlite")
	t.Setenv("OBS_PROMETHEUS_PATH", "internal/metrics")
	t.Setenv("FIREBASE_IDENTITY_URL", "https://identity.example.com/v1/")
	t.Setenv("SESSION_TTL", "-1h")
	t.Setenv("SESSION_COOKIE_NAME", "  ")
	t.Setenv("MESSAGING_PUBLISH_BUFFER", "0")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/internal/metrics", cfg.Observability.PrometheusPath)
	assert.Equal(t, "https://identity.example.com/v1", cfg.Auth.IdentityURL)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "painel_session", cfg.Session.CookieName)
	assert.Equal(t, 1, cfg.Messaging.PublishBuffer)
	require.NotNil(t, cfg.App.Location)
	assert.Equal(t, "America/Sao_Paulo", cfg.App.Location.String())
}

func TestNewRejectsUnknownTimezone(t *testing.T) {
	sqlEnv(t, "sqlite")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := New()
	assert.ErrorContains(t, err, "APP_TIMEZONE")
}

func TestGetEnvAsStringSlice(t *testing.T) {
	t.Setenv("PAINEL_LIST", " a, ,b ,")
	assert.Equal(t, []string{"a", "b"}, getEnvAsStringSlice("PAINEL_LIST", nil))

	t.Setenv("PAINEL_LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("PAINEL_LIST", []string{"x"}))
}
