package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-dashboard/internal/platform/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.AppEnv)
	assert.Equal(t, "fpl-dashboard", cfg.ServiceName)
	assert.Equal(t, "https://fantasy.premierleague.com/api", cfg.FPLBaseURL)
	assert.Equal(t, 10*time.Second, cfg.FPLTimeout)
	assert.Equal(t, 3, cfg.FPLMaxRetries)
	assert.Equal(t, 4, cfg.FPLMaxConcurrent)
	assert.Equal(t, 20, cfg.FPLMaxPerSecond)
	assert.True(t, cfg.FPLCircuitEnabled)
	assert.Equal(t, 6*time.Hour, cfg.CatalogTTL)
	assert.Equal(t, 60*time.Second, cfg.LiveTTL)
	assert.Equal(t, 50, cfg.StandingsPage)
	assert.Empty(t, cfg.DBURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FPL_BASE_URL", "http://localhost:9000/api/")
	t.Setenv("FPL_TIMEOUT", "3s")
	t.Setenv("CACHE_LIVE_TTL", "15s")
	t.Setenv("REFRESH_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.AppEnv)
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "http://localhost:9000/api", cfg.FPLBaseURL, "trailing slash is stripped")
	assert.Equal(t, 3*time.Second, cfg.FPLTimeout)
	assert.Equal(t, 15*time.Second, cfg.LiveTTL)
	assert.Equal(t, 8, cfg.RefreshWorkers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveDuration(t *testing.T) {
	t.Setenv("FPL_TIMEOUT", "-1s")
	_, err := Load()
	assert.Error(t, err)
}
