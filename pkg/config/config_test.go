package config

import (
	"testing"
	"time"

	"github.com/platinummonkey/brandhub/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BRANDHUB_POSTGRES_URL", "postgres://localhost/brandhub?sslmode=disable")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, "0 3 * * *", cfg.Team.PruneSchedule)
	assert.Equal(t, 30*24*time.Hour, cfg.Team.PruneRetention)
	assert.Equal(t, time.Duration(0), cfg.Team.PermissionCacheTTL)
	assert.Empty(t, cfg.Notify.RedisURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("BRANDHUB_POSTGRES_URL", "postgres://db:5432/brandhub")
	t.Setenv("BRANDHUB_PORT", "8888")
	t.Setenv("BRANDHUB_LOG_LEVEL", "debug")
	t.Setenv("BRANDHUB_METRICS_ENABLED", "false")
	t.Setenv("BRANDHUB_REDIS_URL", "redis://cache:6379/0")
	t.Setenv("BRANDHUB_INVITATION_PRUNE_RETENTION", "168h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, "redis://cache:6379/0", cfg.Notify.RedisURL)
	assert.Equal(t, 7*24*time.Hour, cfg.Team.PruneRetention)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("missing postgres URL", func(t *testing.T) {
		t.Setenv("BRANDHUB_POSTGRES_URL", "")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres URL")
	})

	t.Run("port collision", func(t *testing.T) {
		t.Setenv("BRANDHUB_POSTGRES_URL", "postgres://localhost/brandhub")
		t.Setenv("BRANDHUB_PORT", "9090")
		t.Setenv("BRANDHUB_HEALTH_PORT", "9090")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be different")
	})
}
