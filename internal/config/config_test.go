package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("CACHE_TTL", "")

	cfg := Load()

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "session", cfg.Auth.CookieName)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("CACHE_TTL", "5s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("AUTH_MODE", "JWT")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "jwt", cfg.Auth.Mode)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}
