package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReportsMissingRequired(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
	assert.Contains(t, err.Error(), "IDENTITY_ENDPOINT")
	assert.Contains(t, err.Error(), "IDENTITY_PROJECT_ID")
}

func TestValidatePassesWithRequired(t *testing.T) {
	cfg := &Config{
		DatabaseDSN:       "postgres://localhost/rooms",
		IdentityEndpoint:  "https://identity.example.com",
		IdentityProjectID: "proj",
	}
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/rooms")
	t.Setenv("IDENTITY_ENDPOINT", "https://identity.example.com")
	t.Setenv("IDENTITY_PROJECT_ID", "proj")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "room_service_events", cfg.AMQPExchange)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/rooms")
	t.Setenv("IDENTITY_ENDPOINT", "https://identity.example.com")
	t.Setenv("IDENTITY_PROJECT_ID", "proj")
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SWEEP_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("IDENTITY_ENDPOINT", "")
	t.Setenv("IDENTITY_PROJECT_ID", "")

	_, err := Load()
	assert.Error(t, err)
}
