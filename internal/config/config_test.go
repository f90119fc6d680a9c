package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/supervision")
	t.Setenv("ENV", "")
	t.Setenv("STORAGE_DIR", "")
	t.Setenv("SCHOLARLAB_ENABLED", "")
	t.Setenv("TELEGRAM_TOKEN", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "./storage", cfg.StorageDir)
	assert.True(t, cfg.ScholarLabEnabled)
	assert.Empty(t, cfg.TelegramToken)
	assert.Equal(t, "postgres://localhost/supervision", cfg.GetDBDSN())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://db/supervision")
	t.Setenv("ENV", "production")
	t.Setenv("STORAGE_DIR", "/var/lib/supervision")
	t.Setenv("SCHOLARLAB_ENABLED", "false")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "/var/lib/supervision", cfg.StorageDir)
	assert.False(t, cfg.ScholarLabEnabled)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
}

func TestFromEnvErrors(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := FromEnv()
	assert.EqualError(t, err, "DB_DSN is required but not set")

	t.Setenv("DB_DSN", "postgres://db/supervision")
	t.Setenv("SCHOLARLAB_ENABLED", "sometimes")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "SCHOLARLAB_ENABLED")
}
