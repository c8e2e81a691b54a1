package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_URL")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("FORM_IDLE_TTL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, int64(5<<20), cfg.Staging.MaxBytes)
	assert.Equal(t, "/v1/previews", cfg.Staging.PreviewBasePath)
	assert.Equal(t, 30*time.Minute, cfg.Worker.FormIdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.Worker.CatalogRefreshInterval)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend:4000")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("S3_BUCKET", "logos")
	t.Setenv("MODERATION_ENABLED", "true")
	t.Setenv("STAGING_MAX_BYTES", "1024")
	t.Setenv("CATEGORY_CACHE_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.S3.Enabled())
	assert.True(t, cfg.AWS.ModerationEnabled)
	assert.Equal(t, int64(1024), cfg.Staging.MaxBytes)
	assert.Equal(t, time.Hour, cfg.Cache.CategoryTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend:4000")
	t.Setenv("SWEEP_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SWEEP_INTERVAL")
}
