package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_ENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("MYSQL_DSN", "wallify:secret@tcp(localhost:3306)/wallify?parseTime=true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REPLICATE_API_TOKEN", "r8_token")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_PRICE_ID", "price_123")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_ACCESS_KEY", "AKIA")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_BUCKET", "wallify")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, 3, cfg.FreeDailyGenerations)
	assert.Equal(t, "bytedance/seedream-3", cfg.ReplicateModel)
	assert.Equal(t, "https://api.replicate.com", cfg.ReplicateBaseURL)
	assert.Equal(t, "https://wallify.s3.amazonaws.com", cfg.S3PublicBaseURL)
	assert.Equal(t, "images", cfg.S3Prefix)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestLoadReportsMissingVariables(t *testing.T) {
	setRequired(t)
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("STRIPE_PRICE_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MYSQL_DSN")
	assert.Contains(t, err.Error(), "STRIPE_PRICE_ID")
}

func TestLoadReadsEnvFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WALLIFY_TEST_FROM_FILE=yes\n"), 0o600))
	t.Setenv("CONFIG_ENV_PATH", path)
	t.Cleanup(func() { os.Unsetenv("WALLIFY_TEST_FROM_FILE") })

	_, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "yes", os.Getenv("WALLIFY_TEST_FROM_FILE"))
}

func TestNormalizeBaseURL(t *testing.T) {
	fallback := "https://api.replicate.com"
	assert.Equal(t, fallback, normalizeBaseURL("", fallback))
	assert.Equal(t, "https://proxy.internal", normalizeBaseURL("proxy.internal", fallback))
	assert.Equal(t, "http://localhost:9000", normalizeBaseURL("http://localhost:9000/", fallback))
}
