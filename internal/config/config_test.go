package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RELAYLINE_DATABASE_URL", "postgres://localhost/relayline")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 3, cfg.SemanticTopK)
	assert.InDelta(t, 0.70, cfg.SemanticThreshold, 1e-9)
	assert.InDelta(t, 0.85, cfg.KeywordThreshold, 1e-9)
	assert.InDelta(t, 0.65, cfg.FinalThreshold, 1e-9)
	assert.Equal(t, 30*time.Minute, cfg.RequestTimeout())
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval())
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout())
	assert.False(t, cfg.HasS3())
	assert.False(t, cfg.HasOpenAI())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	// t.Setenv registers the restore; the variable must be absent, not
	// empty, for envconfig's required check to fire.
	t.Setenv("RELAYLINE_DATABASE_URL", "")
	os.Unsetenv("RELAYLINE_DATABASE_URL")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RELAYLINE_DATABASE_URL", "postgres://localhost/relayline")
	t.Setenv("RELAYLINE_PORT", "9090")
	t.Setenv("RELAYLINE_OPENAI_API_KEY", "sk-test")
	t.Setenv("RELAYLINE_REQUEST_TIMEOUT_MINUTES", "45")
	t.Setenv("RELAYLINE_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("RELAYLINE_S3_ACCESS_KEY_ID", "minio")
	t.Setenv("RELAYLINE_S3_SECRET_ACCESS_KEY", "minio123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.HasOpenAI())
	assert.True(t, cfg.HasS3())
	assert.Equal(t, 45*time.Minute, cfg.RequestTimeout())
}
