package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP_PORT)
	assert.Equal(t, "marketplace-events", cfg.KAFKA_TOPIC)
	assert.Equal(t, 365, cfg.AUDIT_RETENTION)
	assert.Equal(t, 1024, cfg.OUTBOX_BUFFER_SIZE)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("AUDIT_RETENTION_DAYS", "30")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTP_PORT)
	assert.Equal(t, 30, cfg.AUDIT_RETENTION)
}
