package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	assert.Equal(t, "http://localhost:3000", cfg.Backend.FrontendURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.HealthTimeout)
	assert.Equal(t, 30*time.Second, cfg.Backend.UploadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Backend.StatusTimeout)

	assert.Equal(t, "./audio", cfg.Probe.AudioDir)
	assert.Equal(t, 10, cfg.Probe.TotalUploads)
	assert.Equal(t, 180*time.Second, cfg.Probe.TaskTimeout)
	assert.Equal(t, 120*time.Second, cfg.Probe.RiskTimeout)
	assert.Equal(t, 5*time.Second, cfg.Probe.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Probe.UploadPause)
	assert.Equal(t, 3*time.Second, cfg.Probe.StartupGrace)

	assert.Equal(t, "8000", cfg.Stub.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("BACKEND_URL", "http://backend.test:9000")
	t.Setenv("TOTAL_UPLOADS", "3")
	t.Setenv("TASK_TIMEOUT", "15s")
	t.Setenv("POLL_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test:9000", cfg.Backend.URL)
	assert.Equal(t, 3, cfg.Probe.TotalUploads)
	assert.Equal(t, 15*time.Second, cfg.Probe.TaskTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.PollInterval)
	// Untouched knobs keep their defaults
	assert.Equal(t, 120*time.Second, cfg.Probe.RiskTimeout)
}
