package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the probe
type Config struct {
	Backend Backend
	Probe   Probe
	Stub    Stub
}

// Backend holds the endpoints of the service under test
type Backend struct {
	URL         string
	FrontendURL string

	HealthTimeout time.Duration
	UploadTimeout time.Duration
	StatusTimeout time.Duration
}

// Probe holds workflow timing and volume knobs
type Probe struct {
	AudioDir     string
	TotalUploads int

	TaskTimeout  time.Duration
	RiskTimeout  time.Duration
	PollInterval time.Duration
	UploadPause  time.Duration
	StartupGrace time.Duration
}

// Stub holds configuration for the local simulated backend
type Stub struct {
	Port      string
	TaskDelay time.Duration
	RiskDelay time.Duration
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("BACKEND_URL", "http://localhost:8000")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("AUDIO_DIR", "./audio")
	viper.SetDefault("TOTAL_UPLOADS", 10)
	viper.SetDefault("HEALTH_TIMEOUT", "5s")
	viper.SetDefault("UPLOAD_TIMEOUT", "30s")
	viper.SetDefault("STATUS_TIMEOUT", "10s")
	viper.SetDefault("TASK_TIMEOUT", "180s")
	viper.SetDefault("RISK_TIMEOUT", "120s")
	viper.SetDefault("POLL_INTERVAL", "5s")
	viper.SetDefault("UPLOAD_PAUSE", "3s")
	viper.SetDefault("STARTUP_GRACE", "3s")
	viper.SetDefault("STUB_PORT", "8000")
	viper.SetDefault("STUB_TASK_DELAY", "10s")
	viper.SetDefault("STUB_RISK_DELAY", "10s")
	viper.SetDefault("ENVIRONMENT", "dev")

	// Read from .env files based on environment
	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev" // Use "dev" to match .env.dev filename
	}

	// Try to read .env file for the current environment
	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// Read .env file (ignore error if file doesn't exist)
	_ = viper.ReadInConfig() // Ignore error - file may not exist

	// Environment variables override .env file values
	viper.AutomaticEnv()

	// Bind specific environment variable names
	viper.BindEnv("BACKEND_URL")
	viper.BindEnv("FRONTEND_URL")
	viper.BindEnv("AUDIO_DIR")
	viper.BindEnv("TOTAL_UPLOADS")
	viper.BindEnv("HEALTH_TIMEOUT")
	viper.BindEnv("UPLOAD_TIMEOUT")
	viper.BindEnv("STATUS_TIMEOUT")
	viper.BindEnv("TASK_TIMEOUT")
	viper.BindEnv("RISK_TIMEOUT")
	viper.BindEnv("POLL_INTERVAL")
	viper.BindEnv("UPLOAD_PAUSE")
	viper.BindEnv("STARTUP_GRACE")
	viper.BindEnv("STUB_PORT")
	viper.BindEnv("STUB_TASK_DELAY")
	viper.BindEnv("STUB_RISK_DELAY")
	viper.BindEnv("ENVIRONMENT")

	var config Config
	config.Backend.URL = viper.GetString("BACKEND_URL")
	config.Backend.FrontendURL = viper.GetString("FRONTEND_URL")
	config.Backend.HealthTimeout = viper.GetDuration("HEALTH_TIMEOUT")
	config.Backend.UploadTimeout = viper.GetDuration("UPLOAD_TIMEOUT")
	config.Backend.StatusTimeout = viper.GetDuration("STATUS_TIMEOUT")
	config.Probe.AudioDir = viper.GetString("AUDIO_DIR")
	config.Probe.TotalUploads = viper.GetInt("TOTAL_UPLOADS")
	config.Probe.TaskTimeout = viper.GetDuration("TASK_TIMEOUT")
	config.Probe.RiskTimeout = viper.GetDuration("RISK_TIMEOUT")
	config.Probe.PollInterval = viper.GetDuration("POLL_INTERVAL")
	config.Probe.UploadPause = viper.GetDuration("UPLOAD_PAUSE")
	config.Probe.StartupGrace = viper.GetDuration("STARTUP_GRACE")
	config.Stub.Port = viper.GetString("STUB_PORT")
	config.Stub.TaskDelay = viper.GetDuration("STUB_TASK_DELAY")
	config.Stub.RiskDelay = viper.GetDuration("STUB_RISK_DELAY")

	log.Debug().
		Str("backend_url", config.Backend.URL).
		Str("audio_dir", config.Probe.AudioDir).
		Int("total_uploads", config.Probe.TotalUploads).
		Msg("Configuration loaded")

	return &config, nil
}
