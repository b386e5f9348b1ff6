package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/voxaudit/riskprobe/internal/client"
	"github.com/voxaudit/riskprobe/internal/config"
	"github.com/voxaudit/riskprobe/internal/probe"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(client.Config{
		BackendURL:    cfg.Backend.URL,
		FrontendURL:   cfg.Backend.FrontendURL,
		HealthTimeout: cfg.Backend.HealthTimeout,
		UploadTimeout: cfg.Backend.UploadTimeout,
		StatusTimeout: cfg.Backend.StatusTimeout,
	})

	log.Info().Str("backend_url", cfg.Backend.URL).Msg("Checking if backend is running")
	if err := api.CheckHealth(ctx); err != nil {
		log.Error().Err(err).Msg("Backend is not running. Please start it first.")
		return 1
	}
	log.Info().Msg("Backend is running")

	log.Info().Str("frontend_url", cfg.Backend.FrontendURL).Msg("Checking if frontend is running")
	if err := api.CheckFrontend(ctx); err != nil {
		log.Warn().Err(err).
			Msg("Frontend is not running. The workflow will still work but live updates will not be visible.")
	} else {
		log.Info().Msg("Frontend is running")
	}

	audioFiles, err := probe.FindAudioFiles(cfg.Probe.AudioDir)
	if err != nil {
		log.Error().Err(err).Str("audio_dir", cfg.Probe.AudioDir).Msg("Failed to scan audio directory")
		return 1
	}
	if len(audioFiles) == 0 {
		log.Error().Str("audio_dir", cfg.Probe.AudioDir).Msg("No MP3 files found")
		return 1
	}

	names := make([]string, len(audioFiles))
	for i, f := range audioFiles {
		names[i] = filepath.Base(f)
	}
	log.Info().Strs("files", names).Msg("Found audio files")

	log.Info().Dur("grace", cfg.Probe.StartupGrace).Msg("All checks passed. Starting run shortly.")
	select {
	case <-time.After(cfg.Probe.StartupGrace):
	case <-ctx.Done():
		return 1
	}

	p := probe.New(api, probe.Config{
		TotalUploads: cfg.Probe.TotalUploads,
		TaskTimeout:  cfg.Probe.TaskTimeout,
		RiskTimeout:  cfg.Probe.RiskTimeout,
		PollInterval: cfg.Probe.PollInterval,
		UploadPause:  cfg.Probe.UploadPause,
	})

	stats := p.Run(ctx, audioFiles)

	log.Info().Str("frontend_url", cfg.Backend.FrontendURL).
		Msg("Run completed. Check the frontend to see the results.")

	if !stats.FullSuccess(cfg.Probe.TotalUploads) {
		return 1
	}
	return 0
}
