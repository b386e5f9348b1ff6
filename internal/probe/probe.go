package probe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxaudit/riskprobe/pkg/models"
)

// API is the subset of the backend client the probe drives.
type API interface {
	Upload(ctx context.Context, filePath string) (string, error)
	TaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error)
	Transcription(ctx context.Context, transcriptionID string) (*models.Transcription, error)
}

// Terminal poll outcomes.
var (
	ErrTaskFailed             = errors.New("task failed")
	ErrMissingTranscriptionID = errors.New("task completed without transcription id")
	ErrRiskFailed             = errors.New("risk analysis failed")
	ErrTimeout                = errors.New("polling timed out")
)

// Config holds workflow timing and volume knobs
type Config struct {
	TotalUploads int

	TaskTimeout  time.Duration
	RiskTimeout  time.Duration
	PollInterval time.Duration
	UploadPause  time.Duration
}

// Stats tallies stage successes across a run
type Stats struct {
	Uploads        int
	Transcriptions int
	RiskAnalyses   int
}

// FullSuccess reports whether every iteration completed all three stages.
func (s Stats) FullSuccess(total int) bool {
	return s.RiskAnalyses == total
}

// Probe drives the upload -> transcription -> risk analysis workflow
type Probe struct {
	api API
	cfg Config
}

// New creates a workflow probe
func New(api API, cfg Config) *Probe {
	return &Probe{api: api, cfg: cfg}
}

// FindAudioFiles returns the MP3 files in dir, in lexical order.
func FindAudioFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan audio directory: %w", err)
	}
	return files, nil
}

// PollTask polls task status until it completes, fails, or the task
// timeout elapses. On completion it returns the transcription ID minted
// for the task. Transient fetch errors are logged and polling continues.
func (p *Probe) PollTask(ctx context.Context, taskID string, iteration int) (string, error) {
	log.Info().Int("iteration", iteration).Str("task_id", taskID).Msg("Monitoring task")

	for waited := time.Duration(0); waited < p.cfg.TaskTimeout; waited += p.cfg.PollInterval {
		status, err := p.api.TaskStatus(ctx, taskID)
		if err != nil {
			log.Warn().Int("iteration", iteration).Str("task_id", taskID).Err(err).
				Msg("Could not check task status")
		} else {
			switch status.Status {
			case models.TaskCompleted:
				if status.TranscriptionID == "" {
					log.Warn().Int("iteration", iteration).Str("task_id", taskID).
						Msg("Task completed but no transcription ID found")
					return "", ErrMissingTranscriptionID
				}
				log.Info().Int("iteration", iteration).Str("task_id", taskID).
					Str("transcription_id", status.TranscriptionID).
					Msg("Task completed successfully")
				return status.TranscriptionID, nil
			case models.TaskFailed:
				log.Error().Int("iteration", iteration).Str("task_id", taskID).
					Str("error", status.Error).Msg("Task failed")
				return "", ErrTaskFailed
			case models.TaskProcessing:
				log.Info().Int("iteration", iteration).Str("task_id", taskID).
					Dur("elapsed", waited).Msg("Task is still processing")
			default:
				log.Info().Int("iteration", iteration).Str("task_id", taskID).
					Str("status", status.Status).Msg("Task status")
			}
		}

		if err := sleep(ctx, p.cfg.PollInterval); err != nil {
			return "", err
		}
	}

	log.Warn().Int("iteration", iteration).Str("task_id", taskID).
		Dur("max_wait", p.cfg.TaskTimeout).Msg("Task did not complete in time")
	return "", fmt.Errorf("task %s: %w", taskID, ErrTimeout)
}

// PollTranscription polls transcription detail until the risk analysis
// completes, fails, or the risk timeout elapses. Success requires a
// completed risk_status together with a usable risk_result; the backend
// has been seen reporting the literal string "null" there, which counts
// as not yet complete.
func (p *Probe) PollTranscription(ctx context.Context, transcriptionID string, iteration int) error {
	log.Info().Int("iteration", iteration).Str("transcription_id", transcriptionID).
		Msg("Waiting for risk analysis")

	for waited := time.Duration(0); waited < p.cfg.RiskTimeout; waited += p.cfg.PollInterval {
		transcription, err := p.api.Transcription(ctx, transcriptionID)
		if err != nil {
			log.Warn().Int("iteration", iteration).Str("transcription_id", transcriptionID).
				Err(err).Msg("Could not fetch transcription details")
		} else {
			riskStatus := "null"
			if transcription.RiskStatus != nil {
				riskStatus = *transcription.RiskStatus
			}
			log.Info().Int("iteration", iteration).Str("transcription_id", transcriptionID).
				Str("risk_status", riskStatus).Msg("Risk status")

			switch {
			case riskStatus == models.RiskCompleted &&
				transcription.RiskResult != "" && transcription.RiskResult != "null":
				evt := log.Info().Int("iteration", iteration).
					Str("transcription_id", transcriptionID).
					Str("risk_result", transcription.RiskResult)
				if detail, ok := models.DecodeRiskResult(transcription.RiskResult); ok {
					evt = evt.Bool("is_risky", detail.IsRisky).Float64("confidence", detail.Confidence)
				}
				evt.Msg("Risk analysis completed")
				return nil
			case riskStatus == models.RiskFailed:
				log.Error().Int("iteration", iteration).Str("transcription_id", transcriptionID).
					Msg("Risk analysis failed")
				return ErrRiskFailed
			case riskStatus == models.RiskAnalyzing || riskStatus == models.RiskPending:
				log.Info().Int("iteration", iteration).Dur("elapsed", waited).
					Msg("Risk analysis in progress")
			default:
				log.Info().Int("iteration", iteration).Dur("elapsed", waited).
					Msg("Waiting for risk analysis to start")
			}
		}

		if err := sleep(ctx, p.cfg.PollInterval); err != nil {
			return err
		}
	}

	log.Warn().Int("iteration", iteration).Str("transcription_id", transcriptionID).
		Dur("max_wait", p.cfg.RiskTimeout).Msg("Risk analysis did not complete in time")
	return fmt.Errorf("transcription %s: %w", transcriptionID, ErrTimeout)
}

// Run executes the full workflow TotalUploads times, cycling through the
// given audio files round-robin, and returns the stage tallies. Stages
// run in strict sequence; a stage is only attempted when the previous
// one succeeded. A failed iteration never aborts the run.
func (p *Probe) Run(ctx context.Context, audioFiles []string) Stats {
	var stats Stats

	log.Info().Int("total_uploads", p.cfg.TotalUploads).Int("audio_files", len(audioFiles)).
		Msg("Starting upload workflow run")

	for i := 1; i <= p.cfg.TotalUploads; i++ {
		audioFile := audioFiles[(i-1)%len(audioFiles)]

		log.Info().Int("iteration", i).Str("file", filepath.Base(audioFile)).
			Msg("=== Starting upload ===")

		taskID, err := p.api.Upload(ctx, audioFile)
		if err != nil {
			log.Error().Int("iteration", i).Str("file", filepath.Base(audioFile)).Err(err).
				Msg("Upload failed")
		} else {
			log.Info().Int("iteration", i).Str("task_id", taskID).
				Msg("File uploaded successfully")
			stats.Uploads++

			transcriptionID, err := p.PollTask(ctx, taskID, i)
			if err == nil {
				stats.Transcriptions++

				if err := p.PollTranscription(ctx, transcriptionID, i); err == nil {
					stats.RiskAnalyses++
				}
			}
		}

		if i < p.cfg.TotalUploads {
			log.Info().Dur("pause", p.cfg.UploadPause).Msg("Pausing before next upload")
			if err := sleep(ctx, p.cfg.UploadPause); err != nil {
				break
			}
		}
	}

	p.logSummary(stats)
	return stats
}

func (p *Probe) logSummary(stats Stats) {
	log.Info().
		Int("total_uploads", p.cfg.TotalUploads).
		Int("successful_uploads", stats.Uploads).
		Int("successful_transcriptions", stats.Transcriptions).
		Int("successful_risk_analyses", stats.RiskAnalyses).
		Msg("RUN SUMMARY")

	switch {
	case stats.RiskAnalyses == p.cfg.TotalUploads:
		log.Info().Msg("All uploads completed the full workflow successfully")
	case stats.RiskAnalyses > 0:
		log.Warn().Int("completed", stats.RiskAnalyses).Int("total", p.cfg.TotalUploads).
			Msg("Partial success")
	default:
		log.Error().Msg("No uploads completed the full workflow")
	}
}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
