// Package stubserver is an in-memory simulator of the transcription and
// risk-analysis backend the probe drives. It implements the same HTTP
// contract (upload, task status, transcription detail) with time-driven
// state transitions, so the probe can be exercised without the real
// service.
package stubserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voxaudit/riskprobe/pkg/models"
)

// MaxUploadBytes bounds the accepted audio payload, matching the real
// backend's 100 MB file limit.
const MaxUploadBytes = 100 << 20

// Config controls the simulated workflow timing and failure injection
type Config struct {
	// TaskDelay is how long a task reports "processing" before
	// completing and minting a transcription.
	TaskDelay time.Duration
	// RiskDelay is how long a transcription's risk analysis takes end
	// to end. The first half reports "pending", the second "analyzing".
	RiskDelay time.Duration

	// FailTasks makes every task end in "failed" instead of completing.
	FailTasks bool
	// FailRisk makes every risk analysis end in "failed".
	FailRisk bool

	// AllowedOrigins configures CORS for a browser frontend.
	AllowedOrigins []string
}

type taskRecord struct {
	id              string
	filename        string
	createdAt       time.Time
	transcriptionID string
}

type transcriptionRecord struct {
	id        string
	taskID    string
	text      string
	startedAt time.Time
}

// Server simulates the backend workflow in memory
type Server struct {
	cfg Config

	mu             sync.Mutex
	tasks          map[string]*taskRecord
	transcriptions map[string]*transcriptionRecord
}

// New creates a stub server with the given workflow timing
func New(cfg Config) *Server {
	if cfg.TaskDelay <= 0 {
		cfg.TaskDelay = 10 * time.Second
	}
	if cfg.RiskDelay <= 0 {
		cfg.RiskDelay = 10 * time.Second
	}
	return &Server{
		cfg:            cfg,
		tasks:          make(map[string]*taskRecord),
		transcriptions: make(map[string]*transcriptionRecord),
	}
}

// Router builds the chi router exposing the simulated backend API.
func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger())
	router.Use(middleware.Recoverer)

	if len(s.cfg.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	config := huma.DefaultConfig("Riskprobe Stub Backend", "1.0.0")
	config.DocsPath = "/api/docs"
	api := humachi.New(router, config)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the simulated backend",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = "1.0.0"
		resp.Body.Time = time.Now()
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "getTaskStatus",
		Method:      http.MethodGet,
		Path:        "/task/{task_id}/status",
		Summary:     "Get task status",
		Description: "Returns the simulated status of an upload task",
	}, s.getTaskStatus)

	huma.Register(api, huma.Operation{
		OperationID: "getTranscription",
		Method:      http.MethodGet,
		Path:        "/transcriptions/{id}",
		Summary:     "Get transcription detail",
		Description: "Returns a transcription with its risk analysis fields",
	}, s.getTranscription)

	// Multipart upload stays a plain chi handler; huma's typed inputs
	// buy nothing for a raw form post.
	router.Post("/upload", s.handleUpload)

	return router
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read audio file")
		return
	}

	task := &taskRecord{
		id:        uuid.New().String(),
		filename:  header.Filename,
		createdAt: time.Now(),
	}

	s.mu.Lock()
	s.tasks[task.id] = task
	s.mu.Unlock()

	log.Info().Str("task_id", task.id).Str("filename", header.Filename).
		Int64("size", size).Msg("Upload accepted")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.UploadResult{
		TaskID:   task.id,
		Filename: header.Filename,
		Message:  "File uploaded successfully. Transcription started.",
	})
}

func (s *Server) getTaskStatus(ctx context.Context, input *models.GetTaskStatusRequest) (*models.GetTaskStatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[input.TaskID]
	if !ok {
		return nil, huma.Error404NotFound("Task not found", fmt.Errorf("unknown task %s", input.TaskID))
	}

	resp := &models.GetTaskStatusResponse{}
	resp.Body.TaskID = task.id

	if time.Since(task.createdAt) < s.cfg.TaskDelay {
		resp.Body.Status = models.TaskProcessing
		return resp, nil
	}

	if s.cfg.FailTasks {
		resp.Body.Status = models.TaskFailed
		resp.Body.Error = "transcription engine error"
		return resp, nil
	}

	if task.transcriptionID == "" {
		transcription := &transcriptionRecord{
			id:        uuid.New().String(),
			taskID:    task.id,
			text:      fmt.Sprintf("Simulated transcript of %s", task.filename),
			startedAt: time.Now(),
		}
		task.transcriptionID = transcription.id
		s.transcriptions[transcription.id] = transcription
		log.Info().Str("task_id", task.id).Str("transcription_id", transcription.id).
			Msg("Task completed, transcription created")
	}

	resp.Body.Status = models.TaskCompleted
	resp.Body.TranscriptionID = task.transcriptionID
	return resp, nil
}

func (s *Server) getTranscription(ctx context.Context, input *models.GetTranscriptionRequest) (*models.GetTranscriptionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcription, ok := s.transcriptions[input.ID]
	if !ok {
		return nil, huma.Error404NotFound("Transcription not found", fmt.Errorf("unknown transcription %s", input.ID))
	}

	resp := &models.GetTranscriptionResponse{}
	resp.Body.ID = transcription.id
	resp.Body.Text = transcription.text
	resp.Body.CreatedAt = transcription.startedAt.UTC().Format(time.RFC3339)

	elapsed := time.Since(transcription.startedAt)
	switch {
	case elapsed < s.cfg.RiskDelay/2:
		status := models.RiskPending
		resp.Body.RiskStatus = &status
	case elapsed < s.cfg.RiskDelay:
		status := models.RiskAnalyzing
		resp.Body.RiskStatus = &status
	case s.cfg.FailRisk:
		status := models.RiskFailed
		resp.Body.RiskStatus = &status
	default:
		status := models.RiskCompleted
		resp.Body.RiskStatus = &status
		detail, _ := json.Marshal(models.RiskDetail{
			IsRisky:     false,
			RawResponse: "no risk indicators found",
			Confidence:  0.97,
		})
		resp.Body.RiskResult = string(detail)
	}
	return resp, nil
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// requestLogger returns a chi middleware that logs HTTP requests using zerolog
func requestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
