package models

import (
	"encoding/json"
	"time"
)

// Task statuses reported by GET /task/{task_id}/status.
const (
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// Risk analysis statuses reported by GET /transcriptions/{id}.
const (
	RiskPending   = "pending"
	RiskAnalyzing = "analyzing"
	RiskCompleted = "completed"
	RiskFailed    = "failed"
)

// UploadResult is the body returned by POST /upload.
type UploadResult struct {
	TaskID   string `json:"task_id"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// TaskStatus is the body returned by GET /task/{task_id}/status.
type TaskStatus struct {
	TaskID          string `json:"task_id,omitempty"`
	Status          string `json:"status"`
	TranscriptionID string `json:"transcription_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Transcription is the body returned by GET /transcriptions/{id}.
// RiskStatus is a pointer because the service reports an explicit JSON
// null before the risk analysis step has been scheduled.
type Transcription struct {
	ID         string  `json:"id"`
	Text       string  `json:"text,omitempty"`
	RiskStatus *string `json:"risk_status"`
	RiskResult string  `json:"risk_result,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// RiskDetail is the decoded form of Transcription.RiskResult when the
// backend serializes its analysis verdict as JSON.
type RiskDetail struct {
	IsRisky     bool    `json:"is_risky"`
	RawResponse string  `json:"raw_response"`
	Confidence  float64 `json:"confidence"`
}

// DecodeRiskResult attempts to parse the raw risk_result string into a
// RiskDetail. The field is free-form text on some deployments, so a
// decode failure is not an error condition for callers.
func DecodeRiskResult(raw string) (*RiskDetail, bool) {
	var d RiskDetail
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, false
	}
	return &d, true
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// GetTaskStatusRequest represents a request for task status
type GetTaskStatusRequest struct {
	TaskID string `path:"task_id" doc:"Task ID"`
}

// GetTaskStatusResponse wraps the task status body for the simulator API
type GetTaskStatusResponse struct {
	Body TaskStatus
}

// GetTranscriptionRequest represents a request for transcription detail
type GetTranscriptionRequest struct {
	ID string `path:"id" doc:"Transcription ID"`
}

// GetTranscriptionResponse wraps the transcription body for the simulator API
type GetTranscriptionResponse struct {
	Body Transcription
}
