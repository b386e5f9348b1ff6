package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxaudit/riskprobe/pkg/models"
)

// Config contains backend client configuration
type Config struct {
	BackendURL  string
	FrontendURL string

	// Per-request timeouts. A hung connection is bounded by these,
	// the polling loops own the overall deadlines.
	HealthTimeout time.Duration
	UploadTimeout time.Duration
	StatusTimeout time.Duration
}

// Client is an HTTP client for the transcription/risk-analysis backend
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// StatusError reports a non-2xx HTTP response with the body the server sent
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.Code, e.Body)
}

// New creates a new backend client
func New(cfg Config) *Client {
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 30 * time.Second
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

// CheckHealth verifies the backend responds with 200 on /health.
func (c *Client) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BackendURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: "health check failed"}
	}
	return nil
}

// CheckFrontend verifies the frontend origin responds with 200 on /.
func (c *Client) CheckFrontend(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.FrontendURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create frontend request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("frontend unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: "frontend check failed"}
	}
	return nil
}

// Upload posts an audio file as multipart form data to the backend upload
// endpoint and returns the task ID assigned to it.
func (c *Client) Upload(ctx context.Context, filePath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	body, contentType, err := buildUploadBody(filePath)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BackendURL+"/upload", body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result models.UploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if result.TaskID == "" {
		return "", fmt.Errorf("upload response missing task_id: %s", string(respBody))
	}
	return result.TaskID, nil
}

// TaskStatus fetches the current status of an upload task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/task/%s/status", c.cfg.BackendURL, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var status models.TaskStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("failed to parse task status: %w", err)
	}
	return &status, nil
}

// Transcription fetches the detail record of a transcription, including
// the risk analysis fields.
func (c *Client) Transcription(ctx context.Context, transcriptionID string) (*models.Transcription, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/transcriptions/%s", c.cfg.BackendURL, transcriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var transcription models.Transcription
	if err := json.Unmarshal(respBody, &transcription); err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}
	return &transcription, nil
}

// do performs the request and returns the body on a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

// buildUploadBody creates a multipart/form-data body carrying the audio
// file under the "file" field with an audio/mpeg part content type.
func buildUploadBody(filePath string) (io.Reader, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(filePath)))
	header.Set("Content-Type", "audio/mpeg")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
