package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a Client pointing at the given test server.
func newTestClient(ts *httptest.Server) *Client {
	return New(Config{
		BackendURL:    ts.URL,
		FrontendURL:   ts.URL,
		HealthTimeout: 2 * time.Second,
		UploadTimeout: 2 * time.Second,
		StatusTimeout: 2 * time.Second,
	})
}

// createTempAudio creates a temporary file with dummy audio data.
func createTempAudio(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "probe-*.mp3")
	require.NoError(t, err)
	_, _ = f.WriteString("fake-mp3-data")
	f.Close()
	return f.Name()
}

func TestUpload_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"),
			"expected multipart content-type, got %s", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseMultipartForm(10<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err, "expected file field")
		defer file.Close()

		assert.True(t, strings.HasSuffix(header.Filename, ".mp3"))
		assert.Equal(t, "audio/mpeg", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"task_id": "task-42", "filename": "a.mp3"}`)
	}))
	defer ts.Close()

	taskID, err := newTestClient(ts).Upload(context.Background(), createTempAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "task-42", taskID)
}

func TestUpload_EntityTooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Upload(context.Background(), createTempAudio(t))
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusErr.Code)
}

func TestUpload_MissingTaskID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message": "accepted"}`)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Upload(context.Background(), createTempAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing task_id")
}

func TestUpload_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Upload(context.Background(), createTempAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse upload response")
}

func TestUpload_FileDoesNotExist(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when the file cannot be read")
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Upload(context.Background(), "/nonexistent/audio.mp3")
	require.Error(t, err)
}

func TestTaskStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/task/task-42/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "completed", "transcription_id": "abc123"}`)
	}))
	defer ts.Close()

	status, err := newTestClient(ts).TaskStatus(context.Background(), "task-42")
	require.NoError(t, err)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, "abc123", status.TranscriptionID)
}

func TestTaskStatus_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).TaskStatus(context.Background(), "task-42")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestTranscription_NullRiskStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcriptions/abc123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "abc123", "risk_status": null}`)
	}))
	defer ts.Close()

	transcription, err := newTestClient(ts).Transcription(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Nil(t, transcription.RiskStatus)
	assert.Empty(t, transcription.RiskResult)
}

func TestTranscription_Completed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "abc123", "risk_status": "completed", "risk_result": "{\"is_risky\":true,\"raw_response\":\"threat detected\",\"confidence\":0.9}"}`)
	}))
	defer ts.Close()

	transcription, err := newTestClient(ts).Transcription(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, transcription.RiskStatus)
	assert.Equal(t, "completed", *transcription.RiskStatus)
	assert.NotEmpty(t, transcription.RiskResult)
}

func TestCheckHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	assert.NoError(t, newTestClient(ts).CheckHealth(context.Background()))
}

func TestCheckHealth_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	assert.Error(t, newTestClient(ts).CheckHealth(context.Background()))
}

func TestCheckHealth_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused

	assert.Error(t, newTestClient(ts).CheckHealth(context.Background()))
}

func TestCheckFrontend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	assert.NoError(t, newTestClient(ts).CheckFrontend(context.Background()))
}
