package minimax

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
		WithMaxRetries(2),
		WithBaseBackoff(time.Millisecond),
	)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("MINIMAX_API_KEY", "")

	_, err := NewClient()
	require.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestCreateTask(t *testing.T) {
	var gotAuth string
	var gotBody taskRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/video_generation", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(taskResponse{TaskID: "task-mm"})
	}))

	taskID, err := client.CreateTask(context.Background(), TaskRequest{
		Prompt:          "a cat in space",
		FirstFrameImage: "data:image/png;base64,AAAA",
		DurationSec:     6,
	})

	require.NoError(t, err)
	assert.Equal(t, "task-mm", taskID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "I2V-01", gotBody.Model, "image request defaults to the image-to-video model")
	assert.Equal(t, "data:image/png;base64,AAAA", gotBody.FirstFrameImage)
}

func TestCreateTask_DefaultTextModel(t *testing.T) {
	var gotBody taskRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(taskResponse{TaskID: "task-mm"})
	}))

	_, err := client.CreateTask(context.Background(), TaskRequest{Prompt: "text only"})
	require.NoError(t, err)
	assert.Equal(t, "T2V-01", gotBody.Model)
}

func TestCreateTask_EnvelopeError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(taskResponse{
			BaseResp: baseResp{StatusCode: 1002, StatusMsg: "rate limit triggered"},
		})
	}))

	_, err := client.CreateTask(context.Background(), TaskRequest{Prompt: "p"})
	require.ErrorIs(t, err, ErrAPIError)
	assert.Contains(t, err.Error(), "rate limit triggered")
}

func TestQueryTask(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/query/video_generation", r.URL.Path)
		assert.Equal(t, "task-mm", r.URL.Query().Get("task_id"))
		_ = json.NewEncoder(w).Encode(queryResponse{
			TaskID: "task-mm",
			Status: "Success",
			FileID: "file-7",
		})
	}))

	result, err := client.QueryTask(context.Background(), "task-mm")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "file-7", result.FileID)
}

func TestQueryTask_Failed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(queryResponse{
			TaskID:   "task-mm",
			Status:   "Fail",
			BaseResp: baseResp{StatusMsg: "video generation failed"},
		})
	}))

	result, err := client.QueryTask(context.Background(), "task-mm")
	require.NoError(t, err)
	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "video generation failed", result.Error)
}

func TestQueryTask_TaskIDRequired(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.QueryTask(context.Background(), "")
	require.ErrorIs(t, err, ErrTaskIDRequired)
}

func TestRetrieveFile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/files/retrieve", r.URL.Path)
		assert.Equal(t, "file-7", r.URL.Query().Get("file_id"))

		var resp fileResponse
		resp.File.FileID = 7
		resp.File.DownloadURL = "https://files.minimax.io/out.mp4?expires=123"
		_ = json.NewEncoder(w).Encode(resp)
	}))

	url, err := client.RetrieveFile(context.Background(), "file-7")
	require.NoError(t, err)
	assert.Equal(t, "https://files.minimax.io/out.mp4?expires=123", url)
}

func TestRetrieveFile_NoDownloadURL(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(fileResponse{})
	}))

	_, err := client.RetrieveFile(context.Background(), "file-7")
	require.ErrorIs(t, err, ErrNoDownloadURL)
}

func TestRetrieveFile_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var resp fileResponse
		resp.File.DownloadURL = "https://files.minimax.io/out.mp4"
		_ = json.NewEncoder(w).Encode(resp)
	}))

	url, err := client.RetrieveFile(context.Background(), "file-7")
	require.NoError(t, err)
	assert.Equal(t, "https://files.minimax.io/out.mp4", url)
	assert.Equal(t, int64(2), calls.Load())
}
