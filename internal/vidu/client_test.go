package vidu

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
	t.Setenv("VIDU_API_KEY", "")

	_, err := NewClient()
	require.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestGenerate_EndpointByMode(t *testing.T) {
	tests := []struct {
		mode     Mode
		wantPath string
	}{
		{ModeText2Video, "/ent/v2/text2video"},
		{ModeImg2Video, "/ent/v2/img2video"},
		{ModeReference2Video, "/ent/v2/reference2video"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			var gotPath, gotAuth string

			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				_ = json.NewEncoder(w).Encode(generationResponse{TaskID: "task-1"})
			}))

			taskID, err := client.Generate(context.Background(), tt.mode, GenerationRequest{Prompt: "p"})
			require.NoError(t, err)
			assert.Equal(t, "task-1", taskID)
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, "Token test-key", gotAuth)
		})
	}
}

func TestGenerate_DefaultModel(t *testing.T) {
	var gotBody generationRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(generationResponse{TaskID: "task-1"})
	}))

	_, err := client.Generate(context.Background(), ModeText2Video, GenerationRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "vidu2.0", gotBody.Model)
}

func TestGenerate_RejectedWithErrCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generationResponse{ErrCode: "insufficient_credit"})
	}))

	_, err := client.Generate(context.Background(), ModeText2Video, GenerationRequest{Prompt: "p"})
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, err.Error(), "insufficient_credit")
}

func TestGenerate_RetriesRateLimits(t *testing.T) {
	var calls atomic.Int64

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(generationResponse{TaskID: "task-1"})
	}))

	taskID, err := client.Generate(context.Background(), ModeText2Video, GenerationRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "task-1", taskID)
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetCreations(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ent/v2/tasks/task-1/creations", r.URL.Path)
		_ = json.NewEncoder(w).Encode(creationsResponse{
			State: "success",
			Creations: []creation{
				{ID: "c-1", URL: "https://cdn.vidu.com/out.mp4"},
			},
		})
	}))

	result, err := client.GetCreations(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, result.State)
	assert.Equal(t, "https://cdn.vidu.com/out.mp4", result.CreationURL)
}

func TestGetCreations_SuccessWithoutURL(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(creationsResponse{State: "success"})
	}))

	result, err := client.GetCreations(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, result.State)
	assert.Equal(t, ErrNoCreationURL.Error(), result.Error)
}

func TestGetCreations_Failed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(creationsResponse{State: "failed", ErrCode: "moderation"})
	}))

	result, err := client.GetCreations(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, "moderation", result.Error)
}

func TestGetCreations_TaskIDRequired(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.GetCreations(context.Background(), "")
	require.ErrorIs(t, err, ErrTaskIDRequired)
}
