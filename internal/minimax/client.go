package minimax

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Static errors for MiniMax client operations.
var (
	// ErrAPIKeyNotSet is returned when no API key is provided.
	ErrAPIKeyNotSet = errors.New("minimax: API key is required")
	// ErrTaskIDRequired is returned when the task ID is not provided.
	ErrTaskIDRequired = errors.New("minimax: task ID is required")
	// ErrFileIDRequired is returned when the file ID is not provided.
	ErrFileIDRequired = errors.New("minimax: file ID is required")
	// ErrNoTaskIDReturned is returned when the create response contains no task ID.
	ErrNoTaskIDReturned = errors.New("minimax: create failed: no task ID returned")
	// ErrAPIError is returned when the MiniMax response envelope carries a
	// non-zero status code.
	ErrAPIError = errors.New("minimax: API error")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("minimax: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("minimax: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("minimax: request failed")
	// ErrNoDownloadURL is returned when a retrieved file has no download URL.
	ErrNoDownloadURL = errors.New("minimax: no download URL in retrieved file")
)

// Client defines the interface for interacting with the MiniMax API.
type Client interface {
	// CreateTask starts a video generation task and returns the task ID.
	CreateTask(ctx context.Context, req TaskRequest) (taskID string, err error)

	// QueryTask queries the status of a task.
	QueryTask(ctx context.Context, taskID string) (TaskResult, error)

	// RetrieveFile resolves a generated file ID to a short-lived download URL.
	RetrieveFile(ctx context.Context, fileID string) (downloadURL string, err error)
}

// HTTPClient is the HTTP implementation of the MiniMax Client interface.
type HTTPClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
	}
}

// WithBaseURL sets a custom base URL for the MiniMax API.
func WithBaseURL(u string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// NewClient creates a new MiniMax HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable MINIMAX_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:     "https://api.minimax.io",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("MINIMAX_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// CreateTask starts a video generation task and returns the task ID.
func (c *HTTPClient) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	if req.Model == "" {
		if req.FirstFrameImage != "" {
			req.Model = "I2V-01"
		} else {
			req.Model = "T2V-01"
		}
	}

	reqBody := taskRequest{
		Model:           req.Model,
		Prompt:          req.Prompt,
		FirstFrameImage: req.FirstFrameImage,
		Duration:        req.DurationSec,
		Resolution:      req.Resolution,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("minimax: marshal request: %w", err)
	}

	var resp taskResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, c.baseURL+"/v1/video_generation", bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.BaseResp.StatusCode != 0 {
		return "", fmt.Errorf("%w %d: %s", ErrAPIError, resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
	}

	if resp.TaskID == "" {
		return "", ErrNoTaskIDReturned
	}

	return resp.TaskID, nil
}

// QueryTask queries the status of a task.
func (c *HTTPClient) QueryTask(ctx context.Context, taskID string) (TaskResult, error) {
	if taskID == "" {
		return TaskResult{}, ErrTaskIDRequired
	}

	u := fmt.Sprintf("%s/v1/query/video_generation?task_id=%s", c.baseURL, url.QueryEscape(taskID))

	var resp queryResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return TaskResult{}, err
	}

	if resp.BaseResp.StatusCode != 0 {
		return TaskResult{}, fmt.Errorf("%w %d: %s", ErrAPIError, resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
	}

	result := TaskResult{
		Status: Status(resp.Status),
	}

	switch result.Status {
	case StatusSuccess:
		result.FileID = resp.FileID
	case StatusFail:
		result.Error = resp.BaseResp.StatusMsg
		if result.Error == "" {
			result.Error = "generation failed"
		}
	}

	return result, nil
}

// RetrieveFile resolves a generated file ID to a short-lived download URL.
func (c *HTTPClient) RetrieveFile(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", ErrFileIDRequired
	}

	u := fmt.Sprintf("%s/v1/files/retrieve?file_id=%s", c.baseURL, url.QueryEscape(fileID))

	var resp fileResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return "", err
	}

	if resp.BaseResp.StatusCode != 0 {
		return "", fmt.Errorf("%w %d: %s", ErrAPIError, resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
	}

	if resp.File.DownloadURL == "" {
		return "", ErrNoDownloadURL
	}

	return resp.File.DownloadURL, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("minimax: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := c.doRequest(ctx, method, url, body, result)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("minimax: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("minimax: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("minimax: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("minimax: read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("minimax: unmarshal response: %w", err)
		}
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
