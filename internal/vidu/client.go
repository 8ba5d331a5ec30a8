package vidu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Static errors for Vidu client operations.
var (
	// ErrAPIKeyNotSet is returned when no API key is provided.
	ErrAPIKeyNotSet = errors.New("vidu: API key is required")
	// ErrTaskIDRequired is returned when the task ID is not provided.
	ErrTaskIDRequired = errors.New("vidu: task ID is required")
	// ErrNoTaskIDReturned is returned when the generation response contains no task ID.
	ErrNoTaskIDReturned = errors.New("vidu: generation failed: no task ID returned")
	// ErrGenerationFailed is returned when the generation call is rejected.
	ErrGenerationFailed = errors.New("vidu: generation failed")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("vidu: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("vidu: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("vidu: request failed")
	// ErrNoCreationURL is returned when a successful task has no creation URL.
	ErrNoCreationURL = errors.New("vidu: no creation URL in successful task")
)

// Client defines the interface for interacting with the Vidu API.
type Client interface {
	// Generate starts a generation task using the endpoint selected by mode
	// and returns the task ID.
	Generate(ctx context.Context, mode Mode, req GenerationRequest) (taskID string, err error)

	// GetCreations queries the state and outputs of a task.
	GetCreations(ctx context.Context, taskID string) (TaskResult, error)
}

// HTTPClient is the HTTP implementation of the Vidu Client interface.
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

// WithBaseURL sets a custom base URL for the Vidu API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
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

// NewClient creates a new Vidu HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable VIDU_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:     "https://api.vidu.com",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("VIDU_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// Generate starts a generation task and returns the task ID.
func (c *HTTPClient) Generate(ctx context.Context, mode Mode, req GenerationRequest) (string, error) {
	if req.Model == "" {
		req.Model = "vidu2.0"
	}

	reqBody := generationRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		Images:      req.Images,
		Duration:    req.DurationSec,
		AspectRatio: req.AspectRatio,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("vidu: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/ent/v2/%s", c.baseURL, mode)

	var resp generationResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, url, bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.TaskID == "" {
		if resp.ErrCode != "" {
			return "", fmt.Errorf("%w: %s", ErrGenerationFailed, resp.ErrCode)
		}
		return "", ErrNoTaskIDReturned
	}

	return resp.TaskID, nil
}

// GetCreations queries the state and outputs of a task.
func (c *HTTPClient) GetCreations(ctx context.Context, taskID string) (TaskResult, error) {
	if taskID == "" {
		return TaskResult{}, ErrTaskIDRequired
	}

	url := fmt.Sprintf("%s/ent/v2/tasks/%s/creations", c.baseURL, taskID)

	var resp creationsResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return TaskResult{}, err
	}

	result := TaskResult{
		State: State(resp.State),
	}

	switch result.State {
	case StateSuccess:
		if len(resp.Creations) > 0 && resp.Creations[0].URL != "" {
			result.CreationURL = resp.Creations[0].URL
		} else {
			result.Error = ErrNoCreationURL.Error()
		}
	case StateFailed:
		result.Error = resp.ErrCode
	}

	return result, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("vidu: context cancelled: %w", ctx.Err())
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

	return fmt.Errorf("vidu: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("vidu: create request: %w", err)
	}

	// Vidu uses the "Token" scheme rather than "Bearer".
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("vidu: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("vidu: read response: %w", err)}
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
			return fmt.Errorf("vidu: unmarshal response: %w", err)
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
