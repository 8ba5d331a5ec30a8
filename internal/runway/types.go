// Package runway provides an HTTP client for the Runway task API.
package runway

// Status represents the status of a Runway task.
type Status string

// Runway task statuses aligned with the Runway API.
const (
	StatusPending   Status = "PENDING"
	StatusThrottled Status = "THROTTLED" // Task accepted but held back by Runway's own queueing
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

// TaskRequest contains the parameters for an image-to-video task.
// Runway has no text-only mode: PromptImage is mandatory.
type TaskRequest struct {
	Model       string // Model identifier, e.g. "gen3a_turbo"
	PromptText  string // Text prompt steering the generation
	PromptImage string // Publicly retrievable URL of the source image
	Ratio       string // Output ratio, e.g. "1280:768"
	DurationSec int    // Clip length in seconds (5 or 10)
}

// TaskResult contains the result of querying a task's status.
type TaskResult struct {
	Status    Status
	Progress  float64 // Fractional progress (0.0-1.0) while running
	OutputURL string  // Hosted output video (only set when succeeded)
	Error     string  // Failure detail (only set when failed)
}

// taskRequest is the wire format for POST /v1/image_to_video.
type taskRequest struct {
	Model       string `json:"model"`
	PromptText  string `json:"promptText,omitempty"`
	PromptImage string `json:"promptImage"`
	Ratio       string `json:"ratio,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

// taskResponse is the wire format of the task creation response.
type taskResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// statusResponse is the wire format of GET /v1/tasks/{id}.
type statusResponse struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Progress float64  `json:"progress,omitempty"`
	Output   []string `json:"output,omitempty"`
	Failure  string   `json:"failure,omitempty"`
}
