// Package vidu provides an HTTP client for the Vidu enterprise video API.
package vidu

// State represents the state of a Vidu generation task.
type State string

// Vidu task states aligned with the Vidu API.
const (
	StateCreated    State = "created"
	StateQueueing   State = "queueing"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// IsTerminal returns true if the state is a terminal state.
func (s State) IsTerminal() bool {
	switch s {
	case StateSuccess, StateFailed:
		return true
	default:
		return false
	}
}

// Mode selects the Vidu generation endpoint. The endpoint changes with the
// number of reference images supplied.
type Mode string

// Generation modes.
const (
	// ModeText2Video generates from a prompt alone.
	ModeText2Video Mode = "text2video"
	// ModeImg2Video animates a single reference image.
	ModeImg2Video Mode = "img2video"
	// ModeReference2Video blends two or three reference images.
	ModeReference2Video Mode = "reference2video"
)

// GenerationRequest contains the parameters for a generation task.
type GenerationRequest struct {
	Model       string   // Model identifier, e.g. "vidu2.0"
	Prompt      string   // Text prompt
	Images      []string // Hosted reference image URLs (cardinality depends on Mode)
	DurationSec int      // Clip length in seconds
	AspectRatio string   // Target aspect, e.g. "16:9"
}

// TaskResult contains the result of querying a task's creations.
type TaskResult struct {
	State       State
	CreationURL string // Hosted output video (only set on success)
	Error       string // Failure detail (only set on failure)
}

// generationRequest is the wire format for the generation endpoints.
type generationRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt,omitempty"`
	Images      []string `json:"images,omitempty"`
	Duration    int      `json:"duration,omitempty"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
}

// generationResponse is the wire format of a generation response.
type generationResponse struct {
	TaskID  string `json:"task_id"`
	State   string `json:"state,omitempty"`
	ErrCode string `json:"err_code,omitempty"`
}

// creationsResponse is the wire format of GET /ent/v2/tasks/{id}/creations.
type creationsResponse struct {
	State     string     `json:"state"`
	ErrCode   string     `json:"err_code,omitempty"`
	Creations []creation `json:"creations,omitempty"`
}

// creation is a single generated output.
type creation struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}
