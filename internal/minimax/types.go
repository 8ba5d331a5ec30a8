// Package minimax provides an HTTP client for the MiniMax video generation API.
package minimax

// Status represents the status of a MiniMax generation task.
type Status string

// MiniMax task statuses aligned with the MiniMax API.
const (
	StatusPreparing  Status = "Preparing"
	StatusQueueing   Status = "Queueing"
	StatusProcessing Status = "Processing"
	StatusSuccess    Status = "Success"
	StatusFail       Status = "Fail"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFail:
		return true
	default:
		return false
	}
}

// TaskRequest contains the parameters for a video generation task.
// FirstFrameImage, when set, is an inline data URI; MiniMax takes the image
// bytes in the generation call itself rather than a hosted URL.
type TaskRequest struct {
	Model           string // Model identifier, e.g. "T2V-01" or "I2V-01"
	Prompt          string // Text prompt
	FirstFrameImage string // Inline data URI of the seed image (optional)
	DurationSec     int    // Clip length in seconds
	Resolution      string // Target resolution, e.g. "1080P"
}

// TaskResult contains the result of querying a task's status.
type TaskResult struct {
	Status Status
	FileID string // Identifier of the generated file (only set on success)
	Error  string // Failure detail (only set on failure)
}

// baseResp is the envelope MiniMax wraps around every response.
type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg,omitempty"`
}

// taskRequest is the wire format for POST /v1/video_generation.
type taskRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt,omitempty"`
	FirstFrameImage string `json:"first_frame_image,omitempty"`
	Duration        int    `json:"duration,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
}

// taskResponse is the wire format of the generation response.
type taskResponse struct {
	TaskID   string   `json:"task_id"`
	BaseResp baseResp `json:"base_resp"`
}

// queryResponse is the wire format of GET /v1/query/video_generation.
type queryResponse struct {
	TaskID   string   `json:"task_id"`
	Status   string   `json:"status"`
	FileID   string   `json:"file_id,omitempty"`
	BaseResp baseResp `json:"base_resp"`
}

// fileResponse is the wire format of GET /v1/files/retrieve.
type fileResponse struct {
	File struct {
		FileID      int64  `json:"file_id"`
		DownloadURL string `json:"download_url"`
	} `json:"file"`
	BaseResp baseResp `json:"base_resp"`
}
