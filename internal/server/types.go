// Package server provides the HTTP surface over the generation service.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// ReferenceImageRequest is one reference image in a generation request.
// The payload travels base64-encoded; handlers decode it before it enters
// the orchestration path, which works on raw bytes.
type ReferenceImageRequest struct {
	// DataBase64 is the base64-encoded image payload.
	DataBase64 string `json:"data_base64" validate:"required,base64"`
	// ContentType is the declared media type, sniffed when omitted.
	ContentType string `json:"content_type,omitempty"`
}

// CreateGenerationRequest is the HTTP request body for starting a generation.
type CreateGenerationRequest struct {
	// Prompt is the text description of the desired video.
	Prompt string `json:"prompt" validate:"required"`
	// Provider selects the generation backend.
	Provider string `json:"provider" validate:"required,oneof=runway vidu minimax"`
	// Model is the provider-specific model identifier (optional).
	Model string `json:"model,omitempty"`
	// ReferenceImages steer the generation (provider-specific limits apply).
	ReferenceImages []ReferenceImageRequest `json:"reference_images,omitempty" validate:"dive"`
	// AspectRatio is the target aspect, e.g. "16:9".
	AspectRatio string `json:"aspect_ratio,omitempty"`
	// DurationSec is the target clip length in seconds.
	DurationSec int `json:"duration_sec,omitempty" validate:"omitempty,min=1,max=60"`
	// Style holds optional provider-specific style parameters.
	Style map[string]string `json:"style,omitempty"`
}

// CreateGenerationResponse is the HTTP response after accepting a generation.
type CreateGenerationResponse struct {
	// ID is the unique identifier for the created generation.
	ID string `json:"id"`
	// Status is the initial status.
	Status string `json:"status"`
}

// GenerationResponse is the HTTP response for generation details.
type GenerationResponse struct {
	// ID is the unique identifier for the generation.
	ID string `json:"id"`
	// Provider is the generation backend.
	Provider string `json:"provider"`
	// Status is the current status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// Message is the last status or failure detail.
	Message string `json:"message,omitempty"`
	// FailureKind categorizes a failure, empty otherwise.
	FailureKind string `json:"failure_kind,omitempty"`
	// ArtifactURL is the hosted output location (if completed).
	ArtifactURL string `json:"artifact_url,omitempty"`
	// ArtifactDataURI is the inline-encoded output (if completed inline).
	ArtifactDataURI string `json:"artifact_data_uri,omitempty"`
	// ArtifactContentType is the media type of the output.
	ArtifactContentType string `json:"artifact_content_type,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// Providers lists the configured generation backends.
	Providers []string `json:"providers"`
}
