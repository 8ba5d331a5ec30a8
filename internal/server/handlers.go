package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/promovia/videogen-api/internal/job"
	"github.com/promovia/videogen-api/internal/mediagen"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.GenerationService
	providers          []mediagen.Provider
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateGeneration only creates the record and returns
// immediately without starting the orchestration. Used in tests.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.GenerationService, providers []mediagen.Provider, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		providers:          providers,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	providers := make([]string, 0, len(h.providers))
	for _, p := range h.providers {
		providers = append(providers, string(p))
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Providers: providers})
}

// CreateGeneration handles POST /generations requests.
func (h *Handlers) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	var req CreateGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	genReq, err := toGenerationRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REFERENCE_IMAGE")
		return
	}

	created, err := h.service.CreateJob(r.Context(), genReq)
	if err != nil {
		h.logger.Error("failed to create generation",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create generation", "CREATION_FAILED")
		return
	}

	// Run the orchestration in the background with a detached context so it
	// outlives the request.
	if h.enableAsyncProcess {
		go h.service.Run(context.WithoutCancel(r.Context()), created, genReq)
	}

	h.logger.Info("generation accepted",
		slog.String("job_id", created.ID),
		slog.String("provider", string(genReq.Provider)),
	)

	writeJSON(w, http.StatusAccepted, CreateGenerationResponse{
		ID:     created.ID,
		Status: string(created.Status),
	})
}

// GetGeneration handles GET /generations/{id} requests.
func (h *Handlers) GetGeneration(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "generation ID is required", "MISSING_ID")
		return
	}

	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "generation not found", "NOT_FOUND")
			return
		}
		h.logger.Error("failed to get generation",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get generation", "FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toGenerationResponse(found))
}

// CancelGeneration handles DELETE /generations/{id} requests.
// A running generation is cancelled; a finished record is deleted.
func (h *Handlers) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "generation ID is required", "MISSING_ID")
		return
	}

	if err := h.service.CancelJob(jobID); err == nil {
		h.logger.Info("generation cancelled",
			slog.String("job_id", jobID),
		)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if err := h.service.DeleteJob(r.Context(), jobID); err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "generation not found", "NOT_FOUND")
			return
		}
		h.logger.Error("failed to delete generation",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete generation", "DELETE_FAILED")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toGenerationRequest converts the DTO into the normalized request,
// decoding reference image payloads.
func toGenerationRequest(req CreateGenerationRequest) (mediagen.Request, error) {
	refs := make([]mediagen.ReferenceImage, 0, len(req.ReferenceImages))
	for _, ref := range req.ReferenceImages {
		data, err := base64.StdEncoding.DecodeString(ref.DataBase64)
		if err != nil {
			return mediagen.Request{}, errors.New("reference image is not valid base64")
		}
		refs = append(refs, mediagen.ReferenceImage{
			Data:        data,
			ContentType: ref.ContentType,
		})
	}

	return mediagen.Request{
		Prompt:          req.Prompt,
		Provider:        mediagen.Provider(req.Provider),
		Model:           req.Model,
		ReferenceImages: refs,
		AspectRatio:     req.AspectRatio,
		DurationSec:     req.DurationSec,
		Style:           req.Style,
	}, nil
}

// toGenerationResponse converts a job record into the HTTP DTO.
func toGenerationResponse(j *job.Job) GenerationResponse {
	return GenerationResponse{
		ID:                  j.ID,
		Provider:            string(j.Provider),
		Status:              string(j.Status),
		Progress:            j.Progress,
		Message:             j.Message,
		FailureKind:         j.FailureKind,
		ArtifactURL:         j.ArtifactURL,
		ArtifactDataURI:     j.ArtifactDataURI,
		ArtifactContentType: j.ArtifactContentType,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
