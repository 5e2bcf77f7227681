// Package api provides HTTP handlers for the Aura API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aura-labs/aura/internal/pipeline"
	"github.com/aura-labs/aura/internal/progress"
	"github.com/aura-labs/aura/internal/store"
)

// Handler provides common handler dependencies.
type Handler struct {
	repo     store.Repository
	gen      pipeline.Generator
	hub      *progress.Hub
	stageLog *pipeline.StageLog
	timeout  time.Duration
}

// NewHandler creates a new Handler with common dependencies. hub and
// stageLog may be nil.
func NewHandler(repo store.Repository, gen pipeline.Generator, hub *progress.Hub, stageLog *pipeline.StageLog, timeout time.Duration) *Handler {
	return &Handler{repo: repo, gen: gen, hub: hub, stageLog: stageLog, timeout: timeout}
}

// orchestratorFor builds an orchestrator whose stage events reach the
// requesting user's progress subscriptions.
func (h *Handler) orchestratorFor(userID string) *pipeline.Orchestrator {
	var notifier pipeline.Notifier
	if h.hub != nil {
		notifier = &progress.SessionNotifier{Hub: h.hub, UserID: userID}
	}
	return pipeline.NewOrchestrator(h.repo, h.gen, h.timeout, notifier, h.stageLog)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// FailureStatus distinguishes failure classes for callers deciding
// whether to retry, wait, or abandon.
type FailureStatus struct {
	Error     string `json:"error"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	Retryable bool   `json:"retryable"`
}

// WriteFailure maps the error taxonomy onto distinguishable HTTP
// responses. Every failure gets a specific status, never a generic
// "error occurred".
func WriteFailure(w http.ResponseWriter, err error) {
	var stageErr *pipeline.StageError
	stage := ""
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		JSON(w, http.StatusNotFound, FailureStatus{
			Error: err.Error(), Status: "not_found",
		})
	case errors.Is(err, pipeline.ErrStageInputInvalid):
		JSON(w, http.StatusUnprocessableEntity, FailureStatus{
			Error: err.Error(), Status: "stage_input_invalid", Stage: stage,
		})
	case errors.Is(err, pipeline.ErrStageGenerationFailed):
		JSON(w, http.StatusBadGateway, FailureStatus{
			Error: err.Error(), Status: "stage_generation_failed", Stage: stage, Retryable: true,
		})
	case errors.Is(err, store.ErrStaleWrite):
		JSON(w, http.StatusConflict, FailureStatus{
			Error: err.Error(), Status: "stale_write",
		})
	default:
		JSON(w, http.StatusInternalServerError, FailureStatus{
			Error: err.Error(), Status: "internal", Retryable: true,
		})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
