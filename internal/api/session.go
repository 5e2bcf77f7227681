package api

import (
	"net/http"
	"time"

	"github.com/aura-labs/aura/internal/domain"
	"github.com/aura-labs/aura/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SessionHandler handles session and pipeline endpoints.
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{sessionID}", h.Get)
		r.Post("/{sessionID}/analyze", h.Analyze)
		r.Post("/{sessionID}/generate-questions", h.GenerateQuestions)
		r.Get("/{sessionID}/questions", h.ListQuestions)
		r.Get("/{sessionID}/responses", h.ListResponses)
		r.Post("/{sessionID}/run", h.Run)
	})
}

// ownedSession loads a session and checks it belongs to the requesting
// user. Foreign sessions read as absent, not forbidden.
func (h *SessionHandler) ownedSession(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	userID := identity.UserIDFromContext(r.Context())
	sess, err := h.repo.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteFailure(w, err)
		return nil, false
	}
	if sess.UserID != userID {
		Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

type createSessionRequest struct {
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Create submits a new piece of learning material.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Content == "" {
		Error(w, http.StatusBadRequest, "title and content are required")
		return
	}
	srcType := domain.SourceType(req.Type)
	if !srcType.IsValid() {
		Error(w, http.StatusBadRequest, "type must be one of text, url, file")
		return
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    identity.UserIDFromContext(r.Context()),
		Title:     req.Title,
		Type:      srcType,
		Content:   req.Content,
		Tags:      req.Tags,
		Status:    domain.StatusIdle,
		CreatedAt: time.Now(),
	}
	if err := h.repo.CreateSession(r.Context(), sess); err != nil {
		WriteFailure(w, err)
		return
	}
	JSON(w, http.StatusCreated, sess)
}

// List returns the user's sessions, newest first.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.repo.ListSessions(r.Context(), identity.UserIDFromContext(r.Context()))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	JSON(w, http.StatusOK, sessions)
}

// Get returns one session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, sess)
}

type analyzeRequest struct {
	Audience string `json:"audience"`
	Goal     string `json:"goal"`
}

// Analyze runs the Reviewer stage for a session.
func (h *SessionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req analyzeRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	orch := h.orchestratorFor(sess.UserID)
	critique, err := orch.Analyze(r.Context(), sess.ID, req.Audience, req.Goal)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	JSON(w, http.StatusOK, critique)
}

// GenerateQuestions runs the Coach stage. Safe to call repeatedly: a
// second call reports the already persisted batch.
func (h *SessionHandler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	orch := h.orchestratorFor(sess.UserID)
	questions, created, err := orch.GenerateQuestions(r.Context(), sess.ID)
	if err != nil {
		WriteFailure(w, err)
		return
	}

	status := http.StatusCreated
	message := "questions generated"
	if !created {
		status = http.StatusOK
		message = "already generated"
	}
	JSON(w, status, map[string]interface{}{
		"count":   len(questions),
		"message": message,
	})
}

// ListQuestions returns a session's questions in presentation order.
func (h *SessionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	questions, err := h.repo.ListQuestions(r.Context(), sess.ID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if questions == nil {
		questions = []*domain.Question{}
	}
	JSON(w, http.StatusOK, questions)
}

// ListResponses returns the latest response per question for
// resumption display, keyed by question ID.
func (h *SessionHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	responses, err := h.repo.LatestResponses(r.Context(), sess.ID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	JSON(w, http.StatusOK, responses)
}

type runRequest struct {
	Platform string `json:"platform"`
	Goal     string `json:"goal"`
	Tone     string `json:"tone"`
}

// Run executes the full pipeline for a session.
func (h *SessionHandler) Run(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req runRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	orch := h.orchestratorFor(sess.UserID)
	result, err := orch.Run(r.Context(), sess.ID, domain.Platform(req.Platform), req.Goal, req.Tone)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}
