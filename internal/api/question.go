package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/aura-labs/aura/internal/domain"
	"github.com/aura-labs/aura/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// QuestionHandler handles response submission for coach questions.
type QuestionHandler struct {
	*Handler
}

// NewQuestionHandler creates a question handler.
func NewQuestionHandler(base *Handler) *QuestionHandler {
	return &QuestionHandler{Handler: base}
}

// RegisterRoutes registers question routes.
func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/questions/{questionID}/response", h.Respond)
}

type respondRequest struct {
	Response string `json:"response"`
	Skip     bool   `json:"skip"`
}

// Respond records an answer or an explicit skip for a question. The
// store keeps every submission; the latest wins for display.
func (h *QuestionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if !decodeBody(w, r, &req) {
		return
	}

	question, err := h.repo.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
	if err != nil {
		WriteFailure(w, err)
		return
	}

	// The question must belong to a session the caller owns.
	sess, err := h.repo.GetSession(r.Context(), question.SessionID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if sess.UserID != identity.UserIDFromContext(r.Context()) {
		Error(w, http.StatusNotFound, "question not found")
		return
	}

	text := strings.TrimSpace(req.Response)
	if req.Skip {
		text = domain.SkippedResponse
	} else if text == "" {
		Error(w, http.StatusBadRequest, "response is empty; use skip to pass")
		return
	}

	resp := &domain.Response{
		ID:         uuid.NewString(),
		QuestionID: question.ID,
		Text:       text,
		Skipped:    req.Skip,
		CreatedAt:  time.Now(),
	}
	if err := h.repo.CreateResponse(r.Context(), resp); err != nil {
		WriteFailure(w, err)
		return
	}
	JSON(w, http.StatusCreated, resp)
}
