package api

import (
	"net/http"
	"time"

	"github.com/aura-labs/aura/internal/domain"
	"github.com/aura-labs/aura/internal/identity"
	"github.com/aura-labs/aura/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DraftHandler handles draft persistence, autosave, and per-platform
// adaptation.
type DraftHandler struct {
	*Handler
}

// NewDraftHandler creates a draft handler.
func NewDraftHandler(base *Handler) *DraftHandler {
	return &DraftHandler{Handler: base}
}

// RegisterRoutes registers draft routes.
func (h *DraftHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/sessions/{sessionID}/drafts", h.Create)
	r.Get("/api/sessions/{sessionID}/drafts", h.List)
	r.Route("/api/drafts/{draftID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Post("/auto-save", h.AutoSave)
		r.Post("/adapt/{platform}", h.Adapt)
	})
}

// ownedDraft loads a draft and checks its session belongs to the
// requesting user.
func (h *DraftHandler) ownedDraft(w http.ResponseWriter, r *http.Request) (*domain.Draft, bool) {
	draft, err := h.repo.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		WriteFailure(w, err)
		return nil, false
	}
	sess, err := h.repo.GetSession(r.Context(), draft.SessionID)
	if err != nil {
		WriteFailure(w, err)
		return nil, false
	}
	if sess.UserID != identity.UserIDFromContext(r.Context()) {
		Error(w, http.StatusNotFound, "draft not found")
		return nil, false
	}
	return draft, true
}

type createDraftRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Platform string `json:"platform"`
}

// Create persists a manually authored draft for a session.
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sess, err := h.repo.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if sess.UserID != userID {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	var req createDraftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	platform := domain.Platform(req.Platform)
	if !platform.IsValid() {
		platform = domain.DefaultPlatform
	}

	now := time.Now()
	draft := &domain.Draft{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		Platform:  platform,
		Title:     req.Title,
		Content:   req.Content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.CreateDraft(r.Context(), draft); err != nil {
		WriteFailure(w, err)
		return
	}
	JSON(w, http.StatusCreated, draft)
}

// List returns a session's drafts, most recently updated first.
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sess, err := h.repo.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if sess.UserID != userID {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	drafts, err := h.repo.ListDrafts(r.Context(), sess.ID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if drafts == nil {
		drafts = []*domain.Draft{}
	}
	JSON(w, http.StatusOK, drafts)
}

// Get returns one draft.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.ownedDraft(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, draft)
}

type saveDraftRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	BaseVersion int    `json:"base_version"`
}

// save applies a versioned content write with SQLite busy retry. Both
// manual save and autosave funnel through here so the stale-write guard
// is uniform.
func (h *DraftHandler) save(w http.ResponseWriter, r *http.Request, draft *domain.Draft, req saveDraftRequest) {
	if req.Title == "" {
		req.Title = draft.Title
	}
	if req.BaseVersion == 0 {
		req.BaseVersion = draft.Version
	}

	var updated *domain.Draft
	err := shared.RetrySQLite(r.Context(), 3, 100*time.Millisecond, func() error {
		var saveErr error
		updated, saveErr = h.repo.UpdateDraftContent(r.Context(), draft.ID, req.Title, req.Content, req.BaseVersion)
		return saveErr
	})
	if err != nil {
		WriteFailure(w, err)
		return
	}
	JSON(w, http.StatusOK, updated)
}

// Update is a manual save.
func (h *DraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.ownedDraft(w, r)
	if !ok {
		return
	}
	var req saveDraftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.save(w, r, draft, req)
}

// AutoSave is the debounced background save issued by editing clients.
func (h *DraftHandler) AutoSave(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.ownedDraft(w, r)
	if !ok {
		return
	}
	var req saveDraftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.save(w, r, draft, req)
}

// adaptResponse carries an on-demand platform adaptation: the plan
// that parameterized it, the new persisted draft, and the audit trail.
type adaptResponse struct {
	Plan  *domain.StrategyPlan      `json:"plan"`
	Draft *domain.Draft             `json:"draft"`
	Audit []domain.ChangeAuditEntry `json:"audit"`
}

// Adapt produces a platform-specific rendition of the draft's session
// content using the Strategist and Editor stages. The adaptation is
// persisted as a new draft targeting the requested platform.
func (h *DraftHandler) Adapt(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.ownedDraft(w, r)
	if !ok {
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	orch := h.orchestratorFor(userID)

	platform := domain.Platform(chi.URLParam(r, "platform"))
	plan, err := orch.Strategize(r.Context(), draft.SessionID, platform, "", "")
	if err != nil {
		WriteFailure(w, err)
		return
	}

	adapted, audit, err := orch.ComposeDraft(r.Context(), draft.SessionID, plan)
	if err != nil {
		WriteFailure(w, err)
		return
	}

	JSON(w, http.StatusOK, adaptResponse{
		Plan:  plan,
		Draft: adapted,
		Audit: audit,
	})
}
