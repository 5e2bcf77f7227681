package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aura-labs/aura/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return repo
}

func newTestSession(t *testing.T, repo Repository, id string) *domain.Session {
	t.Helper()
	sess := &domain.Session{
		ID:        id,
		UserID:    "user-1",
		Title:     "attention is a bottleneck",
		Type:      domain.SourceText,
		Content:   "Deep work matters. Context switching costs 23 minutes per interruption.",
		Tags:      []string{"productivity"},
		Status:    domain.StatusIdle,
		CreatedAt: time.Now(),
	}
	if err := repo.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	created := newTestSession(t, repo, "sess-1")

	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != created.Title || got.UserID != created.UserID {
		t.Errorf("Got session %+v, want title/user from %+v", got, created)
	}
	if got.Status != domain.StatusIdle {
		t.Errorf("Expected status idle, got %s", got.Status)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "productivity" {
		t.Errorf("Tags round trip failed: %v", got.Tags)
	}

	if _, err := repo.GetSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing session, got %v", err)
	}

	sessions, err := repo.ListSessions(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("Expected 1 session for user-1, got %d", len(sessions))
	}
	others, err := repo.ListSessions(ctx, "someone-else")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(others) != 0 {
		t.Errorf("Expected no sessions for other user, got %d", len(others))
	}
}

func TestAdvanceSessionStatusIsMonotonic(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	newTestSession(t, repo, "sess-1")

	if err := repo.AdvanceSessionStatus(ctx, "sess-1", domain.StatusQuestioning); err != nil {
		t.Fatalf("advance to questioning: %v", err)
	}

	// A backward transition is a no-op, not an error.
	if err := repo.AdvanceSessionStatus(ctx, "sess-1", domain.StatusAnalyzing); err != nil {
		t.Fatalf("backward advance should be a no-op: %v", err)
	}
	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != domain.StatusQuestioning {
		t.Errorf("Status regressed to %s", got.Status)
	}

	if err := repo.AdvanceSessionStatus(ctx, "missing", domain.StatusAnalyzing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing session, got %v", err)
	}
	if err := repo.AdvanceSessionStatus(ctx, "sess-1", "bogus"); err == nil {
		t.Error("Expected error for invalid status")
	}
}

func TestCritiqueUpsertOverwrites(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	newTestSession(t, repo, "sess-1")

	if _, err := repo.GetCritique(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before review, got %v", err)
	}

	first := &domain.Critique{
		SessionID: "sess-1",
		Thesis:    "deep work matters",
		Problems: []domain.Problem{
			{Category: domain.ProblemInsufficientEvidence, Span: "23 minutes", Issue: "figure lacks a source"},
		},
	}
	if err := repo.UpsertCritique(ctx, first); err != nil {
		t.Fatalf("UpsertCritique: %v", err)
	}

	second := &domain.Critique{SessionID: "sess-1", Thesis: "revised thesis"}
	if err := repo.UpsertCritique(ctx, second); err != nil {
		t.Fatalf("UpsertCritique overwrite: %v", err)
	}

	got, err := repo.GetCritique(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetCritique: %v", err)
	}
	if got.Thesis != "revised thesis" {
		t.Errorf("Expected overwritten thesis, got %q", got.Thesis)
	}
	if len(got.Problems) != 0 {
		t.Errorf("Expected overwritten problems, got %d", len(got.Problems))
	}
}

func questionBatch(sessionID string) []*domain.Question {
	purposes := domain.AllPurposes()
	qs := make([]*domain.Question, len(purposes))
	for i, p := range purposes {
		qs[i] = &domain.Question{
			ID:        sessionID + "-q" + string(rune('1'+i)),
			SessionID: sessionID,
			Text:      "what exactly do you mean?",
			Purpose:   p,
			Ordinal:   i + 1,
			CreatedAt: time.Now(),
		}
	}
	return qs
}

func TestQuestionBatchIsIdempotent(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	newTestSession(t, repo, "sess-1")

	batch := questionBatch("sess-1")
	// Insert out of ordinal order; reads must still come back ordered.
	batch[0], batch[4] = batch[4], batch[0]

	inserted, err := repo.CreateQuestionBatch(ctx, "sess-1", batch)
	if err != nil {
		t.Fatalf("CreateQuestionBatch: %v", err)
	}
	if !inserted {
		t.Fatal("Expected first batch to insert")
	}

	inserted, err = repo.CreateQuestionBatch(ctx, "sess-1", questionBatch("sess-1"))
	if err != nil {
		t.Fatalf("second CreateQuestionBatch: %v", err)
	}
	if inserted {
		t.Error("Expected second batch to be a no-op")
	}

	questions, err := repo.ListQuestions(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("Expected 5 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.Ordinal != i+1 {
			t.Errorf("Question %d has ordinal %d, want %d", i, q.Ordinal, i+1)
		}
	}
}

func TestResponsesLatestWins(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	newTestSession(t, repo, "sess-1")

	if _, err := repo.CreateQuestionBatch(ctx, "sess-1", questionBatch("sess-1")); err != nil {
		t.Fatalf("CreateQuestionBatch: %v", err)
	}
	questions, err := repo.ListQuestions(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}

	// A response to a question that does not exist is rejected.
	err = repo.CreateResponse(ctx, &domain.Response{
		ID: "r0", QuestionID: "missing", Text: "hello", CreatedAt: time.Now(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing question, got %v", err)
	}

	base := time.Now()
	first := &domain.Response{
		ID: "r1", QuestionID: questions[0].ID, Text: "first attempt", CreatedAt: base,
	}
	revised := &domain.Response{
		ID: "r2", QuestionID: questions[0].ID, Text: "revised answer", CreatedAt: base.Add(2 * time.Second),
	}
	skipped := &domain.Response{
		ID: "r3", QuestionID: questions[1].ID, Text: domain.SkippedResponse,
		Skipped: true, CreatedAt: base,
	}
	for _, r := range []*domain.Response{first, revised, skipped} {
		if err := repo.CreateResponse(ctx, r); err != nil {
			t.Fatalf("CreateResponse %s: %v", r.ID, err)
		}
	}

	latest, err := repo.LatestResponses(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LatestResponses: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("Expected 2 answered questions, got %d", len(latest))
	}
	if got := latest[questions[0].ID]; got == nil || got.Text != "revised answer" {
		t.Errorf("Expected latest response to win, got %+v", got)
	}
	if got := latest[questions[1].ID]; got == nil || !got.Skipped {
		t.Errorf("Expected skip to be recorded, got %+v", got)
	}
}

func TestDraftVersionGuard(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	newTestSession(t, repo, "sess-1")

	now := time.Now()
	draft := &domain.Draft{
		ID: "draft-1", SessionID: "sess-1", Platform: domain.PlatformXiaohongshu,
		Title: "untitled", Content: "v1 content", CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateDraft(ctx, draft); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	updated, err := repo.UpdateDraftContent(ctx, "draft-1", "untitled", "v2 content", 1)
	if err != nil {
		t.Fatalf("UpdateDraftContent: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}
	if updated.Content != "v2 content" {
		t.Errorf("Expected new content, got %q", updated.Content)
	}

	// A second write against the consumed baseline is stale: rejected,
	// flagged, and the current row returned for reconciliation.
	current, err := repo.UpdateDraftContent(ctx, "draft-1", "untitled", "lost update", 1)
	if !errors.Is(err, ErrStaleWrite) {
		t.Fatalf("Expected ErrStaleWrite, got %v", err)
	}
	if current == nil || current.Version != 2 || current.Content != "v2 content" {
		t.Errorf("Stale write should return current draft, got %+v", current)
	}

	if _, err := repo.UpdateDraftContent(ctx, "missing", "t", "c", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing draft, got %v", err)
	}
}

func TestDraftUpdatedAtNeverMovesBackward(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	newTestSession(t, repo, "sess-1")

	// Seed a draft whose updated_at sits ahead of the wall clock, as
	// after a clock step. Later writes must not pull it backward.
	future := time.Now().Add(time.Hour)
	draft := &domain.Draft{
		ID: "draft-1", SessionID: "sess-1", Platform: domain.PlatformXiaohongshu,
		Title: "untitled", Content: "v1", CreatedAt: time.Now(), UpdatedAt: future,
	}
	if err := repo.CreateDraft(ctx, draft); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	updated, err := repo.UpdateDraftContent(ctx, "draft-1", "untitled", "v2", 1)
	if err != nil {
		t.Fatalf("UpdateDraftContent: %v", err)
	}
	if updated.UpdatedAt.Before(future.Truncate(time.Second)) {
		t.Errorf("updated_at moved backward: %v < %v", updated.UpdatedAt, future)
	}
}
