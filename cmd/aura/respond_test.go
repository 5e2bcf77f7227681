package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aura-labs/aura/internal/domain"
	"github.com/aura-labs/aura/internal/store"
)

func seedRespondSession(t *testing.T, dbPath string) (sessionID string, questionIDs []string) {
	t.Helper()

	repo, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	sessionID = "sess-respond"
	err = repo.CreateSession(ctx, &domain.Session{
		ID:        sessionID,
		UserID:    localUserID,
		Title:     "workflow notes",
		Type:      domain.SourceText,
		Content:   "Protecting mornings fixed our focus problem.",
		Status:    domain.StatusQuestioning,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	questions := []*domain.Question{
		{
			ID:        "q-respond-1",
			SessionID: sessionID,
			Text:      "What exactly counts as a protected morning?",
			Purpose:   domain.PurposePrecision,
			Ordinal:   1,
			CreatedAt: time.Now(),
		},
		{
			ID:        "q-respond-2",
			SessionID: sessionID,
			Text:      "How would you explain the focus problem to a new hire?",
			Purpose:   domain.PurposeNovice,
			Ordinal:   2,
			CreatedAt: time.Now(),
		},
	}
	if _, err := repo.CreateQuestionBatch(ctx, sessionID, questions); err != nil {
		t.Fatalf("CreateQuestionBatch: %v", err)
	}

	// The first question was already answered an hour ago on another
	// surface; the CLI must only ask the second.
	err = repo.CreateResponse(ctx, &domain.Response{
		ID:         "r-respond-early",
		QuestionID: "q-respond-1",
		Text:       "blocks before 11am with notifications off",
		CreatedAt:  time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}

	return sessionID, []string{"q-respond-1", "q-respond-2"}
}

func TestRespondStampsAnswersSoLatestWins(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aura.db")
	sessionID, questionIDs := seedRespondSession(t, dbPath)

	before := time.Now().Add(-time.Second)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader("no meetings before lunch, calendar enforced\n"))
	rootCmd.SetArgs([]string{"respond", sessionID, "--db", dbPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v\noutput:\n%s", err, out.String())
	}

	if strings.Contains(out.String(), "What exactly counts as a protected morning?") {
		t.Errorf("Expected already-answered question to be skipped, output:\n%s", out.String())
	}

	repo, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	latest, err := repo.LatestResponses(ctx, sessionID)
	if err != nil {
		t.Fatalf("LatestResponses: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("Expected 2 answered questions, got %d", len(latest))
	}

	answer := latest[questionIDs[1]]
	if answer == nil {
		t.Fatal("Expected a response for the question asked on the terminal")
	}
	if answer.Text != "no meetings before lunch, calendar enforced" {
		t.Errorf("Expected terminal answer text, got %q", answer.Text)
	}
	if answer.CreatedAt.IsZero() {
		t.Error("Expected terminal answer to carry a timestamp, got zero time")
	}
	if answer.CreatedAt.Before(before) {
		t.Errorf("Expected answer timestamp after %v, got %v", before, answer.CreatedAt)
	}

	// An older response written afterwards must not displace it.
	err = repo.CreateResponse(ctx, &domain.Response{
		ID:         "r-respond-stale",
		QuestionID: questionIDs[1],
		Text:       "stale answer",
		CreatedAt:  time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	latest, err = repo.LatestResponses(ctx, sessionID)
	if err != nil {
		t.Fatalf("LatestResponses: %v", err)
	}
	if got := latest[questionIDs[1]].Text; got != "no meetings before lunch, calendar enforced" {
		t.Errorf("Expected the newer terminal answer to win, got %q", got)
	}
}
