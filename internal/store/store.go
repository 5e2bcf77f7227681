// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/aura-labs/aura/internal/domain"
)

// ErrNotFound is returned when a referenced session, question, or draft
// does not exist. Terminal for the caller; surfaced immediately.
var ErrNotFound = errors.New("not found")

// ErrStaleWrite is returned when a draft write carries a version
// baseline older than the stored row. The write is flagged rather than
// silently discarded so the editing session can refetch and reapply.
var ErrStaleWrite = errors.New("stale draft write")

// Repository defines the interface for persisting pipeline entities.
type Repository interface {
	// CreateSession persists a new learning session.
	CreateSession(ctx context.Context, s *domain.Session) error

	// GetSession retrieves a session by ID. Returns ErrNotFound if absent.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions retrieves all sessions for a user, newest first.
	ListSessions(ctx context.Context, userID string) ([]*domain.Session, error)

	// AdvanceSessionStatus moves a session's status forward. Writes that
	// would move the status backward are no-ops.
	AdvanceSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error

	// UpsertCritique stores the critique for a session, overwriting any
	// existing one. A session has at most one critique.
	UpsertCritique(ctx context.Context, c *domain.Critique) error

	// GetCritique retrieves the critique for a session. Returns
	// ErrNotFound if the session has not been reviewed.
	GetCritique(ctx context.Context, sessionID string) (*domain.Critique, error)

	// CreateQuestionBatch persists a question batch for a session.
	// Idempotent: if questions already exist for the session the batch is
	// not written and inserted is false.
	CreateQuestionBatch(ctx context.Context, sessionID string, qs []*domain.Question) (inserted bool, err error)

	// ListQuestions retrieves a session's questions in ordinal order.
	ListQuestions(ctx context.Context, sessionID string) ([]*domain.Question, error)

	// GetQuestion retrieves a question by ID. Returns ErrNotFound if absent.
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)

	// CreateResponse persists an answer or skip for a question. Returns
	// ErrNotFound if the question does not exist.
	CreateResponse(ctx context.Context, r *domain.Response) error

	// LatestResponses retrieves the most recent response per answered
	// question for a session, keyed by question ID.
	LatestResponses(ctx context.Context, sessionID string) (map[string]*domain.Response, error)

	// CreateDraft persists a new draft at version 1.
	CreateDraft(ctx context.Context, d *domain.Draft) error

	// GetDraft retrieves a draft by ID. Returns ErrNotFound if absent.
	GetDraft(ctx context.Context, id string) (*domain.Draft, error)

	// ListDrafts retrieves a session's drafts, most recently updated first.
	ListDrafts(ctx context.Context, sessionID string) ([]*domain.Draft, error)

	// UpdateDraftContent writes new title/content for a draft, bumping
	// version by one. The write applies only if the stored version still
	// equals baseVersion; otherwise ErrStaleWrite. The stored updated_at
	// never moves backward.
	UpdateDraftContent(ctx context.Context, id, title, content string, baseVersion int) (*domain.Draft, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
