package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aura-labs/aura/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	draftMu sync.Mutex // serializes draft writes so version checks stay atomic
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'idle',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at);

	CREATE TABLE IF NOT EXISTS critiques (
		session_id TEXT PRIMARY KEY REFERENCES sessions(id),
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		question TEXT NOT NULL,
		purpose TEXT NOT NULL,
		purpose_detail TEXT NOT NULL,
		why_now TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(session_id, ordinal)
	);
	CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id, ordinal);

	CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL REFERENCES questions(id),
		response TEXT NOT NULL,
		skipped INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_question ON responses(question_id, created_at);

	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		platform TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_drafts_session ON drafts(session_id, updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateSession persists a new learning session.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *domain.Session) error {
	tags, err := json.Marshal(sess.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := `
	INSERT INTO sessions (id, user_id, title, type, content, tags, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		sess.ID, sess.UserID, sess.Title, string(sess.Type), sess.Content,
		string(tags), string(sess.Status), sess.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var sess domain.Session
	var tags string
	var createdAt int64

	err := row.Scan(&sess.ID, &sess.UserID, &sess.Title, (*string)(&sess.Type),
		&sess.Content, &tags, (*string)(&sess.Status), &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &sess.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	return &sess, nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, title, type, content, tags, status, created_at
		FROM sessions WHERE id = ?`

	sess, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return sess, nil
}

// ListSessions retrieves all sessions for a user, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	query := `
		SELECT id, user_id, title, type, content, tags, status, created_at
		FROM sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer closeRows(rows, "sessions")

	var sessions []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// AdvanceSessionStatus moves a session's status forward; the rank guard
// in SQL keeps the transition monotonic no matter the caller's ordering.
func (s *SQLiteStore) AdvanceSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid session status %q", status)
	}

	query := `
	UPDATE sessions SET status = ?
	WHERE id = ? AND (
		CASE status
			WHEN 'idle' THEN 0 WHEN 'analyzing' THEN 1 WHEN 'questioning' THEN 2
			WHEN 'drafting' THEN 3 ELSE 4
		END
	) < (
		CASE ?
			WHEN 'idle' THEN 0 WHEN 'analyzing' THEN 1 WHEN 'questioning' THEN 2
			WHEN 'drafting' THEN 3 ELSE 4
		END
	)`

	result, err := s.db.ExecContext(ctx, query, string(status), id, string(status))
	if err != nil {
		return fmt.Errorf("advance session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the session is missing or the status was already at or
		// past the target. The latter is a legitimate no-op.
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("check session exists: %w", err)
		}
	}
	return nil
}

// UpsertCritique stores the critique for a session, overwriting any
// existing one.
func (s *SQLiteStore) UpsertCritique(ctx context.Context, c *domain.Critique) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal critique: %w", err)
	}

	query := `
	INSERT INTO critiques (session_id, payload, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		payload = excluded.payload,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query, c.SessionID, string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert critique: %w", err)
	}
	return nil
}

// GetCritique retrieves the critique for a session.
func (s *SQLiteStore) GetCritique(ctx context.Context, sessionID string) (*domain.Critique, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM critiques WHERE session_id = ?`, sessionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("critique for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan critique row: %w", err)
	}

	var c domain.Critique
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("unmarshal critique: %w", err)
	}
	c.SessionID = sessionID
	return &c, nil
}

// CreateQuestionBatch persists a question batch for a session. The
// existence check and the inserts share one transaction so concurrent
// regeneration cannot produce a double batch.
func (s *SQLiteStore) CreateQuestionBatch(ctx context.Context, sessionID string, qs []*domain.Question) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin question batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE session_id = ?`, sessionID).Scan(&count); err != nil {
		return false, fmt.Errorf("count existing questions: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	query := `
	INSERT INTO questions (id, session_id, question, purpose, purpose_detail, why_now, ordinal, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	for _, q := range qs {
		if _, err := tx.ExecContext(ctx, query,
			q.ID, sessionID, q.Text, string(q.Purpose), q.PurposeDetail,
			q.WhyNow, q.Ordinal, q.CreatedAt.Unix(),
		); err != nil {
			return false, fmt.Errorf("insert question %d: %w", q.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit question batch: %w", err)
	}
	return true, nil
}

func scanQuestion(row interface{ Scan(...any) error }) (*domain.Question, error) {
	var q domain.Question
	var createdAt int64
	err := row.Scan(&q.ID, &q.SessionID, &q.Text, (*string)(&q.Purpose),
		&q.PurposeDetail, &q.WhyNow, &q.Ordinal, &createdAt)
	if err != nil {
		return nil, err
	}
	q.CreatedAt = time.Unix(createdAt, 0)
	return &q, nil
}

// ListQuestions retrieves a session's questions in ordinal order.
// Ordinal is the sole sort key: insertion timestamps tie within a batch
// and must not reorder presentation.
func (s *SQLiteStore) ListQuestions(ctx context.Context, sessionID string) ([]*domain.Question, error) {
	query := `
		SELECT id, session_id, question, purpose, purpose_detail, why_now, ordinal, created_at
		FROM questions WHERE session_id = ? ORDER BY ordinal ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer closeRows(rows, "questions")

	var questions []*domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// GetQuestion retrieves a question by ID.
func (s *SQLiteStore) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	query := `
		SELECT id, session_id, question, purpose, purpose_detail, why_now, ordinal, created_at
		FROM questions WHERE id = ?`

	q, err := scanQuestion(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan question row: %w", err)
	}
	return q, nil
}

// CreateResponse persists an answer or skip for a question.
func (s *SQLiteStore) CreateResponse(ctx context.Context, r *domain.Response) error {
	if _, err := s.GetQuestion(ctx, r.QuestionID); err != nil {
		return err
	}

	query := `INSERT INTO responses (id, question_id, response, skipped, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.QuestionID, r.Text, r.Skipped, r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// LatestResponses retrieves the most recent response per answered
// question for a session, keyed by question ID.
func (s *SQLiteStore) LatestResponses(ctx context.Context, sessionID string) (map[string]*domain.Response, error) {
	query := `
		SELECT r.id, r.question_id, r.response, r.skipped, r.created_at
		FROM responses r
		JOIN questions q ON q.id = r.question_id
		WHERE q.session_id = ?
		ORDER BY r.created_at ASC, r.id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer closeRows(rows, "responses")

	// Later rows overwrite earlier ones, so the map holds the latest
	// response for each question.
	latest := make(map[string]*domain.Response)
	for rows.Next() {
		var r domain.Response
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.QuestionID, &r.Text, &r.Skipped, &createdAt); err != nil {
			return nil, fmt.Errorf("scan response row: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		latest[r.QuestionID] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return latest, nil
}

// CreateDraft persists a new draft at version 1.
func (s *SQLiteStore) CreateDraft(ctx context.Context, d *domain.Draft) error {
	if d.Version == 0 {
		d.Version = 1
	}
	query := `
	INSERT INTO drafts (id, session_id, platform, title, content, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.SessionID, string(d.Platform), d.Title, d.Content,
		d.Version, d.CreatedAt.Unix(), d.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

func scanDraft(row interface{ Scan(...any) error }) (*domain.Draft, error) {
	var d domain.Draft
	var createdAt, updatedAt int64
	err := row.Scan(&d.ID, &d.SessionID, (*string)(&d.Platform), &d.Title,
		&d.Content, &d.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	d.CreatedAt = time.Unix(createdAt, 0)
	d.UpdatedAt = time.Unix(updatedAt, 0)
	return &d, nil
}

// GetDraft retrieves a draft by ID.
func (s *SQLiteStore) GetDraft(ctx context.Context, id string) (*domain.Draft, error) {
	query := `
		SELECT id, session_id, platform, title, content, version, created_at, updated_at
		FROM drafts WHERE id = ?`

	d, err := scanDraft(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan draft row: %w", err)
	}
	return d, nil
}

// ListDrafts retrieves a session's drafts, most recently updated first.
func (s *SQLiteStore) ListDrafts(ctx context.Context, sessionID string) ([]*domain.Draft, error) {
	query := `
		SELECT id, session_id, platform, title, content, version, created_at, updated_at
		FROM drafts WHERE session_id = ? ORDER BY updated_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer closeRows(rows, "drafts")

	var drafts []*domain.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft row: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}
	return drafts, nil
}

// UpdateDraftContent writes new title/content for a draft. The version
// guard rejects writes from a stale baseline; MAX keeps updated_at from
// ever moving backward even if the wall clock does.
func (s *SQLiteStore) UpdateDraftContent(ctx context.Context, id, title, content string, baseVersion int) (*domain.Draft, error) {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()

	query := `
	UPDATE drafts SET
		title = ?,
		content = ?,
		version = version + 1,
		updated_at = MAX(updated_at, ?)
	WHERE id = ? AND version = ?`

	result, err := s.db.ExecContext(ctx, query, title, content, time.Now().Unix(), id, baseVersion)
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		current, getErr := s.GetDraft(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		slog.Warn("rejected stale draft write",
			"draft_id", id, "base_version", baseVersion, "stored_version", current.Version)
		return current, fmt.Errorf("draft %s at version %d, write based on %d: %w",
			id, current.Version, baseVersion, ErrStaleWrite)
	}

	return s.GetDraft(ctx, id)
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "query", what, "error", err)
	}
}
