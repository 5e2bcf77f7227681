package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aura-labs/aura/internal/domain"
	"github.com/aura-labs/aura/internal/store"
	"github.com/google/uuid"
)

// Notifier receives stage transition events. The progress hub
// implements it; tests use the no-op.
type Notifier interface {
	StageStarted(sessionID, stage string)
	StageFinished(sessionID, stage string, err error)
}

type nopNotifier struct{}

func (nopNotifier) StageStarted(string, string)         {}
func (nopNotifier) StageFinished(string, string, error) {}

// Orchestrator sequences the four stages, wires each stage's output
// into the next's input, and is the only component aware of inter-stage
// data dependencies. Stage failures halt progression past that stage
// without rolling back persisted upstream outputs, so retrying a failed
// stage re-reads its inputs from the store.
type Orchestrator struct {
	repo     store.Repository
	notifier Notifier
	log      *StageLog

	reviewer   *Reviewer
	coach      *CoachStage
	strategist *Strategist
	editor     *EditorStage
}

// NewOrchestrator creates an orchestrator over the given store and
// generation backend. notifier and stageLog may be nil.
func NewOrchestrator(repo store.Repository, gen Generator, timeout time.Duration, notifier Notifier, stageLog *StageLog) *Orchestrator {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Orchestrator{
		repo:       repo,
		notifier:   notifier,
		log:        stageLog,
		reviewer:   &Reviewer{Gen: gen, Timeout: timeout},
		coach:      &CoachStage{Gen: gen, Timeout: timeout},
		strategist: &Strategist{Gen: gen, Timeout: timeout},
		editor:     &EditorStage{Gen: gen, Timeout: timeout},
	}
}

func (o *Orchestrator) observe(sessionID, stage string, fn func() error) error {
	o.notifier.StageStarted(sessionID, stage)
	start := time.Now()
	err := fn()
	o.log.Record(sessionID, stage, time.Since(start), err)
	o.notifier.StageFinished(sessionID, stage, err)
	return err
}

// Analyze runs the Reviewer for a session and persists the critique.
// Regenerating overwrites the previous critique; a session has at most
// one.
func (o *Orchestrator) Analyze(ctx context.Context, sessionID, audience, goal string) (*domain.Critique, error) {
	sess, err := o.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var critique *domain.Critique
	err = o.observe(sessionID, StageReviewer, func() error {
		var runErr error
		critique, runErr = o.reviewer.Run(ctx, sessionID, ReviewRequest{
			Content:  sess.Content,
			Audience: audience,
			Goal:     goal,
		})
		return runErr
	})
	if err != nil {
		return nil, err
	}

	if err := o.repo.UpsertCritique(ctx, critique); err != nil {
		return nil, fmt.Errorf("persist critique: %w", err)
	}
	if err := o.repo.AdvanceSessionStatus(ctx, sessionID, domain.StatusAnalyzing); err != nil {
		return nil, err
	}

	slog.Info("session analyzed", "session_id", sessionID, "problems", len(critique.Problems))
	return critique, nil
}

// GenerateQuestions runs the Coach for a reviewed session. Idempotent:
// if questions already exist the persisted batch is returned unchanged
// and created is false. Invoked without a critique it fails with a
// stage input error before any write happens.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, sessionID string) (questions []*domain.Question, created bool, err error) {
	if existing, listErr := o.repo.ListQuestions(ctx, sessionID); listErr != nil {
		return nil, false, listErr
	} else if len(existing) > 0 {
		return existing, false, nil
	}

	sess, err := o.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	critique, err := o.repo.GetCritique(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, stageErr(StageCoach, ErrStageInputInvalid, "session %s has no critique", sessionID)
		}
		return nil, false, err
	}

	var drafts []QuestionDraft
	err = o.observe(sessionID, StageCoach, func() error {
		var runErr error
		drafts, runErr = o.coach.Run(ctx, CoachRequest{Content: sess.Content, Critique: *critique})
		return runErr
	})
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	batch := make([]*domain.Question, len(drafts))
	for i, d := range drafts {
		batch[i] = &domain.Question{
			ID:            uuid.NewString(),
			SessionID:     sessionID,
			Text:          d.Text,
			Purpose:       d.Purpose,
			PurposeDetail: d.PurposeDetail,
			WhyNow:        d.WhyNow,
			Ordinal:       i + 1,
			CreatedAt:     now,
		}
	}

	inserted, err := o.repo.CreateQuestionBatch(ctx, sessionID, batch)
	if err != nil {
		return nil, false, fmt.Errorf("persist question batch: %w", err)
	}
	if !inserted {
		// Lost a race with a concurrent generation; the persisted batch wins.
		existing, listErr := o.repo.ListQuestions(ctx, sessionID)
		return existing, false, listErr
	}

	if err := o.repo.AdvanceSessionStatus(ctx, sessionID, domain.StatusQuestioning); err != nil {
		return nil, false, err
	}

	slog.Info("questions generated", "session_id", sessionID, "count", len(batch))
	return batch, true, nil
}

// Strategize runs the Strategist for a reviewed session. The plan is
// not persisted; it is a pure function of (platform, critique).
func (o *Orchestrator) Strategize(ctx context.Context, sessionID string, platform domain.Platform, goal, tone string) (*domain.StrategyPlan, error) {
	critique, err := o.repo.GetCritique(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, stageErr(StageStrategist, ErrStageInputInvalid, "session %s has no critique", sessionID)
		}
		return nil, err
	}

	var plan *domain.StrategyPlan
	err = o.observe(sessionID, StageStrategist, func() error {
		var runErr error
		plan, runErr = o.strategist.Run(ctx, platform, *critique, goal, tone)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ComposeDraft runs the Editor and persists the result as a new draft.
// Requires the Reviewer to have run; questions and responses are folded
// in when present but are not a precondition (the user may have skipped
// the coach entirely).
func (o *Orchestrator) ComposeDraft(ctx context.Context, sessionID string, plan *domain.StrategyPlan) (*domain.Draft, []domain.ChangeAuditEntry, error) {
	sess, err := o.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	critique, err := o.repo.GetCritique(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, stageErr(StageEditor, ErrStageInputInvalid, "session %s has no critique", sessionID)
		}
		return nil, nil, err
	}
	if plan == nil {
		return nil, nil, stageErr(StageEditor, ErrStageInputInvalid, "strategy plan missing")
	}

	questions, err := o.repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	responses, err := o.repo.LatestResponses(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	var edited *domain.EditedDraft
	err = o.observe(sessionID, StageEditor, func() error {
		var runErr error
		edited, runErr = o.editor.Run(ctx, EditRequest{
			Content:   sess.Content,
			Title:     sess.Title,
			Critique:  *critique,
			Plan:      *plan,
			Questions: questions,
			Responses: responses,
		})
		return runErr
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	draft := &domain.Draft{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Platform:  plan.Platform,
		Title:     edited.Title,
		Content:   edited.Content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.repo.CreateDraft(ctx, draft); err != nil {
		return nil, nil, fmt.Errorf("persist draft: %w", err)
	}
	if err := o.repo.AdvanceSessionStatus(ctx, sessionID, domain.StatusDrafting); err != nil {
		return nil, nil, err
	}

	slog.Info("draft composed", "session_id", sessionID, "draft_id", draft.ID,
		"platform", string(plan.Platform), "audit_entries", len(edited.Audit))
	return draft, edited.Audit, nil
}

// Complete marks a session complete. Idempotent terminal no-op once a
// draft exists; without one it reports the missing precondition.
func (o *Orchestrator) Complete(ctx context.Context, sessionID string) error {
	drafts, err := o.repo.ListDrafts(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return stageErr(StageEditor, ErrStageInputInvalid, "session %s has no draft", sessionID)
	}
	return o.repo.AdvanceSessionStatus(ctx, sessionID, domain.StatusComplete)
}

// Result bundles the artifacts of a full pipeline run.
type Result struct {
	Critique         *domain.Critique          `json:"critique"`
	Questions        []*domain.Question        `json:"questions"`
	QuestionsCreated bool                      `json:"questions_created"`
	Plan             *domain.StrategyPlan      `json:"plan"`
	Draft            *domain.Draft             `json:"draft"`
	Audit            []domain.ChangeAuditEntry `json:"audit"`
}

// Run executes the whole pipeline for a session. Coach and Strategist
// run concurrently: both depend only on the Reviewer's output. A
// failure in either halts before the Editor but leaves the other
// branch's persisted output intact for retry.
func (o *Orchestrator) Run(ctx context.Context, sessionID string, platform domain.Platform, goal, tone string) (*Result, error) {
	res := &Result{}

	critique, err := o.Analyze(ctx, sessionID, "", goal)
	if err != nil {
		return nil, err
	}
	res.Critique = critique

	var wg sync.WaitGroup
	var coachErr, strategistErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Questions, res.QuestionsCreated, coachErr = o.GenerateQuestions(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		res.Plan, strategistErr = o.Strategize(ctx, sessionID, platform, goal, tone)
	}()
	wg.Wait()

	if coachErr != nil {
		return res, coachErr
	}
	if strategistErr != nil {
		return res, strategistErr
	}

	res.Draft, res.Audit, err = o.ComposeDraft(ctx, sessionID, res.Plan)
	if err != nil {
		return res, err
	}

	if err := o.Complete(ctx, sessionID); err != nil {
		return res, err
	}
	return res, nil
}
