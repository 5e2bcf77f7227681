package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aura-labs/aura/internal/domain"
)

// Reviewer critiques source content: thesis, argument skeleton in
// source order, categorized problems, minimal-fix suggestions.
type Reviewer struct {
	Gen     Generator
	Timeout time.Duration
}

// Run produces a critique for the given session content.
func (s *Reviewer) Run(ctx context.Context, sessionID string, req ReviewRequest) (*domain.Critique, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, stageErr(StageReviewer, ErrStageInputInvalid, "content is empty")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	critique, err := s.Gen.Review(ctx, req)
	if err != nil {
		return nil, stageErr(StageReviewer, ErrStageGenerationFailed, "%v", err)
	}
	if err := validateCritique(critique); err != nil {
		return nil, stageErr(StageReviewer, ErrStageGenerationFailed, "schema: %v", err)
	}
	critique.SessionID = sessionID
	return critique, nil
}

func validateCritique(c *domain.Critique) error {
	if c == nil || strings.TrimSpace(c.Thesis) == "" {
		return errMissing("thesis")
	}
	if len(c.Skeleton) == 0 {
		return errMissing("argument skeleton")
	}
	for _, p := range c.Problems {
		if !p.Category.IsValid() {
			return errInvalid("problem category", string(p.Category))
		}
		if strings.TrimSpace(p.Span) == "" {
			return errMissing("problem span")
		}
	}
	return nil
}

// CoachStage derives exactly five Socratic questions from a critique,
// one per pedagogical purpose.
type CoachStage struct {
	Gen     Generator
	Timeout time.Duration
}

// QuestionCount is five: one question per pedagogical purpose.
const QuestionCount = 5

// Run produces the question batch for a reviewed session.
func (s *CoachStage) Run(ctx context.Context, req CoachRequest) ([]QuestionDraft, error) {
	if req.Critique.Thesis == "" || len(req.Critique.Skeleton) == 0 {
		return nil, stageErr(StageCoach, ErrStageInputInvalid, "critique missing")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	drafts, err := s.Gen.Coach(ctx, req)
	if err != nil {
		return nil, stageErr(StageCoach, ErrStageGenerationFailed, "%v", err)
	}
	if err := validateQuestionBatch(req.Critique, drafts); err != nil {
		return nil, stageErr(StageCoach, ErrStageGenerationFailed, "schema: %v", err)
	}
	return drafts, nil
}

func validateQuestionBatch(critique domain.Critique, drafts []QuestionDraft) error {
	if len(drafts) != QuestionCount {
		return errInvalid("question count", len(drafts))
	}
	seen := make(map[domain.PedagogicalPurpose]bool, QuestionCount)
	for _, d := range drafts {
		if !d.Purpose.IsValid() {
			return errInvalid("purpose", string(d.Purpose))
		}
		if seen[d.Purpose] {
			return errInvalid("duplicate purpose", string(d.Purpose))
		}
		seen[d.Purpose] = true
		if strings.TrimSpace(d.Text) == "" {
			return errMissing("question text")
		}
		// No generic questions: each must anchor to a concrete span or
		// figure named by the critique.
		if !referencesCritique(critique, d.Text) {
			return errInvalid("content-independent question", d.Text)
		}
	}
	return nil
}

// referencesCritique reports whether the question text quotes a problem
// span, a skeleton claim, or the thesis.
func referencesCritique(c domain.Critique, text string) bool {
	for _, p := range c.Problems {
		if p.Span != "" && strings.Contains(text, p.Span) {
			return true
		}
	}
	for _, comp := range c.Skeleton {
		if comp.Claim != "" && strings.Contains(text, comp.Claim) {
			return true
		}
	}
	return c.Thesis != "" && strings.Contains(text, c.Thesis)
}

// Strategist selects and parameterizes a platform-specific rewrite
// template. It writes no prose.
type Strategist struct {
	Gen     Generator
	Timeout time.Duration
}

// Run produces a strategy plan for the given platform. Unknown platform
// identifiers fall back to the default rather than erroring, to keep
// the pipeline non-blocking; the fallback is logged and flagged on the
// returned plan so callers can detect mis-routing.
func (s *Strategist) Run(ctx context.Context, platform domain.Platform, critique domain.Critique, goal, tone string) (*domain.StrategyPlan, error) {
	if critique.Thesis == "" || len(critique.Skeleton) == 0 {
		return nil, stageErr(StageStrategist, ErrStageInputInvalid, "critique missing")
	}

	fallback := false
	if !platform.IsValid() {
		slog.Warn("unknown platform, falling back to default",
			"requested", string(platform), "default", string(domain.DefaultPlatform))
		platform = domain.DefaultPlatform
		fallback = true
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	plan, err := s.Gen.Strategize(ctx, StrategizeRequest{
		Platform: platform,
		Critique: critique,
		Goal:     goal,
		Tone:     tone,
	})
	if err != nil {
		return nil, stageErr(StageStrategist, ErrStageGenerationFailed, "%v", err)
	}
	if plan == nil || plan.ObjectiveFunction == "" || len(plan.Directives) == 0 {
		return nil, stageErr(StageStrategist, ErrStageGenerationFailed, "schema: empty plan")
	}
	plan.Platform = platform
	plan.Constraints = domain.ConstraintsFor(platform)
	plan.FallbackApplied = fallback
	return plan, nil
}

// EditorStage synthesizes source, critique, plan, and user responses
// into a final draft with a change-audit trail.
type EditorStage struct {
	Gen     Generator
	Timeout time.Duration
}

// Run produces the edited draft. Output failing the audit or
// no-fabrication checks is a generation failure, not a partial result.
func (s *EditorStage) Run(ctx context.Context, req EditRequest) (*domain.EditedDraft, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, stageErr(StageEditor, ErrStageInputInvalid, "source content missing")
	}
	if req.Critique.Thesis == "" {
		return nil, stageErr(StageEditor, ErrStageInputInvalid, "critique missing")
	}
	if req.Plan.ObjectiveFunction == "" || len(req.Plan.Directives) == 0 {
		return nil, stageErr(StageEditor, ErrStageInputInvalid, "strategy plan missing")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	edited, err := s.Gen.Edit(ctx, req)
	if err != nil {
		return nil, stageErr(StageEditor, ErrStageGenerationFailed, "%v", err)
	}
	if err := validateEditedDraft(req, edited); err != nil {
		return nil, stageErr(StageEditor, ErrStageGenerationFailed, "schema: %v", err)
	}
	return edited, nil
}

func validateEditedDraft(req EditRequest, edited *domain.EditedDraft) error {
	if edited == nil || strings.TrimSpace(edited.Content) == "" {
		return errMissing("draft content")
	}
	// Any substantive change demands an audit trail.
	if edited.Content != req.Content && len(edited.Audit) == 0 {
		return errMissing("change audit entries")
	}
	// The no-fabrication rule: figures the Reviewer flagged as lacking
	// evidence must not be restated as fact.
	for _, p := range req.Critique.ProblemsOf(domain.ProblemInsufficientEvidence) {
		if containsFigure(p.Span) && strings.Contains(edited.Content, p.Span) {
			return errInvalid("unverified figure restated as fact", p.Span)
		}
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 60 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func errMissing(what string) error {
	return &fieldError{field: what, missing: true}
}

func errInvalid(what string, got any) error {
	return &fieldError{field: what, got: got}
}

type fieldError struct {
	field   string
	missing bool
	got     any
}

func (e *fieldError) Error() string {
	if e.missing {
		return "missing " + e.field
	}
	return "invalid " + e.field + ": " + asString(e.got)
}
