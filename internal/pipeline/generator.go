// Package pipeline implements the four-stage content pipeline: Reviewer,
// Coach, Strategist, and Editor, sequenced by the Orchestrator.
package pipeline

import (
	"context"

	"github.com/aura-labs/aura/internal/domain"
)

// ReviewRequest carries the Reviewer's input: raw session content plus
// optional audience and goal hints.
type ReviewRequest struct {
	Content  string `json:"content"`
	Audience string `json:"audience,omitempty"`
	Goal     string `json:"goal,omitempty"`
}

// CoachRequest carries the Coach's input: the critique the questions
// are derived from.
type CoachRequest struct {
	Content  string          `json:"content"`
	Critique domain.Critique `json:"critique"`
}

// QuestionDraft is a generated question before it is assigned an ID and
// persisted.
type QuestionDraft struct {
	Text          string                    `json:"question"`
	Purpose       domain.PedagogicalPurpose `json:"purpose"`
	PurposeDetail string                    `json:"purpose_detail"`
	WhyNow        string                    `json:"why_now"`
}

// StrategizeRequest carries the Strategist's input. Platform has
// already been resolved against the closed enumeration by the stage.
type StrategizeRequest struct {
	Platform domain.Platform `json:"platform"`
	Critique domain.Critique `json:"critique"`
	Goal     string          `json:"goal,omitempty"`
	Tone     string          `json:"tone,omitempty"`
}

// EditRequest carries the Editor's input: everything upstream plus the
// user's answers keyed by question ID.
type EditRequest struct {
	Content   string                      `json:"content"`
	Title     string                      `json:"title"`
	Critique  domain.Critique             `json:"critique"`
	Plan      domain.StrategyPlan         `json:"plan"`
	Questions []*domain.Question          `json:"questions,omitempty"`
	Responses map[string]*domain.Response `json:"responses,omitempty"`
}

// Generator is the injected generation capability behind every stage.
// Implementations must be pure with respect to the request: identical
// input yields identical output, so the same orchestrator runs against
// the rule-based double in tests and a remote backend in production
// without change.
type Generator interface {
	Review(ctx context.Context, req ReviewRequest) (*domain.Critique, error)
	Coach(ctx context.Context, req CoachRequest) ([]QuestionDraft, error)
	Strategize(ctx context.Context, req StrategizeRequest) (*domain.StrategyPlan, error)
	Edit(ctx context.Context, req EditRequest) (*domain.EditedDraft, error)
}
