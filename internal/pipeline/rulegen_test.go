package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/aura-labs/aura/internal/domain"
)

// sourceContent exercises every reviewer rule: an unsourced figure, a
// universal claim, a quoted term, and a compressed structure.
const sourceContent = `Our team's efficiency improved 50% after adopting the new workflow. ` +
	`Everyone can benefit from "deep work" blocks. ` +
	`Interruptions cost focus. Protecting mornings fixed it.`

func TestReviewFlagsUnsourcedFigure(t *testing.T) {
	gen := NewRuleGenerator()
	critique, err := gen.Review(context.Background(), ReviewRequest{Content: sourceContent})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}

	evidence := critique.ProblemsOf(domain.ProblemInsufficientEvidence)
	if len(evidence) != 1 {
		t.Fatalf("Expected 1 insufficient-evidence problem, got %d: %+v", len(evidence), evidence)
	}
	if evidence[0].Span != "50%" {
		t.Errorf("Expected span %q, got %q", "50%", evidence[0].Span)
	}

	if got := critique.ProblemsOf(domain.ProblemHiddenAssumption); len(got) == 0 {
		t.Error("Expected a hidden-assumption problem for the universal claim")
	}
	if got := critique.ProblemsOf(domain.ProblemConceptualAmbiguity); len(got) != 1 || got[0].Span != "deep work" {
		t.Errorf("Expected quoted term flagged as ambiguous, got %+v", got)
	}
	if len(critique.Skeleton) == 0 {
		t.Fatal("Expected a non-empty argument skeleton")
	}
	if critique.Thesis == "" {
		t.Error("Expected a thesis")
	}
}

func TestReviewAcceptsSourcedFigure(t *testing.T) {
	gen := NewRuleGenerator()
	content := `According to our Q3 internal benchmark, throughput improved 50% quarter over quarter. ` +
		`The method was simple. We measured twice. It held.`
	critique, err := gen.Review(context.Background(), ReviewRequest{Content: content})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if got := critique.ProblemsOf(domain.ProblemInsufficientEvidence); len(got) != 0 {
		t.Errorf("Sourced figure should not be flagged, got %+v", got)
	}
}

func TestCoachCoversAllPurposesAndAnchorsCritique(t *testing.T) {
	gen := NewRuleGenerator()
	critique, err := gen.Review(context.Background(), ReviewRequest{Content: sourceContent})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}

	drafts, err := gen.Coach(context.Background(), CoachRequest{Content: sourceContent, Critique: *critique})
	if err != nil {
		t.Fatalf("Coach: %v", err)
	}
	if len(drafts) != QuestionCount {
		t.Fatalf("Expected %d questions, got %d", QuestionCount, len(drafts))
	}

	seen := map[domain.PedagogicalPurpose]bool{}
	for _, d := range drafts {
		if seen[d.Purpose] {
			t.Errorf("Duplicate purpose %s", d.Purpose)
		}
		seen[d.Purpose] = true
		if !referencesCritique(*critique, d.Text) {
			t.Errorf("Question is content-independent: %q", d.Text)
		}
	}
	for _, p := range domain.AllPurposes() {
		if !seen[p] {
			t.Errorf("Missing purpose %s", p)
		}
	}
}

func TestCoachTransferQuestionEscalatesAssumption(t *testing.T) {
	gen := NewRuleGenerator()
	critique, err := gen.Review(context.Background(), ReviewRequest{Content: sourceContent})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	assumptions := critique.ProblemsOf(domain.ProblemHiddenAssumption)
	if len(assumptions) == 0 {
		t.Fatal("Fixture must produce a hidden assumption")
	}

	drafts, err := gen.Coach(context.Background(), CoachRequest{Content: sourceContent, Critique: *critique})
	if err != nil {
		t.Fatalf("Coach: %v", err)
	}
	for _, d := range drafts {
		if d.Purpose != domain.PurposeTransfer {
			continue
		}
		if !strings.Contains(d.Text, assumptions[0].Span) {
			t.Errorf("Transfer question should anchor the assumption span %q, got %q",
				assumptions[0].Span, d.Text)
		}
		if !strings.Contains(d.Text, "escalates") {
			t.Errorf("Transfer question should pose an escalated scenario, got %q", d.Text)
		}
		return
	}
	t.Fatal("No transfer question produced")
}

func TestEditReplacesUnverifiedFigureWithPlaceholder(t *testing.T) {
	gen := NewRuleGenerator()
	ctx := context.Background()
	critique, err := gen.Review(ctx, ReviewRequest{Content: sourceContent})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	plan, err := gen.Strategize(ctx, StrategizeRequest{Platform: domain.PlatformXiaohongshu, Critique: *critique})
	if err != nil {
		t.Fatalf("Strategize: %v", err)
	}

	edited, err := gen.Edit(ctx, EditRequest{
		Content:  sourceContent,
		Critique: *critique,
		Plan:     *plan,
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if strings.Contains(edited.Content, "50%") {
		t.Errorf("Unverified figure restated as fact:\n%s", edited.Content)
	}
	if !strings.Contains(edited.Content, domain.FigurePlaceholder) {
		t.Errorf("Expected figure placeholder in draft:\n%s", edited.Content)
	}

	var placeholderAudited bool
	for _, entry := range edited.Audit {
		if entry.Source == domain.AuditSourceFabrication && entry.SourceRef == "50%" {
			placeholderAudited = true
		}
	}
	if !placeholderAudited {
		t.Error("Expected an audit entry for the placeholder substitution")
	}
}

func TestEditFoldsAnswersInOrdinalOrder(t *testing.T) {
	gen := NewRuleGenerator()
	ctx := context.Background()
	critique, err := gen.Review(ctx, ReviewRequest{Content: sourceContent})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	plan, err := gen.Strategize(ctx, StrategizeRequest{Platform: domain.PlatformX, Critique: *critique})
	if err != nil {
		t.Fatalf("Strategize: %v", err)
	}

	questions := []*domain.Question{
		{ID: "q1", Ordinal: 1, Purpose: domain.PurposePrecision},
		{ID: "q2", Ordinal: 2, Purpose: domain.PurposeNovice},
	}
	responses := map[string]*domain.Response{
		"q1": {ID: "r1", QuestionID: "q1", Text: domain.SkippedResponse, Skipped: true},
		"q2": {ID: "r2", QuestionID: "q2", Text: "We measured task completion time over six weeks."},
	}

	edited, err := gen.Edit(ctx, EditRequest{
		Content:   sourceContent,
		Critique:  *critique,
		Plan:      *plan,
		Questions: questions,
		Responses: responses,
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if !strings.Contains(edited.Content, "task completion time") {
		t.Errorf("Expected the substantive answer woven in, got:\n%s", edited.Content)
	}
	var answerAudited bool
	for _, entry := range edited.Audit {
		if entry.Source == domain.AuditSourceResponse {
			answerAudited = true
		}
	}
	if !answerAudited {
		t.Error("Expected an audit entry for the folded answer")
	}
}

func TestStrategizePlanShapesPerPlatform(t *testing.T) {
	gen := NewRuleGenerator()
	ctx := context.Background()
	critique, err := gen.Review(ctx, ReviewRequest{Content: sourceContent})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}

	for _, platform := range []domain.Platform{domain.PlatformXiaohongshu, domain.PlatformX, domain.PlatformWechat} {
		plan, err := gen.Strategize(ctx, StrategizeRequest{Platform: platform, Critique: *critique})
		if err != nil {
			t.Fatalf("Strategize %s: %v", platform, err)
		}
		if plan.ObjectiveFunction == "" {
			t.Errorf("%s: empty objective function", platform)
		}
		if len(plan.Directives) == 0 {
			t.Errorf("%s: no directives", platform)
		}
		// Evidence problems surface as directives so the editor has a
		// named source for each fix.
		var evidenceDirective bool
		for _, d := range plan.Directives {
			if d.Concern == domain.ConcernEvidence && strings.Contains(d.Text, "50%") {
				evidenceDirective = true
			}
		}
		if !evidenceDirective {
			t.Errorf("%s: expected an evidence directive naming the flagged figure", platform)
		}
	}
}
