package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/aura-labs/aura/internal/domain"
)

// RuleGenerator is a deterministic, fixture-free Generator. It derives
// every output from its input by rule, so identical input always yields
// identical output. It backs the pipeline when no remote generation
// service is configured and serves as the test double for the
// orchestrator.
type RuleGenerator struct{}

// NewRuleGenerator returns the built-in rule-based generator.
func NewRuleGenerator() *RuleGenerator {
	return &RuleGenerator{}
}

var assumptionMarkers = []string{"all ", "every ", "always ", "never ", "everyone ", "anything ", "所有", "任何", "都能", "总是"}

// Review extracts the argument skeleton in source order and flags
// problems from a closed category set.
func (g *RuleGenerator) Review(_ context.Context, req ReviewRequest) (*domain.Critique, error) {
	sentences := splitSentences(req.Content)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("no sentences in content")
	}

	c := &domain.Critique{Thesis: sentences[0]}

	// Argument components follow the claim→reason→evidence→inference
	// chain in source order. Grouping is positional: downstream stages
	// depend on the order, not on perfect role assignment.
	for i := 0; i < len(sentences); i += 4 {
		comp := domain.ArgumentComponent{Claim: sentences[i]}
		if i+1 < len(sentences) {
			comp.Reason = sentences[i+1]
		}
		if i+2 < len(sentences) {
			comp.Evidence = sentences[i+2]
		}
		if i+3 < len(sentences) {
			comp.Inference = sentences[i+3]
		}
		c.Skeleton = append(c.Skeleton, comp)
	}

	for _, sent := range sentences {
		for _, figure := range figurePattern.FindAllString(sent, -1) {
			if sourcedPattern.MatchString(sent) {
				continue
			}
			c.Problems = append(c.Problems, domain.Problem{
				Category: domain.ProblemInsufficientEvidence,
				Span:     figure,
				Issue:    fmt.Sprintf("the figure %q has no measurement method or data source", figure),
			})
		}

		lower := strings.ToLower(sent)
		for _, marker := range assumptionMarkers {
			if strings.Contains(lower, marker) || strings.Contains(sent, marker) {
				c.Problems = append(c.Problems, domain.Problem{
					Category: domain.ProblemHiddenAssumption,
					Span:     truncate(sent, 60),
					Issue:    "universal claim ignores variation across cases",
				})
				break
			}
		}
	}

	for _, term := range quotedTerms(req.Content) {
		c.Problems = append(c.Problems, domain.Problem{
			Category: domain.ProblemConceptualAmbiguity,
			Span:     term,
			Issue:    fmt.Sprintf("%q is used without an operational definition", term),
		})
	}

	if len(splitParagraphs(req.Content)) < 3 {
		c.Problems = append(c.Problems, domain.Problem{
			Category: domain.ProblemStructuralWeakness,
			Span:     truncate(sentences[len(sentences)-1], 60),
			Issue:    "conclusion is compressed into too few paragraphs to land",
		})
	}

	c.Fixes = fixesFor(c.Problems)
	return c, nil
}

func quotedTerms(content string) []string {
	var terms []string
	seen := map[string]bool{}
	for _, open := range []string{`"`, "“", "「"} {
		closeQ := map[string]string{`"`: `"`, "“": "”", "「": "」"}[open]
		rest := content
		for {
			i := strings.Index(rest, open)
			if i < 0 {
				break
			}
			rest = rest[i+len(open):]
			j := strings.Index(rest, closeQ)
			if j < 0 {
				break
			}
			term := strings.TrimSpace(rest[:j])
			rest = rest[j+len(closeQ):]
			if term != "" && len([]rune(term)) <= 40 && !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	return terms
}

func fixesFor(problems []domain.Problem) []string {
	var fixes []string
	for _, p := range problems {
		switch p.Category {
		case domain.ProblemConceptualAmbiguity:
			fixes = append(fixes, fmt.Sprintf("[CLARITY] define %q in one sentence before first use", p.Span))
		case domain.ProblemInsufficientEvidence:
			fixes = append(fixes, fmt.Sprintf("[EVIDENCE] attach a source or case for %q", p.Span))
		case domain.ProblemHiddenAssumption:
			fixes = append(fixes, fmt.Sprintf("[LOGIC] state where %q does not apply", p.Span))
		case domain.ProblemStructuralWeakness:
			fixes = append(fixes, "[STRUCTURE] expand the conclusion instead of closing in one line")
		}
	}
	return fixes
}

// quoteSpan wraps a critique span verbatim. Not %q: spans can contain
// quote characters, and escaping them would break the downstream check
// that each question literally contains its anchor.
func quoteSpan(s string) string {
	return `"` + s + `"`
}

// Coach derives five questions, one per pedagogical purpose, each
// anchored to a concrete span or claim from the critique.
func (g *RuleGenerator) Coach(_ context.Context, req CoachRequest) ([]QuestionDraft, error) {
	c := req.Critique
	firstClaim := c.Thesis
	if len(c.Skeleton) > 0 && c.Skeleton[0].Claim != "" {
		firstClaim = c.Skeleton[0].Claim
	}

	anchor := func(cat domain.ProblemCategory) string {
		if ps := c.ProblemsOf(cat); len(ps) > 0 {
			return ps[0].Span
		}
		return firstClaim
	}

	evidenceSpan := anchor(domain.ProblemInsufficientEvidence)
	ambiguousSpan := anchor(domain.ProblemConceptualAmbiguity)
	assumptionSpan := anchor(domain.ProblemHiddenAssumption)

	return []QuestionDraft{
		{
			Text:          fmt.Sprintf("How exactly would you measure %s: what is being compared, over what period, against what baseline?", quoteSpan(evidenceSpan)),
			Purpose:       domain.PurposePrecision,
			PurposeDetail: "forces an operational definition of the key quantity",
			WhyNow:        "the source states a conclusion without naming its measurement dimensions",
		},
		{
			Text:          fmt.Sprintf("How would you explain %s to someone who has never encountered the topic?", quoteSpan(ambiguousSpan)),
			Purpose:       domain.PurposeNovice,
			PurposeDetail: "re-explaining in plain language exposes gaps in understanding",
			WhyNow:        "the source leans on terminology without building a concrete scene",
		},
		{
			Text:          fmt.Sprintf("What is the closest conventional alternative to %s, and when would the conventional option win?", quoteSpan(firstClaim)),
			Purpose:       domain.PurposeContrastive,
			PurposeDetail: "comparison clarifies where the concept's boundary lies",
			WhyNow:        "the source argues advantages without marking limits of applicability",
		},
		{
			Text:          fmt.Sprintf("Suppose the situation escalates well beyond the routine case: does %s still hold, or does it break down?", quoteSpan(assumptionSpan)),
			Purpose:       domain.PurposeTransfer,
			PurposeDetail: "tests the claim against a complex, escalated scenario",
			WhyNow:        "challenges the assumption that the routine case generalizes",
		},
		{
			Text:          fmt.Sprintf("Why do you believe %s: what is the evidence, and how much of it is assumption?", quoteSpan(evidenceSpan)),
			Purpose:       domain.PurposeMetacognitive,
			PurposeDetail: "audits the source and credibility of the author's own evidence",
			WhyNow:        "separating fact from assumption must happen before publishing",
		},
	}, nil
}

// Strategize parameterizes the platform template. Adding a platform is
// a new case in this switch plus its constraint row, nothing else.
func (g *RuleGenerator) Strategize(_ context.Context, req StrategizeRequest) (*domain.StrategyPlan, error) {
	plan := platformTemplate(req.Platform)

	// Evidence problems become concrete directives so the Editor has a
	// named source for each fix it applies.
	for _, p := range req.Critique.ProblemsOf(domain.ProblemInsufficientEvidence) {
		plan.Directives = append(plan.Directives, domain.Directive{
			Concern: domain.ConcernEvidence,
			Text:    fmt.Sprintf("replace the unverified figure %q with a sourced figure or a placeholder", p.Span),
		})
	}
	for _, p := range req.Critique.ProblemsOf(domain.ProblemConceptualAmbiguity) {
		plan.Directives = append(plan.Directives, domain.Directive{
			Concern: domain.ConcernClarity,
			Text:    fmt.Sprintf("define %q on first mention", p.Span),
		})
	}
	return plan, nil
}

func platformTemplate(p domain.Platform) *domain.StrategyPlan {
	switch p {
	case domain.PlatformX:
		return &domain.StrategyPlan{
			Platform:          p,
			ObjectiveFunction: "repost rate + reply engagement",
			Structure: domain.StructureRecommendation{
				Hook: "state the position outright, one line",
				Body: "thread of 2-4 supporting posts",
				CTA:  "an open question inviting disagreement",
			},
			Directives: []domain.Directive{
				{Concern: domain.ConcernHook, Text: "open with the sharpest claim, no wind-up"},
				{Concern: domain.ConcernStructure, Text: "one argument per post"},
				{Concern: domain.ConcernDensity, Text: "compress every post under 280 characters"},
				{Concern: domain.ConcernTone, Text: "take a clear position; hedging kills reach"},
			},
			Checklist: []string{
				"each post ≤280 characters",
				"thread of 3-5 posts",
				"position is unambiguous",
				"claim is debatable",
				"worth reposting on its own",
			},
			RiskWarnings: []string{
				"avoid long build-ups",
				"a thread without a stance reads as noise",
				"leave room for discussion",
			},
		}
	case domain.PlatformWechat:
		return &domain.StrategyPlan{
			Platform:          p,
			ObjectiveFunction: "discussion sparked + usefulness to the group",
			Structure: domain.StructureRecommendation{
				Hook: "one or two sentences of context",
				Body: "core content in 3-5 short paragraphs",
				CTA:  "a sincere invitation to discuss",
			},
			Directives: []domain.Directive{
				{Concern: domain.ConcernStructure, Text: "keep paragraphs short enough to scan"},
				{Concern: domain.ConcernTone, Text: "warm and professional, never lecturing"},
				{Concern: domain.ConcernDensity, Text: "leave whitespace between ideas"},
				{Concern: domain.ConcernCTA, Text: "close with a genuine question"},
			},
			Checklist: []string{
				"length 300-600 characters",
				"paragraphs ≤50 characters",
				"skimmable at a glance",
				"respects the group-chat setting",
			},
			RiskWarnings: []string{
				"do not flood the group",
				"avoid a preaching register",
			},
		}
	default:
		return &domain.StrategyPlan{
			Platform:          domain.PlatformXiaohongshu,
			ObjectiveFunction: "dwell time + save rate",
			Structure: domain.StructureRecommendation{
				Hook: "a concrete pain-point scene, 30-50 characters",
				Body: "3-4 points, each separated by an emoji marker",
				CTA:  "an actionable suggestion plus an interaction question",
			},
			Directives: []domain.Directive{
				{Concern: domain.ConcernHook, Text: "replace the abstract opening with a concrete scene"},
				{Concern: domain.ConcernStructure, Text: "front-load data to establish credibility"},
				{Concern: domain.ConcernDensity, Text: "break up long paragraphs"},
				{Concern: domain.ConcernTone, Text: "emphasize augmentation over replacement; no anxiety bait"},
				{Concern: domain.ConcernCTA, Text: "end with a specific interaction question"},
				{Concern: domain.ConcernVisual, Text: "use emoji to pace the visual rhythm"},
			},
			Checklist: []string{
				"length 500-800 characters",
				"paragraphs ≤3 lines",
				"opening lands on a pain point",
				"3-4 visual anchors",
				"gives an actionable suggestion",
				"ends with a genuine question",
				"jargon is explained",
				"call to action is explicit",
			},
			RiskWarnings: []string{
				"avoid a pure technology explainer",
				"figures must be concrete",
				"do not manufacture anxiety",
			},
		}
	}
}

// Edit composes the final draft from source, critique, plan, and
// answers, recording one audit entry per applied directive and per
// problem fix, and substituting placeholders for unverified figures.
func (g *RuleGenerator) Edit(_ context.Context, req EditRequest) (*domain.EditedDraft, error) {
	evidenceProblems := req.Critique.ProblemsOf(domain.ProblemInsufficientEvidence)

	scrub := func(text string) string {
		for _, p := range evidenceProblems {
			text = strings.ReplaceAll(text, p.Span, domain.FigurePlaceholder)
		}
		return text
	}

	var audit []domain.ChangeAuditEntry
	applied := func(d domain.Directive, change string) {
		audit = append(audit, domain.ChangeAuditEntry{
			Change:    change,
			Reason:    "platform objective: " + req.Plan.ObjectiveFunction,
			Source:    domain.AuditSourceDirective,
			SourceRef: fmt.Sprintf("[%s] %s", d.Concern, d.Text),
		})
	}

	var b strings.Builder
	hook := scrub(req.Critique.Thesis)
	body := composeBody(req.Plan.Platform, req.Critique, scrub)
	answers := answerNotes(req)

	switch req.Plan.Platform {
	case domain.PlatformX:
		units := []string{"1/ " + truncate(hook, 270)}
		for i, section := range body {
			units = append(units, fmt.Sprintf("%d/ %s", i+2, truncate(section, 270)))
		}
		if answers != "" {
			units = append(units, fmt.Sprintf("%d/ %s", len(units)+1, truncate(answers, 270)))
		}
		units = append(units, fmt.Sprintf("%d/ Where does this break down for you? Replies welcome.", len(units)+1))
		b.WriteString(strings.Join(units, "\n\n"))
	case domain.PlatformWechat:
		paras := []string{truncate(hook, 50)}
		for _, section := range body {
			paras = append(paras, truncate(section, 50))
		}
		if answers != "" {
			paras = append(paras, truncate(answers, 50))
		}
		paras = append(paras, "Curious what this looks like in your team - thoughts?")
		b.WriteString(strings.Join(paras, "\n\n"))
	default:
		b.WriteString(hook + "\n\n")
		markers := []string{"💡", "🚀", "📋", "⚠️"}
		for i, section := range body {
			b.WriteString(markers[i%len(markers)] + " " + section + "\n\n")
		}
		if answers != "" {
			b.WriteString("✍️ " + answers + "\n\n")
		}
		b.WriteString("Which part would you try first? Tell me in the comments 👇")
	}

	for _, d := range req.Plan.Directives {
		switch d.Concern {
		case domain.ConcernHook:
			applied(d, "opened with the thesis as a concrete hook")
		case domain.ConcernStructure, domain.ConcernDensity:
			applied(d, "re-sectioned the argument to the platform's structural unit")
		case domain.ConcernCTA:
			applied(d, "closed with an interaction question")
		case domain.ConcernVisual:
			applied(d, "added emoji section markers")
		case domain.ConcernTone:
			applied(d, "kept the register suggestion-first rather than alarmist")
		case domain.ConcernEvidence, domain.ConcernClarity, domain.ConcernLogic:
			applied(d, "applied fix: "+d.Text)
		}
	}

	for _, p := range evidenceProblems {
		audit = append(audit, domain.ChangeAuditEntry{
			Change:    fmt.Sprintf("rendered %q as a figure placeholder", p.Span),
			Reason:    "figure lacks verifiable upstream evidence",
			Source:    domain.AuditSourceFabrication,
			SourceRef: p.Span,
		})
	}
	for _, p := range req.Critique.ProblemsOf(domain.ProblemHiddenAssumption) {
		audit = append(audit, domain.ChangeAuditEntry{
			Change:    "scoped the claim instead of stating it universally",
			Reason:    p.Issue,
			Source:    domain.AuditSourceProblem,
			SourceRef: p.Span,
		})
	}
	if answers != "" {
		audit = append(audit, domain.ChangeAuditEntry{
			Change:    "wove the author's answer into the body",
			Reason:    "answers sharpen the draft beyond the raw source",
			Source:    domain.AuditSourceResponse,
			SourceRef: "coach responses",
		})
	}

	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = truncate(req.Critique.Thesis, 48)
	}

	return &domain.EditedDraft{
		Title:   title,
		Content: strings.TrimSpace(b.String()),
		Audit:   audit,
	}, nil
}

// composeBody turns skeleton components into platform-sized sections,
// preserving the source's claim order.
func composeBody(platform domain.Platform, c domain.Critique, scrub func(string) string) []string {
	max := 4
	if platform == domain.PlatformWechat {
		max = 3
	}
	var sections []string
	for _, comp := range c.Skeleton {
		if len(sections) == max {
			break
		}
		parts := []string{comp.Claim}
		if comp.Reason != "" {
			parts = append(parts, comp.Reason)
		}
		if comp.Evidence != "" {
			parts = append(parts, comp.Evidence)
		}
		sections = append(sections, scrub(strings.Join(parts, ". ")+"."))
	}
	return sections
}

// answerNotes folds the first substantive coach answer into the draft.
// Questions are walked in ordinal order so output stays deterministic.
func answerNotes(req EditRequest) string {
	for _, q := range req.Questions {
		r, ok := req.Responses[q.ID]
		if !ok || r.Skipped || strings.TrimSpace(r.Text) == "" {
			continue
		}
		return truncate(strings.TrimSpace(r.Text), 200)
	}
	return ""
}

var _ Generator = (*RuleGenerator)(nil)
