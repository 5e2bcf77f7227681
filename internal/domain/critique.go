package domain

// ProblemCategory is the closed set of problem types the Reviewer may
// assign. Free-text categories would break Strategist directive mapping,
// so adding a value here is a schema change.
type ProblemCategory string

const (
	ProblemConceptualAmbiguity  ProblemCategory = "conceptual-ambiguity"
	ProblemInsufficientEvidence ProblemCategory = "insufficient-evidence"
	ProblemHiddenAssumption     ProblemCategory = "hidden-assumption"
	ProblemStructuralWeakness   ProblemCategory = "structural-weakness"
)

// IsValid reports whether c is a member of the closed category set.
func (c ProblemCategory) IsValid() bool {
	switch c {
	case ProblemConceptualAmbiguity, ProblemInsufficientEvidence,
		ProblemHiddenAssumption, ProblemStructuralWeakness:
		return true
	}
	return false
}

// ArgumentComponent is one link in the source's logical chain. Order of
// components in a Critique mirrors source order; downstream stages rely
// on it to map problems back to specific claims.
type ArgumentComponent struct {
	Claim     string `json:"claim"`
	Reason    string `json:"reason"`
	Evidence  string `json:"evidence"`
	Inference string `json:"inference"`
}

// Problem is one issue the Reviewer identified in the source.
type Problem struct {
	Category ProblemCategory `json:"category"`
	Span     string          `json:"span"`
	Issue    string          `json:"issue"`
}

// Critique is the Reviewer's structured analysis of a session's content.
// Immutable once produced; one per session (regeneration overwrites).
type Critique struct {
	SessionID string              `json:"session_id"`
	Thesis    string              `json:"thesis"`
	Skeleton  []ArgumentComponent `json:"skeleton"`
	Problems  []Problem           `json:"problems"`
	// Fixes are minimal-fix suggestions in priority order, each prefixed
	// with a concern tag such as [CLARITY] or [EVIDENCE].
	Fixes []string `json:"fixes"`
}

// ProblemsOf returns the problems carrying the given category, in order.
func (c *Critique) ProblemsOf(cat ProblemCategory) []Problem {
	var out []Problem
	for _, p := range c.Problems {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}
