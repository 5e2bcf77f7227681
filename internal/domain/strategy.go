package domain

// Platform identifies a publishing target. The set is closed but
// extensible: adding a platform means adding a variant here plus its
// constraint row and strategy template, not a new fall-through branch.
type Platform string

const (
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformX           Platform = "x"
	PlatformWechat      Platform = "wechat"

	// DefaultPlatform is the fallback for unrecognized identifiers.
	DefaultPlatform = PlatformXiaohongshu
)

// IsValid reports whether p is a member of the closed platform set.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformXiaohongshu, PlatformX, PlatformWechat:
		return true
	}
	return false
}

// PlatformConstraints are the hard per-platform formatting bounds
// consumed by the Strategist and Editor.
type PlatformConstraints struct {
	MinChars       int    `json:"min_chars"`
	MaxChars       int    `json:"max_chars"`
	StructuralUnit string `json:"structural_unit"`
	// MaxParagraphLines is 0 when the platform has no paragraph cap.
	MaxParagraphLines int `json:"max_paragraph_lines,omitempty"`
	// MaxParagraphChars is 0 when the platform has no per-paragraph
	// character cap.
	MaxParagraphChars int `json:"max_paragraph_chars,omitempty"`
	// Units bounds thread-style platforms: min/max number of posts.
	MinUnits int `json:"min_units,omitempty"`
	MaxUnits int `json:"max_units,omitempty"`
}

// ConstraintsFor returns the formatting bounds for a platform. The
// caller is expected to have resolved unknown platforms to the default
// already.
func ConstraintsFor(p Platform) PlatformConstraints {
	switch p {
	case PlatformX:
		return PlatformConstraints{
			MaxChars:       280,
			StructuralUnit: "thread of short posts",
			MinUnits:       3,
			MaxUnits:       5,
		}
	case PlatformWechat:
		return PlatformConstraints{
			MinChars:          300,
			MaxChars:          600,
			StructuralUnit:    "3-5 short paragraphs",
			MaxParagraphChars: 50,
		}
	default:
		return PlatformConstraints{
			MinChars:          500,
			MaxChars:          800,
			StructuralUnit:    "emoji-delimited sections",
			MaxParagraphLines: 3,
		}
	}
}

// DirectiveConcern tags a rewrite directive with the concern it serves.
type DirectiveConcern string

const (
	ConcernHook      DirectiveConcern = "HOOK"
	ConcernStructure DirectiveConcern = "STRUCTURE"
	ConcernEvidence  DirectiveConcern = "EVIDENCE"
	ConcernDensity   DirectiveConcern = "DENSITY"
	ConcernTone      DirectiveConcern = "TONE"
	ConcernCTA       DirectiveConcern = "CTA"
	ConcernVisual    DirectiveConcern = "VISUAL"
	ConcernClarity   DirectiveConcern = "CLARITY"
	ConcernLogic     DirectiveConcern = "LOGIC"
)

// Directive is one imperative rewrite instruction in a strategy plan.
type Directive struct {
	Concern DirectiveConcern `json:"concern"`
	Text    string           `json:"text"`
}

// StructureRecommendation describes the hook/body/call-to-action shape
// a platform rewards.
type StructureRecommendation struct {
	Hook string `json:"hook"`
	Body string `json:"body"`
	CTA  string `json:"cta"`
}

// StrategyPlan is the Strategist's platform-specific rewrite template.
// It is a pure function of (platform, critique) and is never persisted
// as its own row; it is produced on demand and embedded into draft
// generation.
type StrategyPlan struct {
	Platform          Platform                `json:"platform"`
	ObjectiveFunction string                  `json:"objective_function"`
	Structure         StructureRecommendation `json:"structure"`
	Directives        []Directive             `json:"directives"`
	Checklist         []string                `json:"checklist"`
	RiskWarnings      []string                `json:"risk_warnings"`
	Constraints       PlatformConstraints     `json:"constraints"`
	// FallbackApplied is set when the requested platform was unknown and
	// the default plan was returned instead.
	FallbackApplied bool `json:"fallback_applied,omitempty"`
}
