package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aura-labs/aura/internal/domain"
)

// figurePattern matches quantitative claims: percentages, multipliers,
// and bare counts attached to comparative language.
var figurePattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:%|percent|x\b|times\b)|\d+\s*-\s*\d+\s*%`)

// sourcedPattern marks the vicinity of a figure as attributed.
var sourcedPattern = regexp.MustCompile(`(?i)according to|cited|source:|\bstudy\b|\breport\b|\bsurvey\b`)

// containsFigure reports whether the text carries a quantitative claim.
func containsFigure(text string) bool {
	return figurePattern.MatchString(text)
}

// splitSentences breaks content into trimmed sentences, preserving
// source order. Sentence boundaries are ASCII and CJK terminators plus
// newlines; good enough for claim-chain extraction, which only needs
// order, not linguistic precision.
func splitSentences(content string) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		switch r {
		case '.', '!', '?', '\n', '。', '！', '？', '；', ';':
			return true
		}
		return false
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// splitParagraphs breaks content on blank lines.
func splitParagraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// truncate cuts s to at most n runes, appending an ellipsis when cut.
// The cut never lands inside a figure placeholder token: a half token
// would no longer read as a placeholder, so the unresolved-figure check
// on the finished draft could not see it. When the cut would split the
// token, the whole token is dropped instead.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := n
	token := []rune(domain.FigurePlaceholder)
	for start := cut - len(token) + 1; start < cut; start++ {
		if start < 0 || start+len(token) > len(runes) {
			continue
		}
		if string(runes[start:start+len(token)]) == domain.FigurePlaceholder {
			cut = start
			break
		}
	}
	return string(runes[:cut]) + "…"
}

func asString(v any) string {
	return fmt.Sprintf("%v", v)
}
