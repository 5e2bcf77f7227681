package pipeline

import (
	"strings"
	"testing"

	"github.com/aura-labs/aura/internal/domain"
)

func TestTruncateNeverSplitsFigurePlaceholder(t *testing.T) {
	token := domain.FigurePlaceholder
	prefix := "Throughput improved by "
	s := prefix + token + " after the rollout."

	for n := len([]rune(prefix)) + 1; n < len([]rune(prefix+token)); n++ {
		got := truncate(s, n)
		if got != prefix+"…" {
			t.Errorf("truncate(%d) = %q, want the whole token dropped", n, got)
		}
	}

	// A cut at or past the token boundary keeps the token whole.
	whole := truncate(s, len([]rune(prefix+token)))
	if !strings.Contains(whole, token) {
		t.Errorf("Expected intact placeholder, got %q", whole)
	}

	// Short strings come back untouched.
	if got := truncate("short", 50); got != "short" {
		t.Errorf("Expected %q, got %q", "short", got)
	}
}

func TestTruncateCutsPlainText(t *testing.T) {
	got := truncate("abcdefghij", 4)
	if got != "abcd…" {
		t.Errorf("Expected %q, got %q", "abcd…", got)
	}
}
