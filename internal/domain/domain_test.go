package domain

import "testing"

func TestSessionStatusAdvanceIsMonotonic(t *testing.T) {
	cases := []struct {
		current SessionStatus
		next    SessionStatus
		want    SessionStatus
	}{
		{StatusIdle, StatusAnalyzing, StatusAnalyzing},
		{StatusAnalyzing, StatusQuestioning, StatusQuestioning},
		{StatusQuestioning, StatusAnalyzing, StatusQuestioning},
		{StatusComplete, StatusIdle, StatusComplete},
		{StatusDrafting, StatusComplete, StatusComplete},
		{StatusComplete, StatusComplete, StatusComplete},
	}
	for _, tc := range cases {
		if got := tc.current.Advance(tc.next); got != tc.want {
			t.Errorf("%s.Advance(%s) = %s, want %s", tc.current, tc.next, got, tc.want)
		}
	}
}

func TestAllPurposesIsStableAndComplete(t *testing.T) {
	purposes := AllPurposes()
	if len(purposes) != 5 {
		t.Fatalf("Expected 5 purposes, got %d", len(purposes))
	}
	seen := map[PedagogicalPurpose]bool{}
	for _, p := range purposes {
		if !p.IsValid() {
			t.Errorf("AllPurposes returned invalid purpose %q", p)
		}
		if seen[p] {
			t.Errorf("Duplicate purpose %q", p)
		}
		seen[p] = true
	}
}

func TestConstraintsForEveryPlatform(t *testing.T) {
	x := ConstraintsFor(PlatformX)
	if x.MaxChars != 280 || x.MinUnits != 3 || x.MaxUnits != 5 {
		t.Errorf("Unexpected x constraints: %+v", x)
	}

	wechat := ConstraintsFor(PlatformWechat)
	if wechat.MinChars != 300 || wechat.MaxChars != 600 || wechat.MaxParagraphChars != 50 {
		t.Errorf("Unexpected wechat constraints: %+v", wechat)
	}

	xhs := ConstraintsFor(PlatformXiaohongshu)
	if xhs.MinChars != 500 || xhs.MaxChars != 800 || xhs.MaxParagraphLines != 3 {
		t.Errorf("Unexpected xiaohongshu constraints: %+v", xhs)
	}

	// Unknown platforms resolve to the default's bounds.
	if got := ConstraintsFor("douyin"); got != ConstraintsFor(DefaultPlatform) {
		t.Errorf("Unknown platform constraints = %+v", got)
	}
}

func TestProblemsOfPreservesOrder(t *testing.T) {
	c := Critique{Problems: []Problem{
		{Category: ProblemInsufficientEvidence, Span: "first"},
		{Category: ProblemHiddenAssumption, Span: "other"},
		{Category: ProblemInsufficientEvidence, Span: "second"},
	}}
	got := c.ProblemsOf(ProblemInsufficientEvidence)
	if len(got) != 2 || got[0].Span != "first" || got[1].Span != "second" {
		t.Errorf("ProblemsOf returned %+v", got)
	}
}

func TestHasUnresolvedFigures(t *testing.T) {
	with := &Draft{Content: "growth of " + FigurePlaceholder + " last quarter"}
	if !with.HasUnresolvedFigures() {
		t.Error("Placeholder not detected")
	}
	without := &Draft{Content: "growth of 40% (internal Q3 report)"}
	if without.HasUnresolvedFigures() {
		t.Error("False positive placeholder detection")
	}
}
