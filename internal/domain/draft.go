package domain

import (
	"strings"
	"time"
)

// FigurePlaceholder is the token the Editor substitutes for numeric
// claims that lack verifiable upstream evidence. Rendering a figure as
// this placeholder instead of an assertion is the mechanism that keeps
// fabricated evidence out of published drafts.
const FigurePlaceholder = "[figure needed: source/method]"

// Draft is the editable, persisted, versioned content artifact for a
// session. Version increases by one on every acknowledged content
// write; UpdatedAt never moves backward.
type Draft struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Platform  Platform  `json:"platform"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasUnresolvedFigures reports whether the draft still contains figure
// placeholders awaiting a source.
func (d *Draft) HasUnresolvedFigures() bool {
	return strings.Contains(d.Content, "[figure needed:")
}

// AuditSource identifies which upstream artifact motivated an edit.
type AuditSource string

const (
	AuditSourceDirective   AuditSource = "strategist-directive"
	AuditSourceProblem     AuditSource = "reviewer-problem"
	AuditSourceResponse    AuditSource = "user-response"
	AuditSourceFabrication AuditSource = "no-fabrication-rule"
)

// ChangeAuditEntry records one substantive edit the Editor made, its
// justification, and the upstream artifact that motivated it. Every
// Editor change that is not a direct restatement of source content must
// carry one of these.
type ChangeAuditEntry struct {
	Change string      `json:"change"`
	Reason string      `json:"reason"`
	Source AuditSource `json:"source"`
	// SourceRef names the concrete directive or problem span behind the
	// change, e.g. "[HOOK] open with a concrete pain point".
	SourceRef string `json:"source_ref"`
}

// EditedDraft bundles Editor output: the draft content plus the audit
// trail explaining every change.
type EditedDraft struct {
	Title   string             `json:"title"`
	Content string             `json:"content"`
	Audit   []ChangeAuditEntry `json:"audit"`
}
