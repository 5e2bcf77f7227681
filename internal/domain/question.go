package domain

import (
	"time"
)

// PedagogicalPurpose is the closed set of purposes a coach question can
// serve. Each batch of questions covers every purpose exactly once.
type PedagogicalPurpose string

const (
	// PurposePrecision forces an operational definition of a key concept.
	PurposePrecision PedagogicalPurpose = "precision-elaboration"
	// PurposeNovice asks for a re-explanation aimed at a novice audience.
	PurposeNovice PedagogicalPurpose = "explain-to-novice"
	// PurposeContrastive clarifies concept boundaries through comparison.
	PurposeContrastive PedagogicalPurpose = "contrastive"
	// PurposeTransfer tests the idea against an escalated scenario.
	PurposeTransfer PedagogicalPurpose = "transfer"
	// PurposeMetacognitive audits the author's own evidence and confidence.
	PurposeMetacognitive PedagogicalPurpose = "metacognitive"
)

// AllPurposes returns the full purpose enumeration in presentation order.
func AllPurposes() []PedagogicalPurpose {
	return []PedagogicalPurpose{
		PurposePrecision,
		PurposeNovice,
		PurposeContrastive,
		PurposeTransfer,
		PurposeMetacognitive,
	}
}

// IsValid reports whether p is a member of the closed purpose set.
func (p PedagogicalPurpose) IsValid() bool {
	for _, v := range AllPurposes() {
		if p == v {
			return true
		}
	}
	return false
}

// Question is one Socratic question the Coach derived from a critique.
// Questions are created in a single batch per session and never mutated;
// Ordinal fixes presentation order.
type Question struct {
	ID            string             `json:"id"`
	SessionID     string             `json:"session_id"`
	Text          string             `json:"text"`
	Purpose       PedagogicalPurpose `json:"purpose"`
	PurposeDetail string             `json:"purpose_detail"`
	WhyNow        string             `json:"why_now"`
	Ordinal       int                `json:"ordinal"`
	CreatedAt     time.Time          `json:"created_at"`
}

// SkippedResponse is the sentinel stored when the user explicitly skips
// a question instead of answering it.
const SkippedResponse = "skipped"

// Response is a user's answer (or explicit skip) to a question. The
// store allows multiple responses per question; the latest wins for
// resumption display.
type Response struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	Skipped    bool      `json:"skipped"`
	CreatedAt  time.Time `json:"created_at"`
}
