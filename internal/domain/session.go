// Package domain contains core domain types for the Aura pipeline.
package domain

import (
	"time"
)

// SessionStatus tracks pipeline progress for a learning session.
type SessionStatus string

const (
	// StatusIdle means the session was submitted but no stage has run.
	StatusIdle SessionStatus = "idle"
	// StatusAnalyzing means the Reviewer stage is in flight or complete.
	StatusAnalyzing SessionStatus = "analyzing"
	// StatusQuestioning means coach questions exist and await responses.
	StatusQuestioning SessionStatus = "questioning"
	// StatusDrafting means the Editor stage produced an initial draft.
	StatusDrafting SessionStatus = "drafting"
	// StatusComplete is the terminal state once a draft exists.
	StatusComplete SessionStatus = "complete"
)

// rank orders statuses so advancement is monotonic.
func (s SessionStatus) rank() int {
	switch s {
	case StatusIdle:
		return 0
	case StatusAnalyzing:
		return 1
	case StatusQuestioning:
		return 2
	case StatusDrafting:
		return 3
	case StatusComplete:
		return 4
	}
	return -1
}

// IsValid reports whether s is a member of the closed status set.
func (s SessionStatus) IsValid() bool {
	return s.rank() >= 0
}

// Advance returns the later of the two statuses. Session status never
// moves backward once a stage has completed.
func (s SessionStatus) Advance(to SessionStatus) SessionStatus {
	if to.rank() > s.rank() {
		return to
	}
	return s
}

// SourceType identifies what kind of material a session was created from.
type SourceType string

const (
	SourceText SourceType = "text"
	SourceURL  SourceType = "url"
	SourceFile SourceType = "file"
)

// IsValid reports whether t is a member of the closed source type set.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceText, SourceURL, SourceFile:
		return true
	}
	return false
}

// Session is one submitted piece of learning material and its derived
// pipeline state. Created on submission, never deleted by the pipeline.
type Session struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Title     string        `json:"title"`
	Type      SourceType    `json:"type"`
	Content   string        `json:"content"`
	Tags      []string      `json:"tags"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
