// Package editing implements the client-side draft editing session: an
// in-memory buffer, debounced autosave scheduling, and reconciliation
// with the persisted draft.
package editing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aura-labs/aura/internal/domain"
)

// ErrSaveFailed marks a persistence write that did not succeed. The
// buffer stays dirty and is retried on the next qualifying event; the
// editing surface degrades to an "unsaved" indicator, never a crash.
var ErrSaveFailed = errors.New("save failed")

// DefaultDebounce is the autosave quiet period. A cluster of rapid
// edits produces exactly one save this long after the last edit.
const DefaultDebounce = 30 * time.Second

// Saver persists draft content. Implemented by the store-backed saver
// and by test doubles.
type Saver interface {
	// Save writes title/content against the given version baseline and
	// returns the acknowledged draft state.
	Save(ctx context.Context, draftID, title, content string, baseVersion int) (*domain.Draft, error)
}

// Status mirrors the editing surface's autosave indicator.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusDirty  Status = "dirty"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// Session owns one draft's editing state. Not safe for concurrent use;
// the editing surface is single-threaded (timer events and edit events
// arrive on one loop).
type Session struct {
	saver    Saver
	debounce time.Duration
	now      func() time.Time

	// baseline is the last server-acknowledged draft state. Its Version
	// is the write baseline; its UpdatedAt must never move backward.
	baseline *domain.Draft

	title    string
	buffer   string
	dirty    bool
	lastEdit time.Time
	status   Status
	lastErr  error
}

// NewSession opens an editing session over an already fetched draft.
// debounce <= 0 selects the default; now == nil selects the wall clock.
func NewSession(saver Saver, draft *domain.Draft, debounce time.Duration, now func() time.Time) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if now == nil {
		now = time.Now
	}
	return &Session{
		saver:    saver,
		debounce: debounce,
		now:      now,
		baseline: draft,
		title:    draft.Title,
		buffer:   draft.Content,
		status:   StatusIdle,
	}
}

// Buffer returns the current local content.
func (s *Session) Buffer() string { return s.buffer }

// Title returns the current local title.
func (s *Session) Title() string { return s.title }

// Baseline returns the last acknowledged draft state.
func (s *Session) Baseline() *domain.Draft { return s.baseline }

// Dirty reports whether unsaved edits exist.
func (s *Session) Dirty() bool { return s.dirty }

// Status returns the autosave indicator state.
func (s *Session) Status() Status { return s.status }

// LastError returns the most recent save error, if any.
func (s *Session) LastError() error { return s.lastErr }

// Edit replaces the buffer and restarts the debounce countdown. Every
// edit resets the quiet period, so a burst of edits schedules exactly
// one save after the burst ends.
func (s *Session) Edit(content string) {
	s.buffer = content
	s.markDirty()
}

// SetTitle updates the local title, also subject to autosave.
func (s *Session) SetTitle(title string) {
	s.title = title
	s.markDirty()
}

func (s *Session) markDirty() {
	s.dirty = true
	s.lastEdit = s.now()
	if s.status != StatusError {
		s.status = StatusDirty
	}
}

// SaveDue reports whether the debounce window has elapsed since the
// last edit with a dirty buffer.
func (s *Session) SaveDue() bool {
	return s.dirty && s.now().Sub(s.lastEdit) >= s.debounce
}

// NextDeadline returns when the pending autosave should fire. Zero time
// when nothing is pending.
func (s *Session) NextDeadline() time.Time {
	if !s.dirty {
		return time.Time{}
	}
	return s.lastEdit.Add(s.debounce)
}

// TimerFire is the autosave timer callback. It saves only when the
// buffer is dirty and the quiet period has truly elapsed; a timer
// scheduled before a newer edit finds the deadline pushed out and does
// nothing.
func (s *Session) TimerFire(ctx context.Context) (saved bool, err error) {
	if !s.SaveDue() {
		return false, nil
	}
	return true, s.Flush(ctx)
}

// Flush writes the buffer now. The dirty flag clears only on
// acknowledged success; any failure leaves the buffer dirty for retry
// on the next qualifying event.
func (s *Session) Flush(ctx context.Context) error {
	if !s.dirty {
		return nil
	}

	s.status = StatusSaving
	acked, err := s.saver.Save(ctx, s.baseline.ID, s.title, s.buffer, s.baseline.Version)
	if err != nil {
		s.status = StatusError
		s.lastErr = fmt.Errorf("%w: %v", ErrSaveFailed, err)
		if acked != nil {
			// A stale-write rejection returns the winning server state:
			// adopt it as the new baseline so the retry carries a current
			// version, but keep the local buffer (it is newer content).
			s.baseline = acked
		}
		return s.lastErr
	}

	if acked.UpdatedAt.Before(s.baseline.UpdatedAt) {
		// The acknowledged timestamp must never move backward; treat a
		// violation as a failed save rather than adopting it.
		s.status = StatusError
		s.lastErr = fmt.Errorf("%w: acknowledged updated_at moved backward", ErrSaveFailed)
		return s.lastErr
	}

	s.baseline = acked
	s.dirty = false
	s.status = StatusSaved
	s.lastErr = nil
	return nil
}

// Teardown is the navigation-away hook: a final synchronous save
// attempt so closing the surface never loses edits silently.
func (s *Session) Teardown(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	return s.Flush(ctx)
}
