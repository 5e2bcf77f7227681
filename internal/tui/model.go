// Package tui is the terminal editing surface for a persisted draft. It
// drives the editing session's debounced autosave with real timers and
// renders save state in the status bar.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aura-labs/aura/internal/editing"
)

// focus tracks which input owns the keyboard.
type focus int

const (
	focusBody focus = iota
	focusTitle
)

// Model is the root bubbletea model for the draft editor.
type Model struct {
	session *editing.Session

	body  textarea.Model
	title textinput.Model

	focused focus
	width   int
	height  int

	statusText string
	quitting   bool
}

// New creates an editor over an open editing session.
func New(session *editing.Session) Model {
	body := textarea.New()
	body.SetValue(session.Buffer())
	body.ShowLineNumbers = false
	body.Focus()

	title := textinput.New()
	title.SetValue(session.Title())
	title.Prompt = ""

	return Model{
		session: session,
		body:    body,
		title:   title,
		focused: focusBody,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// scheduleAutosave arms a tick for the session's next save deadline.
func (m Model) scheduleAutosave() tea.Cmd {
	deadline := m.session.NextDeadline()
	if deadline.IsZero() {
		return nil
	}
	wait := time.Until(deadline)
	if wait < 0 {
		wait = 0
	}
	return tea.Tick(wait, func(time.Time) tea.Msg { return autosaveTickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.SetWidth(msg.Width - 2)
		m.body.SetHeight(msg.Height - 5)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			// Final flush so navigating away never drops edits.
			if err := m.session.Teardown(context.Background()); err != nil {
				m.statusText = fmt.Sprintf("final save failed: %v", err)
			}
			m.quitting = true
			return m, tea.Quit
		case "ctrl+s":
			return m.saveNow()
		case "tab":
			m = m.toggleFocus()
			return m, nil
		}

	case autosaveTickMsg:
		if !m.session.SaveDue() {
			// An edit landed after this tick was armed; re-arm for the
			// pushed-out deadline.
			return m, m.scheduleAutosave()
		}
		return m.saveNow()

	case clearStatusMsg:
		m.statusText = ""
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focused {
	case focusBody:
		before := m.body.Value()
		m.body, cmd = m.body.Update(msg)
		if after := m.body.Value(); after != before {
			m.session.Edit(after)
			return m, tea.Batch(cmd, m.scheduleAutosave())
		}
	case focusTitle:
		before := m.title.Value()
		m.title, cmd = m.title.Update(msg)
		if after := m.title.Value(); after != before {
			m.session.SetTitle(after)
			return m, tea.Batch(cmd, m.scheduleAutosave())
		}
	}
	return m, cmd
}

// saveNow flushes the buffer. The session keeps the buffer dirty on
// failure, so a later tick or keystroke retries automatically.
func (m Model) saveNow() (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.session.Flush(ctx); err != nil {
		m.statusText = fmt.Sprintf("save failed, will retry: %v", err)
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
	}
	m.statusText = fmt.Sprintf("saved v%d", m.session.Baseline().Version)
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

func (m Model) toggleFocus() Model {
	if m.focused == focusBody {
		m.focused = focusTitle
		m.body.Blur()
		m.title.Focus()
	} else {
		m.focused = focusBody
		m.title.Blur()
		m.body.Focus()
	}
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	draft := m.session.Baseline()
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("aura editor"),
		statusStyle.Render(fmt.Sprintf("  %s · v%d · ", draft.Platform, draft.Version)),
		m.saveBadge(),
	)
	b.WriteString(header)
	b.WriteString("\n")

	titleLabel := panelTitleStyle.Render("title: ")
	if m.focused == focusTitle {
		titleLabel = headerStyle.Render("title: ")
	}
	b.WriteString(titleLabel + m.title.View())
	b.WriteString("\n\n")

	b.WriteString(m.body.View())
	b.WriteString("\n")

	if m.statusText != "" {
		b.WriteString(statusStyle.Render(m.statusText))
		b.WriteString("\n")
	}
	if m.session.Baseline().HasUnresolvedFigures() || strings.Contains(m.session.Buffer(), "[figure needed:") {
		b.WriteString(placeholderStyle.Render("⚠ unresolved figure placeholders remain"))
		b.WriteString("\n")
	}

	b.WriteString(m.footer())
	return b.String()
}

func (m Model) saveBadge() string {
	switch m.session.Status() {
	case editing.StatusSaved, editing.StatusIdle:
		return savedBadgeStyle.Render("saved")
	case editing.StatusError:
		return errorBadgeStyle.Render("unsaved!")
	default:
		return dirtyBadgeStyle.Render("unsaved")
	}
}

func (m Model) footer() string {
	keys := []struct{ key, desc string }{
		{"ctrl+s", "save"},
		{"tab", "title/body"},
		{"esc", "save & quit"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+footerDescStyle.Render(" "+k.desc))
	}
	return strings.Join(parts, footerDescStyle.Render("  ·  "))
}

// Run opens the editor over the given session and blocks until exit.
func Run(session *editing.Session) error {
	p := tea.NewProgram(New(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
