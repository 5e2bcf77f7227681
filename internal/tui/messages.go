package tui

// autosaveTickMsg fires the debounce timer. The model re-checks whether
// the quiet period truly elapsed; a tick scheduled before a newer edit
// finds the deadline pushed out and does nothing.
type autosaveTickMsg struct{}

// clearStatusMsg clears the transient status line after a timeout.
type clearStatusMsg struct{}
