// Package tui provides a Bubble Tea-based terminal UI for provisioning runs.
package tui

import "github.com/hubward/hubward/internal/progress"

// EventMsg forwards one pipeline event into the TUI.
type EventMsg struct {
	Event progress.Event
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the event stream has ended.
type DoneMsg struct{}
