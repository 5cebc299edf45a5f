package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hubward/hubward/internal/progress"
)

// Run drives a provisioning run under the dashboard. fn receives the
// sink the pipeline publishes to; the dashboard consumes the same event
// stream the daemon would serve over HTTP.
func Run(ctx context.Context, target string, fn func(ctx context.Context, sink progress.Sink) error) error {
	m := NewModel(target)
	p := tea.NewProgram(m, tea.WithAltScreen())

	sink := progress.NewChannelSink(16)
	go func() {
		go func() {
			defer sink.Close()
			if err := fn(ctx, sink); err != nil {
				p.Send(ErrMsg{Err: err})
			}
		}()

		for event := range sink.Events() {
			p.Send(EventMsg{Event: event})
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Err != nil {
		return fm.Err
	}
	return nil
}
