package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderStages(&b, m)
	renderTail(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("hubward: %s", m.Target)))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done:
		status += readyStyle.Render("Complete")
		if m.InstallPath != "" {
			status += dimStyle.Render(fmt.Sprintf(" (%s)", m.InstallPath))
		}
	case m.Connected:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame) + " ")
		if stage, ok := m.activeStage(); ok {
			status += warningStyle.Render(stage.Title)
		} else {
			status += warningStyle.Render("Provisioning")
		}
	default:
		status += dimStyle.Render("Connecting...")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	fmt.Fprintf(b, "  %s %d%%\n", bar, int(progress*100))
}

func renderStages(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Setup"))
	b.WriteString("\n")

	for _, stage := range m.Stages {
		var icon string
		var style styleFunc
		switch {
		case stage.Err != nil:
			icon = crossMark
			style = sf(failedStyle)
		case stage.Done:
			icon = checkMark
			style = sf(readyStyle)
		case stage.Active:
			icon = currentSpinner(m.SpinnerFrame)
			style = sf(activeStyle)
		default:
			icon = pending
			style = sf(dimStyle)
		}
		fmt.Fprintf(b, "    %s %s\n", style(icon), style(stage.Title))
	}
}

func renderTail(b *strings.Builder, m Model) {
	if len(m.Tail) == 0 {
		return
	}

	b.WriteString(sectionStyle.Render("  Output"))
	b.WriteString("\n")
	for _, line := range m.Tail {
		fmt.Fprintf(b, "    %s\n", dimStyle.Render(line))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s  |  q: quit", elapsed)))
	b.WriteString("\n")
}

// Helper functions

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func calculateProgress(m Model) float64 {
	if m.Done {
		return 1.0
	}

	done := 0
	for _, stage := range m.Stages {
		if stage.Done {
			done++
		}
	}
	return float64(done) / float64(len(m.Stages))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
