package tui

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hubward/hubward/internal/progress"
)

// tailLines caps the remote output kept on screen.
const tailLines = 8

// Stage represents one pipeline stage for display.
type Stage struct {
	Ordinal int
	Title   string
	Done    bool
	Active  bool
	Err     error
}

// Model is the Bubble Tea model for the provisioning dashboard.
type Model struct {
	// Target is the principal@host shown in the header.
	Target string

	// Pipeline state
	Connected   bool
	Stages      []Stage
	Tail        []string
	InstallPath string

	// Animation
	SpinnerFrame int

	// UI state
	StartTime time.Time
	Width     int
	Height    int
	Err       error
	Done      bool
}

// NewModel creates a dashboard model for one provisioning run.
func NewModel(target string) Model {
	return Model{
		Target:    target,
		StartTime: time.Now(),
		Stages: []Stage{
			{Ordinal: 1, Title: "Create target directory"},
			{Ordinal: 2, Title: "Check download tools"},
			{Ordinal: 3, Title: "Download repository archive"},
			{Ordinal: 4, Title: "Verify archive"},
			{Ordinal: 5, Title: "Extract archive"},
			{Ordinal: 6, Title: "Install dependencies"},
			{Ordinal: 7, Title: "Run setup script"},
		},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case EventMsg:
		m.applyEvent(msg.Event)

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(event progress.Event) {
	switch event.Type {
	case progress.EventConnected:
		m.Connected = true

	case progress.EventStep:
		m.markStage(event.Step)

	case progress.EventInfo:
		m.appendTail(event.Message)

	case progress.EventStdout, progress.EventStderr:
		for _, line := range strings.Split(event.Data, "\n") {
			if strings.TrimSpace(line) != "" {
				m.appendTail(line)
			}
		}

	case progress.EventSuccess:
		for i := range m.Stages {
			m.Stages[i].Done = true
			m.Stages[i].Active = false
		}
		m.Done = true
		if path, ok := event.Payload["path"].(string); ok {
			m.InstallPath = path
		}

	case progress.EventError:
		err := errors.New(event.Message)
		m.Err = err
		for i := range m.Stages {
			if m.Stages[i].Active {
				m.Stages[i].Err = err
				m.Stages[i].Active = false
			}
		}
	}
}

// markStage activates the stage with the given ordinal and marks every
// earlier stage done.
func (m *Model) markStage(ordinal int) {
	for i := range m.Stages {
		switch {
		case m.Stages[i].Ordinal < ordinal:
			m.Stages[i].Done = true
			m.Stages[i].Active = false
		case m.Stages[i].Ordinal == ordinal:
			m.Stages[i].Active = true
		}
	}
}

func (m *Model) appendTail(line string) {
	m.Tail = append(m.Tail, line)
	if len(m.Tail) > tailLines {
		m.Tail = m.Tail[len(m.Tail)-tailLines:]
	}
}

// activeStage returns the running stage, if any.
func (m Model) activeStage() (Stage, bool) {
	for _, stage := range m.Stages {
		if stage.Active {
			return stage, true
		}
	}
	return Stage{}, false
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
