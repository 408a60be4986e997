package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/determined-ai/pedl-deploy/internal/deployment"
)

// ErrInterrupted is returned when the user quits the view before the run
// finishes.
var ErrInterrupted = errors.New("interrupted")

// Phase is one row of the progress view.
type Phase struct {
	Name      string
	Key       string
	Done      bool
	Active    bool
	Skipped   bool
	Err       error
	StartedAt time.Time
	Elapsed   time.Duration
}

// Model is the Bubble Tea model of a deploy or delete run.
type Model struct {
	Title    string
	Subtitle string
	Phases   []Phase

	Spinner   spinner.Model
	StartTime time.Time
	now       func() time.Time

	Width int
	Err   error
	Done  bool
}

var phaseNames = map[deployment.Phase]string{
	deployment.PhaseTemplate:  "Template",
	deployment.PhaseNetwork:   "Network Stack",
	deployment.PhaseStack:     "PEDL Stack",
	deployment.PhaseOutputs:   "Stack Outputs",
	deployment.PhaseEndpoints: "Connection Endpoints",
	deployment.PhaseBucket:    "Checkpoint Bucket",
}

func newModel(title, subtitle string, phases []deployment.Phase) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = activeStyle

	m := Model{
		Title:     title,
		Subtitle:  subtitle,
		Spinner:   s,
		StartTime: time.Now(),
		now:       time.Now,
	}
	for _, p := range phases {
		m.Phases = append(m.Phases, Phase{Name: phaseNames[p], Key: string(p)})
	}
	return m
}

// NewDeployModel creates the model for a deploy run.
func NewDeployModel(stackName, deploymentType string) Model {
	return newModel("Deploying "+stackName, deploymentType, deployment.DeployPhases())
}

// NewDeleteModel creates the model for a delete run.
func NewDeleteModel(stackName string) Model {
	return newModel("Deleting "+stackName, "", deployment.DeletePhases())
}

// Init implements tea.Model. Elapsed times refresh on every spinner frame.
func (m Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Err = ErrInterrupted
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case PhaseMsg:
		m.updatePhase(msg)
		if msg.Err != nil {
			m.Err = msg.Err
			return m, tea.Quit
		}

	case spinner.TickMsg:
		m.updateElapsed()
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		m.updateElapsed()
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updatePhase(msg PhaseMsg) {
	idx := -1
	for i, phase := range m.Phases {
		if phase.Key == msg.Phase {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	now := m.clock()
	p := &m.Phases[idx]
	switch {
	case msg.Err != nil:
		p.Err = msg.Err
		p.Active = false
	case msg.Done:
		p.Done = true
		p.Skipped = msg.Skipped
		p.Active = false
	default:
		p.Active = true
		p.StartedAt = now
	}
	if !p.StartedAt.IsZero() && !p.Active {
		p.Elapsed = now.Sub(p.StartedAt)
	}
}

func (m *Model) updateElapsed() {
	now := m.clock()
	for i := range m.Phases {
		if m.Phases[i].Active {
			m.Phases[i].Elapsed = now.Sub(m.Phases[i].StartedAt)
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}

func (m Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
