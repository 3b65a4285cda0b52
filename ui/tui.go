package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mhpenta/copilot"
)

const (
	appTitle      = "Hackathon Co-Pilot"
	responseLabel = "Co-Pilot's Response:"
	helpText      = "Tab/Shift+Tab = focus • Enter = run • PgUp/PgDn = scroll • Esc/Ctrl+C = quit"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	buttonStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder(), false, true)
	focusedButton = buttonStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("212"))
	disabledStyle = buttonStyle.Faint(true)
	responseBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// outcomeMsg carries a finished invocation back into the update loop.
type outcomeMsg struct {
	agent   string
	outcome copilot.Outcome
}

// Model is the terminal front-end. All state that outlives a frame lives in
// the Controller; the Model only holds widgets.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	ctrl   *Controller

	agents []copilot.Agent
	inputs []textinput.Model
	focus  int

	vp   viewport.Model
	spin spinner.Model

	width  int
	height int
}

// NewModel builds the terminal UI on top of ctrl. Cancelling ctx, or quitting,
// aborts calls in flight.
func NewModel(ctx context.Context, ctrl *Controller) Model {
	ctx, cancel := context.WithCancel(ctx)

	agents := ctrl.Agents()
	inputs := make([]textinput.Model, len(agents))
	for i, a := range agents {
		if !a.RequiresInput() {
			continue
		}
		ti := textinput.New()
		ti.Placeholder = a.Placeholder
		ti.Prompt = "› "
		ti.Width = 60
		ti.SetValue(ctrl.Input(a.Name))
		inputs[i] = ti
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:    ctx,
		cancel: cancel,
		ctrl:   ctrl,
		agents: agents,
		inputs: inputs,
		vp:     viewport.New(80, 12),
		spin:   sp,
	}
	m.focusAgent(0)
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit

		case "tab":
			cmd := m.focusAgent(m.focus + 1)
			return m, cmd

		case "shift+tab":
			cmd := m.focusAgent(m.focus - 1)
			return m, cmd

		case "pgup":
			m.vp.LineUp(m.vp.Height)
			return m, nil

		case "pgdown":
			m.vp.LineDown(m.vp.Height)
			return m, nil

		case "enter":
			return m.trigger()
		}

	case outcomeMsg:
		m.ctrl.Finish(msg.agent, msg.outcome)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if len(m.agents) == 0 || !m.agents[m.focus].RequiresInput() {
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render(appTitle)
	if m.ctrl.Busy() {
		title += " " + m.spin.View()
	}
	b.WriteString(title + "\n\n")

	for i, a := range m.agents {
		b.WriteString(labelStyle.Render(a.StepLabel) + "\n")
		if a.RequiresInput() {
			b.WriteString(m.inputs[i].View() + "\n")
		}
		b.WriteString(m.button(i, a) + "\n\n")
	}

	b.WriteString(labelStyle.Render(responseLabel) + "\n")
	b.WriteString(responseBox.Render(m.vp.View()) + "\n")
	b.WriteString(faintStyle.Render(helpText))

	return b.String()
}

func (m Model) button(i int, a copilot.Agent) string {
	switch {
	case !m.ctrl.Enabled(a.Name):
		return disabledStyle.Render(m.spin.View() + " " + a.ButtonLabel)
	case i == m.focus:
		return focusedButton.Render(a.ButtonLabel)
	default:
		return buttonStyle.Render(a.ButtonLabel)
	}
}

// trigger runs the focused agent. The working message is rendered before the
// returned command completes.
func (m Model) trigger() (tea.Model, tea.Cmd) {
	if len(m.agents) == 0 {
		return m, nil
	}

	a := m.agents[m.focus]
	if a.RequiresInput() {
		if err := m.ctrl.SetInput(a.Name, m.inputs[m.focus].Value()); err != nil {
			return m, nil
		}
	}

	task, err := m.ctrl.Start(m.ctx, a.Name)
	if errors.Is(err, ErrBusy) {
		return m, nil
	}
	m.refresh()
	if err != nil {
		return m, nil
	}

	name := a.Name
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		return outcomeMsg{agent: name, outcome: task()}
	})
}

// focusAgent moves focus to agent i, wrapping around.
func (m *Model) focusAgent(i int) tea.Cmd {
	n := len(m.agents)
	if n == 0 {
		return nil
	}
	m.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j, a := range m.agents {
		if !a.RequiresInput() {
			continue
		}
		if j == m.focus {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

// refresh copies the controller's display into the viewport.
func (m *Model) refresh() {
	text := m.ctrl.Display()
	if m.vp.Width > 0 {
		text = lipgloss.NewStyle().Width(m.vp.Width).Render(text)
	}
	m.vp.SetContent(text)
	m.vp.GotoTop()
}

func (m Model) resize(w, h int) Model {
	if w <= 0 || h <= 0 {
		return m
	}
	m.width, m.height = w, h

	// title, help, response label and box border
	reserved := 2 + 1 + 1 + 2
	for _, a := range m.agents {
		reserved += 4
		if !a.RequiresInput() {
			reserved--
		}
	}

	m.vp.Width = max(20, w-4)
	m.vp.Height = max(5, h-reserved)
	for i, a := range m.agents {
		if a.RequiresInput() {
			m.inputs[i].Width = max(20, w-6)
		}
	}
	m.refresh()
	return m
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, ctrl *Controller) error {
	p := tea.NewProgram(NewModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running terminal ui: %w", err)
	}
	return nil
}
