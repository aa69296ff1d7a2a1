package deck

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// redrawMsg repaints after a change made outside the UI loop.
type redrawMsg struct{}

// navigateMsg moves through the deck as a navigation button would.
type navigateMsg struct {
	delta int
}

// StatusMsg replaces the footer status text.
type StatusMsg string

var (
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	slideStyle  = lipgloss.NewStyle().Padding(1, 2)
)

// Command is an extra key binding. Run returns the status to show.
type Command struct {
	Key  string
	Help string
	Run  func() (string, error)
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithCommands adds key bindings handled before the built-in ones.
func WithCommands(cmds ...Command) ModelOption {
	return func(m *Model) { m.commands = append(m.commands, cmds...) }
}

// Model is the Bubble Tea model of the presenter.
type Model struct {
	ws       *Workspace
	viewport viewport.Model
	width    int
	height   int
	status   string
	commands []Command
}

// NewModel returns a model showing the workspace's active view.
func NewModel(ws *Workspace, opts ...ModelOption) Model {
	m := Model{
		ws:       ws,
		viewport: viewport.New(80, 24),
		width:    80,
		height:   25,
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	view := m.view()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-1, 1)

		if view != nil {
			if err := view.Resize(max(msg.Width-4, minWidth)); err != nil {
				m.status = err.Error()
			}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

		if m.runCommand(msg.String()) {
			m.sync(view)
			return m, nil
		}

		if view == nil {
			break
		}

		if handled := m.handleKey(view, msg.String()); handled {
			m.sync(view)
			return m, nil
		}

	case navigateMsg:
		if view != nil {
			view.Navigate(msg.delta)
		}

	case StatusMsg:
		m.status = string(msg)

	case redrawMsg:
	}

	m.sync(view)

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// handleKey applies presenter key bindings and reports whether the key was
// consumed.
func (m *Model) handleKey(view *View, key string) bool {
	switch key {
	case "f5", "p":
		if err := view.EnterPresentation(); err != nil {
			m.status = err.Error()
		}
	case "esc":
		view.ExitPresentation()
	case "tab":
		view.ToggleMode()
	case "right", "l", "n", " ", "space", "pgdown":
		if !view.Presenting() {
			return false
		}

		view.Navigate(1)
	case "left", "h", "pgup", "backspace":
		if !view.Presenting() {
			return false
		}

		view.Navigate(-1)
	default:
		return false
	}

	return true
}

func (m *Model) runCommand(key string) bool {
	for _, c := range m.commands {
		if c.Key != key {
			continue
		}

		status, err := c.Run()
		if err != nil {
			status = err.Error()
		}

		m.status = status

		return true
	}

	return false
}

func (m *Model) sync(view *View) {
	if view == nil {
		m.viewport.SetContent("No deck open")
		return
	}

	if !view.Presenting() {
		m.viewport.SetContent(view.Content())
	}
}

func (m Model) view() *View {
	v, ok := m.ws.ActiveView()
	if !ok {
		return nil
	}

	dv, _ := v.(*View)

	return dv
}

// View implements tea.Model.
func (m Model) View() string {
	view := m.view()

	var body string

	switch {
	case view != nil && view.Presenting():
		body = lipgloss.Place(m.width, max(m.height-1, 1), lipgloss.Left, lipgloss.Center,
			slideStyle.Render(view.Content()))
	default:
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.footer(view))
}

func (m Model) footer(view *View) string {
	if view == nil {
		return footerStyle.Render("q quit")
	}

	left := titleStyle.Render(view.Title())

	var mode string

	switch {
	case view.Presenting():
		idx, total := view.Position()
		mode = fmt.Sprintf("slide %d/%d · esc exit · ←/→ navigate", idx+1, total)
	default:
		mode = fmt.Sprintf("%s · p present · tab toggle source", view.Mode())

		for _, c := range m.commands {
			mode += fmt.Sprintf(" · %s %s", c.Key, c.Help)
		}

		mode += " · q quit"
	}

	out := left + " " + footerStyle.Render(mode)
	if m.status != "" {
		out += " " + statusStyle.Render(m.status)
	}

	return out
}
