// Package tui is the terminal front end for an explorer session.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
)

const (
	headerHeight = 2
	footerHeight = 3
)

type stateMsg explorer.State

type errMsg struct{ err error }

// Model drives one explorer.Session from the keyboard. Session calls run in
// commands so Update never waits on the provider.
type Model struct {
	session *explorer.Session
	ctx     context.Context
	updates chan explorer.State
	cancel  func()

	state    explorer.State
	input    textinput.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	styles   styles

	width, height int
	err           error
}

// New subscribes to session. Call Close when the program exits.
func New(ctx context.Context, session *explorer.Session) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type a name, or ask for ideas"
	ti.Prompt = "› "
	ti.CharLimit = 200
	ti.Focus()

	m := &Model{
		session:  session,
		ctx:      ctx,
		updates:  make(chan explorer.State, 1),
		input:    ti,
		viewport: viewport.New(80, 20),
		styles:   defaultStyles(),
	}
	m.renderer, _ = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(76))
	m.cancel = session.Subscribe(m.push)
	return m
}

// push keeps only the newest snapshot. The session calls it with its lock
// held, so it never blocks.
func (m *Model) push(st explorer.State) {
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- st:
	default:
	}
}

// Close unsubscribes from the session.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-m.updates:
			return stateMsg(st)
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		m.state = explorer.State(msg)
		m.refresh()
		return m, m.waitForState()

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.state.Busy() {
			return nil, true
		}
		m.input.Reset()
		m.err = nil
		return m.run(func() error {
			_, err := m.session.Submit(m.ctx, text)
			return err
		}), true
	case "ctrl+t":
		return m.run(func() error {
			m.session.ToggleTour()
			return nil
		}), true
	case "esc":
		return m.run(func() error {
			m.session.Back()
			return nil
		}), true
	case "ctrl+n":
		return m.selectRelative(1), true
	case "ctrl+p":
		return m.selectRelative(-1), true
	}
	return nil, false
}

// selectRelative moves the highlight by delta waypoints, wrapping around.
func (m *Model) selectRelative(delta int) tea.Cmd {
	r := m.state.Result
	if r == nil || len(r.Locations) == 0 {
		return nil
	}
	n := len(r.Locations)
	next := m.state.Selected + delta
	if m.state.Selected == explorer.NoSelection && delta < 0 {
		next = n - 1
	}
	next = (next%n + n) % n
	return m.run(func() error { return m.session.SelectWaypoint(next) })
}

func (m *Model) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width, m.height = width, height
	m.input.Width = width - 4
	m.viewport.Width = width
	m.viewport.Height = max(height-headerHeight-footerHeight, 1)
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(max(width-4, 20))); err == nil {
		m.renderer = r
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderBody())
	if m.state.View == explorer.ViewChat {
		m.viewport.GotoBottom()
	}
}
