// Package tui is the interactive menu over the hotel directory.
package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hotelbook/internal/app"
)

type mode int

const (
	modeMenu mode = iota
	modePrompt
	modeRunning
	modeResult
)

type resultMsg struct {
	text string
	err  error
}

// Model is the bubbletea model for the menu. Choosing an action walks its
// prompts, runs it against the Directory and shows the outcome before
// returning to the menu.
type Model struct {
	ctx     context.Context
	dir     *app.Directory
	actions []action

	mode    mode
	list    list.Model
	input   textinput.Model
	current int
	step    int
	vals    values
	notice  string
	result  string
	failed  bool
	width   int
	height  int
}

func NewModel(ctx context.Context, d *app.Directory) Model {
	acts := actions()
	items := make([]list.Item, len(acts))
	for i, a := range acts {
		items[i] = actionItem{title: a.title, desc: a.desc}
	}
	l := list.New(items, actionDelegate{}, 0, 0)
	l.Title = "Hotels & Guests"
	l.SetShowStatusBar(false)
	l.Styles.Title = titleStyle

	in := textinput.New()
	in.CharLimit = 256

	return Model{ctx: ctx, dir: d, actions: acts, list: l, input: in}
}

func (m Model) Init() tea.Cmd { return tea.EnterAltScreen }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case resultMsg:
		return m.finish(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeMenu:
			if m.list.FilterState() != list.Filtering {
				switch msg.String() {
				case "q":
					return m, tea.Quit
				case "enter":
					return m.choose()
				}
			}
		case modePrompt:
			switch msg.Type {
			case tea.KeyEsc:
				m.input.Blur()
				m.mode = modeMenu
				return m, nil
			case tea.KeyEnter:
				return m.submit()
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		case modeResult:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "enter", "esc", " ":
				m.mode = modeMenu
			}
			return m, nil
		case modeRunning:
			return m, nil
		}
	}

	if m.mode == modeMenu {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) choose() (Model, tea.Cmd) {
	i := m.list.Index()
	if i < 0 || i >= len(m.actions) {
		return m, nil
	}
	a := m.actions[i]
	if a.quit {
		return m, tea.Quit
	}
	m.current = i
	m.vals = values{}
	if len(a.fields) == 0 {
		m.mode = modeRunning
		return m, m.run()
	}
	return m.prompt(0, "")
}

func (m Model) prompt(step int, notice string) (Model, tea.Cmd) {
	f := m.actions[m.current].fields[step]
	m.step = step
	m.notice = notice
	m.mode = modePrompt
	m.input.Reset()
	m.input.Placeholder = f.label
	m.input.Prompt = f.label + ": "
	return m, m.input.Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	fields := m.actions[m.current].fields
	f := fields[m.step]
	v := m.input.Value()
	if f.kind != textField {
		v = strings.TrimSpace(v)
	}
	if err := f.check(v); err != nil {
		m.notice = err.Error()
		m.input.Reset()
		return m, nil
	}
	m.vals[f.key] = v
	if m.step+1 < len(fields) {
		return m.prompt(m.step+1, "")
	}
	m.input.Blur()
	m.mode = modeRunning
	return m, m.run()
}

func (m Model) run() tea.Cmd {
	a, ctx, d, vals := m.actions[m.current], m.ctx, m.dir, m.vals
	return func() tea.Msg {
		text, err := a.run(ctx, d, vals)
		return resultMsg{text: text, err: err}
	}
}

// finish shows the outcome of an action. Rejected input goes back to the
// prompt that produced it.
func (m Model) finish(msg resultMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		if key, ok := retryField(msg.err); ok {
			for i, f := range m.actions[m.current].fields {
				if f.key == key {
					return m.prompt(i, msg.err.Error())
				}
			}
		}
		m.mode = modeResult
		m.failed = true
		m.result = msg.err.Error()
		return m, nil
	}
	m.mode = modeResult
	m.failed = false
	m.result = msg.text
	return m, nil
}

func (m Model) View() string {
	switch m.mode {
	case modePrompt:
		var b strings.Builder
		b.WriteString(titleStyle.Render(m.actions[m.current].title))
		b.WriteString("\n")
		if m.notice != "" {
			b.WriteString(errorStyle.Render(m.notice))
			b.WriteString("\n")
		}
		b.WriteString(m.input.View())
		b.WriteString(helpStyle.Render(formatKey("enter", "submit") + " • " + formatKey("esc", "back")))
		return boxStyle.Render(b.String())

	case modeRunning:
		return mutedStyle.Render("Working...")

	case modeResult:
		body := successStyle.Render(m.result)
		if m.failed {
			body = errorStyle.Render(m.result)
		} else if strings.Contains(m.result, "\n") {
			body = m.result
		}
		return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			body,
			helpStyle.Render(formatKey("enter", "back to menu")+" • "+formatKey("q", "quit")),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		helpStyle.Render(formatKey("↑/↓", "navigate")+" • "+formatKey("enter", "choose")+" • "+formatKey("q", "quit")),
	)
}

// Run starts the menu on the given terminal streams and blocks until the
// user leaves it.
func Run(ctx context.Context, d *app.Directory, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewModel(ctx, d), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
