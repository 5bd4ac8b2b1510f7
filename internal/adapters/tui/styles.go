package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#F3F4F6")
	colorBorder  = lipgloss.Color("#4B5563")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				PaddingLeft(2)

	unselectedItemStyle = lipgloss.NewStyle().
				Foreground(colorText).
				PaddingLeft(4)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)
)

func formatKey(key, desc string) string {
	return keyStyle.Render(key) + " " + mutedStyle.Render(desc)
}

// actionItem is a menu entry.
type actionItem struct {
	title string
	desc  string
}

func (i actionItem) FilterValue() string { return i.title }
func (i actionItem) Title() string       { return i.title }
func (i actionItem) Description() string { return i.desc }

type actionDelegate struct{}

func (d actionDelegate) Height() int                             { return 2 }
func (d actionDelegate) Spacing() int                            { return 0 }
func (d actionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d actionDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(actionItem)
	if !ok {
		return
	}
	if index == m.Index() {
		_, _ = fmt.Fprint(w, selectedItemStyle.Render("▸ "+i.title+"\n  "+i.desc))
		return
	}
	_, _ = fmt.Fprint(w, unselectedItemStyle.Render(i.title+"\n"+mutedStyle.Render(i.desc)))
}
