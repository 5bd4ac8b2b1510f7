package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

func Success(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, successStyle.Render("✓ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, warningStyle.Render("⚠ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func Error(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, errorStyle.Render("✗ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func Info(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, infoStyle.Render("ℹ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func Muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a title underlined to its own width.
func Section(w io.Writer, title string) {
	fmt.Fprintln(w, primaryStyle.Render(title))
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// Records prints one line per record using its String form, or a muted
// placeholder when there are none.
func Records[T fmt.Stringer](w io.Writer, title string, recs []T) {
	Section(w, fmt.Sprintf("%s (%d)", title, len(recs)))
	if len(recs) == 0 {
		Muted(w, "  none")
		return
	}
	for _, r := range recs {
		fmt.Fprintf(w, "  %s\n", r.String())
	}
}

// JSON writes v indented, for --json mode.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
