package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles renders status lines. Colors are only emitted when the writer the
// styles were created for supports them.
type Styles struct {
	Heading lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles returns styles for output written to w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Failure: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Muted:   r.NewStyle().Faint(true),
	}
}

// Section prints a heading line.
func (s Styles) Section(w io.Writer, title string) {
	fmt.Fprintln(w, s.Heading.Render("=== "+title+" ==="))
}

// OK prints a success line.
func (s Styles) OK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Fail prints a failure line.
func (s Styles) Fail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Failure.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func (s Styles) Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Warning.Render("! "+fmt.Sprintf(format, args...)))
}

// Note prints a de-emphasized line.
func (s Styles) Note(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Muted.Render(fmt.Sprintf(format, args...)))
}
