package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

const maxWrap = 100

// StyleFor picks the glamour style for w: dark or light on a terminal,
// depending on its background, and notty otherwise.
func StyleFor(w io.Writer) string {
	if !IsTerminal(w) {
		return "notty"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// MarkdownString renders text with the named glamour style, wrapped at width.
func MarkdownString(text, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r.Render(text)
}

// Markdown writes a model answer to w. On a terminal it is rendered as markdown;
// otherwise, or if rendering fails, the text is written unchanged with a trailing
// newline.
func Markdown(w io.Writer, text string) error {
	if IsTerminal(w) {
		width := min(Width(w, 80), maxWrap)
		if out, err := MarkdownString(text, StyleFor(w), width); err == nil {
			_, err = io.WriteString(w, out)
			return err
		}
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}
