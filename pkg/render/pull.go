package render

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/ollamaclient/pkg/ollama"
)

// PullFunc runs a streaming pull, calling fn for every line. It must stop when
// ctx is done.
type PullFunc func(ctx context.Context, fn func(ollama.PullLine)) (ollama.PullLine, error)

// Describe summarizes a pull line for display.
func Describe(line ollama.PullLine) string {
	switch {
	case line.Malformed:
		return fmt.Sprintf("%s: %s", ollama.InvalidJSON, line.Raw)
	case line.Progress.Error != "":
		return "error: " + line.Progress.Error
	}

	status := line.Progress.Status
	if status == "" {
		status = line.Raw
	}
	if pct := line.Progress.Percent(); pct >= 0 {
		return fmt.Sprintf("%s %3.0f%%", status, pct)
	}
	return status
}

type pullLineMsg ollama.PullLine

type pullDoneMsg struct {
	last ollama.PullLine
	err  error
}

// pullModel is the bubbletea model shown while a pull runs.
type pullModel struct {
	name    string
	spinner spinner.Model
	status  string
	done    bool
	last    ollama.PullLine
	err     error
}

func newPullModel(name string, r *lipgloss.Renderer) pullModel {
	return pullModel{
		name: name,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(r.NewStyle().Foreground(lipgloss.Color("12"))),
		),
		status: "starting",
	}
}

func (m pullModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m pullModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pullLineMsg:
		m.status = Describe(ollama.PullLine(msg))
		return m, nil

	case pullDoneMsg:
		m.done = true
		m.last = msg.last
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m pullModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s pulling %s: %s\n", m.spinner.View(), m.name, m.status)
}

// Pull runs pull while showing its progress on w. A terminal gets a spinner with
// the latest status; anything else gets one line per status change. The context
// handed to pull is cancelled when Pull returns, including when the display fails.
func Pull(ctx context.Context, w io.Writer, name string, pull PullFunc) (ollama.PullLine, error) {
	if !IsTerminal(w) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		return pullPlain(ctx, w, pull)
	}
	return pullProgram(ctx, w, name, pull,
		tea.WithContext(ctx),
		tea.WithOutput(w),
		tea.WithInput(nil),
	)
}

func pullProgram(ctx context.Context, w io.Writer, name string, pull PullFunc, opts ...tea.ProgramOption) (ollama.PullLine, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newPullModel(name, lipgloss.NewRenderer(w)), opts...)

	go func() {
		last, err := pull(ctx, func(line ollama.PullLine) {
			p.Send(pullLineMsg(line))
		})
		p.Send(pullDoneMsg{last: last, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return ollama.PullLine{}, fmt.Errorf("running progress display: %w", err)
	}
	m := final.(pullModel)
	return m.last, m.err
}

func pullPlain(ctx context.Context, w io.Writer, pull PullFunc) (ollama.PullLine, error) {
	var previous string
	return pull(ctx, func(line ollama.PullLine) {
		status := line.Progress.Status
		if line.Malformed || line.Progress.Error != "" || status != previous {
			fmt.Fprintln(w, Describe(line))
		}
		previous = status
	})
}
