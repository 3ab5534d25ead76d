package render

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/olekukonko/tablewriter"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
)

const maxNameWidth = 40

// ModelTable writes models as a table of name, size, modification age, and family.
func ModelTable(w io.Writer, models []llm.ModelSummary, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Size", "Modified", "Family"})
	table.SetBorder(false)
	table.SetColumnSeparator("  ")
	table.SetHeaderLine(false)
	table.SetAutoWrapText(false)

	for _, m := range models {
		table.Append([]string{
			ansi.Truncate(m.Name, maxNameWidth, "…"),
			FormatBytes(m.Size),
			FormatAge(now, m.ModifiedAt.Time),
			m.Details.Family,
		})
	}

	table.Render()
}

// FormatBytes formats n with a binary unit, as model sizes are usually shown.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatAge describes how long before now t was.
func FormatAge(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
