package modelscmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/llm"
	"github.com/papercomputeco/ollamaclient/pkg/render"
)

type showCommander struct {
	session   *session.Session
	modelfile bool
	asJSON    bool
}

func newShowCmd(s *session.Session) *cobra.Command {
	cmder := &showCommander{session: s}

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a model's details and Modelfile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&cmder.modelfile, "modelfile", false, "Print only the Modelfile")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the response document as JSON")

	return cmd
}

func (c *showCommander) run(ctx context.Context, cmd *cobra.Command, name string) error {
	if err := c.session.Load(cmd); err != nil {
		return err
	}

	info, err := c.session.Client().ShowModel(ctx, name)
	if err != nil {
		return fmt.Errorf("could not show model %s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	switch {
	case c.asJSON:
		return render.JSON(out, info.Raw)
	case c.modelfile:
		_, err := io.WriteString(out, ensureNewline(info.Modelfile))
		return err
	}

	printDetails(out, render.NewStyles(out), name, info)
	return nil
}

func printDetails(out io.Writer, styles render.Styles, name string, info *llm.ShowResponse) {
	styles.Section(out, name)

	fields := [][2]string{
		{"family", info.Details.Family},
		{"format", info.Details.Format},
		{"parameters", info.Details.ParameterSize},
		{"quantization", info.Details.QuantizationLevel},
	}
	for _, f := range fields {
		if f[1] != "" {
			fmt.Fprintf(out, "  %-13s %s\n", f[0], f[1])
		}
	}

	if info.Parameters != "" {
		fmt.Fprintln(out)
		styles.Note(out, "Parameters")
		fmt.Fprint(out, indent(info.Parameters))
	}
	if info.Template != "" {
		fmt.Fprintln(out)
		styles.Note(out, "Template")
		fmt.Fprint(out, indent(info.Template))
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return "  " + strings.Join(lines, "\n  ") + "\n"
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
