package modelscmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/render"
)

type listCommander struct {
	session *session.Session
	asJSON  bool
}

func newListCmd(s *session.Session) *cobra.Command {
	cmder := &listCommander{session: s}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed models",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the response document as JSON")

	return cmd
}

func (c *listCommander) run(ctx context.Context, cmd *cobra.Command) error {
	if err := c.session.Load(cmd); err != nil {
		return err
	}

	list, err := c.session.Client().ListModels(ctx)
	if err != nil {
		return fmt.Errorf("could not list models: %w", err)
	}

	out := cmd.OutOrStdout()
	if c.asJSON {
		return render.JSON(out, list.Raw)
	}

	if len(list.Models) == 0 {
		fmt.Fprintln(out, "No models installed. Pull one with: ollamactl models pull <name>")
		return nil
	}

	render.ModelTable(out, list.Models, time.Now())
	return nil
}
