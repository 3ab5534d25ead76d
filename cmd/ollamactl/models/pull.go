package modelscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/ollama"
	"github.com/papercomputeco/ollamaclient/pkg/render"
)

type pullCommander struct {
	session *session.Session
	quiet   bool
}

func newPullCmd(s *session.Session) *cobra.Command {
	cmder := &pullCommander{session: s}

	cmd := &cobra.Command{
		Use:   "pull <name>",
		Short: "Download a model from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Do not show progress; print only the final status")

	return cmd
}

func (c *pullCommander) run(ctx context.Context, cmd *cobra.Command, name string) error {
	if err := c.session.Load(cmd); err != nil {
		return err
	}
	client := c.session.Client()
	out := cmd.OutOrStdout()

	var (
		last ollama.PullLine
		err  error
	)
	if c.quiet {
		last, err = client.PullModel(ctx, name)
	} else {
		last, err = render.Pull(ctx, out, name, func(ctx context.Context, fn func(ollama.PullLine)) (ollama.PullLine, error) {
			return client.PullModelStream(ctx, name, fn)
		})
	}
	if err != nil {
		return fmt.Errorf("could not pull model %s: %w", name, err)
	}

	c.session.Logger().Debug("pull final line", zap.String("model", name), zap.String("line", last.Raw))

	styles := render.NewStyles(out)
	if lineErr := last.Err(); lineErr != nil {
		styles.Fail(out, "pull %s: %s", name, render.Describe(last))
		return fmt.Errorf("pull %s failed: %w", name, lineErr)
	}
	styles.OK(out, "pulled %s: %s", name, render.Describe(last))
	return nil
}
