package checkcmder

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/ollama"
	"github.com/papercomputeco/ollamaclient/pkg/render"
)

const checkLongDesc string = `Check that the model server is reachable and behaving.

Runs three probes in order:
  1. lists the installed models (fails the check when the server is unreachable)
  2. pulls the configured model (a failure here is only a warning)
  3. generates with a model that does not exist, which must be rejected

Examples:
  ollamactl check
  ollamactl check --url http://192.168.1.42:11434`

const checkShortDesc string = "Check the connection to the model server"

// MissingModel is the model the error-handling probe asks for.
const MissingModel = "non-existent-model"

type checkCommander struct {
	session *session.Session
	noPull  bool
}

func NewCheckCmd(s *session.Session) *cobra.Command {
	cmder := &checkCommander{session: s}

	cmd := &cobra.Command{
		Use:   "check",
		Short: checkShortDesc,
		Long:  checkLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.noPull, "no-pull", false, "Skip the pull probe")

	return cmd
}

func (c *checkCommander) run(ctx context.Context, cmd *cobra.Command) error {
	if err := c.session.Load(cmd); err != nil {
		return err
	}
	client := c.session.Client()
	cfg := c.session.Config()
	out := cmd.OutOrStdout()
	styles := render.NewStyles(out)

	styles.Section(out, "Testing connection to "+client.BaseURL())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "1. Testing server connection...")
	list, err := client.ListModels(ctx)
	if err != nil {
		styles.Fail(out, "Connection test failed: %v", err)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Make sure:")
		fmt.Fprintln(out, "  1. Ollama is installed and running")
		fmt.Fprintf(out, "  2. Ollama is accessible at %s\n", client.BaseURL())
		return fmt.Errorf("server at %s is not reachable: %w", client.BaseURL(), err)
	}
	styles.OK(out, "Server is running with %d installed models", len(list.Models))
	for _, m := range list.Models {
		styles.Note(out, "  %s", m.Name)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "2. Testing model pull...")
	if c.noPull {
		styles.Note(out, "skipped")
	} else {
		last, err := client.PullModel(ctx, cfg.Model)
		switch {
		case err != nil:
			styles.Warn(out, "Model pull failed (expected if the server has no registry access): %v", err)
		case last.Err() != nil:
			styles.Warn(out, "Model pull ended with: %s", render.Describe(last))
		default:
			styles.OK(out, "Model pull finished: %s", render.Describe(last))
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "3. Testing error handling...")
	_, err = client.Generate(ctx, MissingModel, "This should fail", nil)
	if err == nil {
		styles.Fail(out, "Generation with %s unexpectedly succeeded", MissingModel)
		return errors.New("server accepted a request for a model that does not exist")
	}
	if code, ok := ollama.StatusCode(err); ok {
		styles.OK(out, "Error handling works correctly (HTTP %d)", code)
	} else {
		styles.Warn(out, "Request failed without an HTTP status: %v", err)
	}
	fmt.Fprintln(out)

	styles.OK(out, "All checks completed!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To use the full functionality:")
	fmt.Fprintf(out, "  1. Pull a model: ollamactl models pull %s\n", cfg.Model)
	fmt.Fprintln(out, "  2. Run examples: ollamactl examples")
	return nil
}
