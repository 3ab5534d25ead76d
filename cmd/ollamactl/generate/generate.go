package generatecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/llm"
	"github.com/papercomputeco/ollamaclient/pkg/render"
)

const generateLongDesc string = `Generate a single completion for a prompt.

The prompt is taken from the arguments, or read from stdin when none are
given. The answer is rendered as markdown when stdout is a terminal.

Examples:
  ollamactl generate "Write a haiku about programming"
  ollamactl generate --temperature 0.3 --top-k 40 "Explain quantum computing"
  ollamactl generate --set max_tokens=150 --json "Hello"
  echo "Summarize this" | ollamactl generate --model mistral`

const generateShortDesc string = "Generate a completion"

type generateCommander struct {
	session *session.Session
	options session.OptionFlags

	system string
	format string
	raw    bool
	asJSON bool
}

func NewGenerateCmd(s *session.Session) *cobra.Command {
	cmder := &generateCommander{session: s}

	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVar(&cmder.system, "system", "", "System prompt")
	cmd.Flags().StringVar(&cmder.format, "format", "", `Response format (e.g. "json")`)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Send the prompt without the model's template")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the full response document as JSON")
	cmder.options.Register(cmd)

	return cmd
}

func (c *generateCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	if err := c.session.Load(cmd); err != nil {
		return err
	}

	prompt, err := readPrompt(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	opts, err := c.options.Build(cmd)
	if err != nil {
		return err
	}

	req := llm.GenerateRequest{
		Model:  c.session.Config().Model,
		Prompt: prompt,
		System: c.system,
		Format: c.format,
		Raw:    c.raw,
	}

	resp, err := c.session.Client().GenerateRequest(ctx, req, opts)
	if err != nil {
		return fmt.Errorf("could not generate completion: %w", err)
	}

	c.session.Logger().Debug("generation finished",
		zap.String("model", resp.Model),
		zap.Int("eval_count", resp.EvalCount),
		zap.Float64("tokens_per_second", resp.TokensPerSecond()),
	)

	if c.asJSON {
		return render.JSON(cmd.OutOrStdout(), resp.Raw)
	}
	return render.Markdown(cmd.OutOrStdout(), resp.Response)
}

// readPrompt joins args, or reads all of in when there are none.
func readPrompt(args []string, in io.Reader) (string, error) {
	prompt := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("could not read prompt from stdin: %w", err)
		}
		prompt = string(data)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("no prompt given")
	}
	return prompt, nil
}
