package chatcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/llm"
	"github.com/papercomputeco/ollamaclient/pkg/ollama"
	"github.com/papercomputeco/ollamaclient/pkg/render"
)

const chatLongDesc string = `Chat with a model.

With a message, sends it as a single user turn and prints the reply. With
--interactive, starts a conversation: every reply is kept in the history sent
with the next turn. Type /exit or press Ctrl-D to leave.

Examples:
  ollamactl chat "What are the benefits of learning Go?"
  ollamactl chat --system "Answer in one sentence." "Why is the sky blue?"
  ollamactl chat -i --model mistral`

const chatShortDesc string = "Chat with a model"

type chatCommander struct {
	session *session.Session
	options session.OptionFlags

	system      string
	format      string
	asJSON      bool
	interactive bool
}

func NewChatCmd(s *session.Session) *cobra.Command {
	cmder := &chatCommander{session: s}

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVar(&cmder.system, "system", "", "System prompt (default: the configured one)")
	cmd.Flags().StringVar(&cmder.format, "format", "", `Response format (e.g. "json")`)
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the full response document as JSON")
	cmd.Flags().BoolVarP(&cmder.interactive, "interactive", "i", false, "Start an interactive conversation")
	cmder.options.Register(cmd)

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	if err := c.session.Load(cmd); err != nil {
		return err
	}

	opts, err := c.options.Build(cmd)
	if err != nil {
		return err
	}

	system := c.system
	if system == "" {
		system = c.session.Config().System
	}
	conv := llm.NewConversation(system)

	if c.interactive {
		return c.repl(ctx, cmd, conv, opts, newPromptReader(cmd))
	}

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return errors.New("no message given (use --interactive for a conversation)")
	}

	resp, err := c.send(ctx, conv.Say(message), opts)
	if err != nil {
		return err
	}

	if c.asJSON {
		return render.JSON(cmd.OutOrStdout(), resp.Raw)
	}
	return render.Markdown(cmd.OutOrStdout(), resp.Message.Content)
}

func (c *chatCommander) send(ctx context.Context, messages []llm.Message, opts *llm.Options) (*llm.ChatResponse, error) {
	req := llm.ChatRequest{
		Model:    c.session.Config().Model,
		Messages: messages,
		Format:   c.format,
	}

	resp, err := c.session.Client().ChatRequest(ctx, req, opts)
	if err != nil {
		return nil, fmt.Errorf("could not chat: %w", err)
	}

	c.session.Logger().Debug("chat turn finished",
		zap.Int("history", len(messages)),
		zap.Int("eval_count", resp.EvalCount),
	)
	return resp, nil
}

// lineReader yields user input until it returns io.EOF.
type lineReader interface {
	ReadLine() (string, error)
}

// repl runs a conversation. A turn that fails is reported and left out of the
// history so the next turn can retry it.
func (c *chatCommander) repl(ctx context.Context, cmd *cobra.Command, conv *llm.Conversation, opts *llm.Options, in lineReader) error {
	out := cmd.OutOrStdout()
	styles := render.NewStyles(out)
	styles.Note(out, "Chatting with %s. Type /exit to leave.", c.session.Config().Model)

	for {
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/exit", "/quit", "/bye":
			return nil
		}

		user := llm.UserMessage(line)
		resp, err := c.send(ctx, append(conv.History(), user), opts)
		if err != nil {
			if ollama.IsNotFound(err) {
				styles.Fail(out, "model %s is not installed; pull it with: ollamactl models pull %s",
					c.session.Config().Model, c.session.Config().Model)
				return err
			}
			styles.Fail(out, "%v", err)
			continue
		}

		conv.Append(user, resp.Message)
		if err := render.Markdown(out, resp.Message.Content); err != nil {
			return err
		}
	}
}

type promptReader struct {
	cmd *cobra.Command
}

func newPromptReader(cmd *cobra.Command) *promptReader {
	return &promptReader{cmd: cmd}
}

func (r *promptReader) ReadLine() (string, error) {
	prompt := promptui.Prompt{
		Label:  ">>>",
		Stdin:  io.NopCloser(r.cmd.InOrStdin()),
		Stdout: nopWriteCloser{r.cmd.OutOrStdout()},
	}

	line, err := prompt.Run()
	switch {
	case errors.Is(err, promptui.ErrEOF), errors.Is(err, promptui.ErrInterrupt):
		return "", io.EOF
	case err != nil:
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return line, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
