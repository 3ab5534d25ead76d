package examplescmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/llm"
	"github.com/papercomputeco/ollamaclient/pkg/ollama"
	"github.com/papercomputeco/ollamaclient/pkg/render"
)

const examplesLongDesc string = `Run a tour of the client against a live server.

Lists models, generates completions with and without options, holds a chat
and a multi-turn conversation, and finishes with creative writing and code
generation prompts. Every example uses the configured model, so pull it first.

Examples:
  ollamactl examples
  ollamactl examples --model mistral --url http://gpu-box:11434`

const examplesShortDesc string = "Run the client examples against a server"

type examplesCommander struct {
	session *session.Session
	client  *ollama.Client
	model   string
	out     io.Writer
	styles  render.Styles
}

type example struct {
	title string
	run   func(ctx context.Context) error
}

func NewExamplesCmd(s *session.Session) *cobra.Command {
	cmder := &examplesCommander{session: s}

	cmd := &cobra.Command{
		Use:   "examples",
		Short: examplesShortDesc,
		Long:  examplesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	return cmd
}

func (c *examplesCommander) run(ctx context.Context, cmd *cobra.Command) error {
	if err := c.session.Load(cmd); err != nil {
		return err
	}
	c.client = c.session.Client()
	c.model = c.session.Config().Model
	c.out = cmd.OutOrStdout()
	c.styles = render.NewStyles(c.out)

	c.styles.Section(c.out, "Ollama client examples")
	fmt.Fprintln(c.out)

	err := c.runAll(ctx)
	if err != nil {
		c.styles.Fail(c.out, "Error running examples: %v", err)
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "Make sure:")
		fmt.Fprintln(c.out, "  1. Ollama is running on your system")
		fmt.Fprintf(c.out, "  2. You have at least one model pulled (e.g., ollamactl models pull %s)\n", c.model)
		fmt.Fprintln(c.out, "  3. The model name in the examples matches your available models")
	} else {
		c.styles.OK(c.out, "All examples completed successfully!")
	}

	c.customServer(ctx)
	return err
}

func (c *examplesCommander) runAll(ctx context.Context) error {
	examples := []example{
		{"Example 1: Listing available models", c.listModels},
		{"Example 2: Simple text generation", c.simpleGeneration},
		{"Example 3: Generation with custom parameters", c.customParameters},
		{"Example 4: Chat conversation", c.chat},
		{"Example 5: Multi-turn conversation", c.multiTurn},
		{"Example 6: Creative writing", c.creativeWriting},
		{"Example 7: Code generation", c.codeGeneration},
	}

	for _, ex := range examples {
		c.styles.Section(c.out, ex.title)
		if err := ex.run(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
	}
	return nil
}

func (c *examplesCommander) listModels(ctx context.Context) error {
	models, err := c.client.ListModels(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, "Available models: ")
	return render.JSON(c.out, models.Raw)
}

func (c *examplesCommander) generate(ctx context.Context, label, prompt string, opts *llm.Options) error {
	resp, err := c.client.Generate(ctx, c.model, prompt, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", label, resp.Response)
	return nil
}

func (c *examplesCommander) simpleGeneration(ctx context.Context) error {
	return c.generate(ctx, "Response", "Write a haiku about programming", nil)
}

func (c *examplesCommander) customParameters(ctx context.Context) error {
	return c.generate(ctx, "Response", "Explain quantum computing in simple terms", &llm.Options{
		Extra: map[string]any{
			"temperature": 0.3,
			"max_tokens":  150,
			"top_p":       0.9,
			"top_k":       40,
		},
	})
}

func (c *examplesCommander) chat(ctx context.Context) error {
	resp, err := c.client.Chat(ctx, c.model, []llm.Message{
		llm.UserMessage("What are the benefits of learning Go?"),
		llm.AssistantMessage("Go is a small, fast language with great tooling. It is widely used for servers and command-line tools."),
		llm.UserMessage("What about Rust?"),
	}, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Chat response: %s\n", resp.Message.Content)
	return nil
}

func (c *examplesCommander) multiTurn(ctx context.Context) error {
	conv := llm.NewConversation("")

	first, err := c.client.Chat(ctx, c.model, conv.Say("Let's play a game. I'm thinking of a number between 1 and 10."), nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "AI: %s\n", first.Message.Content)
	conv.Append(first.Message)

	second, err := c.client.Chat(ctx, c.model, conv.Say("Is it 7?"), nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "AI: %s\n", second.Message.Content)
	return nil
}

func (c *examplesCommander) creativeWriting(ctx context.Context) error {
	return c.generate(ctx, "Creative story",
		"Write a short story about a robot who discovers emotions. Make it touching and under 100 words.",
		&llm.Options{Extra: map[string]any{"temperature": 0.8, "max_tokens": 200}})
}

func (c *examplesCommander) codeGeneration(ctx context.Context) error {
	return c.generate(ctx, "Code",
		"Write a Go function that reverses a string without using a library helper",
		&llm.Options{Extra: map[string]any{"temperature": 0.2, "max_tokens": 150}})
}

// customServer shows a client built for an explicit base URL. Its failure is
// reported but does not fail the command.
func (c *examplesCommander) customServer(ctx context.Context) {
	fmt.Fprintln(c.out)
	c.styles.Section(c.out, "Custom server example")

	custom := ollama.New(c.session.Config().URL, ollama.WithLogger(c.session.Logger()))
	resp, err := custom.Generate(ctx, c.model, "Hello from custom server!", nil)
	if err != nil {
		c.styles.Fail(c.out, "Custom server error: %v", err)
		return
	}
	fmt.Fprintf(c.out, "Custom server response: %s\n", resp.Response)
}
