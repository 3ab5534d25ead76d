package main

import (
	"os"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/ollamaclient/cmd/ollamactl/chat"
	checkcmder "github.com/papercomputeco/ollamaclient/cmd/ollamactl/check"
	configcmder "github.com/papercomputeco/ollamaclient/cmd/ollamactl/config"
	examplescmder "github.com/papercomputeco/ollamaclient/cmd/ollamactl/examples"
	generatecmder "github.com/papercomputeco/ollamaclient/cmd/ollamactl/generate"
	modelscmder "github.com/papercomputeco/ollamaclient/cmd/ollamactl/models"
	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
)

const rootLongDesc string = `ollamactl talks to a local Ollama-compatible model server.

It generates completions, holds chats, and lists, inspects and pulls models.
Point it at a server with --url, OLLAMACTL_URL, or the url key of the config
file (default http://localhost:11434).`

const rootShortDesc string = "Command-line client for an Ollama model server"

func newRootCmd(s *session.Session) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ollamactl",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
	}

	s.Bind(cmd)

	cmd.AddCommand(generatecmder.NewGenerateCmd(s))
	cmd.AddCommand(chatcmder.NewChatCmd(s))
	cmd.AddCommand(modelscmder.NewModelsCmd(s))
	cmd.AddCommand(examplescmder.NewExamplesCmd(s))
	cmd.AddCommand(checkcmder.NewCheckCmd(s))
	cmd.AddCommand(configcmder.NewConfigCmd(s))

	return cmd
}

func main() {
	s := session.New()
	cmd := newRootCmd(s)

	err := cmd.Execute()
	s.Close()
	if err != nil {
		os.Exit(1)
	}
}
