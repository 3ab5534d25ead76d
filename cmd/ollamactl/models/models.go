package modelscmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
)

const modelsLongDesc string = `Manage the models installed on the server.

Examples:
  ollamactl models list
  ollamactl models show llama2:7b --modelfile
  ollamactl models pull mistral`

const modelsShortDesc string = "List, inspect, and pull models"

func NewModelsCmd(s *session.Session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
	}

	cmd.AddCommand(newListCmd(s))
	cmd.AddCommand(newShowCmd(s))
	cmd.AddCommand(newPullCmd(s))

	return cmd
}
