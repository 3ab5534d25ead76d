package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaclient/cmd/ollamactl/session"
	"github.com/papercomputeco/ollamaclient/pkg/config"
)

const configLongDesc string = `Manage the ollamactl configuration file.

Settings are resolved from flags, then OLLAMACTL_* environment variables,
then the TOML config file, then built-in defaults.

Examples:
  ollamactl config init
  ollamactl config init ./ollamactl.toml --force
  OLLAMACTL_MODEL=mistral ollamactl config show`

const configShortDesc string = "Create or show the configuration"

type initCommander struct {
	force bool
}

func NewConfigCmd(s *session.Session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newShowCmd(s))

	return cmd
}

func newInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := config.WriteFile(path, config.Defaults(), c.force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func newShowCmd(s *session.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.Load(cmd); err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), s.Config())
		},
	}
}
