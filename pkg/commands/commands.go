package commands

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/notes/pkg/config"
)

var (
	output  = &base.OutputOptions{}
	verbose bool
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "notes",
		Short: base.Wrap80("Personal notes, synced to your account, from the command line."),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	config.AddFlags(cmd.PersistentFlags())

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addList(topLevel)
	addShow(topLevel)
	addLogin(topLevel)
	addSignup(topLevel)
	addLogout(topLevel)
	addWhoami(topLevel)
	addMCP(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}
