package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/notes/pkg/commands/options"
	"tableflip.dev/notes/pkg/runner/get"
)

func addList(topLevel *cobra.Command) {
	fo := &options.FilterOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "get"},
		Short:   "list your notes, most recently updated first",
		Example: `
notes list
notes list --filter groceries
notes list --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := loadGateway(cmd)
			if err != nil {
				return handleError(err)
			}
			s := get.Get{
				Gateway: gw,
				Filter:  fo.Filter,
				ShowID:  io.ShowID,
				JSON:    output.JSON,
				Out:     cmd.OutOrStdout(),
			}
			return handleError(s.Do(cmd.Context()))
		},
	}

	options.AddFilterArgs(cmd, fo)
	options.AddShowIDArgs(cmd, io)
	base.AddOutputArg(cmd, output)

	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "print one note",
		Example: `
notes show 42
notes show 42 --json
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: noteCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := loadGateway(cmd)
			if err != nil {
				return handleError(err)
			}
			s := get.Get{
				Gateway: gw,
				ID:      args[0],
				JSON:    output.JSON,
				Out:     cmd.OutOrStdout(),
			}
			return handleError(s.Do(cmd.Context()))
		},
	}

	base.AddOutputArg(cmd, output)

	topLevel.AddCommand(cmd)
}
