package commands

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/state"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(notes completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(notes completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

// noteCompletions offers the ids of the signed-in account's notes, described
// by their titles.
func noteCompletions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	gw, _, err := loadGateway(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws := state.New(ctx, gw)
	state.Settle(ws, ws.Start())

	var out []string
	for _, s := range ws.Notes.Items() {
		if strings.HasPrefix(s.ID, toComplete) {
			out = append(out, s.ID+"\t"+note.DisplayTitle(s.Title))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
