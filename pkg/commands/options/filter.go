// Package options defines shared flag helpers for CLI commands.
package options

import (
	"github.com/spf13/cobra"
)

// FilterOptions narrows a note listing.
type FilterOptions struct {
	Filter string
}

// AddFilterArgs wires the title filter flag on the provided command.
func AddFilterArgs(cmd *cobra.Command, o *FilterOptions) {
	cmd.Flags().StringVarP(&o.Filter, "filter", "f", "",
		"Only list notes whose title contains this text, ignoring case.")
}
