package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/notes/pkg/config"
	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/runner/ui"
)

func addUI(topLevel *cobra.Command) {
	demo := false
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based user interface",
		Example: `
notes ui
notes ui --demo
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				gw  gateway.Gateway
				cfg *config.Config
				err error
			)
			if demo {
				if gw, err = ui.DemoGateway(cmd.Context()); err != nil {
					return err
				}
				if cfg, err = config.Load(config.WithFlags(cmd.Flags())); err != nil {
					return err
				}
			} else if gw, cfg, err = loadGateway(cmd); err != nil {
				return err
			}
			i := ui.UI{Gateway: gw, RedirectURL: cfg.RedirectURL, LogPath: cfg.LogPath}
			return i.Do(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false,
		"Run against an in-memory backend signed in as "+ui.DemoEmail+".")

	topLevel.AddCommand(cmd)
}
