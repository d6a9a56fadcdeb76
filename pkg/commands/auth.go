package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/notes/pkg/commands/options"
	"tableflip.dev/notes/pkg/runner/auth"
)

func addLogin(topLevel *cobra.Command) {
	addCredentialCommand(topLevel, auth.Login, "sign in to your account", `
notes login
notes login --email you@example.com
`)
}

func addSignup(topLevel *cobra.Command) {
	addCredentialCommand(topLevel, auth.Signup, "create an account", `
notes signup --email you@example.com
`)
}

func addCredentialCommand(topLevel *cobra.Command, action auth.Action, short, example string) {
	co := &options.CredentialOptions{}

	cmd := &cobra.Command{
		Use:     string(action),
		Short:   short,
		Example: example,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return co.Prompt(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, cfg, err := loadGateway(cmd)
			if err != nil {
				return err
			}
			a := auth.Auth{
				Gateway:     gw,
				Action:      action,
				Email:       co.Email,
				Password:    co.Password,
				RedirectURL: cfg.RedirectURL,
				Out:         cmd.OutOrStdout(),
			}
			return a.Do(cmd.Context())
		},
	}

	options.AddCredentialArgs(cmd, co)

	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	addSessionCommand(topLevel, auth.Logout, "sign out and forget the stored session")
}

func addWhoami(topLevel *cobra.Command) {
	addSessionCommand(topLevel, auth.Whoami, "print the signed-in account")
}

func addSessionCommand(topLevel *cobra.Command, action auth.Action, short string) {
	cmd := &cobra.Command{
		Use:   string(action),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := loadGateway(cmd)
			if err != nil {
				return err
			}
			a := auth.Auth{Gateway: gw, Action: action, Out: cmd.OutOrStdout()}
			return a.Do(cmd.Context())
		},
	}

	topLevel.AddCommand(cmd)
}
