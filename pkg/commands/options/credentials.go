package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/notes/pkg/snake"
)

// CredentialOptions carries the account to sign in or sign up with.
type CredentialOptions struct {
	Email    string
	Password string
}

// AddCredentialArgs registers --email and --password. The password is
// masked when prompted for.
func AddCredentialArgs(cmd *cobra.Command, o *CredentialOptions) {
	cmd.Flags().StringVarP(&o.Email, "email", "e", "",
		"Account email. Prompted for when omitted on a terminal.")
	cmd.Flags().StringVarP(&o.Password, "password", "p", "",
		"Account password. Prompted for when omitted on a terminal.")
	_ = snake.MarkSecret(cmd, "password")
}

// Prompt asks for whichever credential is missing.
func (o *CredentialOptions) Prompt(cmd *cobra.Command) error {
	return snake.PromptMissing(cmd, "email", "password")
}
