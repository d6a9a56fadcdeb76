// Package snake fills in flags the user left out by prompting for them.
package snake

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// SecretAnnotation marks a flag whose answer must not be echoed.
const SecretAnnotation = "snake_secret"

// MarkSecret masks the named flag when it is prompted for.
func MarkSecret(cmd *cobra.Command, name string) error {
	return cmd.Flags().SetAnnotation(name, SecretAnnotation, []string{"true"})
}

// Interactive reports whether stdin is a terminal a prompt can read from.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptMissing asks for each named string flag that was not given on the
// command line and sets it to the answer. It does nothing when stdin is not a
// terminal, so scripts fail on validation instead of hanging.
func PromptMissing(cmd *cobra.Command, names ...string) error {
	if !Interactive() {
		return nil
	}
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("snake: no flag %q", name)
		}
		if f.Changed || f.Value.String() != "" {
			continue
		}
		answer, err := PromptFlagString(f, ioutil.NopCloser(cmd.InOrStdin()), NopCloser(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		if err := cmd.Flags().Set(name, answer); err != nil {
			return err
		}
	}
	return nil
}

func isSecret(f *pflag.Flag) bool {
	v, ok := f.Annotations[SecretAnnotation]
	return ok && len(v) > 0 && v[0] == "true"
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// NopCloser returns a WriteCloser with a no-op Close method wrapping w.
func NopCloser(w io.Writer) io.WriteCloser {
	return nopCloser{w}
}
