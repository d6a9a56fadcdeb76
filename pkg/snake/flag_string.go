package snake

import (
	"errors"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/pflag"
)

var errEmpty = errors.New("empty")

// PromptFlagString asks for a value for f, masking the input when f is
// marked secret.
func PromptFlagString(f *pflag.Flag, in io.ReadCloser, out io.WriteCloser) (string, error) {
	validate := func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errEmpty
		}
		return nil
	}

	templates := &promptui.PromptTemplates{
		Prompt:  "{{ . }}: ",
		Valid:   "{{ . | green }}: ",
		Invalid: "{{ . | red }}: ",
		Success: "{{ . | bold }}: ",
	}

	prompt := promptui.Prompt{
		Label:     label(f),
		Templates: templates,
		Validate:  validate,
		Stdin:     in,
		Stdout:    out,
	}
	if isSecret(f) {
		prompt.Mask = '*'
	}

	result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	if !isSecret(f) {
		result = strings.TrimSpace(result)
	}
	return result, nil
}

func label(f *pflag.Flag) string {
	if f.Name == "" {
		return "Value"
	}
	return strings.ToUpper(f.Name[:1]) + f.Name[1:]
}
