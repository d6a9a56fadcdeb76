package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/notes/pkg/config"
	"tableflip.dev/notes/pkg/gateway/rest"
	"tableflip.dev/notes/pkg/store"
)

// loadGateway reads the settings for cmd and connects the backend client to
// the stored session.
func loadGateway(cmd *cobra.Command) (*rest.Client, *config.Config, error) {
	cfg, err := config.Load(config.WithFlags(cmd.Flags()))
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sessions, err := store.Load(cfg)
	if err != nil {
		return nil, nil, err
	}
	gw := rest.New(rest.Options{
		URL:      cfg.GatewayURL,
		Key:      cfg.GatewayKey,
		Sessions: sessions,
		Timeout:  cfg.Timeout,
	})
	return gw, cfg, nil
}

// handleError prints err as JSON when --json was requested.
func handleError(err error) error {
	if output.JSON && err != nil {
		b, merr := json.Marshal(map[string]string{"error": err.Error()})
		if merr != nil {
			return merr
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}
