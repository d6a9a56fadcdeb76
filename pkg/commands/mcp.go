package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/notes/pkg/runner/mcp"
)

func addMCP(topLevel *cobra.Command) {
	var (
		transport string
		addr      string
		path      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "serve your notes to MCP clients",
		Long: `Launch a Model Context Protocol server that exposes the signed-in account's
notes as tools and resources. Sign in with "notes login" first; the server
keeps serving that account and stops answering if another one signs in.`,
		Example: `
notes mcp
notes mcp --transport http --addr 127.0.0.1:7777
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := loadGateway(cmd)
			if err != nil {
				return err
			}

			runner := mcp.Runner{
				Gateway: gw,
				Name:    "notes",
				Version: version,
				Addr:    strings.TrimSpace(addr),
				Path:    path,
				Ready: func(url string) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "MCP endpoint: %s\n", url)
				},
			}
			switch t := mcp.Transport(strings.ToLower(strings.TrimSpace(transport))); t {
			case "", mcp.TransportStdio, mcp.TransportHTTP:
				runner.Transport = t
			default:
				return fmt.Errorf("unsupported transport %q (expected stdio or http)", transport)
			}
			return runner.Do(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&transport, "transport", string(mcp.TransportStdio), "Transport to use: stdio or http.")
	cmd.Flags().StringVar(&addr, "addr", mcp.DefaultAddr, "Loopback address for the http transport.")
	cmd.Flags().StringVar(&path, "path", mcp.DefaultPath, "Endpoint path for the http transport.")

	topLevel.AddCommand(cmd)
}
