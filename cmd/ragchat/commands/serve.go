// ABOUTME: CLI command to run the HTTP API
// ABOUTME: Serves the chi router until interrupted
package commands

import (
	"github.com/spf13/cobra"

	"github.com/harper/ragchat/internal/api"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API (index, ask, documents, memory, stats and more).

Requests pick their session with the X-Session-ID header
(default "default").

Examples:
  ragchat serve
  ragchat serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from HTTP_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	addr := a.Config.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	return api.NewServer(a).ListenAndServe(cmd.Context(), addr)
}
