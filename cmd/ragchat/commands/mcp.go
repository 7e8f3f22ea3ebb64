// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents index documents and ask questions via stdio
package commands

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/ragchat/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs ragchat as an MCP (Model Context Protocol) server, so LLM agents
can index documents, ask grounded questions and manage sessions via
stdio. Tools default to the session given by --session.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  ragchat mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "ragchat": {
  #       "command": "ragchat",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP serves MCP on stdio until the client disconnects or the process is interrupted
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server := mcpserver.NewMCPServer(
		"ragchat",
		versionInfo.Version,
		mcpserver.WithToolCapabilities(false),
	)
	mcp.RegisterTools(server, a, currentSession())

	a.Logger.Info("MCP server starting on stdio", "session", currentSession())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-cmd.Context().Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
