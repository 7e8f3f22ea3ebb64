// ABOUTME: Root command and global flags for the ragchat CLI
// ABOUTME: Registers every subcommand and validates flag combinations
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	sessionID    string
)

const banner = `
██████   █████   ██████   ██████ ██   ██  █████  ████████
██   ██ ██   ██ ██       ██      ██   ██ ██   ██    ██
██████  ███████ ██   ███ ██      ███████ ███████    ██
██   ██ ██   ██ ██    ██ ██      ██   ██ ██   ██    ██
██   ██ ██   ██  ██████   ██████ ██   ██ ██   ██    ██
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragchat",
		Short: "Chat with your documents",
		Long: banner + `
Index documents (txt, md, pdf, docx, html) and ask questions answered
from them, with a short conversation memory per session.

Sessions are kept in a local SQLite journal so indexed documents and
recent turns survive between runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet cannot be used together")
			}
			switch outputFormat {
			case "auto", "text", "json", "yaml", "markdown":
				return nil
			default:
				return fmt.Errorf("unknown --format %q (want auto, text, json, yaml or markdown)", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, json, yaml, markdown")
	cmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "Session to use (default \"default\")")

	cmd.AddCommand(
		NewIndexCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewDocumentsCmd(),
		NewRemoveCmd(),
		NewClearMemoryCmd(),
		NewResetCmd(),
		NewMemoryCmd(),
		NewStatsCmd(),
		NewSessionsCmd(),
		NewExportCmd(),
		NewWatchCmd(),
		NewServeCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
