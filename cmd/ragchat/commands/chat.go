// ABOUTME: CLI command for an interactive chat with a session
// ABOUTME: Runs the Bubble Tea chat screen in the alternate terminal buffer
package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harper/ragchat/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively with indexed documents",
		Long: `Open an interactive chat over the session's indexed documents.

Type a question and press enter. /clear forgets the conversation,
/quit or ctrl+c leaves.

Examples:
  ragchat chat
  ragchat --session research chat`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p := tea.NewProgram(tui.New(cmd.Context(), sess), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
