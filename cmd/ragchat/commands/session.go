// ABOUTME: CLI commands that inspect or clear session state
// ABOUTME: Covers memory, stats, sessions, clear-memory and reset
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewMemoryCmd creates the memory command
func NewMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Show the remembered conversation",
		Long: `Show the question and answer turns the session remembers, oldest first.

Only the most recent turns are kept (MEMORY_WINDOW, default 5).

Examples:
  ragchat memory
  ragchat memory --format yaml`,
		Args: cobra.NoArgs,
		RunE: runMemory,
	}

	return cmd
}

func runMemory(cmd *cobra.Command, args []string) error {
	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	turns := sess.Memory()
	if structured() {
		return printStructured(cmd.OutOrStdout(), map[string]any{
			"session_id":    sess.ID(),
			"memory":        turns,
			"memory_window": a.Orchestrator.Config().MemoryWindow,
		})
	}

	if len(turns) == 0 {
		info(cmd, "No conversation remembered in session %q\n", sess.ID())
		return nil
	}

	out := cmd.OutOrStdout()
	for i, t := range turns {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintf(out, "[%s] Q: %s\n", formatTime(t.Timestamp), t.Question)
		_, _ = fmt.Fprintf(out, "A: %s\n", t.Answer)
	}
	return nil
}

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session statistics",
		Long: `Show the session's state, index size, memory usage and model settings.

Examples:
  ragchat stats
  ragchat stats --format json`,
		Args: cobra.NoArgs,
		RunE: runStats,
	}

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	stats := sess.Stats()
	if structured() {
		return printStructured(cmd.OutOrStdout(), stats)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Session:\t%s\n", stats.SessionID)
	_, _ = fmt.Fprintf(w, "State:\t%s\n", stats.State)
	_, _ = fmt.Fprintf(w, "Documents:\t%d\n", stats.Documents)
	_, _ = fmt.Fprintf(w, "Chunks:\t%d\n", stats.Chunks)
	_, _ = fmt.Fprintf(w, "Dimension:\t%d\n", stats.Dimension)
	_, _ = fmt.Fprintf(w, "Memory:\t%d/%d turns\n", stats.Turns, stats.MemoryWindow)
	_, _ = fmt.Fprintf(w, "Retrieval k:\t%d\n", stats.RetrievalK)
	_, _ = fmt.Fprintf(w, "Chat model:\t%s\n", stats.ChatModel)
	_, _ = fmt.Fprintf(w, "Embedder:\t%s\n", stats.Embedder)
	_, _ = fmt.Fprintf(w, "System prompt:\t%d chars\n", stats.PromptLength)
	return w.Flush()
}

// NewSessionsCmd creates the sessions command
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List known sessions",
		Long: `List the sessions stored in the local journal.

Examples:
  ragchat sessions`,
		Args: cobra.NoArgs,
		RunE: runSessions,
	}

	return cmd
}

func runSessions(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ids, err := a.Orchestrator.Sessions(cmd.Context())
	if err != nil {
		return err
	}

	if structured() {
		return printStructured(cmd.OutOrStdout(), map[string]any{"sessions": ids})
	}
	if len(ids) == 0 {
		info(cmd, "No sessions found\n")
		return nil
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, "\n"))
	return nil
}

// NewClearMemoryCmd creates the clear-memory command
func NewClearMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-memory",
		Short: "Forget the conversation, keep the documents",
		Long: `Forget the session's conversation history. Indexed documents are kept.

Examples:
  ragchat clear-memory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := sess.ClearMemory(cmd.Context()); err != nil {
				return err
			}
			info(cmd, "Conversation memory cleared for session %q\n", sess.ID())
			return nil
		},
	}

	return cmd
}

// NewResetCmd creates the reset command
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear a session's documents and memory",
		Long: `Clear the session's index and conversation memory.

Examples:
  ragchat reset
  ragchat --session scratch reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, sess, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := sess.Reset(cmd.Context()); err != nil {
				return err
			}
			info(cmd, "Session %q reset\n", sess.ID())
			return nil
		},
	}

	return cmd
}
