// ABOUTME: CLI command to keep a session in sync with a directory
// ABOUTME: Indexes the directory, then follows file changes until interrupted
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/ragchat/internal/watch"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Index a directory and follow its changes",
		Long: `Index every supported file under a directory, then keep the session
in sync: new and changed files are re-indexed, deleted files are removed.

The directory defaults to WATCH_DIR. Stop with ctrl+c.

Examples:
  ragchat watch ~/notes
  ragchat --session notes watch ~/notes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	dir := a.Config.WatchDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no directory given and WATCH_DIR is not set")
	}

	info(cmd, "Watching %s for session %q (ctrl+c to stop)\n", dir, sess.ID())
	return watch.New(sess, a.ChunkOptions(), a.Logger).Run(cmd.Context(), dir)
}
