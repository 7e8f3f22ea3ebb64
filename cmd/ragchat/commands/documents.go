// ABOUTME: CLI commands to list and remove indexed documents
// ABOUTME: Shows per-document chunk counts and drops documents from the index
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewDocumentsCmd creates the documents command
func NewDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List indexed documents",
		Long: `List the documents indexed in a session, in indexing order.

Examples:
  ragchat documents
  ragchat documents --format json`,
		Args: cobra.NoArgs,
		RunE: runDocuments,
	}

	return cmd
}

func runDocuments(cmd *cobra.Command, args []string) error {
	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	docs := sess.Documents()
	if structured() {
		return printStructured(cmd.OutOrStdout(), map[string]any{
			"session_id": sess.ID(),
			"state":      sess.State(),
			"documents":  docs,
		})
	}

	if len(docs) == 0 {
		info(cmd, "No documents indexed in session %q\n", sess.ID())
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "DOCUMENT\tFORMAT\tCHUNKS\tINDEXED\n")
	_, _ = fmt.Fprintf(w, "--------\t------\t------\t-------\n")
	total := 0
	for _, d := range docs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", truncate(d.ID, 50), d.Format, d.Chunks, formatTime(d.IndexedAt))
		total += d.Chunks
	}
	_ = w.Flush()

	info(cmd, "\nTotal: %d document(s), %d chunk(s)\n", len(docs), total)
	return nil
}

// NewRemoveCmd creates the remove command
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <document-id>",
		Short: "Remove a document from the index",
		Long: `Remove a document and all of its chunks from a session.

The document ID is the path shown by "ragchat documents".

Examples:
  ragchat remove notes/old.md`,
		Args: cobra.ExactArgs(1),
		RunE: runRemove,
	}

	return cmd
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := sess.RemoveDocument(cmd.Context(), args[0]); err != nil {
		return err
	}

	if structured() {
		return printStructured(cmd.OutOrStdout(), map[string]any{
			"document_id": args[0],
			"state":       sess.State(),
		})
	}
	info(cmd, "Removed %s (session is now %s)\n", args[0], sess.State())
	return nil
}
