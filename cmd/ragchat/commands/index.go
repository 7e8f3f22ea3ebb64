// ABOUTME: CLI command to index documents into a session
// ABOUTME: Loads files and directories, chunks and embeds them, and reports per-document results
package commands

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragchat/internal/loader"
	"github.com/harper/ragchat/internal/models"
)

var (
	indexChunkSize    int
	indexChunkOverlap int
)

type indexResult struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Chunks     int    `json:"chunks" yaml:"chunks"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <path>...",
		Short: "Index documents into a session",
		Long: `Index documents into a session.

Directories are searched recursively for txt, md, pdf, docx and html
files. Indexing a file again replaces its previous chunks.

Examples:
  ragchat index handbook.pdf notes/
  ragchat index --chunk-size 800 --chunk-overlap 100 docs/
  ragchat --session research index papers/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().IntVar(&indexChunkSize, "chunk-size", 0, "Characters per chunk (default from config)")
	cmd.Flags().IntVar(&indexChunkOverlap, "chunk-overlap", -1, "Characters shared by consecutive chunks (default from config)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	paths, err := loader.ExpandPaths(args)
	if err != nil {
		return fmt.Errorf("reading paths: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported documents found")
	}

	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	opts := a.ChunkOptions()
	if cmd.Flags().Changed("chunk-size") {
		if err := validatePositiveInt(indexChunkSize, "--chunk-size"); err != nil {
			return err
		}
		opts.Size = indexChunkSize
	}
	if cmd.Flags().Changed("chunk-overlap") {
		opts.Overlap = indexChunkOverlap
	}

	docs, loadFailures := loader.LoadFiles(paths)
	report, err := sess.Index(cmd.Context(), docs, opts)
	if err != nil {
		return err
	}

	all := slices.Concat(report.Results, loadFailures)
	results := make([]indexResult, 0, len(all))
	for _, res := range all {
		results = append(results, toIndexResult(res))
	}

	if structured() {
		return printStructured(cmd.OutOrStdout(), map[string]any{
			"session_id":     sess.ID(),
			"documents":      results,
			"chunks_indexed": report.TotalChunks(),
			"chunk_size":     opts.Size,
			"chunk_overlap":  opts.Overlap,
		})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "DOCUMENT\tCHUNKS\tRESULT\n")
	failed := 0
	for _, r := range results {
		result := "ok"
		if r.Error != "" {
			result = r.Error
			failed++
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", r.DocumentID, r.Chunks, result)
	}
	_ = w.Flush()

	info(cmd, "\nIndexed %d of %d document(s), %d chunk(s) in session %q\n",
		len(results)-failed, len(results), report.TotalChunks(), sess.ID())

	if failed == len(results) {
		return fmt.Errorf("no documents were indexed")
	}
	return nil
}

func toIndexResult(res models.DocumentResult) indexResult {
	r := indexResult{DocumentID: res.DocumentID, Chunks: res.Chunks}
	if res.Err != nil {
		r.Chunks = 0
		r.Error = res.Err.Error()
	}
	return r
}
