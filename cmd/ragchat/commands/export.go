// ABOUTME: CLI command to export sessions from the local journal
// ABOUTME: Writes documents and remembered turns as YAML, JSON or Markdown
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/ragchat/internal/storage/sqlite"
)

var (
	exportOutput string
	exportAll    bool
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions to YAML, JSON or Markdown",
		Long: `Export a session's documents and remembered conversation.

--format picks the output: yaml (the default for auto), json or markdown.
Chunk vectors are not exported.

Examples:
  ragchat export
  ragchat export --all --format json -o sessions.json
  ragchat --session research export --format markdown`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&exportAll, "all", false, "Export every session")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.Store == nil {
		return fmt.Errorf("nothing to export: persistence is disabled (RAGCHAT_PERSIST=false)")
	}

	var ids []string
	if !exportAll {
		ids = []string{currentSession()}
	}
	data, err := a.Store.Export(cmd.Context(), ids...)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput) // #nosec G304
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := writeExport(w, data); err != nil {
		return err
	}
	if exportOutput != "" {
		info(cmd, "Exported %d session(s) to %s\n", len(data.Sessions), exportOutput)
	}
	return nil
}

func writeExport(w io.Writer, data *sqlite.ExportData) error {
	switch outputFormat {
	case "json":
		return data.WriteJSON(w)
	case "markdown", "text":
		return data.WriteMarkdown(w)
	default:
		return data.WriteYAML(w)
	}
}
