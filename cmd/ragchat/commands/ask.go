// ABOUTME: CLI command to ask one question of a session
// ABOUTME: Prints the answer followed by the chunks it was grounded on
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about indexed documents",
		Long: `Ask a question answered from the session's indexed documents.

The last few questions and answers of the session are sent along as
context, so follow-up questions work across invocations.

Examples:
  ragchat ask "What is the refund policy?"
  echo "Who wrote the report?" | ragchat ask
  ragchat ask --format json "Summarize chapter 2"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	var question string
	if len(args) > 0 {
		question = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		question = string(data)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("no question provided")
	}

	a, sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	answer, err := sess.Ask(cmd.Context(), question)
	if err != nil {
		return err
	}

	if structured() {
		return printStructured(cmd.OutOrStdout(), answer)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 && !quiet {
		_, _ = fmt.Fprintln(out, "\nSources:")
		for i, s := range answer.Sources {
			_, _ = fmt.Fprintf(out, "  [%d] %s chunk %d (score %.3f)\n", i+1, s.DocumentID, s.Index, s.Score)
		}
	}
	return nil
}
