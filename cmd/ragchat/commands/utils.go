// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Builds the app from config and renders structured output
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harper/ragchat/internal/app"
	"github.com/harper/ragchat/internal/config"
	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/logging"
)

// loadConfig reads .env, the config file and the environment
func loadConfig() (*config.Config, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the CLI logger; logs go to stderr so stdout stays parseable
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(level, cfg.LogFormat, os.Stderr)
}

// openApp loads configuration and wires the engine
func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, newLogger(cfg))
}

// openSession opens the app and the session named by --session
func openSession(cmd *cobra.Command) (*app.App, *core.Session, error) {
	a, err := openApp()
	if err != nil {
		return nil, nil, err
	}
	sess, err := a.Orchestrator.Session(cmd.Context(), currentSession())
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return a, sess, nil
}

func currentSession() string {
	if sessionID == "" {
		return app.DefaultSessionID
	}
	return sessionID
}

// structured reports whether --format asks for machine-readable output
func structured() bool {
	return outputFormat == "json" || outputFormat == "yaml"
}

// printStructured writes v as JSON or YAML according to --format
func printStructured(w io.Writer, v any) error {
	if outputFormat == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	}
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", jsonData)
	return err
}

// info prints a human-facing message unless --quiet is set
func info(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
