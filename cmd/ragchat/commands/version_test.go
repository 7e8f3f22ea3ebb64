// ABOUTME: Tests for version command
// ABOUTME: Verifies version info display and SetVersion functionality
package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	original := versionInfo
	t.Cleanup(func() { versionInfo = original })

	SetVersion("1.2.3", "abc123", "2026-01-31")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"text", []string{"version"}, []string{"ragchat 1.2.3", "Commit: abc123", "Built:  2026-01-31"}},
		{"json", []string{"--format", "json", "version"}, []string{`"version": "1.2.3"`, `"commit": "abc123"`}},
		{"yaml", []string{"--format", "yaml", "version"}, []string{"version: 1.2.3", "commit: abc123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			var output bytes.Buffer
			cmd.SetOut(&output)
			cmd.SetErr(&output)
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(output.String(), want) {
					t.Errorf("output should contain %q, got:\n%s", want, output.String())
				}
			}
		})
	}
}
