package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCmd_SecretRequiresUpload(t *testing.T) {
	t.Setenv("CLAUDE_PROJECTS", t.TempDir())

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"s3cret"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "requires --upload") {
		t.Errorf("Execute() error = %v, want secret without --upload error", err)
	}
}

func TestRootCmd_TooManyArgs(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--upload", "http://localhost", "a", "b"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for two positional arguments")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Errorf("firstNonEmpty() = %q, want b", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestRootCmd_SubcommandNamedSecretUsesEnv(t *testing.T) {
	t.Setenv("CLAUDE_PROJECTS", t.TempDir())
	t.Setenv("ABSOLUTELY_SECRET", "check")

	cmd := NewRootCmd()
	if !strings.Contains(cmd.Long, "ABSOLUTELY_SECRET instead") {
		t.Errorf("Long help should point subcommand-named secrets to ABSOLUTELY_SECRET:\n%s", cmd.Long)
	}

	// With the secret in the environment the run never reaches a subcommand.
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--upload", "http://127.0.0.1:1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Contains(out.String(), "Testing collector") {
		t.Errorf("check subcommand should not have run:\n%s", out.String())
	}
}
