package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShellRunner_Run(t *testing.T) {
	r := NewShellRunner()

	out, err := r.Run(context.Background(), `echo "  hello world  "`, t.TempDir())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "hello world" {
		t.Errorf("Run() = %q, want trimmed %q", out, "hello world")
	}
}

func TestShellRunner_RunsInDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("found"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := NewShellRunner().Run(context.Background(), `[ -f marker.txt ] && echo yes`, dir)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "yes" {
		t.Errorf("Run() = %q, want %q", out, "yes")
	}
}

func TestShellRunner_Failure(t *testing.T) {
	_, err := NewShellRunner().Run(context.Background(), `echo "broken build" >&2; exit 3`, t.TempDir())
	if err == nil {
		t.Fatal("Run() should fail for a non-zero exit")
	}

	var cmdErr *ExternalCommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *ExternalCommandError", err)
	}
	if cmdErr.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", cmdErr.ExitCode())
	}
	if !strings.Contains(cmdErr.Stderr, "broken build") {
		t.Errorf("Stderr = %q, want it to contain %q", cmdErr.Stderr, "broken build")
	}
	if !strings.HasPrefix(err.Error(), "Command failed: echo") {
		t.Errorf("Error() = %q, want prefix %q", err.Error(), "Command failed: echo")
	}
}

func TestShellRunner_ParseError(t *testing.T) {
	_, err := NewShellRunner().Run(context.Background(), `echo "unterminated`, t.TempDir())
	var cmdErr *ExternalCommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *ExternalCommandError", err)
	}
	if cmdErr.ExitCode() != -1 {
		t.Errorf("ExitCode() = %d, want -1", cmdErr.ExitCode())
	}
}

func TestShellRunner_FiltersNpxWarnings(t *testing.T) {
	var live bytes.Buffer
	r := &ShellRunner{Output: &live}

	out, err := r.Run(context.Background(), `echo "npm warn exec The following package was not found"; echo '[{"name":"a"}]'`, t.TempDir())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != `[{"name":"a"}]` {
		t.Errorf("Run() = %q, want warning dropped", out)
	}
	if strings.Contains(live.String(), "npm warn exec") {
		t.Errorf("live output = %q, want warning dropped", live.String())
	}
	if !strings.Contains(live.String(), `[{"name":"a"}]`) {
		t.Errorf("live output = %q, want command output", live.String())
	}
}

func TestShellRunner_Env(t *testing.T) {
	r := &ShellRunner{Env: []string{"PREVIEW_NAME=demo"}}

	out, err := r.Run(context.Background(), `echo "$PREVIEW_NAME"`, t.TempDir())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "demo" {
		t.Errorf("Run() = %q, want %q", out, "demo")
	}
}

func TestDropNoise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no noise", "a\nb\n", "a\nb\n"},
		{"noise line", "npm warn exec x\nb\n", "b\n"},
		{"noise last line", "a\nnpm warn exec y", "a\n"},
		{"only noise", "npm warn exec z\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dropNoise(tt.in); got != tt.want {
				t.Errorf("dropNoise(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuote_RoundTrip(t *testing.T) {
	for _, arg := range []string{"./packages/core", "./my pkg", "./it's"} {
		quoted, err := Quote(arg)
		if err != nil {
			t.Fatalf("Quote(%q) error = %v", arg, err)
		}
		out, err := NewShellRunner().Run(context.Background(), "printf '%s' "+quoted, t.TempDir())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if out != arg {
			t.Errorf("shell saw %q, want %q", out, arg)
		}
	}
}
