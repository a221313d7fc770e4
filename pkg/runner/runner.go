// Package runner executes shell command lines for the publish pipeline.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	holonlog "github.com/holon-run/npm-preview/pkg/log"
)

// noiseMarker identifies npx warnings that are dropped from captured output.
const noiseMarker = "npm warn exec"

// Runner runs a shell command line in a directory and returns its trimmed
// standard output.
type Runner interface {
	Run(ctx context.Context, command, dir string) (string, error)
}

// ExternalCommandError is returned when a command exits non-zero or cannot
// be started.
type ExternalCommandError struct {
	Command string
	Dir     string
	Stderr  string
	Err     error
}

func (e *ExternalCommandError) Error() string {
	return fmt.Sprintf("Command failed: %s\n%s", e.Command, e.Stderr)
}

func (e *ExternalCommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the command's exit status, or -1 if it did not exit normally.
func (e *ExternalCommandError) ExitCode() int {
	var status interp.ExitStatus
	if errors.As(e.Err, &status) {
		return int(status)
	}
	return -1
}

// ShellRunner interprets command lines with a POSIX shell interpreter.
type ShellRunner struct {
	// Env overrides the process environment when non-nil ("KEY=value" pairs)
	Env []string
	// Output, when set, additionally receives the command's filtered stdout
	// and stderr as they are produced
	Output io.Writer
}

// NewShellRunner creates a runner that inherits the process environment.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

// Run implements Runner.
func (r *ShellRunner) Run(ctx context.Context, command, dir string) (string, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return "", &ExternalCommandError{Command: command, Dir: dir, Stderr: err.Error(), Err: err}
	}

	var stdout, stderr bytes.Buffer
	var outW, errW io.Writer = &stdout, &stderr
	if r.Output != nil {
		outW = io.MultiWriter(&stdout, &filterWriter{w: r.Output})
		errW = io.MultiWriter(&stderr, &filterWriter{w: r.Output})
	}

	opts := []interp.RunnerOption{
		interp.Dir(dir),
		interp.StdIO(nil, outW, errW),
	}
	if r.Env != nil {
		opts = append(opts, interp.Env(expand.ListEnviron(r.Env...)))
	}

	sh, err := interp.New(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create interpreter: %w", err)
	}

	holonlog.Debug("running command", "cmd", command, "dir", dir)
	if err := sh.Run(ctx, prog); err != nil {
		cmdErr := &ExternalCommandError{
			Command: command,
			Dir:     dir,
			Stderr:  dropNoise(stderr.String()),
			Err:     err,
		}
		holonlog.Debug("command failed", "cmd", command, "exit", cmdErr.ExitCode())
		return "", cmdErr
	}

	return strings.TrimSpace(dropNoise(stdout.String())), nil
}

// dropNoise removes lines carrying npx exec warnings.
func dropNoise(s string) string {
	if !strings.Contains(s, noiseMarker) {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, noiseMarker) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "")
}

// filterWriter forwards writes that do not carry npx exec warnings.
type filterWriter struct {
	w io.Writer
}

func (f *filterWriter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte(noiseMarker)) {
		if _, err := io.WriteString(f.w, dropNoise(string(p))); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	if _, err := f.w.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Quote returns arg quoted for inclusion in a command line run by ShellRunner.
func Quote(arg string) (string, error) {
	quoted, err := syntax.Quote(arg, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q: %w", arg, err)
	}
	return quoted, nil
}
