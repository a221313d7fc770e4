package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/holon-run/npm-preview/pkg/config"
	"github.com/holon-run/npm-preview/pkg/pkgmanager"
	"github.com/holon-run/npm-preview/pkg/runner"
	"github.com/holon-run/npm-preview/pkg/workspace"
)

// PublishCLI uploads packages to the preview registry.
type PublishCLI interface {
	// Publish publishes all packages in one invocation from dir.
	Publish(ctx context.Context, dir string, packages []workspace.Package, manager pkgmanager.Manager) error
}

// PkgPRNew publishes through the pkg-pr-new command line tool.
type PkgPRNew struct {
	Runner runner.Runner
	// Command is the CLI prefix, config.DefaultPublishCommand when empty
	Command string
}

// NewPkgPRNew creates a PublishCLI running command through r.
func NewPkgPRNew(r runner.Runner, command string) *PkgPRNew {
	return &PkgPRNew{Runner: r, Command: command}
}

// CommandLine builds the publish command for packages.
func (p *PkgPRNew) CommandLine(packages []workspace.Package, manager pkgmanager.Manager) (string, error) {
	if len(packages) == 0 {
		return "", fmt.Errorf("no packages to publish")
	}

	command := p.Command
	if command == "" {
		command = config.DefaultPublishCommand
	}

	parts := []string{command}
	for _, pkg := range packages {
		quoted, err := runner.Quote(pkg.PublishPath())
		if err != nil {
			return "", err
		}
		parts = append(parts, quoted)
	}
	parts = append(parts, "--packageManager="+manager.String())
	if manager.IsNPMFamily() {
		parts = append(parts, "--peerDeps")
	}
	parts = append(parts, "--comment=off")

	return strings.Join(parts, " "), nil
}

// Publish implements PublishCLI.
func (p *PkgPRNew) Publish(ctx context.Context, dir string, packages []workspace.Package, manager pkgmanager.Manager) error {
	command, err := p.CommandLine(packages, manager)
	if err != nil {
		return err
	}
	_, err = p.Runner.Run(ctx, command, dir)
	return err
}
