// Package publisher publishes preview builds of a GitHub repository's
// packages to pkg.pr.new.
//
// A run resolves the source ref, clones it into a staging directory,
// installs dependencies with the detected package manager, builds, and
// publishes every public package in one CLI invocation.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kyokomi/emoji"

	"github.com/holon-run/npm-preview/pkg/config"
	"github.com/holon-run/npm-preview/pkg/git"
	"github.com/holon-run/npm-preview/pkg/github"
	holonlog "github.com/holon-run/npm-preview/pkg/log"
	"github.com/holon-run/npm-preview/pkg/pkgmanager"
	"github.com/holon-run/npm-preview/pkg/runner"
	"github.com/holon-run/npm-preview/pkg/workspace"
)

// RefResolver turns a GitHub URL into a repository and ref.
type RefResolver interface {
	Resolve(ctx context.Context, rawURL string) (github.Ref, error)
}

// Publisher runs the preview pipeline. All collaborators are required.
type Publisher struct {
	Resolver   RefResolver
	Cloner     git.Cloner
	Discoverer workspace.Discoverer
	Runner     runner.Runner
	CLI        PublishCLI
	Env        config.Env

	// StagingDir is where the source is cloned; config.DefaultStagingDir
	// when empty
	StagingDir string
	// RegistryURL is the base of package links in the summary
	RegistryURL string
	// Out receives progress lines; nothing is printed when nil
	Out io.Writer
	// SummaryStyle is the glamour style used when the summary goes to Out
	SummaryStyle string
}

func (p *Publisher) stagingDir() string {
	if p.StagingDir == "" {
		return config.DefaultStagingDir
	}
	return p.StagingDir
}

func (p *Publisher) say(format string, args ...interface{}) {
	if p.Out == nil {
		return
	}
	emoji.Fprintf(p.Out, format+"\n", args...)
}

// Publish runs the full pipeline for repoURL. Any failure aborts the run;
// the staging directory is left in place.
func (p *Publisher) Publish(ctx context.Context, repoURL string) (*Result, error) {
	if err := p.Env.RequireCI(); err != nil {
		return nil, err
	}
	if p.Resolver == nil || p.Cloner == nil || p.Discoverer == nil || p.Runner == nil || p.CLI == nil {
		return nil, errors.New("publisher is missing a collaborator")
	}

	result := &Result{}

	ref, err := p.Resolver.Resolve(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	result.Ref = ref
	holonlog.Info("resolved source", "repo", ref.Repository, "ref", ref.ShortBranch())

	staging := p.stagingDir()
	if err := os.RemoveAll(staging); err != nil {
		return nil, fmt.Errorf("failed to clear staging directory %s: %w", staging, err)
	}
	clone, err := p.Cloner.Clone(ctx, ref, staging)
	if err != nil {
		return nil, err
	}
	if clone != nil {
		result.HeadSHA = clone.HEAD
	}
	action := NewAction(ActionCloned, fmt.Sprintf("Cloned %s into %s", ref, staging))
	action.AddMetadata("head", result.HeadSHA)
	result.record(action)

	detected, err := pkgmanager.Detect(staging)
	if err != nil {
		return nil, err
	}
	manager := detected.Manager
	result.Manager = manager
	holonlog.Debug("detected package manager", "manager", manager, "lockfile", detected.Lockfile)

	plan, err := p.plan(ctx, staging)
	if err != nil {
		return nil, err
	}
	result.Packages = plan.Packages

	p.say(":rocket:Starting preview publish process...")
	p.say(":link:Source: %s", fmt.Sprintf("https://github.com/%s/tree/%s", ref.Repository, ref.ShortBranch()))

	p.say(":inbox_tray:Installing dependencies...")
	if _, err := p.Runner.Run(ctx, manager.InstallCommand(), staging); err != nil {
		return nil, err
	}
	p.say(":white_check_mark:Dependencies installed.")
	result.record(NewAction(ActionInstalled, manager.InstallCommand()))

	if err := p.build(ctx, plan, manager, staging, result); err != nil {
		return nil, err
	}

	p.say(":package:Publishing preview...")
	for _, pkg := range plan.Packages {
		p.say(":memo:Publishing package: %s [%s]", pkg.Name, pkg.PublishPath())
	}
	if err := p.CLI.Publish(ctx, staging, plan.Packages, manager); err != nil {
		return nil, err
	}
	result.record(NewAction(ActionPublished, fmt.Sprintf("Published %d package(s)", len(plan.Packages))))

	result.Summary = BuildSummary(SummaryInput{
		Ref:            ref,
		WorkflowBranch: p.Env.RefName,
		CurrentRepo:    p.Env.Repository,
		RegistryURL:    p.RegistryURL,
		Packages:       plan.Packages,
	})
	if err := p.report(result.Summary); err != nil {
		return nil, err
	}
	if p.Env.StepSummary != "" {
		result.record(NewAction(ActionWroteReport, p.Env.StepSummary))
	}

	p.say(":white_check_mark:Preview published successfully.")
	result.PublishedAt = time.Now()
	result.Success = true
	return result, nil
}

// plan discovers the workspace and root packages under staging.
func (p *Publisher) plan(ctx context.Context, staging string) (*Plan, error) {
	workspaces, err := p.Discoverer.Discover(ctx, staging)
	if err != nil {
		return nil, err
	}

	root, err := workspace.ReadPackage(staging, workspace.RootLocation)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		root = nil
	}

	return NewPlan(workspaces, root)
}

// build runs the root build script once if there is one, otherwise each
// buildable public package's own build script in plan order.
func (p *Publisher) build(ctx context.Context, plan *Plan, manager pkgmanager.Manager, staging string, result *Result) error {
	buildCmd := manager.RunScriptCommand("build")

	switch {
	case plan.RootBuild():
		note := ""
		if n := len(plan.BuildableWorkspaces()); plan.HasWorkspaces() && n > 0 {
			note = fmt.Sprintf(" (includes %d workspace package%s)", n, plural(n))
		}
		p.say(":wrench:Building via root package script...")
		if _, err := p.Runner.Run(ctx, buildCmd, staging); err != nil {
			return err
		}
		p.say(":white_check_mark:Root package built%s.", note)
		result.record(NewAction(ActionBuiltRoot, buildCmd))

	case plan.HasWorkspaces():
		buildable := plan.Buildable()
		if len(buildable) == 0 {
			p.say(":warning:No buildable packages found in workspaces.")
			result.record(NewAction(ActionSkipBuild, "no build scripts"))
			return nil
		}
		p.say(":wrench:Building %d workspace package(s)...", len(buildable))
		for _, pkg := range buildable {
			p.say(":arrow_right:Building package: %s", pkg.Name)
			if _, err := p.Runner.Run(ctx, buildCmd, pkg.Dir(staging)); err != nil {
				return err
			}
			action := NewAction(ActionBuiltPkg, pkg.Name)
			action.AddMetadata("location", pkg.Location)
			result.record(action)
		}
		p.say(":white_check_mark:Workspace packages built.")

	default:
		p.say(":information_source:No build step required.")
		result.record(NewAction(ActionSkipBuild, "no workspaces"))
	}
	return nil
}

// report writes the summary to the step summary file, or renders it to Out.
func (p *Publisher) report(markdown string) error {
	if p.Env.StepSummary != "" {
		return WriteSummary(p.Env.StepSummary, markdown)
	}
	if p.Out == nil {
		return nil
	}
	rendered, err := RenderSummary(markdown, p.SummaryStyle)
	if err != nil {
		holonlog.Warn("failed to render summary", "error", err)
		return nil
	}
	_, err = io.WriteString(p.Out, rendered)
	return err
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
