package publisher

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/holon-run/npm-preview/pkg/config"
	"github.com/holon-run/npm-preview/pkg/github"
	"github.com/holon-run/npm-preview/pkg/workspace"
)

// SummaryInput is what the markdown report describes.
type SummaryInput struct {
	Ref github.Ref
	// WorkflowBranch is the branch the workflow runs on; previews published
	// from it overwrite each other
	WorkflowBranch string
	// CurrentRepo is the owner/name of the repository running the workflow
	CurrentRepo string
	RegistryURL string
	Packages    []workspace.Package
}

// PackageURL returns the preview install URL for pkg.
func (in SummaryInput) PackageURL(pkg workspace.Package) string {
	base := in.RegistryURL
	if base == "" {
		base = config.DefaultRegistryURL
	}
	return fmt.Sprintf("%s/%s/%s@%s", strings.TrimSuffix(base, "/"), in.CurrentRepo, pkg.Name, in.WorkflowBranch)
}

// BuildSummary renders the markdown report.
func BuildSummary(in SummaryInput) string {
	lines := []string{
		fmt.Sprintf("### 📦 NPM Preview for [`%s`](%s)", in.Ref.Repository, in.Ref.TreeURL()),
		"",
		"> [!WARNING]  ",
		fmt.Sprintf("> Packages published from the [`%s/`](../../tree/%s) branch will overwrite any existing packages.", in.WorkflowBranch, in.WorkflowBranch),
		"",
	}
	for _, pkg := range in.Packages {
		lines = append(lines, fmt.Sprintf("- [`%s@%s`](%s)", pkg.Name, pkg.Version, in.PackageURL(pkg)))
	}
	return strings.Join(lines, "\n")
}

// WriteSummary overwrites path with the markdown report.
func WriteSummary(path, markdown string) error {
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write step summary: %w", err)
	}
	return nil
}

// RenderSummary formats markdown for a terminal. An empty style picks one
// based on the terminal background.
func RenderSummary(markdown, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	return out, nil
}
