package publisher

import (
	"github.com/holon-run/npm-preview/pkg/workspace"
)

// Plan is the set of packages one run publishes.
type Plan struct {
	// Packages are the public packages, workspaces in discovery order
	// followed by the root package when it is public
	Packages []workspace.Package
	// Root is the root package.json, nil when there is none
	Root *workspace.Package
	// Workspaces are all discovered workspace packages, public or not
	Workspaces []workspace.Package
}

// NewPlan selects the publishable packages. It returns a
// *NoPackagesFoundError when none qualify.
func NewPlan(workspaces []workspace.Package, root *workspace.Package) (*Plan, error) {
	plan := &Plan{Root: root, Workspaces: workspaces}

	for _, pkg := range workspaces {
		if pkg.IsPublic() {
			plan.Packages = append(plan.Packages, pkg)
		}
	}
	if root != nil && root.IsPublic() {
		rootPkg := *root
		rootPkg.Location = workspace.RootLocation
		plan.Packages = append(plan.Packages, rootPkg)
	}

	if len(plan.Packages) > 0 {
		return plan, nil
	}

	var private, invalid []workspace.Package
	for _, pkg := range workspaces {
		switch {
		case !pkg.HasMetadata():
			invalid = append(invalid, pkg)
		case pkg.Private:
			private = append(private, pkg)
		}
	}

	switch {
	case len(private) > 0:
		return nil, &NoPackagesFoundError{Cause: CauseAllPrivate, Private: private}
	case len(invalid) > 0:
		return nil, &NoPackagesFoundError{Cause: CauseInvalidMetadata, Invalid: invalid}
	default:
		return nil, &NoPackagesFoundError{Cause: CauseNone}
	}
}

// RootBuild reports whether the root package.json has a build script, which
// then builds everything once.
func (p *Plan) RootBuild() bool {
	return p.Root != nil && p.Root.HasBuildScript()
}

// HasWorkspaces reports whether workspaces were declared and something is
// publishable.
func (p *Plan) HasWorkspaces() bool {
	return len(p.Workspaces) > 0 && len(p.Packages) > 0
}

// Buildable returns the public packages with a build script, in order.
func (p *Plan) Buildable() []workspace.Package {
	var out []workspace.Package
	for _, pkg := range p.Packages {
		if pkg.HasBuildScript() {
			out = append(out, pkg)
		}
	}
	return out
}

// BuildableWorkspaces is Buildable without the root package.
func (p *Plan) BuildableWorkspaces() []workspace.Package {
	var out []workspace.Package
	for _, pkg := range p.Buildable() {
		if pkg.Location != workspace.RootLocation {
			out = append(out, pkg)
		}
	}
	return out
}
