package publisher

import (
	"time"

	"github.com/holon-run/npm-preview/pkg/github"
	"github.com/holon-run/npm-preview/pkg/pkgmanager"
	"github.com/holon-run/npm-preview/pkg/workspace"
)

// Action types recorded in Result.Actions
const (
	ActionCloned      = "cloned_repository"
	ActionInstalled   = "installed_dependencies"
	ActionBuiltRoot   = "built_root"
	ActionBuiltPkg    = "built_package"
	ActionSkipBuild   = "skipped_build"
	ActionPublished   = "published_preview"
	ActionWroteReport = "wrote_summary"
)

// Action represents a single step taken during a preview run.
type Action struct {
	// Type is the kind of action performed, one of the Action* constants
	Type string `json:"type"`

	// Description provides human-readable details about the action
	Description string `json:"description"`

	// Metadata contains additional action-specific information
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewAction creates an Action.
func NewAction(actionType, description string) Action {
	return Action{
		Type:        actionType,
		Description: description,
		Metadata:    make(map[string]string),
	}
}

// AddMetadata adds metadata to an action.
func (a *Action) AddMetadata(key, value string) {
	if a.Metadata == nil {
		a.Metadata = make(map[string]string)
	}
	a.Metadata[key] = value
}

// Result contains the outcome of a preview run.
type Result struct {
	// Ref is the resolved source repository and ref
	Ref github.Ref `json:"ref"`

	// HeadSHA is the commit that was checked out
	HeadSHA string `json:"head_sha,omitempty"`

	// Manager is the detected package manager
	Manager pkgmanager.Manager `json:"package_manager"`

	// Packages are the packages handed to the publish CLI
	Packages []workspace.Package `json:"packages"`

	// Actions is a list of actions taken, in order
	Actions []Action `json:"actions"`

	// Summary is the markdown report of the published packages
	Summary string `json:"summary,omitempty"`

	// PublishedAt is the timestamp when publishing completed
	PublishedAt time.Time `json:"published_at"`

	// Success indicates whether the run completed
	Success bool `json:"success"`
}

func (r *Result) record(a Action) {
	r.Actions = append(r.Actions, a)
}
