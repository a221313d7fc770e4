package publisher

import (
	"fmt"
	"strings"

	"github.com/holon-run/npm-preview/pkg/workspace"
)

// Cause explains why a plan came out empty
type Cause int

const (
	// CauseNone means no candidate packages were found at all
	CauseNone Cause = iota
	// CauseAllPrivate means valid workspace packages exist but all are private
	CauseAllPrivate
	// CauseInvalidMetadata means workspace packages lack name or version
	CauseInvalidMetadata
)

func (c Cause) String() string {
	switch c {
	case CauseAllPrivate:
		return "all_private"
	case CauseInvalidMetadata:
		return "invalid_metadata"
	default:
		return "none"
	}
}

// NoPackagesFoundError is returned when nothing can be published.
type NoPackagesFoundError struct {
	Cause Cause
	// Private lists the valid but private workspace packages (CauseAllPrivate)
	Private []workspace.Package
	// Invalid lists the workspace packages missing name or version
	// (CauseInvalidMetadata)
	Invalid []workspace.Package
}

func (e *NoPackagesFoundError) Error() string {
	switch e.Cause {
	case CauseAllPrivate:
		lines := make([]string, 0, len(e.Private))
		for _, pkg := range e.Private {
			lines = append(lines, "- "+pkg.Name)
		}
		return fmt.Sprintf("No publishable packages found.\n"+
			"Found %d valid package(s), but all are marked as private:\n%s\n\n"+
			"To publish a package, remove \"private: true\" from its package.json",
			len(e.Private), strings.Join(lines, "\n"))

	case CauseInvalidMetadata:
		lines := make([]string, 0, len(e.Invalid))
		for _, pkg := range e.Invalid {
			name := pkg.Name
			if name == "" {
				name = "unknown"
			}
			line := "- " + name
			for _, field := range pkg.MissingFields() {
				line += " (missing " + field + ")"
			}
			lines = append(lines, line)
		}
		return fmt.Sprintf("No valid packages found.\n"+
			"Found %d workspace(s) missing required fields:\n%s\n\n"+
			"All packages must have both \"name\" and \"version\" in their package.json",
			len(e.Invalid), strings.Join(lines, "\n"))

	default:
		return "No valid packages found in the repository."
	}
}
