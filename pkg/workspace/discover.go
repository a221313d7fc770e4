// Package workspace reads package.json metadata and discovers the packages
// of a JavaScript monorepo.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"gopkg.in/yaml.v3"

	holonlog "github.com/holon-run/npm-preview/pkg/log"
)

const (
	pnpmWorkspaceFile = "pnpm-workspace.yaml"
	lernaFile         = "lerna.json"
)

// NodeDiscoverer expands workspace globs from package.json "workspaces",
// pnpm-workspace.yaml and lerna.json.
type NodeDiscoverer struct{}

// NewNodeDiscoverer creates a discoverer for npm, yarn, pnpm and lerna
// workspace declarations.
func NewNodeDiscoverer() *NodeDiscoverer {
	return &NodeDiscoverer{}
}

// Discover implements Discoverer.
func (d *NodeDiscoverer) Discover(ctx context.Context, root string) ([]Package, error) {
	patterns, err := WorkspacePatterns(root)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		holonlog.Debug("no workspace patterns declared", "root", root)
		return nil, nil
	}

	var include, exclude []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "!") {
			exclude = append(exclude, normalizePattern(p[1:]))
		} else if p != "" {
			include = append(include, normalizePattern(p))
		}
	}

	seen := make(map[string]bool)
	var packages []Package
	for _, pattern := range include {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		locations, err := expand(root, pattern)
		if err != nil {
			return nil, err
		}
		for _, loc := range locations {
			if seen[loc] || excluded(loc, exclude) {
				continue
			}
			seen[loc] = true

			pkg, err := ReadPackage(root, loc)
			if err != nil {
				return nil, err
			}
			packages = append(packages, *pkg)
		}
	}

	holonlog.Debug("discovered workspace packages", "root", root, "count", len(packages))
	return packages, nil
}

// WorkspacePatterns returns the workspace globs declared under root, in
// declaration order. pnpm-workspace.yaml takes precedence over package.json,
// which takes precedence over lerna.json.
func WorkspacePatterns(root string) ([]string, error) {
	if data, err := os.ReadFile(filepath.Join(root, pnpmWorkspaceFile)); err == nil {
		var cfg struct {
			Packages []string `yaml:"packages"`
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", pnpmWorkspaceFile, err)
		}
		return cfg.Packages, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", pnpmWorkspaceFile, err)
	}

	m, err := readManifest(root)
	switch {
	case err == nil:
		if len(m.Workspaces) > 0 {
			return m.Workspaces, nil
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if data, err := os.ReadFile(filepath.Join(root, lernaFile)); err == nil {
		var cfg struct {
			Packages []string `json:"packages"`
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", lernaFile, err)
		}
		return cfg.Packages, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", lernaFile, err)
	}

	return nil, nil
}

func normalizePattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, "/")
}

// expand returns the slash-separated locations matched by pattern that hold
// a package.json, sorted, skipping node_modules.
func expand(root, pattern string) ([]string, error) {
	var matches []string
	if strings.ContainsAny(pattern, "*?[{") {
		found, err := zglob.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to expand workspace pattern %q: %w", pattern, err)
		}
		matches = found
	} else {
		matches = []string{filepath.Join(root, filepath.FromSlash(pattern))}
	}

	var locations []string
	for _, match := range matches {
		info, err := os.Stat(filepath.Join(match, PackageFile))
		if err != nil || info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(root, match)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize %s: %w", match, err)
		}
		loc := filepath.ToSlash(rel)
		if loc == RootLocation || isNodeModules(loc) {
			continue
		}
		locations = append(locations, loc)
	}

	sort.Strings(locations)
	return locations, nil
}

func isNodeModules(loc string) bool {
	for _, part := range strings.Split(loc, "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

func excluded(loc string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := zglob.Match(p, loc); err == nil && ok {
			return true
		}
	}
	return false
}
