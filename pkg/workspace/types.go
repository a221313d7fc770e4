package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PackageFile is the manifest file name of a JavaScript package
const PackageFile = "package.json"

// RootLocation is the Location of the package at the staging root
const RootLocation = "."

// Discoverer lists the workspace packages of a checkout
type Discoverer interface {
	// Discover returns the packages declared as workspaces under root, in
	// declaration order. The root package itself is not included.
	Discover(ctx context.Context, root string) ([]Package, error)
}

// Package is the metadata of one package.json
type Package struct {
	// Location is the slash-separated path relative to the staging root,
	// "." for the root package
	Location string `json:"location"`
	// Name and Version are empty when absent from package.json
	Name    string            `json:"name,omitempty"`
	Version string            `json:"version,omitempty"`
	Private bool              `json:"private,omitempty"`
	Scripts map[string]string `json:"scripts,omitempty"`
}

// HasScript reports whether package.json defines the script with a
// non-empty command
func (p Package) HasScript(name string) bool {
	return strings.TrimSpace(p.Scripts[name]) != ""
}

// HasBuildScript reports whether package.json defines a "build" script
func (p Package) HasBuildScript() bool {
	return p.HasScript("build")
}

// HasMetadata reports whether both name and version are set
func (p Package) HasMetadata() bool {
	return p.Name != "" && p.Version != ""
}

// IsPublic reports whether the package can be published: not private and
// carrying both name and version
func (p Package) IsPublic() bool {
	return !p.Private && p.HasMetadata()
}

// MissingFields returns the required package.json fields that are absent
func (p Package) MissingFields() []string {
	var missing []string
	if p.Version == "" {
		missing = append(missing, "version")
	}
	if p.Name == "" {
		missing = append(missing, "name")
	}
	return missing
}

// Dir returns the package directory under root
func (p Package) Dir(root string) string {
	return filepath.Join(root, filepath.FromSlash(p.Location))
}

// PublishPath returns the "./"-prefixed path handed to the publish CLI
func (p Package) PublishPath() string {
	if p.Location == RootLocation || p.Location == "" {
		return "./"
	}
	return "./" + strings.TrimPrefix(path.Clean(p.Location), "./")
}

// manifest mirrors the package.json fields npm-preview reads
type manifest struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Private    flag              `json:"private"`
	Scripts    map[string]string `json:"scripts"`
	Workspaces workspaces        `json:"workspaces"`
}

// flag accepts both true and "true"
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("private must be a boolean: %w", err)
	}
	*f = flag(strings.EqualFold(s, "true"))
	return nil
}

// workspaces accepts ["a/*"] as well as {"packages": ["a/*"]}
type workspaces []string

func (w *workspaces) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*w = list
		return nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("workspaces must be a list or an object with packages: %w", err)
	}
	*w = obj.Packages
	return nil
}

func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, PackageFile))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, PackageFile), err)
	}
	return &m, nil
}

// ReadPackage reads the package.json at location (slash-separated,
// relative to root).
func ReadPackage(root, location string) (*Package, error) {
	pkg := Package{Location: location}
	m, err := readManifest(pkg.Dir(root))
	if err != nil {
		return nil, err
	}
	pkg.Name = strings.TrimSpace(m.Name)
	pkg.Version = strings.TrimSpace(m.Version)
	pkg.Private = bool(m.Private)
	pkg.Scripts = m.Scripts
	return &pkg, nil
}
