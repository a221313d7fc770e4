// Package pkgmanager detects which JavaScript package manager a checkout
// uses, based on the lockfile present at its root.
package pkgmanager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager is a supported package manager.
type Manager string

const (
	NPM  Manager = "npm"
	PNPM Manager = "pnpm"
	Yarn Manager = "yarn"
	Bun  Manager = "bun"
)

// Supported lists the managers npm-preview can drive, in display order.
var Supported = []Manager{NPM, Bun, PNPM, Yarn}

func (m Manager) String() string {
	return string(m)
}

// InstallCommand returns the dependency install command line.
func (m Manager) InstallCommand() string {
	return string(m) + " install"
}

// RunScriptCommand returns the command line that runs a package.json script.
func (m Manager) RunScriptCommand(script string) string {
	return string(m) + " run " + script
}

// IsNPMFamily reports whether the manager's name contains "npm" (npm, pnpm).
// Those managers get peer dependencies resolved by the publish CLI.
func (m Manager) IsNPMFamily() bool {
	return strings.Contains(string(m), "npm")
}

// UnsupportedPackageManagerError is returned when the lockfile belongs to a
// package manager that cannot be driven.
type UnsupportedPackageManagerError struct {
	Name     string
	Lockfile string
}

func (e *UnsupportedPackageManagerError) Error() string {
	names := make([]string, len(Supported))
	for i, m := range Supported {
		names[i] = string(m)
	}
	return fmt.Sprintf("Unsupported package manager: %s. Supported managers are %s.", e.Name, strings.Join(names, ", "))
}

// DetectResult contains the detected manager and the lockfile that decided it.
type DetectResult struct {
	Manager  Manager
	Lockfile string // empty when falling back to npm
}

// lockfile is a lockfile name and the manager it signals. Order in
// knownLockfiles is the detection priority.
type lockfile struct {
	Name    string
	Manager Manager
	// Unsupported names a manager that is recognized but cannot be used
	Unsupported string
}

var knownLockfiles = []lockfile{
	{Name: "pnpm-lock.yaml", Manager: PNPM},
	{Name: "yarn.lock", Manager: Yarn},
	{Name: "bun.lockb", Manager: Bun},
	{Name: "bun.lock", Manager: Bun},
	{Name: "deno.lock", Unsupported: "deno"},
}

// Detect inspects dir for lockfiles and returns the package manager to use.
// Without any known lockfile the result is npm.
func Detect(dir string) (*DetectResult, error) {
	for _, lf := range knownLockfiles {
		info, err := os.Stat(filepath.Join(dir, lf.Name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to check %s: %w", lf.Name, err)
		}
		if info.IsDir() {
			continue
		}
		if lf.Unsupported != "" {
			return nil, &UnsupportedPackageManagerError{Name: lf.Unsupported, Lockfile: lf.Name}
		}
		return &DetectResult{Manager: lf.Manager, Lockfile: lf.Name}, nil
	}

	return &DetectResult{Manager: NPM}, nil
}
