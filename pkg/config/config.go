// Package config provides the run configuration for npm-preview.
//
// Two sources are combined: the process environment, read once into Env,
// and an optional project file .npm-preview/config.yaml with precedence
// CLI flags > project config > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name for npm-preview configuration
	ConfigDir = ".npm-preview"
	// ConfigFile is the name of the configuration file
	ConfigFile = "config.yaml"
	// ConfigPath is the full path to the config file relative to project root
	ConfigPath = ConfigDir + "/" + ConfigFile
)

const (
	// DefaultStagingDir is where the source repository is cloned
	DefaultStagingDir = "temp"
	// DefaultRegistryURL is the base URL of published preview packages
	DefaultRegistryURL = "https://pkg.pr.new"
	// DefaultPublishCommand is the preview publish CLI invocation
	DefaultPublishCommand = "npx pkg-pr-new publish"
	// DefaultLogLevel is used when neither flags, config nor env set a level
	DefaultLogLevel = "info"
)

// ProjectConfig represents the project-level configuration file.
type ProjectConfig struct {
	// StagingDir is the directory the source repository is cloned into,
	// relative to the working directory
	StagingDir string `yaml:"staging_dir,omitempty"`

	// LogLevel is the default log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level,omitempty"`

	// RegistryURL is the base URL used for package links in the summary
	RegistryURL string `yaml:"registry_url,omitempty"`

	// PublishCommand replaces "npx pkg-pr-new publish", e.g. to pin a version
	PublishCommand string `yaml:"publish_command,omitempty"`
}

// Load loads the project configuration from the given directory.
// It searches for .npm-preview/config.yaml in the directory and its parents.
//
// If no config file is found, it returns a zero config and nil error.
// If a config file is found but cannot be parsed, it returns an error.
func Load(dir string) (*ProjectConfig, error) {
	configPath, err := findConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return &ProjectConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads the project configuration from the current working directory.
func LoadFromCurrentDir() (*ProjectConfig, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Load(dir)
}

// findConfigPath searches for the config file in dir and its parents.
// It returns an empty string if none is found.
func findConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(absDir, ConfigPath)
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			return configPath, nil
		}

		parentDir := filepath.Dir(absDir)
		if parentDir == absDir {
			return "", nil
		}
		absDir = parentDir
	}
}

// ResolveString returns the effective value for a string configuration field.
// Precedence: cliValue > configValue > defaultValue.
// Returns the effective value and its source ("cli", "config", or "default").
func (c *ProjectConfig) ResolveString(cliValue, configValue, defaultValue string) (string, string) {
	if cliValue != "" {
		return cliValue, "cli"
	}
	if configValue != "" {
		return configValue, "config"
	}
	return defaultValue, "default"
}

// ResolveStagingDir returns the effective staging directory and its source.
func (c *ProjectConfig) ResolveStagingDir(cliValue string) (string, string) {
	return c.ResolveString(cliValue, c.StagingDir, DefaultStagingDir)
}

// ResolveLogLevel returns the effective log level and its source.
func (c *ProjectConfig) ResolveLogLevel(cliValue, defaultValue string) (string, string) {
	return c.ResolveString(cliValue, c.LogLevel, defaultValue)
}

// ResolveRegistryURL returns the effective registry base URL and its source.
func (c *ProjectConfig) ResolveRegistryURL(cliValue string) (string, string) {
	return c.ResolveString(cliValue, c.RegistryURL, DefaultRegistryURL)
}

// ResolvePublishCommand returns the effective publish command and its source.
func (c *ProjectConfig) ResolvePublishCommand(cliValue string) (string, string) {
	return c.ResolveString(cliValue, c.PublishCommand, DefaultPublishCommand)
}
