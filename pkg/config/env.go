package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Env is the process environment relevant to a run, read once at startup.
type Env struct {
	// CI is true when running under a CI system (CI set and not "false"/"0")
	CI bool
	// Token authenticates GitHub API requests; empty means anonymous
	Token string
	// RefName is the branch or tag the workflow runs on (GITHUB_REF_NAME)
	RefName string
	// Repository is the owner/name of the repository running the workflow
	Repository string
	// StepSummary is the path of the job summary file; empty when unset
	StepSummary string
	// LogLevel overrides the configured log level
	LogLevel string
}

// env keys bound in LoadEnv
const (
	keyCI          = "ci"
	keyToken       = "token"
	keyRefName     = "ref_name"
	keyRepository  = "repository"
	keyStepSummary = "step_summary"
	keyLogLevel    = "log_level"
)

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	v := viper.New()

	bindings := map[string][]string{
		keyCI:          {"CI"},
		keyToken:       {"GITHUB_TOKEN", "GH_TOKEN"},
		keyRefName:     {"GITHUB_REF_NAME"},
		keyRepository:  {"GITHUB_REPOSITORY"},
		keyStepSummary: {"GITHUB_STEP_SUMMARY"},
		keyLogLevel:    {"NPM_PREVIEW_LOG_LEVEL"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Env{}, err
		}
	}

	return Env{
		CI:          isTruthy(v.GetString(keyCI)),
		Token:       strings.TrimSpace(v.GetString(keyToken)),
		RefName:     v.GetString(keyRefName),
		Repository:  v.GetString(keyRepository),
		StepSummary: v.GetString(keyStepSummary),
		LogLevel:    v.GetString(keyLogLevel),
	}, nil
}

// RequireCI returns an EnvironmentError unless the run is inside CI.
func (e Env) RequireCI() error {
	if !e.CI {
		return &EnvironmentError{}
	}
	return nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "false", "0":
		return false
	default:
		return true
	}
}

// EnvironmentError is returned when npm-preview runs outside CI.
type EnvironmentError struct{}

func (e *EnvironmentError) Error() string {
	return "NPM Preview is only available in GitHub Actions (CI environment)."
}
