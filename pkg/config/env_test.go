package config

import (
	"errors"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CI", "GITHUB_TOKEN", "GH_TOKEN", "GITHUB_REF_NAME",
		"GITHUB_REPOSITORY", "GITHUB_STEP_SUMMARY", "NPM_PREVIEW_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CI", "true")
	t.Setenv("GITHUB_TOKEN", "ghs_abc")
	t.Setenv("GITHUB_REF_NAME", "main")
	t.Setenv("GITHUB_REPOSITORY", "holon-run/npm-preview")
	t.Setenv("GITHUB_STEP_SUMMARY", "/tmp/summary.md")
	t.Setenv("NPM_PREVIEW_LOG_LEVEL", "debug")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	want := Env{
		CI:          true,
		Token:       "ghs_abc",
		RefName:     "main",
		Repository:  "holon-run/npm-preview",
		StepSummary: "/tmp/summary.md",
		LogLevel:    "debug",
	}
	if env != want {
		t.Errorf("LoadEnv() = %+v, want %+v", env, want)
	}
}

func TestLoadEnv_TokenFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GH_TOKEN", "gho_fallback")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if env.Token != "gho_fallback" {
		t.Errorf("Token = %q, want %q", env.Token, "gho_fallback")
	}

	t.Setenv("GITHUB_TOKEN", "ghs_primary")
	env, err = LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if env.Token != "ghs_primary" {
		t.Errorf("Token = %q, want GITHUB_TOKEN to win", env.Token)
	}
}

func TestLoadEnv_CIFlag(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"FALSE", false},
		{"0", false},
		{"true", true},
		{"1", true},
		{"yes", true},
	}

	for _, tt := range tests {
		t.Run("CI="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CI", tt.value)

			env, err := LoadEnv()
			if err != nil {
				t.Fatalf("LoadEnv() error = %v", err)
			}
			if env.CI != tt.want {
				t.Errorf("CI = %v, want %v", env.CI, tt.want)
			}
		})
	}
}

func TestRequireCI(t *testing.T) {
	err := Env{}.RequireCI()
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("RequireCI() error = %v, want *EnvironmentError", err)
	}
	if got, want := err.Error(), "NPM Preview is only available in GitHub Actions (CI environment)."; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if err := (Env{CI: true}).RequireCI(); err != nil {
		t.Errorf("RequireCI() in CI = %v, want nil", err)
	}
}
