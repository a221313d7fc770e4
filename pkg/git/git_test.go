package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holon-run/npm-preview/pkg/github"
)

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test User", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test User", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v, output: %s", strings.Join(args, " "), err, string(out))
	}
	return strings.TrimSpace(string(out))
}

// setupRemote creates <base>/owner/repo.git with a main branch holding two
// commits and a feature branch with one extra commit. It returns base and
// the SHAs of main and feature.
func setupRemote(t *testing.T) (base, mainSHA, featureSHA string) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	base = t.TempDir()
	bare := filepath.Join(base, "owner", "repo.git")
	if err := os.MkdirAll(bare, 0755); err != nil {
		t.Fatal(err)
	}
	runGit(t, bare, "init", "--quiet", "--bare")
	runGit(t, bare, "symbolic-ref", "HEAD", "refs/heads/main")

	work := t.TempDir()
	runGit(t, work, "init", "--quiet")
	runGit(t, work, "checkout", "--quiet", "-b", "main")

	for i, content := range []string{`{"name":"demo","version":"1.0.0"}`, `{"name":"demo","version":"1.1.0"}`} {
		if err := os.WriteFile(filepath.Join(work, "package.json"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		runGit(t, work, "add", ".")
		runGit(t, work, "commit", "--quiet", "-m", fmt.Sprintf("commit %d", i+1))
	}
	mainSHA = runGit(t, work, "rev-parse", "HEAD")

	runGit(t, work, "checkout", "--quiet", "-b", "feature")
	if err := os.WriteFile(filepath.Join(work, "FEATURE.md"), []byte("feature"), 0644); err != nil {
		t.Fatal(err)
	}
	runGit(t, work, "add", ".")
	runGit(t, work, "commit", "--quiet", "-m", "feature")
	featureSHA = runGit(t, work, "rev-parse", "HEAD")

	runGit(t, work, "push", "--quiet", bare, "main", "feature")
	return base, mainSHA, featureSHA
}

func newTestCloner(base string) *ShallowCloner {
	return &ShallowCloner{BaseURL: "file://" + filepath.ToSlash(base)}
}

func TestShallowCloner_Branch(t *testing.T) {
	base, _, featureSHA := setupRemote(t)
	dest := filepath.Join(t.TempDir(), "temp")

	result, err := newTestCloner(base).Clone(context.Background(), github.Ref{Repository: "owner/repo", Branch: "feature"}, dest)
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	if result.HEAD != featureSHA {
		t.Errorf("HEAD = %s, want %s", result.HEAD, featureSHA)
	}
	if _, err := os.Stat(filepath.Join(dest, "FEATURE.md")); err != nil {
		t.Errorf("FEATURE.md missing from checkout: %v", err)
	}

	out, err := NewClient(dest).ExecCommand(context.Background(), "rev-parse", "--is-shallow-repository")
	if err != nil {
		t.Fatalf("rev-parse error = %v", err)
	}
	if strings.TrimSpace(string(out)) != "true" {
		t.Error("clone should be shallow")
	}
}

func TestShallowCloner_DefaultHead(t *testing.T) {
	base, mainSHA, _ := setupRemote(t)
	dest := filepath.Join(t.TempDir(), "temp")

	result, err := newTestCloner(base).Clone(context.Background(), github.Ref{Repository: "owner/repo"}, dest)
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if result.HEAD != mainSHA {
		t.Errorf("HEAD = %s, want main %s", result.HEAD, mainSHA)
	}
	if _, err := os.Stat(filepath.Join(dest, "FEATURE.md")); !os.IsNotExist(err) {
		t.Error("FEATURE.md should not exist on main")
	}
}

func TestShallowCloner_ReplacesExistingContent(t *testing.T) {
	base, _, _ := setupRemote(t)
	dest := filepath.Join(t.TempDir(), "temp")

	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dest, "stale.txt")
	if err := os.WriteFile(stale, []byte("from a previous run"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := newTestCloner(base).Clone(context.Background(), github.Ref{Repository: "owner/repo", Branch: "main"}, dest); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("staging directory should be emptied before cloning")
	}
}

func TestShallowCloner_MissingRef(t *testing.T) {
	base, _, _ := setupRemote(t)
	dest := filepath.Join(t.TempDir(), "temp")

	_, err := newTestCloner(base).Clone(context.Background(), github.Ref{Repository: "owner/repo", Branch: "does-not-exist"}, dest)
	if err == nil {
		t.Fatal("Clone() should fail for a missing ref")
	}
	if !strings.Contains(err.Error(), "owner/repo@does-not-exist") {
		t.Errorf("error = %v, want it to name the ref", err)
	}
}

func TestShallowCloner_SourceURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"", "https://github.com/owner/repo.git"},
		{DefaultBaseURL, "https://github.com/owner/repo.git"},
		{"https://git.example.com/mirror", "https://git.example.com/mirror/owner/repo.git"},
	}

	for _, tt := range tests {
		c := &ShallowCloner{BaseURL: tt.base}
		if got := c.SourceURL("owner/repo"); got != tt.want {
			t.Errorf("SourceURL() with base %q = %q, want %q", tt.base, got, tt.want)
		}
	}
}
