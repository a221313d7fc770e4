// Package git fetches source repositories into the staging directory.
// Network operations go through the system git binary; reading the
// resulting checkout uses go-git.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/holon-run/npm-preview/pkg/github"
	holonlog "github.com/holon-run/npm-preview/pkg/log"
)

// DefaultBaseURL is the clone URL prefix for owner/name repositories.
const DefaultBaseURL = "https://github.com/"

// Cloner places a repository at a ref into dest, replacing its contents.
type Cloner interface {
	Clone(ctx context.Context, ref github.Ref, dest string) (*CloneResult, error)
}

// CloneResult holds the result of a clone operation.
type CloneResult struct {
	// HEAD is the checked out commit SHA.
	HEAD string
	// Source is the URL the repository was fetched from.
	Source string
}

// Client runs git commands in a directory.
type Client struct {
	// Dir is the working directory of the git repository.
	Dir string
}

// NewClient creates a new git client for the given directory.
func NewClient(dir string) *Client {
	return &Client{Dir: dir}
}

// ExecCommand runs git with args in the client's directory.
func (c *Client) ExecCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-C", c.Dir}, args...)

	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// HeadSHA returns the commit checked out in the repository.
func (c *Client) HeadSHA() (string, error) {
	repo, err := gogit.PlainOpen(c.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to open repository %s: %w", c.Dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// ShallowCloner fetches a single ref with depth 1, without history.
type ShallowCloner struct {
	// BaseURL is prepended to "owner/name.git"; DefaultBaseURL when empty
	BaseURL string
}

// NewShallowCloner creates a cloner for github.com repositories.
func NewShallowCloner() *ShallowCloner {
	return &ShallowCloner{BaseURL: DefaultBaseURL}
}

// SourceURL returns the URL the repository is fetched from.
func (s *ShallowCloner) SourceURL(repository string) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + repository + ".git"
}

// Clone implements Cloner. An empty ref.Branch checks out the remote HEAD.
func (s *ShallowCloner) Clone(ctx context.Context, ref github.Ref, dest string) (*CloneResult, error) {
	if ref.Repository == "" {
		return nil, fmt.Errorf("clone requires a repository")
	}

	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	source := s.SourceURL(ref.Repository)
	fetchRef := ref.Branch
	if fetchRef == "" {
		fetchRef = "HEAD"
	}

	holonlog.Debug("cloning repository", "source", source, "ref", fetchRef, "dest", dest)

	client := NewClient(dest)
	steps := [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", source},
		{"fetch", "--quiet", "--depth", "1", "--no-tags", "origin", fetchRef},
		{"checkout", "--quiet", "--detach", "FETCH_HEAD"},
	}
	for _, args := range steps {
		if _, err := client.ExecCommand(ctx, args...); err != nil {
			return nil, fmt.Errorf("failed to clone %s: %w", ref, err)
		}
	}

	head, err := client.HeadSHA()
	if err != nil {
		return nil, err
	}
	holonlog.Debug("clone complete", "repo", ref.Repository, "head", head)

	return &CloneResult{HEAD: head, Source: source}, nil
}
