package github

import (
	"context"
	"fmt"
	"regexp"

	holonlog "github.com/holon-run/npm-preview/pkg/log"
)

// Ref is a resolved repository and git reference. Repository is always in
// owner/name form. Branch holds a branch name, tag or commit SHA; empty
// means the repository's default HEAD.
type Ref struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch,omitempty"`
}

var fullSHAPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// ShortRef returns the display form of a ref: full 40-character commit SHAs
// are cut to 7 characters, anything else is returned unchanged.
func ShortRef(branch string) string {
	if fullSHAPattern.MatchString(branch) {
		return branch[:7]
	}
	return branch
}

// ShortBranch returns ShortRef(r.Branch)
func (r Ref) ShortBranch() string {
	return ShortRef(r.Branch)
}

// String returns owner/name@<short ref>, or owner/name when no ref is set
func (r Ref) String() string {
	if r.Branch == "" {
		return r.Repository
	}
	return r.Repository + "@" + r.ShortBranch()
}

// TreeURL returns the GitHub web URL of the ref
func (r Ref) TreeURL() string {
	if r.Branch == "" {
		return "https://github.com/" + r.Repository
	}
	return fmt.Sprintf("https://github.com/%s/tree/%s", r.Repository, r.Branch)
}

// CloneURL returns the HTTPS clone URL for the repository
func (r Ref) CloneURL() string {
	return fmt.Sprintf("https://github.com/%s.git", r.Repository)
}

// Resolver turns GitHub URLs into concrete refs, calling the API only for
// bare repository URLs (default branch head) and pull request URLs.
type Resolver struct {
	client *Client
}

// NewResolver creates a resolver backed by the given client
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve parses rawURL and resolves it to a Ref.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Ref, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return Ref{}, err
	}

	switch u.Kind {
	case URLKindTree, URLKindCommit:
		holonlog.Debug("using ref from URL", "repo", u.FullName(), "kind", u.Kind.String(), "ref", u.Ref)
		return Ref{Repository: u.FullName(), Branch: u.Ref}, nil

	case URLKindPull:
		headRepo, headRef, err := r.FetchPRHead(ctx, u.Owner, u.Repo, u.Number)
		if err != nil {
			return Ref{}, err
		}
		holonlog.Debug("resolved pull request head", "pr", u.Number, "repo", headRepo, "ref", headRef)
		return Ref{Repository: headRepo, Branch: headRef}, nil

	case URLKindDefault:
		branch, err := r.FetchDefaultBranch(ctx, u.Owner, u.Repo)
		if err != nil {
			return Ref{}, err
		}
		sha, err := r.FetchLatestCommit(ctx, u.Owner, u.Repo, branch)
		if err != nil {
			return Ref{}, err
		}
		holonlog.Debug("resolved default branch head", "repo", u.FullName(), "branch", branch, "sha", sha)
		return Ref{Repository: u.FullName(), Branch: sha}, nil

	default:
		return Ref{}, fmt.Errorf("unhandled GitHub URL kind %s", u.Kind)
	}
}

// FetchDefaultBranch returns the repository's default branch name
func (r *Resolver) FetchDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	gh, err := r.client.GitHubClient()
	if err != nil {
		return "", err
	}

	repository, _, err := gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", translateError(path, err)
	}
	branch := repository.GetDefaultBranch()
	if branch == "" {
		return "", &ResponseParseError{Path: path, Err: fmt.Errorf("missing default_branch")}
	}
	return branch, nil
}

// FetchLatestCommit returns the SHA of the latest commit on branch
func (r *Resolver) FetchLatestCommit(ctx context.Context, owner, repo, branch string) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, branch)
	gh, err := r.client.GitHubClient()
	if err != nil {
		return "", err
	}

	commit, _, err := gh.Repositories.GetCommit(ctx, owner, repo, branch, nil)
	if err != nil {
		return "", translateError(path, err)
	}
	sha := commit.GetSHA()
	if sha == "" {
		return "", &ResponseParseError{Path: path, Err: fmt.Errorf("missing sha")}
	}
	return sha, nil
}

// FetchPRHead returns the head repository (owner/name) and head branch of a
// pull request. For pull requests from forks this is the fork.
func (r *Resolver) FetchPRHead(ctx context.Context, owner, repo string, number int) (string, string, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	gh, err := r.client.GitHubClient()
	if err != nil {
		return "", "", err
	}

	pr, _, err := gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return "", "", translateError(path, err)
	}

	head := pr.GetHead()
	headRepo := head.GetRepo().GetFullName()
	headRef := head.GetRef()
	if headRepo == "" || headRef == "" {
		return "", "", &ResponseParseError{Path: path, Err: fmt.Errorf("missing head.repo.full_name or head.ref")}
	}
	return headRepo, headRef, nil
}
