package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// URLKind identifies which GitHub URL shape was given
type URLKind int

const (
	// URLKindDefault is a bare repository URL; the ref is resolved to the
	// latest commit on the default branch
	URLKindDefault URLKind = iota
	// URLKindTree is .../tree/<ref> (branch or tag)
	URLKindTree
	// URLKindCommit is .../commit/<sha>
	URLKindCommit
	// URLKindPull is .../pull/<number>
	URLKindPull
)

func (k URLKind) String() string {
	switch k {
	case URLKindDefault:
		return "default"
	case URLKindTree:
		return "tree"
	case URLKindCommit:
		return "commit"
	case URLKindPull:
		return "pull"
	default:
		return fmt.Sprintf("URLKind(%d)", int(k))
	}
}

// URL is a parsed GitHub URL. Ref is set for Tree and Commit, Number for Pull.
type URL struct {
	Owner  string
	Repo   string
	Kind   URLKind
	Ref    string
	Number int
}

const githubHost = "github.com/"

var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	refPattern   = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// ParseURL parses a GitHub URL. Supported shapes:
//   - github.com/<owner>/<repo>[.git]
//   - github.com/<owner>/<repo>/tree/<ref>
//   - github.com/<owner>/<repo>/commit/<sha>
//   - github.com/<owner>/<repo>/pull/<number>[/files]
//
// A scheme or "www." prefix is allowed. Unrecognized trailing path segments
// (issues, blob, ...) are treated as a bare repository URL.
func ParseURL(raw string) (URL, error) {
	input := strings.TrimSpace(raw)

	idx := strings.Index(input, githubHost)
	if idx < 0 || (idx > 0 && !strings.ContainsRune("/.@", rune(input[idx-1]))) {
		return URL{}, &InvalidURLError{URL: raw, Reason: "expected a github.com URL"}
	}
	path := input[idx+len(githubHost):]
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return URL{}, &InvalidURLError{URL: raw, Reason: "expected <owner>/<repo>"}
	}

	owner := segments[0]
	repo := strings.TrimSuffix(segments[1], ".git")
	if !ownerPattern.MatchString(owner) {
		return URL{}, &InvalidURLError{URL: raw, Reason: fmt.Sprintf("invalid owner %q", owner)}
	}
	if repo == "" || !repoPattern.MatchString(repo) {
		return URL{}, &InvalidURLError{URL: raw, Reason: fmt.Sprintf("invalid repository %q", segments[1])}
	}

	u := URL{Owner: owner, Repo: repo, Kind: URLKindDefault}
	if len(segments) < 3 {
		return u, nil
	}

	var ref string
	if len(segments) >= 4 {
		ref = segments[3]
	}

	switch segments[2] {
	case "tree", "commit":
		if ref == "" {
			return u, nil
		}
		if !refPattern.MatchString(ref) {
			return URL{}, &InvalidURLError{URL: raw, Reason: fmt.Sprintf("invalid ref %q", ref)}
		}
		u.Ref = ref
		u.Kind = URLKindTree
		if segments[2] == "commit" {
			u.Kind = URLKindCommit
		}
	case "pull":
		n, err := strconv.Atoi(ref)
		if err != nil || n <= 0 {
			return URL{}, &InvalidURLError{URL: raw, Reason: fmt.Sprintf("invalid pull request number %q", ref)}
		}
		u.Kind = URLKindPull
		u.Number = n
	}

	return u, nil
}

// FullName returns the repository in owner/name form
func (u URL) FullName() string {
	return u.Owner + "/" + u.Repo
}

// String returns the canonical https form of the URL
func (u URL) String() string {
	base := "https://github.com/" + u.FullName()
	switch u.Kind {
	case URLKindTree:
		return base + "/tree/" + u.Ref
	case URLKindCommit:
		return base + "/commit/" + u.Ref
	case URLKindPull:
		return fmt.Sprintf("%s/pull/%d", base, u.Number)
	default:
		return base
	}
}
