// Package gitinfo reads the repository facts edit links are built from.
package gitinfo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNoRemote is returned when the repository has no origin remote.
var ErrNoRemote = errors.New("repository has no origin remote")

// Forge identifies the web UI flavour used to build edit URLs.
type Forge string

const (
	ForgeGitHub  Forge = "github"
	ForgeGitLab  Forge = "gitlab"
	ForgeForgejo Forge = "forgejo"
)

// Info describes the repository containing the manuscript.
type Info struct {
	Root      string
	RemoteURL string
	Branch    string
}

// Discover opens the repository enclosing dir.
func Discover(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	info := &Info{Root: wt.Filesystem.Root()}

	remote, err := repo.Remote("origin")
	switch {
	case errors.Is(err, git.ErrRemoteNotFound):
	case err != nil:
		return nil, fmt.Errorf("read origin remote: %w", err)
	default:
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.RemoteURL = urls[0]
		}
	}

	// HEAD is read unresolved so a branch without commits still has a name.
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		info.Branch = head.Target().Short()
	}
	return info, nil
}

// WebURL converts a clone URL (https, ssh or scp-like) to the repository's
// web host URL and "owner/repo" name.
func WebURL(remote string) (host, fullName string, ok bool) {
	r := strings.TrimSpace(remote)
	r = strings.TrimSuffix(r, "/")
	r = strings.TrimSuffix(r, ".git")

	switch {
	case strings.HasPrefix(r, "https://"), strings.HasPrefix(r, "http://"):
		scheme, rest, _ := strings.Cut(r, "://")
		h, p, found := strings.Cut(rest, "/")
		if !found || p == "" {
			return "", "", false
		}
		if at := strings.LastIndex(h, "@"); at >= 0 {
			h = h[at+1:]
		}
		return scheme + "://" + h, p, true
	case strings.HasPrefix(r, "ssh://"):
		rest := strings.TrimPrefix(r, "ssh://")
		h, p, found := strings.Cut(rest, "/")
		if !found || p == "" {
			return "", "", false
		}
		if at := strings.LastIndex(h, "@"); at >= 0 {
			h = h[at+1:]
		}
		if colon := strings.Index(h, ":"); colon >= 0 {
			h = h[:colon]
		}
		return "https://" + h, p, true
	case strings.Contains(r, ":") && !strings.Contains(r, "://"):
		h, p, _ := strings.Cut(r, ":")
		if at := strings.LastIndex(h, "@"); at >= 0 {
			h = h[at+1:]
		}
		if h == "" || p == "" {
			return "", "", false
		}
		return "https://" + h, p, true
	}
	return "", "", false
}

// DetectForge guesses the forge from the host name.
func DetectForge(host string) Forge {
	h := strings.ToLower(host)
	switch {
	case strings.Contains(h, "github"):
		return ForgeGitHub
	case strings.Contains(h, "gitlab"):
		return ForgeGitLab
	default:
		return ForgeForgejo
	}
}

// EditURL constructs a web UI edit URL for a repository file.
// filePath must use forward slashes. Returns empty string if inputs are insufficient.
func EditURL(forge Forge, host, fullName, branch, filePath string) string {
	if host == "" || fullName == "" || branch == "" || filePath == "" {
		return ""
	}
	host = strings.TrimSuffix(host, "/")
	filePath = strings.TrimPrefix(filePath, "/")
	switch forge {
	case ForgeGitHub:
		return fmt.Sprintf("%s/%s/edit/%s/%s", host, fullName, branch, filePath)
	case ForgeGitLab:
		return fmt.Sprintf("%s/%s/-/edit/%s/%s", host, fullName, branch, filePath)
	case ForgeForgejo:
		return fmt.Sprintf("%s/%s/_edit/%s/%s", host, fullName, branch, filePath)
	default:
		return ""
	}
}

// EditBase returns the URL prefix that manuscript-relative source paths are
// appended to. dir is the manuscript directory; branch overrides the checked
// out branch when non-empty.
func (i *Info) EditBase(dir, branch string) (string, error) {
	if i.RemoteURL == "" {
		return "", ErrNoRemote
	}
	host, fullName, ok := WebURL(i.RemoteURL)
	if !ok {
		return "", fmt.Errorf("unsupported remote URL %q", i.RemoteURL)
	}
	if branch == "" {
		branch = i.Branch
	}
	if branch == "" {
		return "", errors.New("cannot determine branch (detached HEAD); set steps.edit_link.branch")
	}

	rel, err := relativeTo(i.Root, dir)
	if err != nil {
		return "", err
	}
	// A placeholder file keeps EditURL's non-empty path check satisfied.
	u := EditURL(DetectForge(host), host, fullName, branch, joinSlash(rel, "x"))
	return strings.TrimSuffix(u, "/x"), nil
}

func relativeTo(root, dir string) (string, error) {
	absRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		absRoot = root
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(absDir); err == nil {
		absDir = resolved
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("directory %s is outside repository %s", dir, root)
	}
	return filepath.ToSlash(rel), nil
}

func joinSlash(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}
