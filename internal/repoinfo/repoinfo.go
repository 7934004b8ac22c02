// Package repoinfo derives repo_url, repo_name and edit_uri from the git
// checkout a documentation site lives in.
package repoinfo

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// Info describes the repository around a docs directory.
type Info struct {
	Root     string // Worktree root
	Remote   string // Raw URL of the remote used
	Branch   string // Branch HEAD points at; empty when detached
	RepoURL  string // Browsable https URL, empty for local or unknown remotes
	RepoName string // owner/name path of the repository
	Host     string
}

// Detect opens the repository containing dir. The "origin" remote is
// preferred; otherwise the first remote by name is used.
func Detect(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.GitError("no git repository found").WithCause(err).
			WithContext("path", dir).
			Build()
	}

	info := &Info{}
	if wt, err := repo.Worktree(); err == nil {
		info.Root = wt.Filesystem.Root()
	}
	if head, err := repo.Reference(plumbing.HEAD, false); err == nil && head.Type() == plumbing.SymbolicReference {
		info.Branch = head.Target().Short()
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return nil, ferrors.GitError("failed to list git remotes").WithCause(err).
			WithContext("path", dir).
			Build()
	}
	sort.Slice(remotes, func(i, j int) bool {
		a, b := remotes[i].Config().Name, remotes[j].Config().Name
		if (a == git.DefaultRemoteName) != (b == git.DefaultRemoteName) {
			return a == git.DefaultRemoteName
		}
		return a < b
	})
	for _, r := range remotes {
		if urls := r.Config().URLs; len(urls) > 0 {
			info.Remote = urls[0]
			break
		}
	}
	if info.Remote != "" {
		info.RepoURL, info.RepoName, info.Host, _ = NormalizeRemote(info.Remote)
	}
	return info, nil
}

// IsNotRepository reports whether err means no repository was found.
func IsNotRepository(err error) bool {
	return errors.Is(err, git.ErrRepositoryNotExists)
}

// NormalizeRemote converts a clone URL (https, ssh or scp-like) into the
// browsable https URL, the owner/name path and the host. ok is false for local
// paths and URLs it cannot interpret.
func NormalizeRemote(raw string) (repoURL, name, host string, ok bool) {
	raw = strings.TrimSpace(raw)
	var p string
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || u.Scheme == "file" {
			return "", "", "", false
		}
		host, p = u.Hostname(), u.Path
	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// scp-like: git@github.com:owner/name.git
		at := strings.Index(raw, "@")
		hostPart, pathPart, _ := strings.Cut(raw[at+1:], ":")
		host, p = hostPart, pathPart
	default:
		return "", "", "", false
	}

	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	if host == "" || p == "" || !strings.Contains(p, "/") {
		return "", "", "", false
	}
	return fmt.Sprintf("https://%s/%s", host, p), p, host, true
}

// EditURI returns the edit_uri for docsDir on hosts with a known edit view.
func (i *Info) EditURI(docsDir string) string {
	if i == nil || i.RepoURL == "" {
		return ""
	}
	branch := i.Branch
	if branch == "" {
		branch = "main"
	}
	rel := filepath.Base(docsDir)
	if i.Root != "" {
		if r, err := filepath.Rel(i.Root, docsDir); err == nil && !strings.HasPrefix(r, "..") {
			rel = filepath.ToSlash(r)
		}
	}
	switch {
	case i.Host == "github.com", strings.Contains(i.Host, "gitlab"):
		return fmt.Sprintf("edit/%s/%s/", branch, rel)
	case i.Host == "bitbucket.org":
		return fmt.Sprintf("src/%s/%s/", branch, rel)
	default:
		return ""
	}
}

// Apply fills the repository keys of cfg that are not set yet. docsDir is
// the absolute docs directory.
func (i *Info) Apply(cfg *config.SiteConfig, docsDir string) {
	if i == nil || i.RepoURL == "" {
		return
	}
	if cfg.RepoURL == "" {
		cfg.RepoURL = i.RepoURL
	}
	if cfg.RepoName == "" {
		cfg.RepoName = i.RepoName
	}
	if cfg.EditURI == "" {
		cfg.EditURI = i.EditURI(docsDir)
	}
}
