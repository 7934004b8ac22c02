package repoinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitenav/internal/config"
)

func initRepo(t *testing.T, remotes map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	for name, u := range remotes {
		_, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{u}})
		require.NoError(t, err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "reference"), 0o755))
	return dir
}

func TestDetect_FromSubdirectory(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"upstream": "https://github.com/upstream/other.git",
		"origin":   "git@github.com:circstat/pycircstat2.git",
	})

	info, err := Detect(filepath.Join(dir, "docs", "reference"))
	require.NoError(t, err)
	require.Equal(t, "git@github.com:circstat/pycircstat2.git", info.Remote)
	require.Equal(t, "https://github.com/circstat/pycircstat2", info.RepoURL)
	require.Equal(t, "circstat/pycircstat2", info.RepoName)
	require.NotEmpty(t, info.Branch)
	require.NotEmpty(t, info.Root)
	require.Equal(t, "edit/"+info.Branch+"/docs/", info.EditURI(filepath.Join(info.Root, "docs")))
}

func TestDetect_NoRemote(t *testing.T) {
	dir := initRepo(t, nil)
	info, err := Detect(dir)
	require.NoError(t, err)
	require.Empty(t, info.RepoURL)
	require.Empty(t, info.EditURI(filepath.Join(dir, "docs")))
}

func TestDetect_NotARepository(t *testing.T) {
	_, err := Detect(t.TempDir())
	require.Error(t, err)
	require.True(t, IsNotRepository(err))
}

func TestNormalizeRemote(t *testing.T) {
	cases := []struct {
		raw, url, name, host string
		ok                   bool
	}{
		{"https://github.com/owner/repo.git", "https://github.com/owner/repo", "owner/repo", "github.com", true},
		{"https://github.com/owner/repo/", "https://github.com/owner/repo", "owner/repo", "github.com", true},
		{"git@github.com:owner/repo.git", "https://github.com/owner/repo", "owner/repo", "github.com", true},
		{"ssh://git@gitlab.example.org:2222/group/sub/repo.git", "https://gitlab.example.org/group/sub/repo", "group/sub/repo", "gitlab.example.org", true},
		{"file:///srv/git/repo.git", "", "", "", false},
		{"/srv/git/repo.git", "", "", "", false},
		{"https://example.org/single", "", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			u, name, host, ok := NormalizeRemote(tc.raw)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.url, u)
			require.Equal(t, tc.name, name)
			require.Equal(t, tc.host, host)
		})
	}
}

func TestApply_KeepsExplicitValues(t *testing.T) {
	info := &Info{
		Root:     "/work/site",
		Branch:   "main",
		RepoURL:  "https://gitlab.com/team/docs",
		RepoName: "team/docs",
		Host:     "gitlab.com",
	}
	cfg := &config.SiteConfig{Name: "x", RepoName: "Team Docs"}
	info.Apply(cfg, "/work/site/content")

	require.Equal(t, "https://gitlab.com/team/docs", cfg.RepoURL)
	require.Equal(t, "Team Docs", cfg.RepoName)
	require.Equal(t, "edit/main/content/", cfg.EditURI)

	var none *Info
	none.Apply(cfg, "/work/site/content")
	require.Equal(t, "https://gitlab.com/team/docs", cfg.RepoURL)
}
