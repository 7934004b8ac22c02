package pages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// newSite lays out a docs tree under a fresh base directory.
func newSite(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	writeDoc(t, docs, "index.md", "---\ntitle: Welcome\n---\n# Ignored\n")
	writeDoc(t, docs, "README.md", "# Readme\n")
	writeDoc(t, docs, "guide/index.md", "text only\n")
	writeDoc(t, docs, "guide/install.md", "# Installing\n\nSteps.\n")
	writeDoc(t, docs, "guide/getting_started.md", "No heading here.\n")
	writeDoc(t, docs, "reference/api.md", "## Only a subheading\n")
	writeDoc(t, docs, "assets/logo.png", "png")
	writeDoc(t, docs, "_drafts/wip.md", "# Draft\n")
	writeDoc(t, docs, ".hidden.md", "# Hidden\n")
	return base
}

func TestAutoNav(t *testing.T) {
	base := newSite(t)
	nav, err := AutoNav(filepath.Join(base, "docs"))
	require.NoError(t, err)
	require.Equal(t, []config.NavEntry{
		config.Leaf("", "index.md"),
		config.Section("Guide",
			config.Leaf("", "guide/index.md"),
			config.Leaf("", "guide/getting_started.md"),
			config.Leaf("", "guide/install.md"),
		),
		config.Section("Reference", config.Leaf("", "reference/api.md")),
	}, nav)

	files, err := DocFiles(filepath.Join(base, "docs"))
	require.NoError(t, err)
	require.Equal(t, []string{
		"index.md",
		"guide/index.md",
		"guide/getting_started.md",
		"guide/install.md",
		"reference/api.md",
	}, files)
}

func TestAutoNav_MissingDir(t *testing.T) {
	_, err := AutoNav(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestResolve_AutoNavTitles(t *testing.T) {
	base := newSite(t)
	cfg := &config.SiteConfig{Name: "x", DocsDir: "docs"}

	pages, err := Resolve(cfg, base)
	require.NoError(t, err)

	type got struct {
		title  string
		source TitleSource
	}
	titles := make(map[string]got, len(pages))
	for _, p := range pages {
		require.True(t, p.Exists, p.NavPath)
		require.NotEmpty(t, p.Fingerprint, p.NavPath)
		titles[p.NavPath] = got{p.Title, p.TitleSource}
	}
	require.Equal(t, map[string]got{
		"index.md":                 {"Welcome", TitleFromFrontmatter},
		"guide/index.md":           {"Guide", TitleFromFilename},
		"guide/getting_started.md": {"Getting started", TitleFromFilename},
		"guide/install.md":         {"Installing", TitleFromHeading},
		"reference/api.md":         {"Api", TitleFromFilename},
	}, titles)
	require.Equal(t, []string{"Guide"}, pages[2].Trail)
}

func TestResolve_ExplicitNav(t *testing.T) {
	base := newSite(t)
	cfg := &config.SiteConfig{
		Name:    "x",
		DocsDir: "docs",
		Nav: []config.NavEntry{
			config.Leaf("Home", "index.md"),
			config.Leaf("", "missing-page.md"),
			config.Leaf("Site", "https://example.org"),
			config.Section("Assets", config.Leaf("", "assets/logo.png")),
		},
	}

	pages, err := Resolve(cfg, base)
	require.NoError(t, err)
	require.Len(t, pages, 4)

	require.Equal(t, "Home", pages[0].Title)
	require.Equal(t, TitleFromNav, pages[0].TitleSource)
	require.True(t, pages[0].Exists)
	require.Equal(t, filepath.Join(base, "docs", "index.md"), pages[0].Source)

	require.False(t, pages[1].Exists)
	require.Empty(t, pages[1].Fingerprint)
	require.Equal(t, "Missing page", pages[1].Title)

	require.True(t, pages[2].External)
	require.Empty(t, pages[2].Source)
	require.Equal(t, "Site", pages[2].Title)

	require.True(t, pages[3].Exists)
	require.Equal(t, "Logo", pages[3].Title)
	require.Equal(t, []string{"Assets"}, pages[3].Trail)
	require.NotEmpty(t, pages[3].Fingerprint)
}

func TestResolve_NormalizesReferences(t *testing.T) {
	base := newSite(t)
	writeDoc(t, base, "secret.md", "# Outside docs\n")
	cfg := &config.SiteConfig{
		Name:    "x",
		DocsDir: "docs",
		Nav: []config.NavEntry{
			config.Leaf("Install", "guide/install.md#linux"),
			config.Leaf("", "./guide/../index.md?v=2"),
			config.Leaf("", "../secret.md"),
		},
	}

	pages, err := Resolve(cfg, base)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	require.True(t, pages[0].Exists)
	require.Equal(t, filepath.Join(base, "docs", "guide", "install.md"), pages[0].Source)
	require.NotEmpty(t, pages[0].Fingerprint)

	require.True(t, pages[1].Exists)
	require.Equal(t, "Welcome", pages[1].Title)

	require.True(t, pages[2].OutsideDocs)
	require.False(t, pages[2].Exists)
	require.Empty(t, pages[2].Source)
	require.Empty(t, pages[2].Fingerprint)
	require.Equal(t, "../secret.md", pages[2].Title)
}

func TestResolve_FingerprintIgnoresVolatileFields(t *testing.T) {
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	cfg := &config.SiteConfig{Name: "x", DocsDir: "docs", Nav: []config.NavEntry{config.Leaf("", "page.md")}}

	fingerprint := func(content string) string {
		writeDoc(t, docs, "page.md", content)
		pages, err := Resolve(cfg, base)
		require.NoError(t, err)
		return pages[0].Fingerprint
	}

	first := fingerprint("---\ntitle: Page\nlastmod: 2026-01-01\n---\n# Page\n")
	require.Equal(t, first, fingerprint("---\nlastmod: 2026-02-02\ntitle: Page\nfingerprint: stale\n---\n# Page\n"))
	require.NotEqual(t, first, fingerprint("---\ntitle: Page\n---\n# Page, edited\n"))
	require.NotEqual(t, first, fingerprint("---\ntitle: Renamed\n---\n# Page\n"))
}

func TestTitleFromPath(t *testing.T) {
	cases := map[string]string{
		"index.md":                "Home",
		"README.md":               "Home",
		"guide/index.md":          "Guide",
		"api-reference/index.md":  "Api reference",
		"getting_started.md":      "Getting started",
		"reference/FAQ.md":        "FAQ",
		"über-uns.md":             "Über uns",
		"./circular-mean.md":      "Circular mean",
		"von_mises--kappa.md":     "Von mises kappa",
		"reference/data.markdown": "Data",
	}
	for in, want := range cases {
		require.Equal(t, want, TitleFromPath(in), in)
	}
}
