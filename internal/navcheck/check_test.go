package navcheck

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitenav/internal/config"
	"git.home.luguber.info/inful/sitenav/internal/util/sets"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newBase(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	writeFile(t, filepath.Join(docs, "index.md"), "# Home\n")
	writeFile(t, filepath.Join(docs, "orphan.md"), "# Orphan\n")
	writeFile(t, filepath.Join(docs, "guide", "install.md"), "# Install\n")
	writeFile(t, filepath.Join(docs, "css", "extra.css"), "body{}\n")
	return base
}

func rules(res *Result) []string {
	out := make([]string, 0, len(res.Issues))
	for _, issue := range res.Issues {
		out = append(out, issue.Rule)
	}
	return out
}

func brokenConfig() *config.SiteConfig {
	return &config.SiteConfig{
		Name:    "Broken",
		DocsDir: "docs",
		Nav: []config.NavEntry{
			config.Leaf("Home", "index.md"),
			config.Leaf("Again", "./index.md"),
			config.Section("Guide",
				config.Leaf("Install", "guide/install.md"),
				config.Leaf("Gone", "guide/gone.md"),
			),
			config.Section("Empty"),
			config.Leaf("Absolute", "/guide/install.md"),
			config.Leaf("External", "https://example.org"),
		},
		ExtraCSS:        []string{"css/extra.css", "css/missing.css"},
		ExtraJavascript: []string{"https://cdn.example.org/x.js"},
		Watch:           sets.NewOrdered("src", "docs"),
	}
}

func TestCheck_ReportsEveryRule(t *testing.T) {
	base := newBase(t)
	res := Check(brokenConfig(), base)

	require.Equal(t, []string{
		RuleNavDuplicatePage,
		RuleNavMissingPage,
		RuleNavEmptySection,
		RuleNavAbsolutePath,
		RuleNavDuplicatePage,
		RulePageNotInNav,
		RuleWatchPathMissing,
		RuleExtraAssetMissing,
	}, rules(res))

	require.Equal(t, 1, res.ErrorCount())
	require.Equal(t, 6, res.WarningCount())
	require.Equal(t, 1, res.InfoCount())
	require.True(t, res.Failed(false))
	require.Equal(t, 3, res.DocFiles)

	missing := res.Issues[1]
	require.Equal(t, "guide/gone.md", missing.Path)
	require.Equal(t, []string{"Guide"}, missing.Trail)

	require.Equal(t, "orphan.md", res.Issues[5].Path)
	require.Contains(t, res.Issues[4].Message, "Guide")
	require.Contains(t, res.Issues[0].Message, "top level")
}

func TestCheck_ReferencesMatchResolution(t *testing.T) {
	base := newBase(t)
	writeFile(t, filepath.Join(base, "secret.md"), "# Outside docs\n")
	cfg := &config.SiteConfig{
		Name:    "x",
		DocsDir: "docs",
		Nav: []config.NavEntry{
			config.Leaf("Home", "index.md"),
			config.Leaf("Orphan", "orphan.md"),
			config.Leaf("Install", "guide/install.md#linux"),
			config.Leaf("Secret", "../secret.md"),
			config.Leaf("Root", "guide/../.."),
		},
		ExtraCSS: []string{"../secret.md"},
	}

	res := Check(cfg, base)
	require.Equal(t, []string{RuleNavOutsideDocs, RuleNavOutsideDocs, RuleExtraAssetMissing}, rules(res))
	require.Equal(t, "../secret.md", res.Issues[0].Path)
	require.Equal(t, SeverityError, res.Issues[0].Severity)
	require.True(t, res.Failed(false))
}

func TestCheck_DocsDirMissing(t *testing.T) {
	cfg := &config.SiteConfig{
		Name:    "x",
		DocsDir: "nope",
		Nav:     []config.NavEntry{config.Leaf("Home", "index.md")},
	}
	res := Check(cfg, t.TempDir())
	require.Equal(t, []string{RuleDocsDirMissing}, rules(res))
	require.True(t, res.Failed(false))
}

func TestCheck_StrictMode(t *testing.T) {
	base := newBase(t)
	cfg := &config.SiteConfig{
		Name:    "x",
		DocsDir: "docs",
		Watch:   sets.NewOrdered("missing-dir"),
	}
	res := Check(cfg, base)
	require.Equal(t, []string{RuleWatchPathMissing}, rules(res))
	require.False(t, res.Failed(false))
	require.True(t, res.Failed(true))
}

func TestCheck_CleanSite(t *testing.T) {
	base := newBase(t)
	cfg := &config.SiteConfig{
		Name:    "x",
		DocsDir: "docs",
		Nav: []config.NavEntry{
			config.Leaf("Home", "index.md"),
			config.Leaf("Orphan no more", "orphan.md#top"),
			config.Section("Guide", config.Leaf("", "guide/install.md")),
		},
		ExtraCSS: []string{"css/extra.css"},
	}
	res := Check(cfg, base)
	require.Empty(t, res.Issues)
	require.False(t, res.Failed(true))
	require.Equal(t, 3, res.NavLeaves)
	require.Equal(t, 4, res.NavNodes)
}

func TestFormatters(t *testing.T) {
	base := newBase(t)
	res := Check(brokenConfig(), base)

	var text bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&text, res, "mkdocs.yml", false))
	out := text.String()
	require.Contains(t, out, "Checking navigation of: mkdocs.yml")
	require.Contains(t, out, "ERROR [nav-missing-page]")
	require.Contains(t, out, "  in: Guide\n")
	require.Contains(t, out, "1 error\n")
	require.Contains(t, out, "6 warnings\n")
	require.Contains(t, out, "✗ Navigation check failed.")

	var raw bytes.Buffer
	require.NoError(t, NewFormatter("json").Format(&raw, res, "mkdocs.yml", true))
	var decoded JSONOutput
	require.NoError(t, json.Unmarshal(raw.Bytes(), &decoded))
	require.False(t, decoded.Passed)
	require.True(t, decoded.Strict)
	require.Equal(t, 1, decoded.ErrorCount)
	require.Equal(t, 6, decoded.WarningCount)
	require.Len(t, decoded.Issues, 8)
	require.Equal(t, "ERROR", decoded.Issues[1].Severity)

	var clean bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&clean, &Result{}, "mkdocs.yml", true))
	require.Contains(t, clean.String(), "✓ Navigation check passed.")
}
