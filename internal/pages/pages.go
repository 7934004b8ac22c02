// Package pages resolves the navigation leaves of a site configuration to the
// documents they reference.
package pages

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/frontmatter"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
	"git.home.luguber.info/inful/sitenav/internal/markdown"
)

// TitleSource names where a page title came from.
type TitleSource string

const (
	TitleFromNav         TitleSource = "nav"
	TitleFromFrontmatter TitleSource = "frontmatter"
	TitleFromHeading     TitleSource = "heading"
	TitleFromFilename    TitleSource = "filename"
)

// Keys left out of the frontmatter part of a page fingerprint. They are
// written by tooling and do not change what the page says.
var volatileKeys = []string{mdfp.FingerprintField, "lastmod", "uid", "aliases"}

// Page is a navigation leaf resolved against the docs directory.
type Page struct {
	Trail       []string    `json:"trail,omitempty"`
	Title       string      `json:"title"`
	TitleSource TitleSource `json:"title_source"`
	NavPath     string      `json:"nav_path"`
	Source      string      `json:"source,omitempty"`
	External    bool        `json:"external,omitempty"`
	OutsideDocs bool        `json:"outside_docs,omitempty"`
	Exists      bool        `json:"exists"`
	Fingerprint string      `json:"fingerprint,omitempty"`
}

// Resolve flattens the navigation of cfg into pages. When cfg has no nav the
// tree produced by AutoNav is used instead. Missing documents are reported
// through Page.Exists rather than as an error; unreadable ones fail.
func Resolve(cfg *config.SiteConfig, baseDir string) ([]Page, error) {
	docsDir := cfg.DocsPath(baseDir)
	nav := cfg.Nav
	if len(nav) == 0 {
		auto, err := AutoNav(docsDir)
		if err != nil {
			return nil, err
		}
		nav = auto
	}

	leaves := config.Leaves(nav)
	out := make([]Page, 0, len(leaves))
	for _, leaf := range leaves {
		p, err := resolveLeaf(docsDir, leaf)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func resolveLeaf(docsDir string, leaf config.LeafRef) (Page, error) {
	e := leaf.Entry
	p := Page{Trail: leaf.Trail, NavPath: e.Path, Title: e.Title, TitleSource: TitleFromNav}
	if e.IsExternal() {
		p.External = true
		if p.Title == "" {
			p.Title, p.TitleSource = e.Path, TitleFromFilename
		}
		return p, nil
	}

	rel, ok := config.CleanRef(e.Path)
	if !ok {
		p.OutsideDocs = true
		if p.Title == "" {
			p.Title, p.TitleSource = e.Path, TitleFromFilename
		}
		return p, nil
	}
	p.Source = filepath.Join(docsDir, filepath.FromSlash(rel))

	data, err := os.ReadFile(p.Source)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if p.Title == "" {
			p.Title, p.TitleSource = TitleFromPath(rel), TitleFromFilename
		}
		return p, nil
	case err != nil:
		return p, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read page").
			WithContext("path", p.Source).
			WithContext("nav_path", e.Path).
			Build()
	}
	p.Exists = true

	if !IsMarkdown(rel) {
		p.Fingerprint = mdfp.CalculateFingerprintFromParts("", string(data))
		if p.Title == "" {
			p.Title, p.TitleSource = TitleFromPath(rel), TitleFromFilename
		}
		return p, nil
	}

	doc, err := frontmatter.Parse(data)
	if err != nil {
		slog.Debug("Ignoring unreadable frontmatter", logfields.Path(p.Source), logfields.Error(err))
		doc = &frontmatter.Document{Fields: map[string]any{}, Body: data}
	}
	fm, err := frontmatter.Canonical(doc.Fields, volatileKeys...)
	if err != nil {
		return p, ferrors.WrapError(err, ferrors.CategoryDocs, "failed to canonicalize frontmatter").
			WithContext("path", p.Source).
			Build()
	}
	p.Fingerprint = mdfp.CalculateFingerprintFromParts(fm, string(doc.Body))

	if p.Title != "" {
		return p, nil
	}
	if t := doc.Title(); t != "" {
		p.Title, p.TitleSource = t, TitleFromFrontmatter
		return p, nil
	}
	if t, err := markdown.Title(doc.Body); err == nil && t != "" {
		p.Title, p.TitleSource = t, TitleFromHeading
		return p, nil
	}
	p.Title, p.TitleSource = TitleFromPath(rel), TitleFromFilename
	return p, nil
}
