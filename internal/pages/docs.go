package pages

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// IsMarkdown reports whether name has a markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

func isIndex(name string) bool {
	base := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
	return base == "index" || base == "readme"
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// DocFiles lists the markdown files below docsDir as slash-separated paths
// relative to it, ordered the way AutoNav presents them.
func DocFiles(docsDir string) ([]string, error) {
	nav, err := AutoNav(docsDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, leaf := range config.Leaves(nav) {
		out = append(out, leaf.Entry.Path)
	}
	return out, nil
}

// AutoNav builds a navigation tree from the markdown files of docsDir. In
// every directory the index page comes first, then the other pages in
// alphabetical order, then one section per subdirectory holding pages.
// Hidden entries and those starting with "_" are skipped.
func AutoNav(docsDir string) ([]config.NavEntry, error) {
	info, err := os.Stat(docsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryNotFound, "docs directory not found").
				WithContext("docs_dir", docsDir).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read docs directory").
			WithContext("docs_dir", docsDir).
			Build()
	}
	if !info.IsDir() {
		return nil, ferrors.FileSystemError("docs path is not a directory").
			WithContext("docs_dir", docsDir).
			Build()
	}
	return autoNavDir(docsDir, "")
}

func autoNavDir(root, rel string) ([]config.NavEntry, error) {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to list docs directory").
			WithContext("path", rel).
			Build()
	}

	var index []config.NavEntry
	var files []config.NavEntry
	var dirs []string
	for _, e := range entries {
		name := e.Name()
		if hidden(name) {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, name)
			continue
		}
		if !IsMarkdown(name) {
			continue
		}
		leaf := config.Leaf("", path.Join(rel, name))
		if isIndex(name) {
			// index.md wins over README.md when both exist.
			if len(index) == 0 || strings.HasPrefix(strings.ToLower(name), "index") {
				index = []config.NavEntry{leaf}
			}
			continue
		}
		files = append(files, leaf)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.Strings(dirs)

	out := append(index, files...)
	for _, d := range dirs {
		children, err := autoNavDir(root, path.Join(rel, d))
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			continue
		}
		out = append(out, config.Section(nameTitle(d), children...))
	}
	return out, nil
}
