package pages

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleFromPath derives a page title from a docs-relative path. An index page
// takes the name of its directory; the top-level index is "Home".
func TitleFromPath(p string) string {
	dir, file := path.Split(strings.TrimPrefix(p, "./"))
	if isIndex(file) {
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			return "Home"
		}
		return nameTitle(path.Base(dir))
	}
	return nameTitle(file)
}

// nameTitle turns "getting_started.md" into "Getting started". Names that
// already carry capitals are kept as written.
func nameTitle(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	base = strings.Join(strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(base)), " ")
	if base == "" || strings.ToLower(base) != base {
		return base
	}
	word, rest, _ := strings.Cut(base, " ")
	titled := cases.Title(language.Und).String(word)
	if rest == "" {
		return titled
	}
	return titled + " " + rest
}
