package navcheck

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitenav/internal/config"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
	"git.home.luguber.info/inful/sitenav/internal/pages"
)

// Check validates cfg against the files below baseDir, the directory the
// configuration file lives in.
func Check(cfg *config.SiteConfig, baseDir string) *Result {
	res := &Result{}
	res.NavLeaves, res.NavNodes = cfg.NavStats()
	docsDir := cfg.DocsPath(baseDir)

	docsOK := isDir(docsDir)
	if !docsOK {
		res.add(Issue{
			Path:     cfg.DocsDir,
			Severity: SeverityError,
			Rule:     RuleDocsDirMissing,
			Message:  fmt.Sprintf("docs directory %q does not exist", cfg.DocsDir),
			Fix:      "create the directory or point docs_dir at an existing one",
		})
	}

	referenced := checkNav(res, cfg.Nav, docsDir, docsOK)

	if docsOK && len(cfg.Nav) > 0 {
		files, err := pages.DocFiles(docsDir)
		if err != nil {
			slog.Warn("Could not list docs files", logfields.Path(docsDir), logfields.Error(err))
		}
		res.DocFiles = len(files)
		for _, f := range files {
			if referenced[f] {
				continue
			}
			res.add(Issue{
				Path:     f,
				Severity: SeverityInfo,
				Rule:     RulePageNotInNav,
				Message:  "page exists in the docs directory but is not included in the nav",
			})
		}
	}

	for _, w := range cfg.Watch.Values() {
		if !exists(resolve(baseDir, w)) {
			res.add(Issue{
				Path:     w,
				Severity: SeverityWarning,
				Rule:     RuleWatchPathMissing,
				Message:  fmt.Sprintf("watch path %q does not exist", w),
			})
		}
	}

	if docsOK {
		checkAssets(res, "extra_css", cfg.ExtraCSS, docsDir)
		checkAssets(res, "extra_javascript", cfg.ExtraJavascript, docsDir)
	}
	return res
}

// checkNav reports nav problems and returns the set of referenced docs paths.
func checkNav(res *Result, nav []config.NavEntry, docsDir string, docsOK bool) map[string]bool {
	referenced := make(map[string]bool)
	seenAt := make(map[string][]string)

	_ = config.Walk(nav, func(trail []string, e config.NavEntry) error {
		if e.IsSection() {
			if len(e.Children) == 0 {
				res.add(Issue{
					Path:     e.Title,
					Trail:    copyTrail(trail),
					Severity: SeverityWarning,
					Rule:     RuleNavEmptySection,
					Message:  fmt.Sprintf("section %q has no entries", e.Title),
				})
			}
			return nil
		}
		if e.IsExternal() {
			return nil
		}

		if strings.HasPrefix(e.Path, "/") {
			res.add(Issue{
				Path:     e.Path,
				Trail:    copyTrail(trail),
				Severity: SeverityWarning,
				Rule:     RuleNavAbsolutePath,
				Message:  "absolute nav paths are resolved against the docs directory",
				Fix:      fmt.Sprintf("use %q", strings.TrimLeft(e.Path, "/")),
			})
		}

		rel, ok := config.CleanRef(e.Path)
		if !ok {
			res.add(Issue{
				Path:     e.Path,
				Trail:    copyTrail(trail),
				Severity: SeverityError,
				Rule:     RuleNavOutsideDocs,
				Message:  "nav path does not name a document inside the docs directory",
			})
			return nil
		}
		if first, dup := seenAt[rel]; dup {
			where := "top level"
			if len(first) > 0 {
				where = strings.Join(first, " > ")
			}
			res.add(Issue{
				Path:     rel,
				Trail:    copyTrail(trail),
				Severity: SeverityWarning,
				Rule:     RuleNavDuplicatePage,
				Message:  fmt.Sprintf("page is already listed under %s", where),
			})
		} else {
			seenAt[rel] = copyTrail(trail)
		}
		referenced[rel] = true

		if docsOK && !exists(filepath.Join(docsDir, filepath.FromSlash(rel))) {
			res.add(Issue{
				Path:     rel,
				Trail:    copyTrail(trail),
				Severity: SeverityError,
				Rule:     RuleNavMissingPage,
				Message:  "nav references a file that does not exist in the docs directory",
			})
		}
		return nil
	})
	return referenced
}

func checkAssets(res *Result, key string, assets []string, docsDir string) {
	for _, a := range assets {
		if config.IsExternalRef(a) {
			continue
		}
		rel, ok := config.CleanRef(a)
		if ok && exists(filepath.Join(docsDir, filepath.FromSlash(rel))) {
			continue
		}
		res.add(Issue{
			Path:     a,
			Severity: SeverityWarning,
			Rule:     RuleExtraAssetMissing,
			Message:  fmt.Sprintf("%s entry %q does not exist in the docs directory", key, a),
		})
	}
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, filepath.FromSlash(p))
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func copyTrail(trail []string) []string {
	if len(trail) == 0 {
		return nil
	}
	return append([]string(nil), trail...)
}
