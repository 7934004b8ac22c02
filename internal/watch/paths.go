package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitenav/internal/config"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
)

// Reload triggers, in increasing priority when several coalesce.
const (
	TriggerStartup = "startup"
	TriggerPoll    = "poll"
	TriggerDocs    = "docs"
	TriggerWatch   = "watch"
	TriggerConfig  = "config"
)

var triggerRank = map[string]int{
	TriggerDocs:   1,
	TriggerWatch:  2,
	TriggerConfig: 3,
}

// mergeTrigger picks the trigger reported for a debounced batch of changes.
func mergeTrigger(pending, next string) string {
	if triggerRank[next] > triggerRank[pending] {
		return next
	}
	return pending
}

// ignoredName reports editor swap and backup files.
func ignoredName(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".#") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx")
}

func under(name, root string) bool {
	return name == root || strings.HasPrefix(name, root+string(filepath.Separator))
}

// classify maps a changed path to a trigger. ok is false for paths that do
// not affect the loaded site.
func (w *Watcher) classify(name string) (trigger string, ok bool) {
	name = filepath.Clean(name)
	if ignoredName(name) {
		return "", false
	}
	if name == w.configPath {
		return TriggerConfig, true
	}
	if filepath.Dir(name) == w.configDir {
		switch filepath.Base(name) {
		case ".env", ".env.local":
			return TriggerConfig, true
		}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.docsDir != "" && under(name, w.docsDir) {
		return TriggerDocs, true
	}
	for _, root := range w.watchRoots {
		if under(name, root) {
			return TriggerWatch, true
		}
	}
	return "", false
}

// roots returns the docs directory and the resolved watch paths of cfg.
func (w *Watcher) roots(cfg *config.SiteConfig) (docsDir string, watchRoots []string) {
	docsDir = cfg.DocsPath(w.configDir)
	for _, p := range cfg.Watch.Values() {
		if !filepath.IsAbs(p) {
			p = filepath.Join(w.configDir, filepath.FromSlash(p))
		}
		watchRoots = append(watchRoots, filepath.Clean(p))
	}
	return docsDir, watchRoots
}

// dirsBelow lists root and its subdirectories, skipping hidden ones. A file
// root yields its parent directory.
func dirsBelow(root string) []string {
	info, err := os.Stat(root)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []string{filepath.Dir(root)}
	}
	var dirs []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	return dirs
}

// syncWatches points the fsnotify watcher at the directories cfg depends on:
// the config directory, the docs tree and the watch paths.
func (w *Watcher) syncWatches(cfg *config.SiteConfig) {
	docsDir, watchRoots := w.roots(cfg)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.docsDir = docsDir
	w.watchRoots = watchRoots
	if w.fsw == nil {
		return
	}

	want := map[string]bool{w.configDir: true}
	for _, d := range dirsBelow(docsDir) {
		want[d] = true
	}
	for _, r := range watchRoots {
		for _, d := range dirsBelow(r) {
			want[d] = true
		}
	}

	for d := range w.watched {
		if !want[d] {
			_ = w.fsw.Remove(d)
			delete(w.watched, d)
		}
	}
	for d := range want {
		if w.watched[d] {
			continue
		}
		if err := w.fsw.Add(d); err != nil {
			slog.Warn("Cannot watch directory", logfields.Path(d), logfields.Error(err))
			continue
		}
		w.watched[d] = true
	}
	slog.Debug("Watching directories", slog.Int("count", len(w.watched)))
}

// addCreatedDir starts watching a directory created inside a watched tree.
func (w *Watcher) addCreatedDir(name string) {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	for _, d := range dirsBelow(name) {
		if w.watched[d] {
			continue
		}
		if err := w.fsw.Add(d); err != nil {
			slog.Warn("Cannot watch directory", logfields.Path(d), logfields.Error(err))
			continue
		}
		w.watched[d] = true
	}
}
