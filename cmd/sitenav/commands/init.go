package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
	"git.home.luguber.info/inful/sitenav/internal/repoinfo"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force    bool   `help:"Overwrite existing configuration file"`
	NoGit    bool   `name:"no-git" help:"Do not derive repo_url, repo_name and edit_uri from the git checkout"`
	SiteName string `name:"site-name" help:"site_name of the new configuration"`
}

const mathjaxConfig = `window.MathJax = {
  tex: {
    inlineMath: [["\\(", "\\)"]],
    displayMath: [["\\[", "\\]"]],
    processEscapes: true,
    processEnvironments: true
  },
  options: {
    ignoreHtmlClass: ".*|",
    processHtmlClass: "arithmatex"
  }
};
`

func (i *InitCmd) Run(g *Global, root *CLI) error {
	return RunInit(g.out(), root.Config, i.SiteName, !i.NoGit, i.Force)
}

// RunInit writes the example configuration to configPath and creates the
// documents it references when they are missing.
func RunInit(w io.Writer, configPath, siteName string, useGit, force bool) error {
	fmt.Fprintln(w, "Initializing documentation site")
	fmt.Fprintf(w, "Writing configuration to %s\n", configPath)

	cfg := config.Example(siteName)
	baseDir := config.BaseDir(configPath)
	docsDir := cfg.DocsPath(baseDir)

	if useGit {
		info, err := repoinfo.Detect(baseDir)
		switch {
		case err == nil:
			info.Apply(cfg, docsDir)
			if cfg.RepoURL != "" {
				fmt.Fprintf(w, "Detected repository %s\n", cfg.RepoURL)
			}
		case repoinfo.IsNotRepository(err):
			slog.Debug("No git repository found, skipping repository keys", logfields.Path(baseDir))
		default:
			slog.Warn("Could not inspect git repository", logfields.Path(baseDir), logfields.Error(err))
		}
	}

	if err := config.Init(configPath, cfg, force); err != nil {
		fmt.Fprintln(w, "Initialization failed")
		return err
	}

	scaffold := map[string]string{
		"index.md":               fmt.Sprintf("# %s\n\nWelcome to the documentation.\n", cfg.Name),
		"reference/index.md":     "# API Reference\n",
		"javascripts/mathjax.js": mathjaxConfig,
	}
	for _, rel := range []string{"index.md", "reference/index.md", "javascripts/mathjax.js"} {
		created, err := writeIfMissing(filepath.Join(docsDir, filepath.FromSlash(rel)), scaffold[rel])
		if err != nil {
			fmt.Fprintln(w, "Initialization failed")
			return err
		}
		if created {
			fmt.Fprintf(w, "Created %s\n", filepath.Join(cfg.DocsDir, filepath.FromSlash(rel)))
		}
	}

	fmt.Fprintln(w, "initialized successfully")
	return nil
}

func writeIfMissing(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to inspect document").
			WithContext("path", path).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create docs directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write document").
			WithContext("path", path).
			Build()
	}
	return true, nil
}
