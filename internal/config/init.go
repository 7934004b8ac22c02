package config

import (
	"errors"
	"io/fs"
	"os"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/util/sets"
)

// Example returns a starter configuration for an API reference site.
func Example(siteName string) *SiteConfig {
	if siteName == "" {
		siteName = "Project Documentation"
	}
	return &SiteConfig{
		Name:    siteName,
		DocsDir: DefaultDocsDir,
		SiteDir: DefaultSiteDir,
		Theme: ThemeConfig{
			Name:     "material",
			Features: sets.NewOrdered("content.code.copy", "navigation.sections"),
		},
		Plugins: []PluginConfig{
			{Name: "search"},
			{Name: "mkdocstrings", Options: map[string]any{
				"handlers": map[string]any{
					"python": map[string]any{
						"options": map[string]any{"docstring_style": "numpy"},
					},
				},
			}},
		},
		Nav: []NavEntry{
			Leaf("Home", "index.md"),
			Section("API Reference",
				Leaf("Overview", "reference/index.md"),
			),
		},
		MarkdownExtensions: []ExtensionConfig{
			{Name: "admonition"},
			{Name: "pymdownx.arithmatex", Options: map[string]any{"generic": true}},
		},
		ExtraJavascript: []string{
			"javascripts/mathjax.js",
			"https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js",
		},
	}
}

// Init writes cfg to path. An existing file is only replaced when force is set.
func Init(path string, cfg *SiteConfig, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryAlreadyExists, "configuration file already exists (use --force to overwrite)").
			UserAction().
			WithContext(ContextConfigPath, path).
			Build()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to inspect configuration path").
			WithContext(ContextConfigPath, path).
			Build()
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write configuration file").
			WithContext(ContextConfigPath, path).
			Build()
	}
	return nil
}
