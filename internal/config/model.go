package config

import (
	"git.home.luguber.info/inful/sitenav/internal/util/sets"
)

// Defaults applied after parsing when the corresponding key is absent.
const (
	DefaultDocsDir = "docs"
	DefaultSiteDir = "site"
	DefaultTheme   = "mkdocs"
)

// SiteConfig is the in-memory model of a documentation-site configuration
// (mkdocs.yml). It is built once by Parse or LoadFile and treated as read-only
// afterwards; a reload produces a new value instead of mutating this one.
type SiteConfig struct {
	Name        string `json:"site_name"`
	URL         string `json:"site_url,omitempty"`
	Description string `json:"site_description,omitempty"`
	Author      string `json:"site_author,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
	RepoURL     string `json:"repo_url,omitempty"`
	RepoName    string `json:"repo_name,omitempty"`
	EditURI     string `json:"edit_uri,omitempty"`
	DocsDir     string `json:"docs_dir"`
	SiteDir     string `json:"site_dir"`
	DevAddr     string `json:"dev_addr,omitempty"`

	// UseDirectoryURLs is nil when the key is absent (renderers default to true).
	UseDirectoryURLs *bool `json:"use_directory_urls,omitempty"`
	Strict           bool  `json:"strict,omitempty"`

	Theme              ThemeConfig          `json:"theme"`
	Plugins            []PluginConfig       `json:"plugins,omitempty"`
	Nav                []NavEntry           `json:"nav,omitempty"`
	MarkdownExtensions []ExtensionConfig    `json:"markdown_extensions,omitempty"`
	ExtraCSS           []string             `json:"extra_css,omitempty"`
	ExtraJavascript    []string             `json:"extra_javascript,omitempty"`
	Extra              map[string]any       `json:"extra,omitempty"`
	Watch              sets.Ordered[string] `json:"watch"`
}

// ThemeConfig selects the theme and its feature flags.
type ThemeConfig struct {
	Name      string               `json:"name,omitempty"`
	CustomDir string               `json:"custom_dir,omitempty"`
	Language  string               `json:"language,omitempty"`
	Features  sets.Ordered[string] `json:"features"`
	// Options holds any other theme key (palette, logo, icon, ...).
	Options map[string]any `json:"options,omitempty"`
}

// PluginConfig is one entry of the plugins list. Options is nil when the
// plugin is enabled without settings.
type PluginConfig struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options,omitempty"`
}

// ExtensionConfig is one entry of the markdown_extensions list.
type ExtensionConfig struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options,omitempty"`
}

// TaggedValue keeps a scalar carrying an application tag the loader does not
// interpret, such as "!!python/name:material.extensions.emoji.twemoji" or
// "!relative". It is written back with the same tag.
type TaggedValue struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Plugin returns the named plugin.
func (c *SiteConfig) Plugin(name string) (PluginConfig, bool) {
	for _, p := range c.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return PluginConfig{}, false
}

// Extension returns the named markdown extension.
func (c *SiteConfig) Extension(name string) (ExtensionConfig, bool) {
	for _, e := range c.MarkdownExtensions {
		if e.Name == name {
			return e, true
		}
	}
	return ExtensionConfig{}, false
}

// NavStats returns the leaf and total node counts of the navigation tree.
func (c *SiteConfig) NavStats() (leaves, nodes int) {
	return CountLeaves(c.Nav), CountNodes(c.Nav)
}

// DirectoryURLs resolves use_directory_urls with its default.
func (c *SiteConfig) DirectoryURLs() bool {
	if c.UseDirectoryURLs == nil {
		return true
	}
	return *c.UseDirectoryURLs
}
