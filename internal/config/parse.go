package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/util/sets"
)

// Option customizes Parse and LoadFile.
type Option func(*options)

type options struct {
	lookupEnv func(string) (string, bool)
	envFiles  bool
}

func newOptions(opts []Option) *options {
	o := &options{lookupEnv: os.LookupEnv, envFiles: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLookupEnv replaces os.LookupEnv for !ENV resolution.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(o *options) {
		if fn != nil {
			o.lookupEnv = fn
		}
	}
}

// WithEnvFiles toggles loading .env files next to the config file (LoadFile only).
func WithEnvFiles(enabled bool) Option {
	return func(o *options) { o.envFiles = enabled }
}

// Parse builds a SiteConfig from raw YAML. It fails with a parse error when the
// document is malformed and with a schema error when a key is unknown,
// duplicated, misplaced or of the wrong shape.
func Parse(data []byte, opts ...Option) (*SiteConfig, error) {
	return parse(data, newOptions(opts))
}

func parse(data []byte, o *options) (*SiteConfig, error) {
	root, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	p := &parser{
		lookupEnv:   o.lookupEnv,
		aliasBudget: max(minAliasBudget, aliasBudgetPerNode*countNodes(root)),
	}
	cfg, err := p.site(root)
	if p.aliasErr != nil {
		return nil, p.aliasErr
	}
	return cfg, err
}

func decodeDocument(data []byte) (*yaml.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, parseErr(nil, "configuration document is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, parseErr(nil, "configuration document is empty")
		}
		return nil, parseErr(err, "malformed configuration document")
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, parseErr(err, "malformed configuration document")
		}
		return nil, parseErr(nil, "configuration must be a single YAML document")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, parseErr(nil, "configuration document is empty")
	}
	return doc.Content[0], nil
}

type parser struct {
	lookupEnv func(string) (string, bool)

	aliasHops   int
	aliasBudget int
	aliasErr    error
}

// countNodes counts the nodes of a document without following aliases.
func countNodes(n *yaml.Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Content {
		total += countNodes(c)
	}
	return total
}

type pair struct {
	key   *yaml.Node
	value *yaml.Node
}

// Every alias hop taken while walking the document counts against a budget
// derived from the document size, so nested aliases cannot expand a small
// document without limit.
const (
	minAliasBudget     = 1000
	aliasBudgetPerNode = 10
)

// follow resolves alias chains.
func (p *parser) follow(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		p.aliasHops++
		if p.aliasHops > p.aliasBudget && p.aliasErr == nil {
			p.aliasErr = ferrors.ParseError("configuration document expands too many aliases").
				At(n.Line, n.Column).
				WithContext("alias_budget", p.aliasBudget).
				Build()
		}
		n = n.Alias
	}
	return n
}

// deref follows aliases and resolves !ENV tags.
func (p *parser) deref(n *yaml.Node, path string) (*yaml.Node, error) {
	n = p.follow(n)
	if p.aliasErr != nil {
		return nil, p.aliasErr
	}
	if n == nil {
		return nil, schemaErr(nil, path, "missing value")
	}
	if n.Tag == envTag {
		return p.resolveEnv(n, path)
	}
	return n, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// pairs returns the key/value pairs of a mapping, expanding "<<" merge keys and
// rejecting duplicate keys. Explicit keys win over merged ones.
func (p *parser) pairs(n *yaml.Node, path string) ([]pair, error) {
	var explicit, merged []pair
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := p.follow(n.Content[i]), n.Content[i+1]
		if p.aliasErr != nil {
			return nil, p.aliasErr
		}
		if k.Kind != yaml.ScalarNode {
			return nil, schemaErr(k, path, "mapping keys must be scalars, got %s", kindName(k))
		}
		if k.ShortTag() == "!!merge" {
			m, err := p.mergeSources(v, path)
			if err != nil {
				return nil, err
			}
			merged = append(merged, m...)
			continue
		}
		explicit = append(explicit, pair{key: k, value: v})
	}

	seen := make(map[string]bool, len(explicit))
	out := make([]pair, 0, len(explicit)+len(merged))
	for _, kv := range explicit {
		if seen[kv.key.Value] {
			return nil, schemaErr(kv.key, join(path, kv.key.Value), "duplicate key %q", kv.key.Value)
		}
		seen[kv.key.Value] = true
		out = append(out, kv)
	}
	for _, kv := range merged {
		if seen[kv.key.Value] {
			continue
		}
		seen[kv.key.Value] = true
		out = append(out, kv)
	}
	return out, nil
}

func (p *parser) mergeSources(v *yaml.Node, path string) ([]pair, error) {
	v = p.follow(v)
	var sources []*yaml.Node
	switch v.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{v}
	case yaml.SequenceNode:
		for _, s := range v.Content {
			sources = append(sources, p.follow(s))
		}
		if p.aliasErr != nil {
			return nil, p.aliasErr
		}
	default:
		if p.aliasErr != nil {
			return nil, p.aliasErr
		}
		return nil, schemaErr(v, path, "merge key expects a mapping or a list of mappings")
	}
	var out []pair
	for _, s := range sources {
		if s.Kind != yaml.MappingNode {
			return nil, schemaErr(s, path, "merge key expects a mapping, got %s", kindName(s))
		}
		ps, err := p.pairs(s, path)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	return out, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// str reads a string scalar; null yields "".
func (p *parser) str(n *yaml.Node, path string) (string, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return "", err
	}
	if isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", schemaErr(n, path, "expected a string, got %s", describe(n))
	}
	return n.Value, nil
}

func (p *parser) boolean(n *yaml.Node, path string) (bool, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return false, err
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false, schemaErr(n, path, "expected true or false, got %s", describe(n))
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, schemaErr(n, path, "invalid boolean %q", n.Value)
	}
	return b, nil
}

// strList reads a sequence of strings; null yields nil.
func (p *parser) strList(n *yaml.Node, path string) ([]string, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return nil, err
	}
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, schemaErr(n, path, "expected a list of strings, got %s", describe(n))
	}
	var out []string
	for i, item := range n.Content {
		s, err := p.str(item, index(path, i))
		if err != nil {
			return nil, err
		}
		if s == "" {
			return nil, schemaErr(item, index(path, i), "empty entry")
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *parser) strSet(n *yaml.Node, path string) (sets.Ordered[string], error) {
	var set sets.Ordered[string]
	items, err := p.strList(n, path)
	if err != nil {
		return set, err
	}
	for _, s := range items {
		set.Add(s)
	}
	return set, nil
}

func describe(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode && !isNull(n) {
		return fmt.Sprintf("%s %q", n.ShortTag(), n.Value)
	}
	return kindName(n)
}

// site parses the top-level mapping.
func (p *parser) site(root *yaml.Node) (*SiteConfig, error) {
	root = p.follow(root)
	if root.Kind != yaml.MappingNode {
		return nil, schemaErr(root, "", "top level must be a mapping of configuration keys, got %s", kindName(root))
	}
	ps, err := p.pairs(root, "")
	if err != nil {
		return nil, err
	}

	cfg := &SiteConfig{}
	for _, kv := range ps {
		key := kv.key.Value
		var err error
		switch key {
		case "site_name":
			cfg.Name, err = p.str(kv.value, key)
		case "site_url":
			cfg.URL, err = p.str(kv.value, key)
		case "site_description":
			cfg.Description, err = p.str(kv.value, key)
		case "site_author":
			cfg.Author, err = p.str(kv.value, key)
		case "copyright":
			cfg.Copyright, err = p.str(kv.value, key)
		case "repo_url":
			cfg.RepoURL, err = p.str(kv.value, key)
		case "repo_name":
			cfg.RepoName, err = p.str(kv.value, key)
		case "edit_uri":
			cfg.EditURI, err = p.str(kv.value, key)
		case "docs_dir":
			cfg.DocsDir, err = p.str(kv.value, key)
		case "site_dir":
			cfg.SiteDir, err = p.str(kv.value, key)
		case "dev_addr":
			cfg.DevAddr, err = p.str(kv.value, key)
		case "use_directory_urls":
			var b bool
			if b, err = p.boolean(kv.value, key); err == nil {
				cfg.UseDirectoryURLs = &b
			}
		case "strict":
			cfg.Strict, err = p.boolean(kv.value, key)
		case "theme":
			cfg.Theme, err = p.theme(kv.value, key)
		case "plugins":
			var named []namedOptions
			if named, err = p.namedList(kv.value, key, "plugin"); err == nil {
				for _, n := range named {
					cfg.Plugins = append(cfg.Plugins, PluginConfig(n))
				}
			}
		case "markdown_extensions":
			var named []namedOptions
			if named, err = p.namedList(kv.value, key, "markdown extension"); err == nil {
				for _, n := range named {
					cfg.MarkdownExtensions = append(cfg.MarkdownExtensions, ExtensionConfig(n))
				}
			}
		case "nav":
			cfg.Nav, err = p.nav(kv.value, key)
		case "extra_css":
			cfg.ExtraCSS, err = p.strList(kv.value, key)
		case "extra_javascript":
			cfg.ExtraJavascript, err = p.strList(kv.value, key)
		case "extra":
			cfg.Extra, err = p.optionMap(kv.value, key)
		case "watch":
			cfg.Watch, err = p.strSet(kv.value, key)
		default:
			err = schemaErr(kv.key, key, "unknown configuration key %q", key)
		}
		if err != nil {
			return nil, err
		}
	}

	if cfg.Name == "" {
		return nil, schemaErr(root, "site_name", "missing required key")
	}
	if cfg.DocsDir == "" {
		cfg.DocsDir = DefaultDocsDir
	}
	if cfg.SiteDir == "" {
		cfg.SiteDir = DefaultSiteDir
	}
	// Absent or null theme; a theme mapping already requires name or custom_dir.
	if cfg.Theme.Name == "" && cfg.Theme.CustomDir == "" {
		cfg.Theme.Name = DefaultTheme
	}
	return cfg, nil
}

// theme accepts either a theme name or a mapping.
func (p *parser) theme(n *yaml.Node, path string) (ThemeConfig, error) {
	var t ThemeConfig
	n, err := p.deref(n, path)
	if err != nil {
		return t, err
	}
	switch {
	case isNull(n):
		return t, nil
	case n.Kind == yaml.ScalarNode:
		t.Name, err = p.str(n, path)
		return t, err
	case n.Kind != yaml.MappingNode:
		return t, schemaErr(n, path, "expected a theme name or a mapping, got %s", kindName(n))
	}

	ps, err := p.pairs(n, path)
	if err != nil {
		return t, err
	}
	for _, kv := range ps {
		key := kv.key.Value
		kp := join(path, key)
		switch key {
		case "name":
			t.Name, err = p.str(kv.value, kp)
		case "custom_dir":
			t.CustomDir, err = p.str(kv.value, kp)
		case "language":
			t.Language, err = p.str(kv.value, kp)
		case "features":
			t.Features, err = p.strSet(kv.value, kp)
		default:
			var v any
			if v, err = p.value(kv.value, kp); err == nil {
				if t.Options == nil {
					t.Options = make(map[string]any)
				}
				t.Options[key] = v
			}
		}
		if err != nil {
			return t, err
		}
	}
	if t.Name == "" && t.CustomDir == "" {
		return t, schemaErr(n, path, "theme needs a name or a custom_dir")
	}
	return t, nil
}

type namedOptions struct {
	Name    string
	Options map[string]any
}

// namedList parses plugins and markdown_extensions. Accepted shapes:
//
//	- name
//	- name: {option: value}
//
// or a mapping of name to options.
func (p *parser) namedList(n *yaml.Node, path, what string) ([]namedOptions, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return nil, err
	}
	var out []namedOptions
	seen := make(map[string]bool)
	add := func(at *yaml.Node, itemPath string, item namedOptions) error {
		if item.Name == "" {
			return schemaErr(at, itemPath, "empty %s name", what)
		}
		if seen[item.Name] {
			return schemaErr(at, itemPath, "duplicate %s %q", what, item.Name)
		}
		seen[item.Name] = true
		out = append(out, item)
		return nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return nil, nil
		}
		return nil, schemaErr(n, path, "expected a list of %ss, got %s", what, describe(n))
	case yaml.MappingNode:
		ps, err := p.pairs(n, path)
		if err != nil {
			return nil, err
		}
		for _, kv := range ps {
			opts, err := p.optionMap(kv.value, join(path, kv.key.Value))
			if err != nil {
				return nil, err
			}
			if err := add(kv.key, join(path, kv.key.Value), namedOptions{Name: kv.key.Value, Options: opts}); err != nil {
				return nil, err
			}
		}
		return out, nil
	case yaml.SequenceNode:
	default:
		return nil, schemaErr(n, path, "expected a list of %ss, got %s", what, kindName(n))
	}

	for i, raw := range n.Content {
		itemPath := index(path, i)
		item, err := p.deref(raw, itemPath)
		if err != nil {
			return nil, err
		}
		switch item.Kind {
		case yaml.ScalarNode:
			name, err := p.str(item, itemPath)
			if err != nil {
				return nil, err
			}
			if err := add(item, itemPath, namedOptions{Name: name}); err != nil {
				return nil, err
			}
		case yaml.MappingNode:
			ps, err := p.pairs(item, itemPath)
			if err != nil {
				return nil, err
			}
			if len(ps) != 1 {
				return nil, schemaErr(item, itemPath, "a %s entry must map exactly one name to its options, got %d keys", what, len(ps))
			}
			name := ps[0].key.Value
			opts, err := p.optionMap(ps[0].value, join(itemPath, name))
			if err != nil {
				return nil, err
			}
			if err := add(ps[0].key, itemPath, namedOptions{Name: name, Options: opts}); err != nil {
				return nil, err
			}
		default:
			return nil, schemaErr(item, itemPath, "expected a %s name or a single-key mapping, got %s", what, kindName(item))
		}
	}
	return out, nil
}

// nav parses a sequence of navigation entries; null yields nil.
func (p *parser) nav(n *yaml.Node, path string) ([]NavEntry, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return nil, err
	}
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, schemaErr(n, path, "expected a list of navigation entries, got %s", describe(n))
	}
	var entries []NavEntry
	for i, item := range n.Content {
		e, err := p.navEntry(item, index(path, i))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// navEntry parses one of:
//
//	- path.md
//	- Title: path.md
//	- Title: [entries...]
func (p *parser) navEntry(n *yaml.Node, path string) (NavEntry, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return NavEntry{}, err
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return NavEntry{}, schemaErr(n, path, "empty navigation entry")
		}
		target, err := p.str(n, path)
		if err != nil {
			return NavEntry{}, err
		}
		return Leaf("", target), nil
	case yaml.SequenceNode:
		return NavEntry{}, schemaErr(n, path, "nested list without a section title")
	case yaml.MappingNode:
	default:
		return NavEntry{}, schemaErr(n, path, "unexpected %s in navigation", kindName(n))
	}

	ps, err := p.pairs(n, path)
	if err != nil {
		return NavEntry{}, err
	}
	if len(ps) != 1 {
		return NavEntry{}, schemaErr(n, path, "a navigation entry must map exactly one title to a path or a list of entries, got %d keys", len(ps))
	}
	title := ps[0].key.Value
	if title == "" {
		return NavEntry{}, schemaErr(ps[0].key, path, "empty navigation title")
	}
	v, err := p.deref(ps[0].value, join(path, title))
	if err != nil {
		return NavEntry{}, err
	}
	switch v.Kind {
	case yaml.ScalarNode:
		if isNull(v) {
			return NavEntry{}, schemaErr(v, path, "navigation entry %q has no path", title)
		}
		target, err := p.str(v, join(path, title))
		if err != nil {
			return NavEntry{}, err
		}
		return Leaf(title, target), nil
	case yaml.SequenceNode:
		children, err := p.nav(v, join(path, title))
		if err != nil {
			return NavEntry{}, err
		}
		return Section(title, children...), nil
	default:
		return NavEntry{}, schemaErr(v, path, "navigation entry %q must be a path or a list of entries, got %s", title, kindName(v))
	}
}
