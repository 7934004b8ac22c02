package config

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// Marshal encodes cfg as canonical YAML: keys in a fixed order, empty values
// and defaults omitted, plugins and extensions in list form, option maps with
// sorted keys. Parsing the result yields a SiteConfig equal to cfg, with
// !ENV values already resolved.
func Marshal(cfg *SiteConfig) ([]byte, error) {
	if cfg == nil {
		return nil, ferrors.InternalError("cannot marshal a nil configuration").Build()
	}
	root, err := siteNode(cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode configuration").Build()
	}
	if err := enc.Close(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode configuration").Build()
	}
	return buf.Bytes(), nil
}

type mappingBuilder struct {
	node *yaml.Node
}

func newMapping() *mappingBuilder {
	return &mappingBuilder{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func (m *mappingBuilder) add(key string, value *yaml.Node) {
	m.node.Content = append(m.node.Content, strNode(key), value)
}

func (m *mappingBuilder) addString(key, value string) {
	if value != "" {
		m.add(key, strNode(value))
	}
}

func (m *mappingBuilder) addStrings(key string, values []string) {
	if len(values) > 0 {
		m.add(key, strSeq(values))
	}
}

func siteNode(cfg *SiteConfig) (*yaml.Node, error) {
	m := newMapping()
	m.addString("site_name", cfg.Name)
	m.addString("site_url", cfg.URL)
	m.addString("site_description", cfg.Description)
	m.addString("site_author", cfg.Author)
	m.addString("copyright", cfg.Copyright)
	m.addString("repo_url", cfg.RepoURL)
	m.addString("repo_name", cfg.RepoName)
	m.addString("edit_uri", cfg.EditURI)
	if cfg.DocsDir != DefaultDocsDir {
		m.addString("docs_dir", cfg.DocsDir)
	}
	if cfg.SiteDir != DefaultSiteDir {
		m.addString("site_dir", cfg.SiteDir)
	}
	m.addString("dev_addr", cfg.DevAddr)
	if cfg.UseDirectoryURLs != nil {
		m.add("use_directory_urls", boolNode(*cfg.UseDirectoryURLs))
	}
	if cfg.Strict {
		m.add("strict", boolNode(true))
	}

	theme, err := themeNode(cfg.Theme)
	if err != nil {
		return nil, err
	}
	if theme != nil {
		m.add("theme", theme)
	}

	if len(cfg.Plugins) > 0 {
		named := make([]namedOptions, 0, len(cfg.Plugins))
		for _, p := range cfg.Plugins {
			named = append(named, namedOptions(p))
		}
		n, err := namedListNode(named, "plugins")
		if err != nil {
			return nil, err
		}
		m.add("plugins", n)
	}

	if len(cfg.Nav) > 0 {
		n, err := navNode(cfg.Nav, "nav")
		if err != nil {
			return nil, err
		}
		m.add("nav", n)
	}

	if len(cfg.MarkdownExtensions) > 0 {
		named := make([]namedOptions, 0, len(cfg.MarkdownExtensions))
		for _, e := range cfg.MarkdownExtensions {
			named = append(named, namedOptions(e))
		}
		n, err := namedListNode(named, "markdown_extensions")
		if err != nil {
			return nil, err
		}
		m.add("markdown_extensions", n)
	}

	m.addStrings("extra_css", cfg.ExtraCSS)
	m.addStrings("extra_javascript", cfg.ExtraJavascript)

	if len(cfg.Extra) > 0 {
		n, err := valueNode(cfg.Extra)
		if err != nil {
			return nil, err
		}
		m.add("extra", n)
	}
	m.addStrings("watch", cfg.Watch.Values())
	return m.node, nil
}

// themeNode writes a bare name when nothing else is set.
func themeNode(t ThemeConfig) (*yaml.Node, error) {
	if t.CustomDir == "" && t.Language == "" && t.Features.Len() == 0 && len(t.Options) == 0 {
		if t.Name == "" {
			return nil, nil
		}
		return strNode(t.Name), nil
	}
	m := newMapping()
	m.addString("name", t.Name)
	m.addString("custom_dir", t.CustomDir)
	m.addString("language", t.Language)
	m.addStrings("features", t.Features.Values())
	for _, k := range sortedKeys(t.Options) {
		v, err := valueNode(t.Options[k])
		if err != nil {
			return nil, err
		}
		m.add(k, v)
	}
	return m.node, nil
}

func namedListNode(items []namedOptions, path string) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i, item := range items {
		if item.Name == "" {
			return nil, ferrors.InternalError(fmt.Sprintf("%s: entry without a name", index(path, i))).Build()
		}
		if len(item.Options) == 0 {
			seq.Content = append(seq.Content, strNode(item.Name))
			continue
		}
		opts, err := valueNode(item.Options)
		if err != nil {
			return nil, err
		}
		entry := newMapping()
		entry.add(item.Name, opts)
		seq.Content = append(seq.Content, entry.node)
	}
	return seq, nil
}

func navNode(entries []NavEntry, path string) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i, e := range entries {
		itemPath := index(path, i)
		switch e.Kind {
		case NavLeaf:
			if e.Path == "" {
				return nil, ferrors.InternalError(itemPath + ": leaf without a path").Build()
			}
			if e.Title == "" {
				seq.Content = append(seq.Content, strNode(e.Path))
				continue
			}
			entry := newMapping()
			entry.add(e.Title, strNode(e.Path))
			seq.Content = append(seq.Content, entry.node)
		case NavSection:
			if e.Title == "" {
				return nil, ferrors.InternalError(itemPath + ": section without a title").Build()
			}
			children, err := navNode(e.Children, join(itemPath, e.Title))
			if err != nil {
				return nil, err
			}
			if len(children.Content) == 0 {
				children.Style = yaml.FlowStyle
			}
			entry := newMapping()
			entry.add(e.Title, children)
			seq.Content = append(seq.Content, entry.node)
		default:
			return nil, ferrors.InternalError(fmt.Sprintf("%s: unknown navigation kind %q", itemPath, e.Kind)).Build()
		}
	}
	return seq, nil
}

// valueNode encodes the plain values produced by the loader.
func valueNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		return boolNode(x), nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(x)}, nil
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(x, 10)}, nil
	case uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(x, 10)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(x)}, nil
	case string:
		return strNode(x), nil
	case TaggedValue:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: x.Tag, Value: x.Value}, nil
	case []string:
		return strSeq(x), nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range x {
			n, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		if len(seq.Content) == 0 {
			seq.Style = yaml.FlowStyle
		}
		return seq, nil
	case map[string]any:
		m := newMapping()
		for _, k := range sortedKeys(x) {
			n, err := valueNode(x[k])
			if err != nil {
				return nil, err
			}
			m.add(k, n)
		}
		if len(x) == 0 {
			m.node.Style = yaml.FlowStyle
		}
		return m.node, nil
	default:
		var n yaml.Node
		if err := n.Encode(v); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInternal, fmt.Sprintf("cannot encode option value of type %T", v)).Build()
		}
		return &n, nil
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func strSeq(values []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, strNode(v))
	}
	return seq
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
