package config

import (
	"gopkg.in/yaml.v3"
)

// coreTags are the tags decoded natively; any other tag on a scalar is kept
// verbatim as a TaggedValue.
var coreTags = map[string]bool{
	"!!str":       true,
	"!!int":       true,
	"!!float":     true,
	"!!bool":      true,
	"!!null":      true,
	"!!timestamp": true,
	"!!binary":    true,
}

// value converts an option node into plain Go values: nil, bool, int, float64,
// string, TaggedValue, []any and map[string]any.
func (p *parser) value(n *yaml.Node, path string) (any, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case yaml.ScalarNode:
		tag := n.ShortTag()
		if !coreTags[tag] {
			return TaggedValue{Tag: n.Tag, Value: n.Value}, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, schemaErr(n, path, "invalid %s value %q", tag, n.Value)
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			v, err := p.value(item, index(path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return p.mapping(n, path)
	default:
		return nil, schemaErr(n, path, "unsupported %s", kindName(n))
	}
}

func (p *parser) mapping(n *yaml.Node, path string) (map[string]any, error) {
	ps, err := p.pairs(n, path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(ps))
	for _, kv := range ps {
		v, err := p.value(kv.value, join(path, kv.key.Value))
		if err != nil {
			return nil, err
		}
		out[kv.key.Value] = v
	}
	return out, nil
}

// optionMap reads the options of a plugin, extension or the extra block.
// Null and empty mappings yield nil.
func (p *parser) optionMap(n *yaml.Node, path string) (map[string]any, error) {
	n, err := p.deref(n, path)
	if err != nil {
		return nil, err
	}
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, schemaErr(n, path, "expected a mapping of options, got %s", describe(n))
	}
	m, err := p.mapping(n, path)
	if err != nil || len(m) == 0 {
		return nil, err
	}
	return m, nil
}
