package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// envTag marks values resolved from the environment:
//
//	site_url: !ENV SITE_URL
//	site_url: !ENV [SITE_URL, DEPLOY_URL, "http://localhost:8000"]
//
// In the sequence form every item but the last names a variable; the last is
// the default used when none is set. A single-item sequence has no default.
const envTag = "!ENV"

// envFiles are read from the config directory. A variable defined in both
// files takes its value from the first one. The process environment is never
// modified: variables set there win over file values, and file values are
// read afresh on every load.
var envFiles = []string{".env", ".env.local"}

// readEnvFiles reads the .env files that exist in dir and returns the merged
// values together with the files that were read.
func readEnvFiles(dir string) (map[string]string, []string, error) {
	var found []string
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil, nil, nil
	}
	vars := make(map[string]string)
	for _, f := range found {
		values, err := godotenv.Read(f)
		if err != nil {
			return nil, nil, ferrors.ConfigError("failed to load environment file").
				WithCause(err).
				WithContext("file", f).
				Build()
		}
		for k, v := range values {
			if _, seen := vars[k]; !seen {
				vars[k] = v
			}
		}
	}
	return vars, found, nil
}

// withFileVars wraps lookup so variables missing from it fall back to vars.
func withFileVars(lookup func(string) (string, bool), vars map[string]string) func(string) (string, bool) {
	if len(vars) == 0 {
		return lookup
	}
	return func(name string) (string, bool) {
		if v, ok := lookup(name); ok {
			return v, true
		}
		v, ok := vars[name]
		return v, ok
	}
}

// resolveEnv replaces an !ENV node by the scalar it resolves to. The value of a
// variable is typed like a plain YAML scalar ("true" becomes a bool).
func (p *parser) resolveEnv(n *yaml.Node, path string) (*yaml.Node, error) {
	var names []*yaml.Node
	var fallback *yaml.Node

	switch n.Kind {
	case yaml.ScalarNode:
		names = []*yaml.Node{n}
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return nil, schemaErr(n, path, "%s needs at least one variable name", envTag)
		}
		names = n.Content
		if len(n.Content) > 1 {
			names = n.Content[:len(n.Content)-1]
			fallback = n.Content[len(n.Content)-1]
		}
	default:
		return nil, schemaErr(n, path, "%s expects a variable name or a list of names, got %s", envTag, kindName(n))
	}

	for _, nameNode := range names {
		nameNode = p.follow(nameNode)
		if nameNode.Kind != yaml.ScalarNode || nameNode.Value == "" {
			return nil, schemaErr(nameNode, path, "%s variable names must be non-empty strings", envTag)
		}
		if v, ok := p.lookupEnv(nameNode.Value); ok {
			return implicitScalar(v, n), nil
		}
	}
	if fallback != nil {
		return p.deref(fallback, path)
	}
	return nullNode(n), nil
}

// implicitScalar builds a scalar typed by YAML's implicit resolution rules.
func implicitScalar(value string, at *yaml.Node) *yaml.Node {
	s := &yaml.Node{Kind: yaml.ScalarNode, Value: value, Line: at.Line, Column: at.Column}
	s.Tag = s.ShortTag()
	return s
}

func nullNode(at *yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null", Line: at.Line, Column: at.Column}
}
