package config

import (
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// Context keys attached to loader errors.
const (
	ContextKey        = ferrors.ContextKeyPath
	ContextLine       = ferrors.ContextLine
	ContextColumn     = ferrors.ContextColumn
	ContextConfigPath = ferrors.ContextConfigPath
)

// IsParseError reports whether err stems from a structurally malformed document.
func IsParseError(err error) bool {
	return ferrors.HasCategory(err, ferrors.CategoryParse)
}

// IsSchemaError reports whether err stems from a well-formed document with an
// unknown, misplaced or mistyped key.
func IsSchemaError(err error) bool {
	return ferrors.HasCategory(err, ferrors.CategorySchema)
}

func schemaErr(n *yaml.Node, path, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	b := ferrors.SchemaError(msg).WithKeyPath(path)
	if n != nil {
		b = b.At(n.Line, n.Column)
	}
	return b.Build()
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func parseErr(cause error, message string) error {
	b := ferrors.ParseError(message)
	if cause != nil {
		b = b.WithCause(cause)
		if m := yamlLineRe.FindStringSubmatch(cause.Error()); m != nil {
			if line, err := strconv.Atoi(m[1]); err == nil {
				b = b.At(line, 0)
			}
		}
	}
	return b.Build()
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		if isNull(n) {
			return "null"
		}
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "empty node"
	}
}
