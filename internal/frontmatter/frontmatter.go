package frontmatter

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a markdown page split into its YAML header and body.
type Document struct {
	Fields         map[string]any
	Body           []byte
	HasFrontmatter bool
}

// Split separates YAML frontmatter (`---` delimited) from the markdown body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		if tail := []byte(nl + "---"); bytes.HasSuffix(content, tail) {
			return content[start : len(content)-len(tail)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes its frontmatter. Documents without a
// header get an empty field map.
func Parse(content []byte) (*Document, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, err
	}
	return &Document{Fields: fields, Body: body, HasFrontmatter: had}, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// String returns a trimmed string field, or "" when absent or not a string.
func (d *Document) String(key string) string {
	if d == nil {
		return ""
	}
	s, _ := d.Fields[key].(string)
	return strings.TrimSpace(s)
}

// Title returns the page title declared in the frontmatter.
func (d *Document) Title() string {
	return d.String("title")
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
