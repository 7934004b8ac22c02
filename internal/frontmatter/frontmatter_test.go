package frontmatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		fm     string
		body   string
		had    bool
		hasErr bool
	}{
		{name: "no frontmatter", input: "# Title\n\nHello\n", body: "# Title\n\nHello\n"},
		{name: "yaml header", input: "---\ntitle: Intro\n---\n# Title\n", fm: "title: Intro\n", body: "# Title\n", had: true},
		{name: "crlf", input: "---\r\ntitle: Intro\r\n---\r\n# Title\r\n", fm: "title: Intro\r\n", body: "# Title\r\n", had: true},
		{name: "empty header", input: "---\n---\n# Title\n", body: "# Title\n", had: true},
		{name: "closing delimiter at eof", input: "---\ntitle: Only\n---", fm: "title: Only\n", had: true},
		{name: "missing closing delimiter", input: "---\ntitle: Intro\n# Title\n", hasErr: true},
		{name: "thematic break later", input: "Text\n\n---\n\nMore\n", body: "Text\n\n---\n\nMore\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fm, body, had, err := Split([]byte(tc.input))
			if tc.hasErr {
				require.ErrorIs(t, err, ErrMissingClosingDelimiter)
				require.False(t, had)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.had, had)
			require.Equal(t, tc.fm, string(fm))
			require.Equal(t, tc.body, string(body))
		})
	}
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: '  Circular Mean  '\ntags: [stats]\n---\nBody\n"))
	require.NoError(t, err)
	require.True(t, doc.HasFrontmatter)
	require.Equal(t, "Circular Mean", doc.Title())
	require.Equal(t, []any{"stats"}, doc.Fields["tags"])
	require.Equal(t, "Body\n", string(doc.Body))

	doc, err = Parse([]byte("# Plain\n"))
	require.NoError(t, err)
	require.False(t, doc.HasFrontmatter)
	require.Empty(t, doc.Fields)
	require.Empty(t, doc.Title())

	doc, err = Parse([]byte("---\ntitle: 42\n---\n"))
	require.NoError(t, err)
	require.Empty(t, doc.Title())

	_, err = Parse([]byte("---\n: not yaml\n---\n"))
	require.Error(t, err)

	var none *Document
	require.Empty(t, none.Title())
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("uid: abc\ntags:\n  - one\n"))
	require.NoError(t, err)
	require.Equal(t, "abc", fields["uid"])
	require.Equal(t, []any{"one"}, fields["tags"])

	fields, err = ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)

	fields, err = ParseYAML([]byte("# only a comment\n"))
	require.NoError(t, err)
	require.NotNil(t, fields)
}

func TestCanonical(t *testing.T) {
	a := map[string]any{
		"title":       "Intro",
		"fingerprint": "abc",
		"meta":        map[string]any{"z": 1, "a": []any{"x", map[string]any{"k2": true, "k1": false}}},
	}
	b := map[string]any{
		"meta":  map[string]any{"a": []any{"x", map[string]any{"k1": false, "k2": true}}, "z": 1},
		"title": "Intro",
	}

	ca, err := Canonical(a, "fingerprint")
	require.NoError(t, err)
	cb, err := Canonical(b)
	require.NoError(t, err)
	require.Equal(t, ca, cb)
	require.True(t, strings.HasPrefix(ca, "meta:\n"))
	require.True(t, strings.HasSuffix(ca, "\ntitle: Intro"))
	require.Less(t, strings.Index(ca, "k1"), strings.Index(ca, "k2"))
	require.NotContains(t, ca, "fingerprint")

	empty, err := Canonical(map[string]any{"fingerprint": "x"}, "fingerprint")
	require.NoError(t, err)
	require.Empty(t, empty)
}
