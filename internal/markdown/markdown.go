package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Heading is a rendered HTML heading.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
}

// Raw HTML is passed through so hand-written <h1> blocks count as headings.
func newRenderer() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
}

// Render converts a markdown body (frontmatter already removed) to HTML.
func Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := newRenderer().Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Headings renders body and returns its headings in document order.
func Headings(body []byte) ([]Heading, error) {
	rendered, err := Render(body)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		return nil, err
	}

	var out []Heading
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.DataAtom); level > 0 {
				out = append(out, Heading{Level: level, ID: attr(n, "id"), Text: textContent(n)})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return out, nil
}

// Title returns the text of the first level-one heading, or "" when there is none.
func Title(body []byte) (string, error) {
	headings, err := Headings(body)
	if err != nil {
		return "", err
	}
	for _, h := range headings {
		if h.Level == 1 && h.Text != "" {
			return h.Text, nil
		}
	}
	return "", nil
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	default:
		return 0
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates the text below n with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
