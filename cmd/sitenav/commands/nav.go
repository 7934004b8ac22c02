package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/pages"
)

// NavCmd implements the 'nav' command.
type NavCmd struct {
	Format  string `short:"f" default:"text" help:"Output format (text, json or yaml)" enum:"text,json,yaml"`
	Resolve bool   `short:"r" help:"Resolve entries to files, titles and fingerprints (uses the docs directory when nav is absent)"`
}

func (n *NavCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}

	if n.Resolve {
		resolved, err := pages.Resolve(cfg, root.baseDir())
		if err != nil {
			return err
		}
		return writeOutput(g.out(), n.Format, resolved, func(w io.Writer) error {
			return writePagesText(w, resolved)
		})
	}

	var doc any = cfg.Nav
	if n.Format == "yaml" {
		doc = map[string]any{"nav": navYAML(cfg.Nav)}
	}
	return writeOutput(g.out(), n.Format, doc, func(w io.Writer) error {
		return writeNavText(w, cfg)
	})
}

// writeOutput encodes v as json or yaml, or calls text for the text format.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	var err error
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(v)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = text(w)
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to write output").
			WithContext("format", format).
			Build()
	}
	return nil
}

// navYAML converts entries to the mkdocs nav shapes: bare path, {title: path}
// and {title: [children]}.
func navYAML(entries []config.NavEntry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.IsSection():
			out = append(out, map[string]any{e.Title: navYAML(e.Children)})
		case e.Title == "":
			out = append(out, e.Path)
		default:
			out = append(out, map[string]string{e.Title: e.Path})
		}
	}
	return out
}

func writeNavText(w io.Writer, cfg *config.SiteConfig) error {
	var b strings.Builder
	if len(cfg.Nav) == 0 {
		b.WriteString("(no nav configured; pages are listed from the docs directory, see --resolve)\n")
	}
	_ = config.Walk(cfg.Nav, func(trail []string, e config.NavEntry) error {
		indent := strings.Repeat("  ", len(trail))
		switch {
		case e.IsSection():
			fmt.Fprintf(&b, "%s%s/\n", indent, e.Title)
		case e.Title == "":
			fmt.Fprintf(&b, "%s%s\n", indent, e.Path)
		default:
			fmt.Fprintf(&b, "%s%s → %s\n", indent, e.Title, e.Path)
		}
		return nil
	})
	leaves, nodes := cfg.NavStats()
	fmt.Fprintf(&b, "\n%d pages, %d entries, depth %d\n", leaves, nodes, config.Depth(cfg.Nav))
	_, err := io.WriteString(w, b.String())
	return err
}

func writePagesText(w io.Writer, resolved []pages.Page) error {
	var b strings.Builder
	missing := 0
	section := ""
	for _, p := range resolved {
		indent := ""
		if len(p.Trail) > 0 {
			indent = "  "
			if t := strings.Join(p.Trail, " > "); t != section {
				fmt.Fprintf(&b, "[%s]\n", t)
				section = t
			}
		} else {
			section = ""
		}
		status := ""
		switch {
		case p.External:
			status = " (external)"
		case p.OutsideDocs:
			status = " (outside docs)"
			missing++
		case !p.Exists:
			status = " (missing)"
			missing++
		}
		fmt.Fprintf(&b, "%s%s → %s%s\n", indent, p.Title, p.NavPath, status)
		fmt.Fprintf(&b, "%s  title from %s", indent, p.TitleSource)
		if p.Fingerprint != "" {
			fmt.Fprintf(&b, ", fingerprint %s", shortHash(p.Fingerprint))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d pages", len(resolved))
	if missing > 0 {
		fmt.Fprintf(&b, ", %d missing", missing)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func shortHash(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
