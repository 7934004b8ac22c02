package config

import (
	"errors"
	"path"
	"strings"
)

// NavKind distinguishes the two shapes of a navigation entry.
type NavKind string

const (
	NavLeaf    NavKind = "leaf"
	NavSection NavKind = "section"
)

// NavEntry is one node of the navigation tree: either a leaf pointing at a
// document (Path) or a section grouping child entries (Children).
// A leaf written as a bare path has an empty Title.
type NavEntry struct {
	Kind     NavKind    `json:"kind"`
	Title    string     `json:"title,omitempty"`
	Path     string     `json:"path,omitempty"`
	Children []NavEntry `json:"children,omitempty"`
}

// Leaf builds a leaf entry.
func Leaf(title, path string) NavEntry {
	return NavEntry{Kind: NavLeaf, Title: title, Path: path}
}

// Section builds a section entry. Children is nil when none are given.
func Section(title string, children ...NavEntry) NavEntry {
	e := NavEntry{Kind: NavSection, Title: title}
	if len(children) > 0 {
		e.Children = children
	}
	return e
}

// IsLeaf reports whether the entry references a document.
func (e NavEntry) IsLeaf() bool { return e.Kind == NavLeaf }

// IsSection reports whether the entry groups other entries.
func (e NavEntry) IsSection() bool { return e.Kind == NavSection }

// IsExternal reports whether a leaf points outside the docs directory
// (an absolute URL such as https://... or mailto:).
func (e NavEntry) IsExternal() bool {
	if !e.IsLeaf() {
		return false
	}
	return IsExternalRef(e.Path)
}

// CleanRef normalizes a nav or asset reference to a docs-relative slash path.
// Fragments and queries are dropped, leading "./" and "/" are removed and ".."
// segments are resolved. ok is false when the result climbs out of the docs
// directory or names the directory itself.
func CleanRef(ref string) (rel string, ok bool) {
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	rel = path.Clean(strings.TrimLeft(ref, "/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return rel, false
	}
	return rel, true
}

// IsExternalRef reports whether ref is a URL rather than a docs-relative path.
func IsExternalRef(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	scheme, _, ok := strings.Cut(ref, ":")
	if !ok || scheme == "" {
		return false
	}
	// A one-letter scheme is a Windows drive, not a URL.
	if len(scheme) == 1 {
		return false
	}
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// SkipSection can be returned by a WalkFunc to skip part of the tree. On a
// section it skips the section's children; on a leaf it skips the remaining
// entries of the enclosing section, and at the top level it ends the walk.
// Walk itself never returns SkipSection.
var SkipSection = errors.New("skip this section")

// WalkFunc is called for every entry in pre-order. trail holds the titles of
// the enclosing sections, outermost first; it must not be retained.
type WalkFunc func(trail []string, e NavEntry) error

// Walk visits entries depth-first in document order.
func Walk(entries []NavEntry, fn WalkFunc) error {
	return walk(nil, entries, fn)
}

func walk(trail []string, entries []NavEntry, fn WalkFunc) error {
	for _, e := range entries {
		err := fn(trail, e)
		switch {
		case errors.Is(err, SkipSection):
			if e.IsSection() {
				continue
			}
			return nil
		case err != nil:
			return err
		}
		if e.IsSection() {
			if err := walk(append(trail, e.Title), e.Children, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// CountNodes returns the total number of entries in the tree.
func CountNodes(entries []NavEntry) int {
	n := 0
	for _, e := range entries {
		n++
		if e.IsSection() {
			n += CountNodes(e.Children)
		}
	}
	return n
}

// CountLeaves returns the number of leaf entries in the tree.
func CountLeaves(entries []NavEntry) int {
	n := 0
	for _, e := range entries {
		if e.IsLeaf() {
			n++
			continue
		}
		n += CountLeaves(e.Children)
	}
	return n
}

// LeafRef is a leaf together with the titles of its enclosing sections.
type LeafRef struct {
	Trail []string
	Entry NavEntry
}

// Leaves flattens the tree into its leaves in document order.
func Leaves(entries []NavEntry) []LeafRef {
	var out []LeafRef
	_ = Walk(entries, func(trail []string, e NavEntry) error {
		if e.IsLeaf() {
			out = append(out, LeafRef{Trail: append([]string(nil), trail...), Entry: e})
		}
		return nil
	})
	return out
}

// Depth returns the maximum nesting depth; a flat list has depth 1.
func Depth(entries []NavEntry) int {
	maxDepth := 0
	for _, e := range entries {
		d := 1
		if e.IsSection() {
			d += Depth(e.Children)
		}
		if d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}
