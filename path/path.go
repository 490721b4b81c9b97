// Package path implements the canonical internal key-paths used to address
// locations inside a node's merged parameter tree (spec §4.2). A Path is an
// ordered sequence of string segments; equality and hashing are
// segment-wise. The separator used inside reference syntax (`${a:b:c}`) is
// ":" but a Path itself never stores the separator — segments are already
// split.
//
// Grounded on the compose-spec tree.Path pattern seen across the pack
// (override.mergeYaml threads a tree.Path through recursive merges via
// Next(key)) adapted to reclass's ":" addressing and to the list-index
// segments the merger and interpolator need internally.
package path

import "strings"

// Separator is the delimiter used when a Path is rendered to or parsed from
// a reference string.
const Separator = ":"

// Path is an immutable, ordered sequence of key segments.
type Path struct {
	segments []string
}

// Root is the empty path, addressing the top of a parameter tree.
var Root = Path{}

// Parse splits s on Separator into a Path. An empty string parses to Root.
func Parse(s string) Path {
	if s == "" {
		return Root
	}
	return Path{segments: strings.Split(s, Separator)}
}

// New builds a Path directly from segments, copying the slice so the
// returned Path is safe to retain regardless of what the caller does with
// segs afterwards.
func New(segs ...string) Path {
	if len(segs) == 0 {
		return Root
	}
	cp := make([]string, len(segs))
	copy(cp, segs)
	return Path{segments: cp}
}

// Child returns a new Path with seg appended. The receiver is unmodified.
func (p Path) Child(seg string) Path {
	cp := make([]string, len(p.segments)+1)
	copy(cp, p.segments)
	cp[len(p.segments)] = seg
	return Path{segments: cp}
}

// Segments returns the path's segments. The returned slice must not be
// mutated by the caller.
func (p Path) Segments() []string {
	return p.segments
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsRoot reports whether this is the zero-length path.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Head returns the first segment and whether the path is non-empty.
func (p Path) Head() (string, bool) {
	if len(p.segments) == 0 {
		return "", false
	}
	return p.segments[0], true
}

// Tail returns the path with its first segment removed.
func (p Path) Tail() Path {
	if len(p.segments) == 0 {
		return Root
	}
	return Path{segments: p.segments[1:]}
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, s := range p.segments {
		if s != other.segments[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix's segments are a leading subsequence of
// p's segments.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if s != p.segments[i] {
			return false
		}
	}
	return true
}

// String renders the path back into reference-addressing form, e.g. "a:b:c".
func (p Path) String() string {
	return strings.Join(p.segments, Separator)
}
