// Package refparser tokenizes a string into alternating literal and
// reference fragments and parses the grammar inside `${…}` (spec §4.5): a
// possibly-nested path expression, an optional `::default` tail, and the two
// escape sequences `\${` and `\\`.
//
// Parsing is purely syntactic — it never looks up a value. Resolving the
// nested references and concatenating the result into a final path or
// default string is the interpolator's job (package interp), which is why
// Reference.Path and Reference.Default are themselves fragment sequences
// rather than already-joined strings.
package refparser

import (
	"fmt"
	"strings"
)

// Fragment is either a Literal or a *Reference.
type Fragment interface {
	isFragment()
}

// Literal is a run of plain text (escapes already resolved).
type Literal string

func (Literal) isFragment() {}

// Reference is a parsed `${…}` expression.
type Reference struct {
	// Path is the fragment sequence that, once nested references resolve to
	// scalar strings and are concatenated with the literal runs, yields the
	// path string to look up (spec §4.2 Path.Parse uses ":" as separator).
	Path []Fragment

	// HasDefault reports whether a top-level "::" was found in this
	// reference's body.
	HasDefault bool

	// Default is the fragment sequence after "::", present only when
	// HasDefault is true. Resolved the same way as Path, then parsed as a
	// YAML flow value (spec §4.7 rule 4).
	Default []Fragment

	// Source is the original `${…}` text, kept for error messages.
	Source string
}

func (*Reference) isFragment() {}

// ParseError reports a malformed `${…}` expression (spec error kind
// InterpolationParse).
type ParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("refparser: %s at offset %d in %q", e.Reason, e.Offset, e.Input)
}

// Parse tokenizes s into alternating Literal and *Reference fragments.
func Parse(s string) ([]Fragment, error) {
	p := &parser{input: s}
	frags, err := p.parseFragments(false)
	if err != nil {
		return nil, err
	}
	return frags, nil
}

// HasReference reports whether s contains at least one unescaped `${…}`.
func HasReference(s string) bool {
	frags, err := Parse(s)
	if err != nil {
		return strings.Contains(s, "${")
	}
	for _, f := range frags {
		if _, ok := f.(*Reference); ok {
			return true
		}
	}
	return false
}

type parser struct {
	input string
	pos   int
}

// parseFragments scans literal/reference fragments until end of input
// (insideReference == false) or until it hits the unescaped "}" / "::" that
// closes the reference body it was called for (insideReference == true). It
// never consumes the terminator itself; the caller inspects it.
func (p *parser) parseFragments(insideReference bool) ([]Fragment, error) {
	var frags []Fragment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			frags = append(frags, Literal(lit.String()))
			lit.Reset()
		}
	}

	for p.pos < len(p.input) {
		c := p.input[p.pos]

		if c == '\\' {
			if p.pos+2 < len(p.input) && p.input[p.pos+1] == '$' && p.input[p.pos+2] == '{' {
				lit.WriteString("${")
				p.pos += 3
				continue
			}
			if p.pos+1 < len(p.input) && p.input[p.pos+1] == '\\' {
				lit.WriteByte('\\')
				p.pos += 2
				continue
			}
			lit.WriteByte(c)
			p.pos++
			continue
		}

		if c == '$' && p.pos+1 < len(p.input) && p.input[p.pos+1] == '{' {
			flush()
			ref, err := p.parseReference()
			if err != nil {
				return nil, err
			}
			frags = append(frags, ref)
			continue
		}

		if insideReference && c == '}' {
			flush()
			return frags, nil
		}

		if insideReference && c == ':' && p.pos+1 < len(p.input) && p.input[p.pos+1] == ':' {
			flush()
			return frags, nil
		}

		lit.WriteByte(c)
		p.pos++
	}

	flush()
	if insideReference {
		return nil, &ParseError{Input: p.input, Offset: p.pos, Reason: "unmatched ${"}
	}
	return frags, nil
}

// parseReference parses one "${...}" starting at p.pos (which must point at
// the '$').
func (p *parser) parseReference() (*Reference, error) {
	start := p.pos
	p.pos += 2 // consume "${"

	pathFrags, err := p.parseFragments(true)
	if err != nil {
		return nil, err
	}

	ref := &Reference{Path: pathFrags}

	if p.pos+1 < len(p.input) && p.input[p.pos] == ':' && p.input[p.pos+1] == ':' {
		p.pos += 2
		ref.HasDefault = true
		defFrags, err := p.parseFragments(true)
		if err != nil {
			return nil, err
		}
		ref.Default = defFrags
	}

	if p.pos >= len(p.input) || p.input[p.pos] != '}' {
		return nil, &ParseError{Input: p.input, Offset: start, Reason: "unmatched ${"}
	}
	p.pos++ // consume '}'

	ref.Source = p.input[start:p.pos]
	return ref, nil
}
