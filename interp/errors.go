package interp

import (
	"fmt"
	"strings"

	"github.com/reclass-go/reclass/path"
)

// ReferenceMissingError reports a path lookup that found nothing and had no
// default (spec error kind ReferenceMissing).
type ReferenceMissingError struct {
	Path   path.Path
	Source string
}

func (e *ReferenceMissingError) Error() string {
	return fmt.Sprintf("interp: reference %s: path %q not found", e.Source, e.Path)
}

// ParseError reports a malformed reference or malformed default YAML (spec
// error kind InterpolationParse).
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("interp: %s: %s", e.Source, e.Reason)
}

// TypeMismatchError reports an embedded reference resolving to a non-scalar,
// or any other kind mismatch the interpolator must reject (spec error kind
// TypeMismatch).
type TypeMismatchError struct {
	Source string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("interp: %s: %s", e.Source, e.Reason)
}

// ReferenceCycleError reports a set of locations that made no progress
// across a full pass: per spec §4.7's termination clause, this is reported
// as the remaining unresolved set rather than a single exact cycle trail.
type ReferenceCycleError struct {
	Remaining []string // reference source tokens still unresolved
}

func (e *ReferenceCycleError) Error() string {
	return fmt.Sprintf("interp: reference cycle (or unsatisfiable dependency) among: %s", strings.Join(e.Remaining, ", "))
}
