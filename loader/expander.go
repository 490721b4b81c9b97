package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reclass-go/reclass/diag"
	"github.com/reclass-go/reclass/index"
	"github.com/reclass-go/reclass/interp"
	"github.com/reclass-go/reclass/merge"
	"github.com/reclass-go/reclass/path"
	"github.com/reclass-go/reclass/refparser"
	"github.com/reclass-go/reclass/value"
)

// ClassCycleError reports a class-include cycle (spec §4.4, error kind
// ClassCycle).
type ClassCycleError struct{ Stack []string }

func (e *ClassCycleError) Error() string {
	return fmt.Sprintf("loader: class include cycle: %s", strings.Join(e.Stack, " -> "))
}

// ClassNameUnresolvableError reports a class-name reference the expander
// could never make progress on (spec §4.4: "an entry that cannot ever be
// resolved is an error").
type ClassNameUnresolvableError struct{ Expr string }

func (e *ClassNameUnresolvableError) Error() string {
	return fmt.Sprintf("loader: class name expression %q never became resolvable", e.Expr)
}

// expander drives spec §4.4's pre-order, de-duplicated class expansion,
// threading the merge-so-far through to interp.ResolveClassNameExpr for
// class-name reference feedback (spec §9 PartialInventory).
type expander struct {
	idx    *index.Index
	sink   *diag.Sink
	nodeName string

	seen   map[string]bool
	active map[string]bool
	stack  []string

	merged *value.Value // merge-so-far, pre-interpolation (spec §4.4's "merge-so-far")
	docs   []*Document
}

// Expand loads nodeName's own document and the ordered, de-duplicated chain
// of classes it pulls in, applying class_mappings (spec §4.1, §4.3) before
// expansion begins.
func Expand(idx *index.Index, nodeName string, sink *diag.Sink) (classDocs []*Document, nodeDoc *Document, err error) {
	entry, ok := idx.Node(nodeName)
	if !ok {
		return nil, nil, fmt.Errorf("loader: node not found: %q", nodeName)
	}

	nodeDoc, err = Load(entry.Path, true, sink)
	if err != nil {
		return nil, nil, err
	}

	extra, err := idx.ExtraClassesFor(nodeName, entry.RelPath)
	if err != nil {
		return nil, nil, err
	}
	if len(extra) > 0 {
		nodeDoc.Classes = append(append([]string{}, extra...), nodeDoc.Classes...)
	}

	ex := &expander{
		idx:      idx,
		sink:     sink,
		nodeName: nodeName,
		seen:     make(map[string]bool),
		active:   make(map[string]bool),
		merged:   value.NewMappingValue(nil, value.Origin{}),
	}

	if err := ex.expandList(nodeDoc.Classes, "", nodeDoc.Parameters); err != nil {
		return nil, nil, err
	}
	return ex.docs, nodeDoc, nil
}

// expandList processes one document's `classes` entries in order (spec
// §4.4), retrying entries whose reference expression isn't resolvable yet
// until the whole list either lands or provably cannot progress. localParams
// is that document's own (not-yet-committed) parameters: a document's
// classes list can reference its own locally-defined parameters even before
// the document itself is merged into the chain (spec §8 scenario 6).
func (ex *expander) expandList(entries []string, includingClass string, localParams *value.Value) error {
	pending := entries
	for len(pending) > 0 {
		var next []string
		progressed := false

		for _, raw := range pending {
			name, ok, err := ex.resolveEntry(raw, localParams)
			if err != nil {
				return err
			}
			if !ok {
				next = append(next, raw)
				continue
			}
			progressed = true

			if err := ex.include(includingClass, name); err != nil {
				return err
			}
		}

		if len(next) == len(pending) && !progressed {
			return &ClassNameUnresolvableError{Expr: next[0]}
		}
		pending = next
	}
	return nil
}

// resolveEntry resolves one classes[] entry against the merge-so-far plus
// the including document's own local parameters, if it contains a
// reference; otherwise it is returned unchanged.
func (ex *expander) resolveEntry(raw string, localParams *value.Value) (string, bool, error) {
	if !refparser.HasReference(raw) {
		return raw, true, nil
	}
	view, err := merge.Values(ex.merged, localParams)
	if err != nil {
		return "", false, err
	}
	lookup := func(p path.Path) (*value.Value, interp.State) {
		return interp.LookupInValue(view, p)
	}
	return interp.ResolveClassNameExpr(raw, lookup)
}

// include resolves name via the Index, loads it if new, recurses into its
// own classes pre-order, then appends it and merges its parameters into the
// merge-so-far (spec §4.4).
func (ex *expander) include(includingClass, name string) error {
	resolved, file, err := ex.idx.ResolveClass(includingClass, name)
	if err != nil {
		var nf *index.ClassNotFoundError
		if errors.As(err, &nf) {
			ignore, ierr := ex.idx.IgnoreClassNotFound(nf.Name)
			if ierr != nil {
				return ierr
			}
			if ignore {
				if ex.sink != nil {
					ex.sink.Warn(diag.Warning{Node: ex.nodeName, Class: name, Message: "class not found, ignored"})
				}
				return nil
			}
		}
		return err
	}

	if ex.seen[resolved] {
		return nil
	}
	if ex.active[resolved] {
		return &ClassCycleError{Stack: append(append([]string{}, ex.stack...), resolved)}
	}

	ex.active[resolved] = true
	ex.stack = append(ex.stack, resolved)

	doc, err := Load(file, false, ex.sink)
	if err != nil {
		return err
	}
	doc.Name = resolved
	if err := ex.expandList(doc.Classes, resolved, doc.Parameters); err != nil {
		return err
	}

	ex.stack = ex.stack[:len(ex.stack)-1]
	delete(ex.active, resolved)
	ex.seen[resolved] = true

	ex.docs = append(ex.docs, doc)
	merged, err := merge.Values(ex.merged, doc.Parameters)
	if err != nil {
		return err
	}
	ex.merged = merged
	return nil
}

