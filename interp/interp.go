// Package interp implements the fixed-point reference interpolator of spec
// §4.7: a worklist that repeatedly resolves References, Templates and
// ValueLists against the root Mapping until nothing changes, then reports
// whatever remains unresolved as a cycle.
//
// Grounded on the teacher's resolver.Resolver walk (a recursive descent over
// a parsed document replacing $ref nodes in place) generalized from
// single-pass $ref substitution to reclass's repeated-pass, dependency-driven
// model (spec §9: "the interpolator is a worklist, not coroutine/generator
// control flow").
package interp

import (
	"strings"

	"github.com/reclass-go/reclass/merge"
	"github.com/reclass-go/reclass/path"
	"github.com/reclass-go/reclass/refparser"
	"github.com/reclass-go/reclass/value"
)

// maxPasses bounds the fixed-point loop defensively; real termination is
// detected by the progressed/pending accounting below, this only guards
// against a latent bug turning into a true infinite loop.
const maxPasses = 10000

// Interpolate resolves every Reference/Template/ValueList reachable from
// root in place, returning once the tree contains no more lazy nodes (spec
// §8 "no residual lazy nodes") or failing with a ReferenceCycleError /
// ReferenceMissingError / TypeMismatchError / ParseError.
func Interpolate(root *value.Value) error {
	lookup := func(p path.Path) (*value.Value, State) { return LookupInValue(root, p) }

	for pass := 0; pass < maxPasses; pass++ {
		w := &walker{lookup: lookup}
		if err := w.walk(root); err != nil {
			return err
		}
		if w.pending == 0 {
			return nil
		}
		if !w.progressed {
			return &ReferenceCycleError{Remaining: w.stuckSources}
		}
	}
	return &ReferenceCycleError{Remaining: []string{"(pass limit exceeded)"}}
}

type walker struct {
	lookup       Lookup
	pending      int
	progressed   bool
	stuckSources []string
}

// walk mutates v in place: since Mapping/Sequence/ValueList store *Value
// pointers, overwriting *v's fields is visible to every container already
// holding that pointer, so no separate parent-setter plumbing is needed.
func (w *walker) walk(v *value.Value) error {
	switch {
	case v.IsReference():
		resolved, ok, err := resolveReference(v.Ref, w.lookup, nil)
		if err != nil {
			return err
		}
		if !ok {
			w.pending++
			w.stuckSources = append(w.stuckSources, v.Ref.Source)
			return nil
		}
		*v = *resolved
		w.progressed = true
		return w.walk(v)

	case v.IsTemplate():
		resolved, ok, err := resolveTemplate(v, w.lookup)
		if err != nil {
			return err
		}
		if !ok {
			w.pending++
			w.stuckSources = append(w.stuckSources, templateSource(v))
			return nil
		}
		*v = *resolved
		w.progressed = true
		return nil

	case v.IsValueList():
		for _, item := range v.List {
			if err := w.walk(item); err != nil {
				return err
			}
		}
		if anyLazy(v.List) {
			w.pending++
			w.stuckSources = append(w.stuckSources, "valuelist@"+v.Origin.String())
			return nil
		}
		reduced, err := merge.ReduceValueList(v)
		if err != nil {
			return err
		}
		*v = *reduced
		w.progressed = true
		return nil

	case v.IsMapping():
		for pair := v.Map.First(); pair != nil; pair = pair.Next() {
			if err := w.walk(pair.Value()); err != nil {
				return err
			}
		}
		return nil

	case v.IsSequence():
		for _, child := range v.Seq {
			if err := w.walk(child); err != nil {
				return err
			}
		}
		return nil

	default: // Scalar
		return nil
	}
}

func anyLazy(items []*value.Value) bool {
	for _, it := range items {
		if value.ContainsLazy(it) {
			return true
		}
	}
	return false
}

func templateSource(v *value.Value) string {
	var b strings.Builder
	for _, f := range v.Fragments {
		switch fr := f.(type) {
		case refparser.Literal:
			b.WriteString(string(fr))
		case *refparser.Reference:
			b.WriteString(fr.Source)
		}
	}
	return b.String()
}
