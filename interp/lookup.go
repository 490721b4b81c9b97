package interp

import (
	"strconv"

	"github.com/reclass-go/reclass/path"
	"github.com/reclass-go/reclass/value"
)

// State tags the outcome of looking a Path up against a (possibly still
// partially-resolved) value tree.
type State int

const (
	// Absent means the path does not exist anywhere in the tree.
	Absent State = iota
	// Pending means the path exists but the value found there (or
	// something nested inside it) is still a Reference/Template/ValueList.
	Pending
	// Resolved means the path exists and is fully concrete.
	Resolved
)

// Lookup resolves a Path against some backing store. The full interpolator
// binds this to the render's own merged root; the expander's class-name
// feedback (spec §4.4, §9 PartialInventory) binds it to the merge-so-far.
type Lookup func(p path.Path) (*value.Value, State)

// LookupInValue implements Lookup over a concrete value tree, descending
// through Mappings by key and Sequences by integer index (spec §4.2: "Lists
// are addressed by integer segments only during merge/interpolation
// internals").
func LookupInValue(root *value.Value, p path.Path) (*value.Value, State) {
	cur := root
	for {
		if p.IsRoot() {
			if value.ContainsLazy(cur) {
				return cur, Pending
			}
			return cur, Resolved
		}

		head, _ := p.Head()
		switch {
		case cur.IsMapping():
			next, ok := cur.Map.Get(head)
			if !ok {
				return nil, Absent
			}
			cur = next
			p = p.Tail()

		case cur.IsSequence():
			idx, err := strconv.Atoi(head)
			if err != nil || idx < 0 || idx >= len(cur.Seq) {
				return nil, Absent
			}
			cur = cur.Seq[idx]
			p = p.Tail()

		case cur.IsReference() || cur.IsValueList() || cur.IsTemplate():
			return nil, Pending

		default:
			return nil, Absent
		}
	}
}
