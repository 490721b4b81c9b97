// Package value implements the tagged value tree described in spec §3: a
// Value is a Scalar, Sequence, Mapping, ValueList (pending merge), Reference,
// or Template (a string with references embedded in literal text), each carrying an origin descriptor for diagnostics plus the
// overwrite/constant flags carried by `~key`/`=key` prefixes.
//
// Mapping is backed by orderedmap.Map so key order always matches file
// insertion order (spec §5 determinism, §8 determinism property), the same
// way the teacher's datamodel keeps components ordered with
// wk8/go-ordered-map rather than a built-in map.
package value

import (
	"fmt"

	"github.com/reclass-go/reclass/orderedmap"
	"github.com/reclass-go/reclass/refparser"
)

// Kind tags which variant a Value currently holds.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	KindValueList
	KindReference
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindValueList:
		return "valuelist"
	case KindReference:
		return "reference"
	case KindTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Origin is a diagnostics-only source location (spec §3).
type Origin struct {
	File string
	Line int
}

func (o Origin) String() string {
	if o.File == "" {
		return "<generated>"
	}
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// Mapping is the insertion-ordered string-keyed container backing KindMapping
// values.
type Mapping = orderedmap.Map[string, *Value]

// NewMapping returns an empty Mapping.
func NewMapping() Mapping {
	return orderedmap.New[string, *Value]()
}

// Value is the tagged variant described by spec §3.
type Value struct {
	Kind Kind

	Scalar interface{} // string, int64, float64, bool, nil, time.Time
	Seq    []*Value
	Map    Mapping
	List   []*Value           // pending ValueList contributions, in merge order
	Ref    *refparser.Reference
	Fragments []refparser.Fragment // KindTemplate: literal text interleaved with references

	Origin    Origin
	Overwrite bool // `~key` prefix: replace rather than merge
	Constant  bool // `=key` prefix: cannot be overwritten later
}

// NewScalar wraps a Go scalar (string/int64/float64/bool/nil/time.Time).
func NewScalar(v interface{}, origin Origin) *Value {
	return &Value{Kind: KindScalar, Scalar: v, Origin: origin}
}

// NewSequence wraps an ordered list of Values.
func NewSequence(items []*Value, origin Origin) *Value {
	return &Value{Kind: KindSequence, Seq: items, Origin: origin}
}

// NewMappingValue wraps a Mapping.
func NewMappingValue(m Mapping, origin Origin) *Value {
	if m == nil {
		m = NewMapping()
	}
	return &Value{Kind: KindMapping, Map: m, Origin: origin}
}

// NewValueList wraps pending contributions awaiting reduction (spec §4.6,
// §4.7 rule 6).
func NewValueList(items []*Value, origin Origin) *Value {
	return &Value{Kind: KindValueList, List: items, Origin: origin}
}

// NewReference wraps a parsed reference AST (spec §4.5).
func NewReference(ref *refparser.Reference, origin Origin) *Value {
	return &Value{Kind: KindReference, Ref: ref, Origin: origin}
}

// NewTemplate wraps a scalar string tokenized into literal/reference
// fragments where the reference is embedded among literal text rather than
// spanning the whole string (spec §4.7 rule 5, second bullet).
func NewTemplate(fragments []refparser.Fragment, origin Origin) *Value {
	return &Value{Kind: KindTemplate, Fragments: fragments, Origin: origin}
}

// IsScalar, IsSequence, IsMapping, IsValueList, IsReference, IsTemplate are
// small readability helpers over Kind.
func (v *Value) IsScalar() bool    { return v != nil && v.Kind == KindScalar }
func (v *Value) IsSequence() bool  { return v != nil && v.Kind == KindSequence }
func (v *Value) IsMapping() bool   { return v != nil && v.Kind == KindMapping }
func (v *Value) IsValueList() bool { return v != nil && v.Kind == KindValueList }
func (v *Value) IsReference() bool { return v != nil && v.Kind == KindReference }
func (v *Value) IsTemplate() bool  { return v != nil && v.Kind == KindTemplate }

// ContainsLazy reports whether v or anything nested inside it is still a
// Reference, Template or ValueList (spec §3 invariant, §8 "no residual lazy nodes").
func ContainsLazy(v *Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind {
	case KindReference, KindValueList, KindTemplate:
		return true
	case KindSequence:
		for _, e := range v.Seq {
			if ContainsLazy(e) {
				return true
			}
		}
	case KindMapping:
		for pair := v.Map.First(); pair != nil; pair = pair.Next() {
			if ContainsLazy(pair.Value()) {
				return true
			}
		}
	}
	return false
}

// Clone makes a deep copy of v. Used by the merger/interpolator so that
// shared class documents are never mutated by one node's render.
func Clone(v *Value) *Value {
	if v == nil {
		return nil
	}
	out := &Value{
		Kind:      v.Kind,
		Scalar:    v.Scalar,
		Origin:    v.Origin,
		Overwrite: v.Overwrite,
		Constant:  v.Constant,
		Ref:       v.Ref,       // the parsed AST is immutable once produced
		Fragments: v.Fragments, // same: immutable once parsed
	}
	if v.Seq != nil {
		out.Seq = make([]*Value, len(v.Seq))
		for i, e := range v.Seq {
			out.Seq[i] = Clone(e)
		}
	}
	if v.Map != nil {
		out.Map = NewMapping()
		for pair := v.Map.First(); pair != nil; pair = pair.Next() {
			out.Map.Set(pair.Key(), Clone(pair.Value()))
		}
	}
	if v.List != nil {
		out.List = make([]*Value, len(v.List))
		for i, e := range v.List {
			out.List[i] = Clone(e)
		}
	}
	return out
}

// Equal performs a structural comparison, used by the merger to decide
// whether a constant key is actually being changed (spec §4.6: "and the new
// value differs").
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindScalar:
		return a.Scalar == b.Scalar
	case KindSequence:
		if len(a.Seq) != len(b.Seq) {
			return false
		}
		for i := range a.Seq {
			if !Equal(a.Seq[i], b.Seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if a.Map.Len() != b.Map.Len() {
			return false
		}
		for pair := a.Map.First(); pair != nil; pair = pair.Next() {
			bv, ok := b.Map.Get(pair.Key())
			if !ok || !Equal(pair.Value(), bv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
