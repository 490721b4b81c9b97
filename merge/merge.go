// Package merge implements the deep-merge algorithm of spec §4.6: folding an
// ordered list of contributing documents (classes, then the node itself)
// into one parameter Mapping, honoring the `~key` overwrite and `=key`
// constant prefixes and deferring any merge that touches an unresolved
// Reference into a ValueList for the interpolator to reduce later (spec
// §4.7 rule 6).
//
// Grounded on the recursive per-path merge shape used across the pack for
// structure-aware YAML merging (compose-go's override.mergeYaml threading a
// tree.Path through a recursive map/slice merge, cloudposse-atmos's
// YAMLMerger), adapted to reclass's tagged Value model and its two key
// prefixes, neither of which a generic deep-merge library (e.g.
// dario.cat/mergo) exposes a hook for — see DESIGN.md.
package merge

import (
	"fmt"

	"github.com/reclass-go/reclass/value"
)

// ConstantViolationError reports an attempt to change a `=key` constant
// (spec error kind ConstantViolation).
type ConstantViolationError struct {
	Key    string
	Origin value.Origin
}

func (e *ConstantViolationError) Error() string {
	return fmt.Sprintf("merge: cannot override constant key %q (defined at %s)", e.Key, e.Origin)
}

// Documents folds an ordered list of per-document parameter Mappings
// (already-parsed class/node `parameters` trees, classes first, node last)
// into the single pre-interpolation Mapping described by spec §4.6's final
// paragraph.
func Documents(docs []*value.Value) (*value.Value, error) {
	if len(docs) == 0 {
		return value.NewMappingValue(nil, value.Origin{}), nil
	}
	acc := value.Clone(docs[0])
	for _, d := range docs[1:] {
		merged, err := Values(acc, d)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

// Values merges rhs into lhs per the per-key rules of spec §4.6, never
// mutating either input, and returns the merged result.
func Values(lhs, rhs *value.Value) (*value.Value, error) {
	if lhs == nil {
		return value.Clone(rhs), nil
	}
	if rhs == nil {
		return value.Clone(lhs), nil
	}

	if lhs.IsMapping() && rhs.IsMapping() {
		return mergeMappings(lhs, rhs)
	}

	return mergeScalarish(lhs, rhs)
}

func mergeMappings(lhs, rhs *value.Value) (*value.Value, error) {
	out := value.NewMapping()

	// lhs keys first, in lhs's insertion order.
	for pair := lhs.Map.First(); pair != nil; pair = pair.Next() {
		key := pair.Key()
		lv := pair.Value()
		if rv, ok := rhs.Map.Get(key); ok {
			merged, err := mergeAtKey(key, lv, rv)
			if err != nil {
				return nil, err
			}
			out.Set(key, merged)
		} else {
			out.Set(key, value.Clone(lv))
		}
	}

	// then new keys contributed by rhs, in rhs's insertion order.
	for pair := rhs.Map.First(); pair != nil; pair = pair.Next() {
		key := pair.Key()
		if _, already := lhs.Map.Get(key); already {
			continue
		}
		out.Set(key, value.Clone(pair.Value()))
	}

	merged := value.NewMappingValue(out, lhs.Origin)
	merged.Constant = lhs.Constant || rhs.Constant
	return merged, nil
}

// mergeAtKey applies the per-key rules of spec §4.6 when both lhs and rhs
// contribute a value at the same key.
func mergeAtKey(key string, lhs, rhs *value.Value) (*value.Value, error) {
	if lhs.Constant && !lhs.IsReference() && !lhs.IsValueList() &&
		!rhs.IsReference() && !rhs.IsValueList() && !value.Equal(lhs, rhs) {
		return nil, &ConstantViolationError{Key: key, Origin: lhs.Origin}
	}

	if rhs.Overwrite {
		out := value.Clone(rhs)
		out.Overwrite = false
		out.Constant = lhs.Constant || rhs.Constant
		return out, nil
	}

	if lhs.IsReference() || lhs.IsValueList() || rhs.IsReference() || rhs.IsValueList() {
		return mergeIntoValueList(lhs, rhs)
	}

	if lhs.IsMapping() && rhs.IsMapping() {
		return mergeMappings(lhs, rhs)
	}

	return mergeScalarish(lhs, rhs)
}

// mergeScalarish applies the non-mapping merge rules: sequences concatenate,
// anything else is last-write-wins. A pair of Mappings never reaches here —
// Values and mergeAtKey send those to mergeMappings first.
func mergeScalarish(lhs, rhs *value.Value) (*value.Value, error) {
	if lhs.IsReference() || lhs.IsValueList() || rhs.IsReference() || rhs.IsValueList() {
		return mergeIntoValueList(lhs, rhs)
	}

	if lhs.IsSequence() && rhs.IsSequence() {
		seq := make([]*value.Value, 0, len(lhs.Seq)+len(rhs.Seq))
		for _, e := range lhs.Seq {
			seq = append(seq, value.Clone(e))
		}
		for _, e := range rhs.Seq {
			seq = append(seq, value.Clone(e))
		}
		out := value.NewSequence(seq, lhs.Origin)
		out.Constant = lhs.Constant || rhs.Constant
		return out, nil
	}

	out := value.Clone(rhs)
	out.Overwrite = false
	out.Constant = lhs.Constant || rhs.Constant
	return out, nil
}

// mergeIntoValueList defers a merge that touches an unresolved Reference
// into a flat ValueList for the interpolator to reduce once values are
// known (spec §3 ValueList, §4.6, §4.7 rule 6).
func mergeIntoValueList(lhs, rhs *value.Value) (*value.Value, error) {
	var items []*value.Value
	if lhs.IsValueList() {
		items = append(items, lhs.List...)
	} else {
		items = append(items, value.Clone(lhs))
	}
	if rhs.IsValueList() {
		items = append(items, rhs.List...)
	} else {
		items = append(items, value.Clone(rhs))
	}
	out := value.NewValueList(items, lhs.Origin)
	out.Constant = lhs.Constant || rhs.Constant
	return out, nil
}

// ReduceValueList reduces a ValueList's contributions left-to-right by
// repeated application of Values, yielding a single concrete Value. Called
// by the interpolator once every item has had its references substituted
// (spec §4.7 rule 6).
func ReduceValueList(vl *value.Value) (*value.Value, error) {
	if !vl.IsValueList() {
		return vl, nil
	}
	if len(vl.List) == 0 {
		return value.NewScalar(nil, vl.Origin), nil
	}
	acc := value.Clone(vl.List[0])
	for _, item := range vl.List[1:] {
		merged, err := Values(acc, item)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	acc.Constant = acc.Constant || vl.Constant
	return acc, nil
}
