package interp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reclass-go/reclass/path"
	"github.com/reclass-go/reclass/refparser"
	"github.com/reclass-go/reclass/value"
	"github.com/reclass-go/reclass/yamlconv"
)

// resolveReference resolves one parsed reference against lookup, per spec
// §4.7 rules 2-4 and 7. ok=false means "cannot make progress yet" (some
// dependency is Pending), not an error.
func resolveReference(ref *refparser.Reference, lookup Lookup, trail []string) (*value.Value, bool, error) {
	for _, seen := range trail {
		if seen == ref.Source {
			return nil, false, &ReferenceCycleError{Remaining: append(append([]string{}, trail...), ref.Source)}
		}
	}
	trail = append(trail, ref.Source)

	pathStr, resolved, err := resolveFragmentsToString(ref.Path, lookup, trail)
	if err != nil {
		return nil, false, err
	}
	if !resolved {
		return nil, false, nil
	}

	p := path.Parse(pathStr)
	v, state := lookup(p)
	switch state {
	case Resolved:
		return value.Clone(v), true, nil

	case Pending:
		return nil, false, nil

	default: // Absent
		if !ref.HasDefault {
			return nil, false, &ReferenceMissingError{Path: p, Source: ref.Source}
		}
		defStr, defResolved, err := resolveFragmentsToString(ref.Default, lookup, trail)
		if err != nil {
			return nil, false, err
		}
		if !defResolved {
			return nil, false, nil
		}
		dv, err := yamlconv.ParseFlowValue(defStr, value.Origin{})
		if err != nil {
			return nil, false, &ParseError{Source: ref.Source, Reason: err.Error()}
		}
		return dv, true, nil
	}
}

// resolveFragmentsToString concatenates frags into a string, resolving any
// nested references to their scalar string form first (spec §4.7 rule 2).
// It is used both for a reference's path text and its default text.
func resolveFragmentsToString(frags []refparser.Fragment, lookup Lookup, trail []string) (string, bool, error) {
	var sb strings.Builder
	for _, f := range frags {
		switch fr := f.(type) {
		case refparser.Literal:
			sb.WriteString(string(fr))

		case *refparser.Reference:
			v, ok, err := resolveReference(fr, lookup, trail)
			if err != nil {
				return "", false, err
			}
			if !ok {
				return "", false, nil
			}
			if !v.IsScalar() {
				return "", false, &TypeMismatchError{
					Source: fr.Source,
					Reason: "reference embedded in another reference's path/default must resolve to a scalar",
				}
			}
			sb.WriteString(scalarString(v.Scalar))

		default:
			return "", false, fmt.Errorf("interp: unknown fragment type %T", f)
		}
	}
	return sb.String(), true, nil
}

// scalarString renders a scalar Go value in its canonical string form for
// concatenation into literal text (spec §4.7 rule 5, second bullet).
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ResolveClassNameExpr resolves a `classes:` entry that may contain
// "${...}" (spec §4.4) against lookup, returning the resolved class name.
// ok=false means lookup cannot make progress yet, and the expander should
// suspend this entry and retry once more includes have landed (spec §4.4,
// §9's PartialInventory contract).
func ResolveClassNameExpr(raw string, lookup Lookup) (string, bool, error) {
	frags, err := refparser.Parse(raw)
	if err != nil {
		return "", false, &ParseError{Source: raw, Reason: err.Error()}
	}
	return resolveFragmentsToString(frags, lookup, nil)
}

// resolveTemplate attempts to resolve every fragment of a Template value and,
// if all succeed, returns the concatenated literal scalar (spec §4.7 rule 5,
// second bullet: embedded references must resolve to scalars).
func resolveTemplate(v *value.Value, lookup Lookup) (*value.Value, bool, error) {
	s, ok, err := resolveFragmentsToString(v.Fragments, lookup, nil)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return value.NewScalar(s, v.Origin), true, nil
}
