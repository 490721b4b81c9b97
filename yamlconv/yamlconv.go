// Package yamlconv converts decoded *yaml.Node trees into value.Value trees
// (spec §3), shared by loader (whole class/node documents) and interp
// (single flow-value defaults, spec §4.7 rule 4).
//
// Grounded on the teacher's practice of walking *yaml.Node directly
// (index/rolodex_file_loader.go) instead of unmarshaling into fixed Go
// structs, since reclass documents carry dynamic `~key`/`=key` prefixes a
// struct tag can't express.
package yamlconv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reclass-go/reclass/refparser"
	"github.com/reclass-go/reclass/value"
	"gopkg.in/yaml.v3"
)

// ConvertError reports a YAML shape yamlconv cannot represent as a Value.
type ConvertError struct {
	File   string
	Line   int
	Reason string
}

func (e *ConvertError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("yamlconv: %s:%d: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("yamlconv: %s: %s", e.File, e.Reason)
}

// ToValue converts node (as decoded by gopkg.in/yaml.v3) into a *value.Value
// tree, splitting `~key`/`=key` prefixes off mapping keys and tokenizing
// string scalars for embedded references (spec §4.5).
func ToValue(file string, node *yaml.Node) (*value.Value, error) {
	origin := value.Origin{File: file, Line: node.Line}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return value.NewMappingValue(nil, origin), nil
		}
		return ToValue(file, node.Content[0])

	case yaml.AliasNode:
		return ToValue(file, node.Alias)

	case yaml.ScalarNode:
		return scalarToValue(file, node)

	case yaml.SequenceNode:
		items := make([]*value.Value, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := ToValue(file, c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return value.NewSequence(items, origin), nil

	case yaml.MappingNode:
		m := value.NewMapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]

			key, overwrite, constant := stripKeyPrefix(keyNode.Value)

			v, err := ToValue(file, valNode)
			if err != nil {
				return nil, err
			}
			v.Overwrite = overwrite
			v.Constant = constant
			m.Set(key, v)
		}
		return value.NewMappingValue(m, origin), nil

	default:
		return nil, &ConvertError{File: file, Line: node.Line, Reason: fmt.Sprintf("unsupported YAML node kind %d", node.Kind)}
	}
}

// StripKeyPrefix splits reclass's `~` (overwrite) and `=` (constant) key
// prefixes off, per spec §4.6: "Prefixes are stripped before storage."
func StripKeyPrefix(raw string) (key string, overwrite, constant bool) {
	return stripKeyPrefix(raw)
}

func stripKeyPrefix(raw string) (key string, overwrite, constant bool) {
	if strings.HasPrefix(raw, "~") {
		return strings.TrimPrefix(raw, "~"), true, false
	}
	if strings.HasPrefix(raw, "=") {
		return strings.TrimPrefix(raw, "="), false, true
	}
	return raw, false, false
}

func scalarToValue(file string, node *yaml.Node) (*value.Value, error) {
	origin := value.Origin{File: file, Line: node.Line}

	switch node.Tag {
	case "!!str":
		return stringToValue(node.Value, origin)
	case "!!null":
		return value.NewScalar(nil, origin), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, &ConvertError{File: file, Line: node.Line, Reason: err.Error()}
		}
		return value.NewScalar(b, origin), nil
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			var f float64
			if derr := node.Decode(&f); derr == nil {
				return value.NewScalar(f, origin), nil
			}
			return nil, &ConvertError{File: file, Line: node.Line, Reason: err.Error()}
		}
		return value.NewScalar(n, origin), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, &ConvertError{File: file, Line: node.Line, Reason: err.Error()}
		}
		return value.NewScalar(f, origin), nil
	case "!!timestamp":
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return nil, &ConvertError{File: file, Line: node.Line, Reason: err.Error()}
		}
		return value.NewScalar(t, origin), nil
	default:
		return stringToValue(node.Value, origin)
	}
}

// stringToValue tokenizes s into literal/reference fragments (spec §4.5)
// and picks the narrowest Value representation: a plain scalar for
// literal-only text, a bare Reference when the whole string is one `${...}`,
// or a Template for literal text with embedded references.
func stringToValue(s string, origin value.Origin) (*value.Value, error) {
	frags, err := refparser.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("yamlconv: %s: %w", origin, err)
	}
	if len(frags) == 0 {
		return value.NewScalar("", origin), nil
	}
	if len(frags) == 1 {
		switch f := frags[0].(type) {
		case refparser.Literal:
			return value.NewScalar(string(f), origin), nil
		case *refparser.Reference:
			return value.NewReference(f, origin), nil
		}
	}
	return value.NewTemplate(frags, origin), nil
}

// ParseFlowValue parses s (a reference default tail, spec §4.7 rule 4) as a
// standalone YAML flow scalar/collection and converts it to a Value. s is
// not tokenized for references: by the time a default string reaches here,
// every nested reference inside it has already been resolved and
// substituted (spec §4.7 rule 4).
func ParseFlowValue(s string, origin value.Origin) (*value.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return nil, &ConvertError{File: origin.File, Line: origin.Line, Reason: fmt.Sprintf("malformed default value %q: %v", s, err)}
	}
	if len(node.Content) == 0 {
		return value.NewScalar(s, origin), nil
	}
	return flowNodeToValue(origin, node.Content[0])
}

// flowNodeToValue mirrors ToValue but treats string scalars as already
// fully literal (a resolved default never re-enters reference parsing).
func flowNodeToValue(origin value.Origin, node *yaml.Node) (*value.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" {
			return value.NewScalar(node.Value, origin), nil
		}
		return scalarToValue(origin.File, node)
	case yaml.SequenceNode:
		items := make([]*value.Value, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := flowNodeToValue(origin, c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return value.NewSequence(items, origin), nil
	case yaml.MappingNode:
		m := value.NewMapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, _, _ := stripKeyPrefix(node.Content[i].Value)
			v, err := flowNodeToValue(origin, node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return value.NewMappingValue(m, origin), nil
	default:
		return nil, &ConvertError{File: origin.File, Line: origin.Line, Reason: fmt.Sprintf("unsupported default value shape (kind %d)", node.Kind)}
	}
}
