// Package loader reads class/node YAML documents into value.Value trees and
// expands a node's `classes` list into the ordered, de-duplicated document
// chain the merger consumes (spec §4.4).
package loader

import (
	"fmt"
	"os"

	"github.com/reclass-go/reclass/diag"
	"github.com/reclass-go/reclass/value"
	"github.com/reclass-go/reclass/yamlconv"
	"gopkg.in/yaml.v3"
)

// Document is one decoded class or node file (spec §3 Class/Node).
type Document struct {
	File string
	Name string // resolved dotted class name; empty for a node's own document

	Classes      []string // raw entries, may still contain "${...}" (spec §4.4)
	Parameters   *value.Value
	Applications []string     // node only
	Exports      *value.Value // node only
	Environment  string       // node only, default "base"
}

var nodeOnlyKeys = map[string]bool{"applications": true, "exports": true, "environment": true}

// ParseError reports malformed YAML or an unexpected top-level shape.
type ParseError struct {
	File   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("loader: %s: %s", e.File, e.Reason)
}

// Load reads and decodes the document at path. isNode enables the node-only
// top-level keys (spec §6).
func Load(path string, isNode bool, sink *diag.Sink) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{File: path, Reason: err.Error()}
	}

	doc := &Document{File: path, Environment: "base"}
	if len(root.Content) == 0 {
		doc.Parameters = value.NewMappingValue(nil, value.Origin{File: path})
		return doc, nil
	}

	top := root.Content[0]
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		doc.Parameters = value.NewMappingValue(nil, value.Origin{File: path})
		return doc, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, &ParseError{File: path, Reason: "top-level document must be a mapping"}
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode := top.Content[i]
		valNode := top.Content[i+1]
		key := keyNode.Value

		switch key {
		case "classes":
			classes, err := decodeStringSequence(path, valNode)
			if err != nil {
				return nil, err
			}
			doc.Classes = classes
		case "parameters":
			params, err := yamlconv.ToValue(path, valNode)
			if err != nil {
				return nil, err
			}
			if !params.IsMapping() {
				return nil, &ParseError{File: path, Reason: "parameters must be a mapping"}
			}
			doc.Parameters = params
		case "applications":
			if !isNode {
				warnUnknownKey(sink, path, key)
				continue
			}
			apps, err := decodeStringSequence(path, valNode)
			if err != nil {
				return nil, err
			}
			doc.Applications = apps
		case "exports":
			if !isNode {
				warnUnknownKey(sink, path, key)
				continue
			}
			exports, err := yamlconv.ToValue(path, valNode)
			if err != nil {
				return nil, err
			}
			doc.Exports = exports
		case "environment":
			if !isNode {
				warnUnknownKey(sink, path, key)
				continue
			}
			var env string
			if err := valNode.Decode(&env); err != nil {
				return nil, &ParseError{File: path, Reason: "environment must be a string"}
			}
			doc.Environment = env
		default:
			warnUnknownKey(sink, path, key)
		}
	}

	if doc.Parameters == nil {
		doc.Parameters = value.NewMappingValue(nil, value.Origin{File: path})
	}
	if isNode && doc.Exports == nil {
		doc.Exports = value.NewMappingValue(nil, value.Origin{File: path})
	}
	return doc, nil
}

func warnUnknownKey(sink *diag.Sink, path, key string) {
	if sink == nil || nodeOnlyKeys[key] {
		return
	}
	sink.Warn(diag.Warning{
		Class:   path,
		Path:    key,
		Message: fmt.Sprintf("unknown top-level key %q ignored", key),
	})
}

func decodeStringSequence(path string, node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{File: path, Reason: "expected a sequence of strings"}
	}
	out := make([]string, 0, len(node.Content))
	for _, c := range node.Content {
		var s string
		if err := c.Decode(&s); err != nil {
			return nil, &ParseError{File: path, Reason: "expected a sequence of strings"}
		}
		out = append(out, s)
	}
	return out, nil
}
