// Package index builds the inventory index described in spec §4.3: the
// mapping from class-name and node-name to file location, used by the
// loader to turn a `classes:` entry into a file to read and by the renderer
// to enumerate nodes.
//
// Grounded on the teacher's index.SpecIndex (a precomputed name→location
// table built once and then shared read-only across every consumer) and its
// index/rolodex_file_loader.go local filesystem walk, simplified to
// reclass's two-root, no-remote-lookup model (spec §6). The filesystem walk
// itself is treated as a consumed primitive (spec §1: "the filesystem
// walker ... is consumed") built on stdlib filepath.WalkDir; everything this
// package does with what the walk yields — name derivation, class_mappings,
// duplicate/not-found detection — is in scope.
package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reclass-go/reclass/config"
)

// NodeEntry is what the index knows about one discovered node file.
type NodeEntry struct {
	Name    string   // the rendered node key (spec §3 compose_node_name rule)
	Path    string   // absolute file path
	RelPath string   // file path relative to nodes_path, "/"-separated
	Parts   []string // decomposition used for `_reclass_.name.parts` (spec §4.7 rule 10)
}

// DuplicateNodeError and DuplicateClassError are fatal per spec §4.3.
type DuplicateNodeError struct{ Name, First, Second string }

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("index: duplicate node %q at %q and %q", e.Name, e.First, e.Second)
}

type DuplicateClassError struct{ Name, First, Second string }

func (e *DuplicateClassError) Error() string {
	return fmt.Sprintf("index: duplicate class %q at %q and %q", e.Name, e.First, e.Second)
}

// ClassNotFoundError is fatal unless suppressed by config (spec §4.1,
// §4.3, §7).
type ClassNotFoundError struct{ Name string }

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("index: class not found: %q", e.Name)
}

// Index is the complete, read-only (after Build) name→location table for one
// inventory (spec §5: "the Index is built once, then shared immutably
// across workers").
type Index struct {
	config config.Config

	classFiles map[string]string // dotted class name -> absolute file path
	nodes      map[string]NodeEntry

	mappings []compiledMapping
}

// Build walks cfg.ClassesPath and cfg.NodesPath and constructs the Index.
func Build(cfg config.Config) (*Index, error) {
	idx := &Index{
		config:     cfg,
		classFiles: make(map[string]string),
		nodes:      make(map[string]NodeEntry),
	}

	if err := idx.walkClasses(); err != nil {
		return nil, err
	}
	if err := idx.walkNodes(); err != nil {
		return nil, err
	}
	mappings, err := compileMappings(cfg.ClassMappings)
	if err != nil {
		return nil, err
	}
	idx.mappings = mappings

	return idx, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

func (idx *Index) walkClasses() error {
	root := idx.config.ClassesPath
	return walkYAML(root, func(relPath string, absPath string) error {
		name := classNameFromRelPath(relPath)
		if existing, ok := idx.classFiles[name]; ok {
			return &DuplicateClassError{Name: name, First: existing, Second: absPath}
		}
		idx.classFiles[name] = absPath
		return nil
	})
}

func (idx *Index) walkNodes() error {
	root := idx.config.NodesPath
	return walkYAML(root, func(relPath string, absPath string) error {
		name, parts := nodeNameFromRelPath(relPath, idx.config)
		if existing, ok := idx.nodes[name]; ok {
			return &DuplicateNodeError{Name: name, First: existing.Path, Second: absPath}
		}
		idx.nodes[name] = NodeEntry{Name: name, Path: absPath, RelPath: relPath, Parts: parts}
		return nil
	})
}

// walkYAML walks root (not following symlinks, spec §4.3 "not following
// symlink loops") calling fn for every .yml/.yaml file found, with relPath
// using "/" separators regardless of OS.
func walkYAML(root string, fn func(relPath, absPath string) error) error {
	if root == "" {
		return nil
	}
	info, err := os.Lstat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("index: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("index: %s is not a directory", root)
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !isYAMLFile(p) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), p)
	})
}

func trimYAMLExt(p string) string {
	ext := filepath.Ext(p)
	return strings.TrimSuffix(p, ext)
}

// classNameFromRelPath maps classes/a/b/c.yml -> "a.b.c" (spec §3).
func classNameFromRelPath(relPath string) string {
	trimmed := trimYAMLExt(relPath)
	return strings.ReplaceAll(trimmed, "/", ".")
}

// nodeNameFromRelPath applies the compose_node_name rule of spec §3: without
// compose_node_name, the node key is just the file's base name (dots
// preserved literally, directories ignored); with it, the key is composed
// from the whole relative path, with the default mode preserving literal
// dots in the final segment and ComposeNodeNameLiteralDots splitting every
// dot.
func nodeNameFromRelPath(relPath string, cfg config.Config) (name string, parts []string) {
	trimmed := trimYAMLExt(relPath)
	dir, base := filepath.Split(trimmed)
	dir = strings.TrimSuffix(dir, "/")

	if !cfg.ComposeNodeName {
		return base, []string{base}
	}

	var dirParts []string
	if dir != "" {
		dirParts = strings.Split(dir, "/")
	}

	if cfg.HasCompatFlag(config.ComposeNodeNameLiteralDots) {
		baseParts := strings.Split(base, ".")
		parts = append(append([]string{}, dirParts...), baseParts...)
	} else {
		parts = append(append([]string{}, dirParts...), base)
	}
	return strings.Join(parts, "."), parts
}

// ClassFile returns the absolute file path for a fully-resolved class name.
func (idx *Index) ClassFile(name string) (string, bool) {
	f, ok := idx.classFiles[name]
	return f, ok
}

// ResolveClass resolves a class name referenced from within includingClass
// (itself a dotted class name, "" for a node's own `classes:` list) by
// trying, in order: relative to the including class's directory, then
// absolute from classes_path (spec §4.3 rule 3).
func (idx *Index) ResolveClass(includingClass, name string) (resolvedName, file string, err error) {
	if includingClass != "" {
		if i := strings.LastIndex(includingClass, "."); i >= 0 {
			candidate := includingClass[:i+1] + name
			if f, ok := idx.classFiles[candidate]; ok {
				return candidate, f, nil
			}
		}
	}
	if f, ok := idx.classFiles[name]; ok {
		return name, f, nil
	}
	return "", "", &ClassNotFoundError{Name: name}
}

// Node looks up a discovered node by its rendered name.
func (idx *Index) Node(name string) (NodeEntry, bool) {
	n, ok := idx.nodes[name]
	return n, ok
}

// NodeNames returns every discovered node name, sorted (spec §5: "output
// mapping ... must be returned in sorted key order").
func (idx *Index) NodeNames() []string {
	names := make([]string, 0, len(idx.nodes))
	for n := range idx.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IgnoreClassNotFound reports whether a missing class named name should be
// silently skipped, honoring ignore_class_notfound_regexp when set (spec
// §4.1).
func (idx *Index) IgnoreClassNotFound(name string) (bool, error) {
	if !idx.config.IgnoreClassNotfound {
		return false, nil
	}
	if len(idx.config.IgnoreClassNotfoundRegexp) == 0 {
		return true, nil
	}
	for _, pattern := range idx.config.IgnoreClassNotfoundRegexp {
		matched, err := matchPattern(pattern, name)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// ExtraClassesFor returns the class_mappings-contributed classes that should
// be prepended to nodeName's class list (spec §4.1, §4.3 rule 4).
func (idx *Index) ExtraClassesFor(nodeName, nodeRelPath string) ([]string, error) {
	target := nodeName
	if idx.config.ClassMappingsMatchPath {
		target = nodeRelPath
	}

	var out []string
	for _, m := range idx.mappings {
		classes, matched, err := m.resolve(target)
		if err != nil {
			return nil, fmt.Errorf("index: class_mappings pattern %q: %w", m.source, err)
		}
		if matched {
			out = append(out, classes...)
		}
	}
	return out, nil
}
