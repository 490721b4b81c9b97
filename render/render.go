// Package render implements the per-node orchestration of spec §4.8: expand
// a node's classes, merge them, inject metadata, interpolate, and assemble
// the rendered per-node and whole-inventory outputs. Nodes render in
// parallel; everything inside one node's render is single-threaded (spec
// §5).
//
// Grounded on mchmarny-cloud-native-stack's pkg/bundler/bundle.go, which
// fans a unit of work out across an errgroup with a bounded concurrency
// limit and collects results keyed by name — the same shape spec §4.8 wants
// for "parallel threads at the node level" with a configurable worker count.
package render

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/reclass-go/reclass/diag"
	"github.com/reclass-go/reclass/index"
	"github.com/reclass-go/reclass/interp"
	"github.com/reclass-go/reclass/internal/errutil"
	"github.com/reclass-go/reclass/loader"
	"github.com/reclass-go/reclass/merge"
	"github.com/reclass-go/reclass/value"
	"golang.org/x/sync/errgroup"
)

// NodeResult is one node's rendered output (spec §6 "Rendered output").
type NodeResult struct {
	Name         string
	Classes      []string
	Applications []string
	Parameters   *value.Value
	Exports      *value.Value
	Environment  string
}

// Options configures one render_inventory/render_node call (spec §4.8, §9:
// "prefer a per-render option while keeping the global for compatibility").
type Options struct {
	// Workers caps concurrent node renders; 0 uses the legacy process-wide
	// SetThreadCount value if one was set, and otherwise one worker per
	// logical core.
	Workers int
}

// legacyThreadCount backs the process-wide set_thread_count compatibility
// entry point (spec §6, §9).
var legacyThreadCount int32

// SetThreadCount sets the process-wide default worker count; 0 restores the
// auto (one-per-core) behavior. Superseded by Options.Workers on any call
// that sets it explicitly.
func SetThreadCount(n int) {
	atomic.StoreInt32(&legacyThreadCount, int32(n))
}

func workerCount(opts Options) int {
	if opts.Workers > 0 {
		return opts.Workers
	}
	if n := atomic.LoadInt32(&legacyThreadCount); n > 0 {
		return int(n)
	}
	return runtime.NumCPU()
}

// NodeFailure annotates a per-node error with the node name (spec §7:
// "errors inside a node render are caught by the driver, annotated with the
// node name").
type NodeFailure struct {
	Node string
	Err  error
}

func (f *NodeFailure) Error() string  { return fmt.Sprintf("node %q: %v", f.Node, f.Err) }
func (f *NodeFailure) Unwrap() error  { return f.Err }

// Node renders a single node to completion (spec §4.9 Indexed -> Expanding
// -> Merged -> Interpolating -> Done|Failed).
func Node(idx *index.Index, name string, sink *diag.Sink) (*NodeResult, error) {
	entry, ok := idx.Node(name)
	if !ok {
		return nil, fmt.Errorf("render: node not found: %q", name)
	}

	classDocs, nodeDoc, err := loader.Expand(idx, name, sink)
	if err != nil {
		return nil, err
	}

	docs := make([]*value.Value, 0, len(classDocs)+1)
	classNames := make([]string, 0, len(classDocs))
	for _, d := range classDocs {
		docs = append(docs, d.Parameters)
		classNames = append(classNames, d.Name)
	}
	docs = append(docs, nodeDoc.Parameters)

	merged, err := merge.Documents(docs)
	if err != nil {
		return nil, err
	}

	interp.Inject(merged, interp.Metadata{
		Environment: nodeDoc.Environment,
		Full:        name,
		Parts:       entry.Parts,
	})

	if err := interp.Interpolate(merged); err != nil {
		return nil, err
	}

	exports := value.Clone(nodeDoc.Exports)
	if err := interp.Interpolate(exports); err != nil {
		return nil, err
	}

	return &NodeResult{
		Name:         name,
		Classes:      classNames,
		Applications: dedupApplications(nodeDoc.Applications),
		Parameters:   merged,
		Exports:      exports,
		Environment:  nodeDoc.Environment,
	}, nil
}

// Inventory renders every node the Index knows about in parallel, returning
// results keyed by node name (spec §4.8). Per-node failures do not stop
// other nodes; if any node failed, the aggregate error reports all of them.
func Inventory(idx *index.Index, opts Options, sink *diag.Sink) (map[string]*NodeResult, error) {
	names := idx.NodeNames()

	results := make(map[string]*NodeResult, len(names))
	var mu sync.Mutex
	var failures []error

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(workerCount(opts))

	for _, name := range names {
		name := name
		g.Go(func() error {
			res, err := Node(idx, name, sink)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				annotated := errutil.Mapped(err, func(src error) (error, bool) {
					return &NodeFailure{Node: name, Err: src}, true
				})
				failures = append(failures, errutil.ShallowUnwrap(annotated)...)
				return nil
			}
			results[name] = res
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool {
			return failures[i].(*NodeFailure).Node < failures[j].(*NodeFailure).Node
		})
		return results, errutil.Join(failures...)
	}
	return results, nil
}

// dedupApplications applies spec §6's applications rule: de-duplicated,
// with a `~suffix` entry removing any earlier entry ending in that suffix
// rather than being added itself.
func dedupApplications(raw []string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, e := range raw {
		if strings.HasPrefix(e, "~") {
			suffix := strings.TrimPrefix(e, "~")
			filtered := out[:0]
			for _, o := range out {
				if strings.HasSuffix(o, suffix) {
					delete(seen, o)
					continue
				}
				filtered = append(filtered, o)
			}
			out = filtered
			continue
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
