// Package reclass implements a hierarchical YAML configuration engine:
// nodes inherit parameters from an ordered list of classes, documents merge
// deeply with `~key`/`=key` override markers, and `${path:to:value}`
// references interpolate to a fixed point (spec §1, §2).
package reclass

import (
	"log/slog"
	"path/filepath"

	"github.com/reclass-go/reclass/config"
	"github.com/reclass-go/reclass/diag"
	"github.com/reclass-go/reclass/index"
	"github.com/reclass-go/reclass/render"
)

// Reclass is the embedding interface of spec §6: new(nodes_path,
// classes_path, config), render_inventory(), render_node(name),
// set_thread_count(n).
type Reclass struct {
	idx  *index.Index
	sink *diag.Sink
}

// New builds the Inventory Index for the given roots and config (spec
// §4.1, §4.3). cfg.NodesPath/ClassesPath are overridden by nodesPath and
// classesPath when those are non-empty, matching the teacher's pattern of
// explicit constructor args taking precedence over a config struct's
// corresponding fields.
func New(nodesPath, classesPath string, cfg config.Config, logger *slog.Logger) (*Reclass, error) {
	merged, err := config.LoadFile(inventoryRoot(nodesPath, classesPath), config.Default())
	if err != nil {
		return nil, err
	}
	merged = config.Overlay(merged, cfg)
	merged = config.Overlay(merged, config.Config{NodesPath: nodesPath, ClassesPath: classesPath})
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	idx, err := index.Build(merged)
	if err != nil {
		return nil, err
	}

	return &Reclass{idx: idx, sink: diag.NewSink(logger)}, nil
}

// inventoryRoot guesses the inventory root (parent of nodes_path/classes_path)
// reclass-config.yml lives at, per spec §6: "A reclass-config.yml at the
// inventory root may declare options."
func inventoryRoot(nodesPath, classesPath string) string {
	if nodesPath != "" {
		return filepath.Dir(nodesPath)
	}
	return filepath.Dir(classesPath)
}

// RenderInventory renders every discovered node (spec §4.8).
func (r *Reclass) RenderInventory(opts render.Options) (map[string]*render.NodeResult, error) {
	return render.Inventory(r.idx, opts, r.sink)
}

// RenderNode renders a single node by name (spec §4.8).
func (r *Reclass) RenderNode(name string) (*render.NodeResult, error) {
	return render.Node(r.idx, name, r.sink)
}

// SetThreadCount is the legacy process-wide worker count override (spec §6,
// §9). 0 restores automatic (one-per-core) sizing.
func (r *Reclass) SetThreadCount(n int) {
	render.SetThreadCount(n)
}

// Warnings returns every warning raised so far by this Reclass's renders
// (spec §7's diagnostic sink).
func (r *Reclass) Warnings() []diag.Warning {
	return r.sink.Warnings()
}
