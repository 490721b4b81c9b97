package interp

import (
	"strings"

	"github.com/reclass-go/reclass/value"
)

// Metadata is the `_reclass_` block injected into a node's merged
// parameters before interpolation (spec §4.7 rule 10).
type Metadata struct {
	Environment string
	Full        string   // node's full dotted/composed name
	Parts       []string // compose_node_name decomposition (spec §3)
}

// Inject adds `_reclass_` to params. `short` is the first name part (the
// conventional hostname-like label); `path` joins the parts with "/" the
// way a node's relative file path would read on disk.
func Inject(params *value.Value, meta Metadata) {
	short := meta.Full
	if len(meta.Parts) > 0 {
		short = meta.Parts[0]
	}

	nameMap := value.NewMapping()
	nameMap.Set("full", value.NewScalar(meta.Full, value.Origin{}))
	nameMap.Set("parts", stringsToSequence(meta.Parts))
	nameMap.Set("path", value.NewScalar(strings.Join(meta.Parts, "/"), value.Origin{}))
	nameMap.Set("short", value.NewScalar(short, value.Origin{}))

	reclassMap := value.NewMapping()
	reclassMap.Set("environment", value.NewScalar(meta.Environment, value.Origin{}))
	reclassMap.Set("name", value.NewMappingValue(nameMap, value.Origin{}))

	params.Map.Set("_reclass_", value.NewMappingValue(reclassMap, value.Origin{}))
}

func stringsToSequence(items []string) *value.Value {
	out := make([]*value.Value, len(items))
	for i, s := range items {
		out[i] = value.NewScalar(s, value.Origin{})
	}
	return value.NewSequence(out, value.Origin{})
}
