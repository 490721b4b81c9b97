// Package config holds the recognized reclass options and compatibility
// flags (spec §4.1). A Config may be supplied programmatically, read from a
// reclass-config.yml at the inventory root, or both — programmatic values
// override file values field-by-field, the same precedence the teacher's
// index.SpecIndexConfig gives explicit args over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CompatFlag is an opt-in compatibility toggle (spec §4.1 compat_flags).
type CompatFlag string

const (
	// ComposeNodeNameLiteralDots splits every dot in a node's relative file
	// path into its own name-part, instead of preserving the literal dots in
	// the file's final segment (spec §3 invariant, §8 scenario 7).
	ComposeNodeNameLiteralDots CompatFlag = "compose_node_name_literal_dots"
)

// ClassMapping is one ordered (pattern, extra-classes) rule from
// class_mappings (spec §4.1, §4.3).
type ClassMapping struct {
	Pattern      string   `yaml:"pattern"`
	ExtraClasses []string `yaml:"classes"`
}

// Config is the full set of recognized reclass options (spec §4.1).
type Config struct {
	NodesPath   string `yaml:"nodes_path"`
	ClassesPath string `yaml:"classes_path"`

	IgnoreClassNotfound       bool     `yaml:"ignore_class_notfound"`
	IgnoreClassNotfoundRegexp []string `yaml:"ignore_class_notfound_regexp"`

	ComposeNodeName bool `yaml:"compose_node_name"`

	ClassMappings           []ClassMapping `yaml:"class_mappings"`
	ClassMappingsMatchPath  bool           `yaml:"class_mappings_match_path"`

	// AllowNoneOverride is fixed true; setting it false is unsupported
	// (Non-goal, spec §1). The field exists only so a reclass-config.yml
	// that sets it false fails loudly instead of silently doing nothing.
	AllowNoneOverride bool `yaml:"allow_none_override"`

	VerboseWarnings bool `yaml:"verbose_warnings"`

	CompatFlags []CompatFlag `yaml:"compat_flags"`
}

// Default returns a Config with every documented default applied.
func Default() Config {
	return Config{
		AllowNoneOverride: true,
	}
}

// HasCompatFlag reports whether flag is set.
func (c Config) HasCompatFlag(flag CompatFlag) bool {
	for _, f := range c.CompatFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Validate rejects option combinations the engine cannot honor.
func (c Config) Validate() error {
	if !c.AllowNoneOverride {
		return fmt.Errorf("config: allow_none_override=false is not supported")
	}
	if c.NodesPath == "" {
		return fmt.Errorf("config: nodes_path is required")
	}
	if c.ClassesPath == "" {
		return fmt.Errorf("config: classes_path is required")
	}
	return nil
}

// fileConfig mirrors Config's YAML shape but leaves every field a pointer so
// LoadFile can tell "absent from the file" apart from "explicitly zero value".
type fileConfig struct {
	NodesPath                 *string        `yaml:"nodes_path"`
	ClassesPath                *string        `yaml:"classes_path"`
	IgnoreClassNotfound        *bool          `yaml:"ignore_class_notfound"`
	IgnoreClassNotfoundRegexp []string        `yaml:"ignore_class_notfound_regexp"`
	ComposeNodeName            *bool          `yaml:"compose_node_name"`
	ClassMappings              []ClassMapping `yaml:"class_mappings"`
	ClassMappingsMatchPath     *bool          `yaml:"class_mappings_match_path"`
	AllowNoneOverride          *bool          `yaml:"allow_none_override"`
	VerboseWarnings            *bool          `yaml:"verbose_warnings"`
	CompatFlags                []CompatFlag   `yaml:"compat_flags"`
}

// LoadFile reads reclass-config.yml from inventoryRoot, if present, and
// overlays it onto base. A missing file is not an error: base is returned
// unchanged.
func LoadFile(inventoryRoot string, base Config) (Config, error) {
	p := filepath.Join(inventoryRoot, "reclass-config.yml")
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("config: reading %s: %w", p, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return base, fmt.Errorf("config: parsing %s: %w", p, err)
	}

	merged := base
	if fc.NodesPath != nil {
		merged.NodesPath = *fc.NodesPath
	}
	if fc.ClassesPath != nil {
		merged.ClassesPath = *fc.ClassesPath
	}
	if fc.IgnoreClassNotfound != nil {
		merged.IgnoreClassNotfound = *fc.IgnoreClassNotfound
	}
	if fc.IgnoreClassNotfoundRegexp != nil {
		merged.IgnoreClassNotfoundRegexp = fc.IgnoreClassNotfoundRegexp
	}
	if fc.ComposeNodeName != nil {
		merged.ComposeNodeName = *fc.ComposeNodeName
	}
	if fc.ClassMappings != nil {
		merged.ClassMappings = fc.ClassMappings
	}
	if fc.ClassMappingsMatchPath != nil {
		merged.ClassMappingsMatchPath = *fc.ClassMappingsMatchPath
	}
	if fc.AllowNoneOverride != nil {
		merged.AllowNoneOverride = *fc.AllowNoneOverride
	}
	if fc.VerboseWarnings != nil {
		merged.VerboseWarnings = *fc.VerboseWarnings
	}
	if fc.CompatFlags != nil {
		merged.CompatFlags = fc.CompatFlags
	}

	return merged, nil
}

// Overlay applies the non-zero fields of override, other than
// AllowNoneOverride (which is never taken from override), onto base, giving
// programmatic Config values precedence over whatever LoadFile produced
// (spec §4.1: "programmatic values override file values").
func Overlay(base, override Config) Config {
	merged := base
	if override.NodesPath != "" {
		merged.NodesPath = override.NodesPath
	}
	if override.ClassesPath != "" {
		merged.ClassesPath = override.ClassesPath
	}
	if override.IgnoreClassNotfound {
		merged.IgnoreClassNotfound = true
	}
	if len(override.IgnoreClassNotfoundRegexp) > 0 {
		merged.IgnoreClassNotfoundRegexp = override.IgnoreClassNotfoundRegexp
	}
	if override.ComposeNodeName {
		merged.ComposeNodeName = true
	}
	if len(override.ClassMappings) > 0 {
		merged.ClassMappings = override.ClassMappings
	}
	if override.ClassMappingsMatchPath {
		merged.ClassMappingsMatchPath = true
	}
	if override.VerboseWarnings {
		merged.VerboseWarnings = true
	}
	if len(override.CompatFlags) > 0 {
		merged.CompatFlags = override.CompatFlags
	}
	return merged
}
