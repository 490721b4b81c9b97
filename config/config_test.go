package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reclass-go/reclass/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultAllowsOverride(t *testing.T) {
	require.True(t, config.Default().AllowNoneOverride)
}

func TestValidateRejectsAllowNoneOverrideFalse(t *testing.T) {
	c := config.Default()
	c.AllowNoneOverride = false
	c.NodesPath = "nodes"
	c.ClassesPath = "classes"
	require.Error(t, c.Validate())
}

func TestValidateRequiresPaths(t *testing.T) {
	require.Error(t, config.Default().Validate())
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	base := config.Default()
	base.NodesPath = "nodes"

	loaded, err := config.LoadFile(dir, base)
	require.NoError(t, err)
	require.Equal(t, base, loaded)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	contents := `
ignore_class_notfound: true
compose_node_name: true
compat_flags: [compose_node_name_literal_dots]
class_mappings:
  - pattern: "^web-"
    classes: ["role.web"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reclass-config.yml"), []byte(contents), 0o644))

	loaded, err := config.LoadFile(dir, config.Default())
	require.NoError(t, err)
	require.True(t, loaded.IgnoreClassNotfound)
	require.True(t, loaded.ComposeNodeName)
	require.True(t, loaded.HasCompatFlag(config.ComposeNodeNameLiteralDots))
	require.Equal(t, []config.ClassMapping{{Pattern: "^web-", ExtraClasses: []string{"role.web"}}}, loaded.ClassMappings)
}

func TestOverlayProgrammaticWinsOverFile(t *testing.T) {
	fromFile := config.Default()
	fromFile.NodesPath = "file-nodes"
	fromFile.VerboseWarnings = false

	programmatic := config.Config{NodesPath: "explicit-nodes", VerboseWarnings: true}

	merged := config.Overlay(fromFile, programmatic)
	require.Equal(t, "explicit-nodes", merged.NodesPath)
	require.True(t, merged.VerboseWarnings)
}
