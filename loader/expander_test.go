package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reclass-go/reclass/config"
	"github.com/reclass-go/reclass/index"
	"github.com/reclass-go/reclass/loader"
	"github.com/stretchr/testify/require"
)

func writeInventoryFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func buildIndex(t *testing.T) (config.Config, string, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.ClassesPath = filepath.Join(root, "classes")
	cfg.NodesPath = filepath.Join(root, "nodes")
	return cfg, cfg.ClassesPath, cfg.NodesPath
}

func TestExpandBasicIncludeOrder(t *testing.T) {
	// spec §8 scenario 1
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeInventoryFile(t, classesRoot, "a.yml", "parameters:\n  x: 1\n")
	writeInventoryFile(t, classesRoot, "b.yml", "classes: [a]\nparameters:\n  y: 2\n")
	writeInventoryFile(t, nodesRoot, "n.yml", "classes: [b]\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	classDocs, nodeDoc, err := loader.Expand(idx, "n", nil)
	require.NoError(t, err)
	require.Len(t, classDocs, 2)
	require.Equal(t, filepath.Join(classesRoot, "a.yml"), classDocs[0].File)
	require.Equal(t, filepath.Join(classesRoot, "b.yml"), classDocs[1].File)
	require.NotNil(t, nodeDoc)
}

func TestExpandDeduplicatesDiamond(t *testing.T) {
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeInventoryFile(t, classesRoot, "base.yml", "parameters:\n  x: 1\n")
	writeInventoryFile(t, classesRoot, "a.yml", "classes: [base]\n")
	writeInventoryFile(t, classesRoot, "b.yml", "classes: [base]\n")
	writeInventoryFile(t, nodesRoot, "n.yml", "classes: [a, b]\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	classDocs, _, err := loader.Expand(idx, "n", nil)
	require.NoError(t, err)
	require.Len(t, classDocs, 3) // base, a, b - base only once
}

func TestExpandDetectsClassCycle(t *testing.T) {
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeInventoryFile(t, classesRoot, "a.yml", "classes: [b]\n")
	writeInventoryFile(t, classesRoot, "b.yml", "classes: [a]\n")
	writeInventoryFile(t, nodesRoot, "n.yml", "classes: [a]\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	_, _, err = loader.Expand(idx, "n", nil)
	require.Error(t, err)
	var cyc *loader.ClassCycleError
	require.ErrorAs(t, err, &cyc)
}

func TestExpandReferenceInClassName(t *testing.T) {
	// spec §8 scenario 6
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeInventoryFile(t, classesRoot, "a.yml", "parameters:\n  ok: true\n")
	writeInventoryFile(t, nodesRoot, "n.yml", "classes: [\"${variant}\"]\nparameters:\n  variant: a\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	classDocs, _, err := loader.Expand(idx, "n", nil)
	require.NoError(t, err)
	require.Len(t, classDocs, 1)
	require.Equal(t, filepath.Join(classesRoot, "a.yml"), classDocs[0].File)
}

func TestExpandClassNotFoundFails(t *testing.T) {
	cfg, _, nodesRoot := buildIndex(t)
	writeInventoryFile(t, nodesRoot, "n.yml", "classes: [missing]\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	_, _, err = loader.Expand(idx, "n", nil)
	require.Error(t, err)
}

func TestExpandIgnoresMissingClassWhenConfigured(t *testing.T) {
	cfg, _, nodesRoot := buildIndex(t)
	cfg.IgnoreClassNotfound = true
	writeInventoryFile(t, nodesRoot, "n.yml", "classes: [missing]\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	classDocs, _, err := loader.Expand(idx, "n", nil)
	require.NoError(t, err)
	require.Empty(t, classDocs)
}
