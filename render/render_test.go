package render_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reclass-go/reclass/config"
	"github.com/reclass-go/reclass/index"
	"github.com/reclass-go/reclass/render"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
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

func TestNodeRendersMergedInterpolatedParameters(t *testing.T) {
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeFile(t, classesRoot, "base.yml", "parameters:\n  role: web\n  port: 80\n")
	writeFile(t, nodesRoot, "n1.yml", "classes: [base]\nparameters:\n  greeting: \"hello ${role}\"\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	res, err := render.Node(idx, "n1", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"base"}, res.Classes)

	role, _ := res.Parameters.Map.Get("role")
	require.Equal(t, "web", role.Scalar)
	greeting, _ := res.Parameters.Map.Get("greeting")
	require.Equal(t, "hello web", greeting.Scalar)

	reclassMeta, ok := res.Parameters.Map.Get("_reclass_")
	require.True(t, ok)
	envVal, _ := reclassMeta.Map.Get("environment")
	require.Equal(t, "base", envVal.Scalar)
}

func TestNodeAppliesOverwriteMarker(t *testing.T) {
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeFile(t, classesRoot, "base.yml", "parameters:\n  list:\n    - a\n    - b\n")
	writeFile(t, nodesRoot, "n1.yml", "classes: [base]\nparameters:\n  ~list:\n    - c\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	res, err := render.Node(idx, "n1", nil)
	require.NoError(t, err)

	list, _ := res.Parameters.Map.Get("list")
	require.Len(t, list.Seq, 1)
	require.Equal(t, "c", list.Seq[0].Scalar)
}

func TestNodeDedupsApplicationsWithTildeRemoval(t *testing.T) {
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeFile(t, classesRoot, "base.yml", "applications:\n  - common\n  - monitoring\n")
	writeFile(t, nodesRoot, "n1.yml", "classes: [base]\napplications:\n  - common\n  - ~monitoring\n  - extra\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	res, err := render.Node(idx, "n1", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"common", "extra"}, res.Applications)
}

func TestNodeFailsOnMissingReference(t *testing.T) {
	_, classesRoot, nodesRoot := buildIndex(t)
	cfg := config.Default()
	cfg.ClassesPath = classesRoot
	cfg.NodesPath = nodesRoot
	writeFile(t, nodesRoot, "n1.yml", "parameters:\n  broken: \"${nope}\"\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	_, err = render.Node(idx, "n1", nil)
	require.Error(t, err)
}

func TestInventoryRendersAllNodesAndIsolatesFailures(t *testing.T) {
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeFile(t, classesRoot, "base.yml", "parameters:\n  x: 1\n")
	writeFile(t, nodesRoot, "good.yml", "classes: [base]\n")
	writeFile(t, nodesRoot, "bad.yml", "parameters:\n  broken: \"${nope}\"\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	results, err := render.Inventory(idx, render.Options{Workers: 2}, nil)
	require.Error(t, err)
	require.Contains(t, results, "good")
	require.NotContains(t, results, "bad")

	good := results["good"]
	x, _ := good.Parameters.Map.Get("x")
	require.Equal(t, int64(1), x.Scalar)
}

func TestInventoryHonorsWorkerLimit(t *testing.T) {
	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeFile(t, classesRoot, "base.yml", "parameters:\n  x: 1\n")
	for _, n := range []string{"a", "b", "c", "d"} {
		writeFile(t, nodesRoot, n+".yml", "classes: [base]\n")
	}

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	results, err := render.Inventory(idx, render.Options{Workers: 1}, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)
}

func TestSetThreadCountIsUsedWhenOptionsWorkersIsZero(t *testing.T) {
	render.SetThreadCount(3)
	defer render.SetThreadCount(0)

	cfg, classesRoot, nodesRoot := buildIndex(t)
	writeFile(t, classesRoot, "base.yml", "parameters:\n  x: 1\n")
	writeFile(t, nodesRoot, "n1.yml", "classes: [base]\n")

	idx, err := index.Build(cfg)
	require.NoError(t, err)

	results, err := render.Inventory(idx, render.Options{}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
}
