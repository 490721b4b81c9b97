package yamlconv_test

import (
	"testing"

	"github.com/reclass-go/reclass/value"
	"github.com/reclass-go/reclass/yamlconv"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func parse(t *testing.T, doc string) *value.Value {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))
	v, err := yamlconv.ToValue("t.yml", node.Content[0])
	require.NoError(t, err)
	return v
}

func TestOverwritePrefixStripped(t *testing.T) {
	v := parse(t, "~k: 1\n")
	got, ok := v.Map.Get("k")
	require.True(t, ok)
	require.True(t, got.Overwrite)
	require.Equal(t, int64(1), got.Scalar)
}

func TestConstantPrefixStripped(t *testing.T) {
	v := parse(t, "=k: 1\n")
	got, ok := v.Map.Get("k")
	require.True(t, ok)
	require.True(t, got.Constant)
}

func TestWholeStringReferenceBecomesReferenceKind(t *testing.T) {
	v := parse(t, "k: \"${a}\"\n")
	got, _ := v.Map.Get("k")
	require.True(t, got.IsReference())
}

func TestEmbeddedReferenceBecomesTemplate(t *testing.T) {
	v := parse(t, "k: \"v${a}\"\n")
	got, _ := v.Map.Get("k")
	require.True(t, got.IsTemplate())
}

func TestPlainStringStaysScalar(t *testing.T) {
	v := parse(t, "k: hello\n")
	got, _ := v.Map.Get("k")
	require.True(t, got.IsScalar())
	require.Equal(t, "hello", got.Scalar)
}

func TestParseFlowValueScalar(t *testing.T) {
	v, err := yamlconv.ParseFlowValue("jsonnet", value.Origin{})
	require.NoError(t, err)
	require.Equal(t, "jsonnet", v.Scalar)
}

func TestParseFlowValueMapping(t *testing.T) {
	v, err := yamlconv.ParseFlowValue("{a: 1, b: 2}", value.Origin{})
	require.NoError(t, err)
	require.True(t, v.IsMapping())
	a, _ := v.Map.Get("a")
	require.Equal(t, int64(1), a.Scalar)
}
