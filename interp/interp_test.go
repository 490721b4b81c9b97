package interp_test

import (
	"testing"

	"github.com/reclass-go/reclass/interp"
	"github.com/reclass-go/reclass/refparser"
	"github.com/reclass-go/reclass/value"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) []refparser.Fragment {
	t.Helper()
	f, err := refparser.Parse(s)
	require.NoError(t, err)
	return f
}

func scalarField(t *testing.T, s string) *value.Value {
	t.Helper()
	frags := mustParse(t, s)
	if len(frags) == 1 {
		if lit, ok := frags[0].(refparser.Literal); ok {
			return value.NewScalar(string(lit), value.Origin{})
		}
		if ref, ok := frags[0].(*refparser.Reference); ok {
			return value.NewReference(ref, value.Origin{})
		}
	}
	return value.NewTemplate(frags, value.Origin{})
}

func mapping(pairs ...interface{}) *value.Value {
	m := value.NewMapping()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(*value.Value))
	}
	return value.NewMappingValue(m, value.Origin{})
}

func TestInterpolateNestedReference(t *testing.T) {
	// spec §8 scenario 2
	root := mapping(
		"a", value.NewScalar(int64(1), value.Origin{}),
		"b", scalarField(t, "${a}"),
		"c", scalarField(t, "v${b}"),
	)
	require.NoError(t, interp.Interpolate(root))

	b, _ := root.Map.Get("b")
	require.Equal(t, int64(1), b.Scalar)
	c, _ := root.Map.Get("c")
	require.Equal(t, "v1", c.Scalar)
}

func TestInterpolateDefaultWithNestedReference(t *testing.T) {
	// spec §8 scenario 3
	cfg := mapping("helm", value.NewScalar("H", value.Origin{}), "jsonnet", value.NewScalar("J", value.Origin{}))
	root := mapping(
		"method", value.NewScalar("helm", value.Origin{}),
		"pick", scalarField(t, "${cfg:${method::jsonnet}}"),
		"cfg", cfg,
	)
	require.NoError(t, interp.Interpolate(root))
	pick, _ := root.Map.Get("pick")
	require.Equal(t, "H", pick.Scalar)
}

func TestInterpolateDefaultFallsBackWhenMethodMissing(t *testing.T) {
	cfg := mapping("helm", value.NewScalar("H", value.Origin{}), "jsonnet", value.NewScalar("J", value.Origin{}))
	root := mapping(
		"pick", scalarField(t, "${cfg:${method::jsonnet}}"),
		"cfg", cfg,
	)
	require.NoError(t, interp.Interpolate(root))
	pick, _ := root.Map.Get("pick")
	require.Equal(t, "J", pick.Scalar)
}

func TestInterpolateMissingReferenceIsHardErrorEvenWithOuterDefault(t *testing.T) {
	// Open question resolution (spec §9): a missing *nested* reference
	// inside the path, with no default of its own, is a hard error even
	// though the outer reference has a default.
	root := mapping(
		"pick", scalarField(t, "${cfg:${missing}::fallback}"),
		"cfg", mapping("jsonnet", value.NewScalar("J", value.Origin{})),
	)
	err := interp.Interpolate(root)
	require.Error(t, err)
	var missing *interp.ReferenceMissingError
	require.ErrorAs(t, err, &missing)
}

func TestInterpolateReferenceToContainerPreservesStructure(t *testing.T) {
	inner := mapping("x", value.NewScalar(int64(1), value.Origin{}))
	root := mapping(
		"a", inner,
		"b", scalarField(t, "${a}"),
	)
	require.NoError(t, interp.Interpolate(root))
	b, _ := root.Map.Get("b")
	require.True(t, b.IsMapping())
	x, _ := b.Map.Get("x")
	require.Equal(t, int64(1), x.Scalar)
}

func TestInterpolateMissingReferenceNoDefaultIsError(t *testing.T) {
	root := mapping("a", scalarField(t, "${nope}"))
	err := interp.Interpolate(root)
	require.Error(t, err)
	var missing *interp.ReferenceMissingError
	require.ErrorAs(t, err, &missing)
}

func TestInterpolateCycleIsDetected(t *testing.T) {
	root := mapping(
		"a", scalarField(t, "${b}"),
		"b", scalarField(t, "${a}"),
	)
	err := interp.Interpolate(root)
	require.Error(t, err)
	var cyc *interp.ReferenceCycleError
	require.ErrorAs(t, err, &cyc)
}

func TestInterpolateEscapeRoundTrip(t *testing.T) {
	// spec §8 "escape round-trip"
	root := mapping("a", scalarField(t, `\${not a ref} and \\ done`))
	require.NoError(t, interp.Interpolate(root))
	a, _ := root.Map.Get("a")
	require.Equal(t, `${not a ref} and \ done`, a.Scalar)
}

func TestInterpolateValueListReducesLeftToRight(t *testing.T) {
	vl := value.NewValueList([]*value.Value{
		value.NewScalar(int64(1), value.Origin{}),
		scalarField(t, "${bump}"),
	}, value.Origin{})
	root := mapping("l", vl, "bump", value.NewScalar(int64(2), value.Origin{}))
	require.NoError(t, interp.Interpolate(root))
	l, _ := root.Map.Get("l")
	require.Equal(t, int64(2), l.Scalar)
}

func TestInterpolateNoResidualLazyNodes(t *testing.T) {
	root := mapping(
		"a", value.NewScalar(int64(1), value.Origin{}),
		"b", scalarField(t, "${a}"),
	)
	require.NoError(t, interp.Interpolate(root))
	require.False(t, value.ContainsLazy(root))
}
