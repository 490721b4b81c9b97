package value_test

import (
	"testing"

	"github.com/reclass-go/reclass/refparser"
	"github.com/reclass-go/reclass/value"
	"github.com/stretchr/testify/require"
)

func origin() value.Origin { return value.Origin{File: "n.yml", Line: 1} }

func TestContainsLazyScalar(t *testing.T) {
	require.False(t, value.ContainsLazy(value.NewScalar("x", origin())))
}

func TestContainsLazyReference(t *testing.T) {
	ref, err := refparser.Parse("${a}")
	require.NoError(t, err)
	v := value.NewReference(ref[0].(*refparser.Reference), origin())
	require.True(t, value.ContainsLazy(v))
}

func TestContainsLazyNestedInMapping(t *testing.T) {
	m := value.NewMapping()
	ref, _ := refparser.Parse("${a}")
	m.Set("k", value.NewReference(ref[0].(*refparser.Reference), origin()))
	mv := value.NewMappingValue(m, origin())
	require.True(t, value.ContainsLazy(mv))
}

func TestContainsLazyValueList(t *testing.T) {
	vl := value.NewValueList([]*value.Value{value.NewScalar(1, origin())}, origin())
	require.True(t, value.ContainsLazy(vl))
}

func TestCloneIsDeepAndIndependent(t *testing.T) {
	m := value.NewMapping()
	m.Set("a", value.NewScalar(int64(1), origin()))
	orig := value.NewMappingValue(m, origin())

	clone := value.Clone(orig)
	av, _ := clone.Map.Get("a")
	av.Scalar = int64(2)

	origA, _ := orig.Map.Get("a")
	require.Equal(t, int64(1), origA.Scalar, "mutating the clone must not affect the original")
}

func TestEqualScalarsAndMappings(t *testing.T) {
	require.True(t, value.Equal(value.NewScalar("x", origin()), value.NewScalar("x", origin())))
	require.False(t, value.Equal(value.NewScalar("x", origin()), value.NewScalar("y", origin())))

	m1 := value.NewMapping()
	m1.Set("a", value.NewScalar(int64(1), origin()))
	m2 := value.NewMapping()
	m2.Set("a", value.NewScalar(int64(1), origin()))
	require.True(t, value.Equal(value.NewMappingValue(m1, origin()), value.NewMappingValue(m2, origin())))

	m3 := value.NewMapping()
	m3.Set("a", value.NewScalar(int64(2), origin()))
	require.False(t, value.Equal(value.NewMappingValue(m1, origin()), value.NewMappingValue(m3, origin())))
}
