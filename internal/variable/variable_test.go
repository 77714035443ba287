package variable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsEmptyName(t *testing.T) {
	t.Parallel()

	_, err := New("", Metadata{Value: 1.0})
	require.Error(t, err)
}

func TestNew_ScalarDefaultsToUnitShape(t *testing.T) {
	t.Parallel()

	v, err := New("data:geometry:wing:sweep", Metadata{Value: 25.0, Units: "deg"})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, v.Shape())
	assert.Equal(t, 25.0, v.Scalar())
	assert.Equal(t, "deg", v.Units())
}

func TestNew_NilValueIsNaNSentinel(t *testing.T) {
	t.Parallel()

	v, err := New("data:mission:range", Metadata{Units: "km"})
	require.NoError(t, err)

	assert.True(t, v.IsMandatory())
}

func TestSetValue_RecomputesInferredShape(t *testing.T) {
	t.Parallel()

	v := MustNew("data:geometry:wing:chords", Metadata{Value: 1.0})
	require.Equal(t, []int{1}, v.Shape())

	require.NoError(t, v.SetValue([]float64{4.2, 3.1, 1.8}))
	assert.Equal(t, []int{3}, v.Shape())
}

func TestSetValue_KeepsDeclaredShape(t *testing.T) {
	t.Parallel()

	v := MustNew("data:aerodynamics:polar", Metadata{
		Value: []float64{0, 1, 2, 3, 4, 5},
		Shape: []int{2, 3},
	})

	require.NoError(t, v.SetValue([]float64{5, 4, 3, 2, 1, 0}))
	assert.Equal(t, []int{2, 3}, v.Shape())
}

func TestEquals_NaNAware(t *testing.T) {
	t.Parallel()

	a := MustNew("x", Metadata{Value: math.NaN()})
	b := MustNew("x", Metadata{Value: math.NaN()})
	c := MustNew("x", Metadata{Value: 0.0})

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestEquals_IgnoresTags(t *testing.T) {
	t.Parallel()

	a := MustNew("x", Metadata{Value: 1.0, Tags: []string{"outputs"}})
	b := MustNew("x", Metadata{Value: 1.0})

	assert.True(t, a.Equals(b))
}

func TestEquals_MetadataMustMatch(t *testing.T) {
	t.Parallel()

	a := MustNew("x", Metadata{Value: 1.0, Units: "m"})
	b := MustNew("x", Metadata{Value: 1.0, Units: "ft"})

	assert.False(t, a.Equals(b))
}

func TestFromMap_DropsUnrecognizedKeys(t *testing.T) {
	t.Parallel()

	v, err := FromMap("data:geometry:wing:area", map[string]any{
		"value":       120.0,
		"units":       "m**2",
		"lower_bound": 50.0, // not part of the schema, silently dropped
	})
	require.NoError(t, err)

	assert.Equal(t, 120.0, v.Scalar())
	assert.Equal(t, "m**2", v.Units())
}

func TestNew_AppliesCatalogDescription(t *testing.T) {
	t.Parallel()

	v := MustNew("data:geometry:wing:area", Metadata{Value: 100.0})
	assert.Equal(t, "wing reference area", v.Description())

	// An explicit description always wins over the catalog.
	w := MustNew("data:geometry:wing:area", Metadata{Value: 100.0, Desc: "custom"})
	assert.Equal(t, "custom", w.Description())
}
