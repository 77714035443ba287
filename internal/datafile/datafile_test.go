package datafile

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/goad/internal/variable"
)

func sampleVariables(t *testing.T) *variable.Set {
	t.Helper()
	return variable.NewSet(
		variable.MustNew("data:geometry:wing:area", variable.Metadata{
			Value: 150.0, Units: "m**2", Desc: "wing reference area",
		}),
		variable.MustNew("data:geometry:wing:aspect_ratio", variable.Metadata{Value: 9.5}),
		variable.MustNew("data:weight:mtow", variable.Metadata{Value: math.NaN(), Units: "kg"}),
		variable.MustNew("data:aerodynamics:polar", variable.Metadata{
			Value: []float64{0.02, 0.025, 0.031},
		}),
	)
}

func assertSameVariables(t *testing.T, want, got *variable.Set) {
	t.Helper()
	require.Equal(t, want.Names(), got.Names())
	for _, name := range want.Names() {
		a, _ := want.Get(name)
		b, _ := got.Get(name)
		assert.True(t, a.Equals(b), "variable %q differs: %s vs %s", name, a, b)
	}
}

func TestYAMLFormatter_RoundTrip(t *testing.T) {
	t.Parallel()

	vars := sampleVariables(t)
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Write(&buf, vars))

	text := buf.String()
	assert.Contains(t, text, "wing:")
	assert.Contains(t, text, "units: m**2")
	assert.Contains(t, text, ".nan")

	got, err := (&YAMLFormatter{}).Read(&buf)
	require.NoError(t, err)
	assertSameVariables(t, vars, got)
}

func TestYAMLFormatter_EmptyDocument(t *testing.T) {
	t.Parallel()

	got, err := (&YAMLFormatter{}).Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestYAMLFormatter_NameConflict(t *testing.T) {
	t.Parallel()

	vars := variable.NewSet(
		variable.MustNew("data:wing", variable.Metadata{Value: 1.0}),
		variable.MustNew("data:wing:area", variable.Metadata{Value: 2.0}),
	)
	err := (&YAMLFormatter{}).Write(&bytes.Buffer{}, vars)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts")
}

func TestXMLFormatter_RoundTrip(t *testing.T) {
	t.Parallel()

	vars := sampleVariables(t)
	var buf bytes.Buffer
	require.NoError(t, (&XMLFormatter{}).Write(&buf, vars))

	text := buf.String()
	assert.Contains(t, text, "<aircraft>")
	assert.Contains(t, text, `units="m**2"`)

	got, err := (&XMLFormatter{}).Read(&buf)
	require.NoError(t, err)
	assertSameVariables(t, vars, got)
}

func TestXMLFormatter_ParentAttributesSurviveChildren(t *testing.T) {
	t.Parallel()

	// an element may carry its own value and attributes while also holding
	// nested entries; the child must not clobber the parent's state
	doc := `<?xml version="1.0"?>
<aircraft>
  <data units="kg" desc="outer mass">5.0<wing units="m">3.0</wing></data>
</aircraft>`

	got, err := (&XMLFormatter{}).Read(strings.NewReader(doc))
	require.NoError(t, err)

	parent, err := got.Get("data")
	require.NoError(t, err)
	assert.Equal(t, 5.0, parent.Scalar())
	assert.Equal(t, "kg", parent.Units())
	assert.Equal(t, "outer mass", parent.Description())

	child, err := got.Get("data:wing")
	require.NoError(t, err)
	assert.Equal(t, 3.0, child.Scalar())
	assert.Equal(t, "m", child.Units())
}

func TestXMLFormatter_CustomRootTag(t *testing.T) {
	t.Parallel()

	formatter := &XMLFormatter{RootTag: "rotorcraft"}
	vars := variable.NewSet(variable.MustNew("data:x", variable.Metadata{Value: 1.0}))

	var buf bytes.Buffer
	require.NoError(t, formatter.Write(&buf, vars))
	assert.Contains(t, buf.String(), "<rotorcraft>")

	got, err := formatter.Read(&buf)
	require.NoError(t, err)
	assertSameVariables(t, vars, got)
}

func TestForPath_SelectsByExtension(t *testing.T) {
	t.Parallel()

	assert.IsType(t, &XMLFormatter{}, ForPath("inputs.xml"))
	assert.IsType(t, &XMLFormatter{}, ForPath("INPUTS.XML"))
	assert.IsType(t, &YAMLFormatter{}, ForPath("inputs.yml"))
	assert.IsType(t, &YAMLFormatter{}, ForPath("inputs.yaml"))
}

func TestFile_SaveLoad(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	vars := sampleVariables(t)

	file := NewFile(fsys, "workdir/data/inputs.yml")
	require.NoError(t, file.Save(vars))

	got, err := NewFile(fsys, "workdir/data/inputs.yml").Load()
	require.NoError(t, err)
	assertSameVariables(t, vars, got)
}

func TestFile_LoadMissing(t *testing.T) {
	t.Parallel()

	_, err := NewFile(afero.NewMemMapFs(), "nowhere.yml").Load()
	require.Error(t, err)
}
