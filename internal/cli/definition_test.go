package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
	"github.com/roach88/varmatrix/internal/presets"
	"github.com/roach88/varmatrix/internal/testutil"
)

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(teeDefinition))
	require.NoError(t, err)

	assert.Equal(t, "tee", def.ID)
	assert.Equal(t, "Basic Tee", def.Name)
	assert.Equal(t, "TEE", def.Prefix)
	require.Len(t, def.Attributes, 2)
	assert.Equal(t, []string{"Red", "Blue"}, def.Attributes[1].Values)
}

func TestParseDefinition_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", "attributes: [{name: Size, values: [S]}]", "name is required"},
		{"nothing to generate", "name: Tee", "preset or attributes is required"},
		{"blank attribute name", "name: Tee\nattributes: [{name: ' ', values: [S]}]", "attributes[0]: name is required"},
		{"unknown key", "name: Tee\npreset: clothing\nprice: 10", "field price not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDefinition_Missing(t *testing.T) {
	_, err := LoadDefinition(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read definition file")
}

func newTestEditor(attrs []ir.Attribute) *matrix.Editor {
	return matrix.NewEditor(attrs, nil, matrix.WithIDGenerator(testutil.NewSequentialIDs("id")))
}

func TestDefinition_ApplyPresetThenExtend(t *testing.T) {
	catalog, err := presets.Builtin()
	require.NoError(t, err)

	def := &MatrixDefinition{
		Name:   "Tee",
		Preset: "clothing",
		Attributes: []AttributeDefinition{
			{Name: "color", Values: []string{"Olive", "black"}},
			{Name: "Fit", Values: []string{"Slim"}},
		},
	}
	ed := newTestEditor(nil)
	require.NoError(t, def.Apply(ed, catalog))

	attrs := ed.Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, []string{"Size", "Color", "Fit"}, []string{attrs[0].Name, attrs[1].Name, attrs[2].Name})

	colors := make([]string, len(attrs[1].Values))
	for i, v := range attrs[1].Values {
		colors[i] = v.Value
	}
	assert.Equal(t, []string{"Black", "White", "Gray", "Navy", "Red", "Olive"}, colors)
}

func TestDefinition_ApplyUnknownPreset(t *testing.T) {
	catalog, err := presets.Builtin()
	require.NoError(t, err)

	def := &MatrixDefinition{Name: "Tee", Preset: "hats"}
	err = def.Apply(newTestEditor(nil), catalog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown preset "hats"`)
}

func TestDefinition_ApplyPrunesStoredAttributes(t *testing.T) {
	stored := []ir.Attribute{
		{ID: "a1", Name: "Size", Values: []ir.AttributeValue{{ID: "s", Value: "S"}, {ID: "m", Value: "M"}, {ID: "l", Value: "L"}}},
		{ID: "a2", Name: "Material", Values: []ir.AttributeValue{{ID: "c", Value: "Cotton"}}},
	}
	def := &MatrixDefinition{
		Name:       "Tee",
		Attributes: []AttributeDefinition{{Name: "Size", Values: []string{"S", "L", "XL"}}},
	}

	ed := newTestEditor(stored)
	require.NoError(t, def.Apply(ed, nil))

	attrs := ed.Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, "a1", attrs[0].ID)
	require.Len(t, attrs[0].Values, 3)
	assert.Equal(t, "s", attrs[0].Values[0].ID)
	assert.Equal(t, "L", attrs[0].Values[1].Value)
	assert.Equal(t, "XL", attrs[0].Values[2].Value)
}

func TestDefinition_ApplyMatchesLikeTheEngine(t *testing.T) {
	stored := []ir.Attribute{
		{ID: "a1", Name: "STRASSE", Values: []ir.AttributeValue{{ID: "v", Value: "GROSS"}}},
	}
	def := &MatrixDefinition{
		Name:       "Street sign",
		Attributes: []AttributeDefinition{{Name: "Straße", Values: []string{"groß"}}},
	}

	ed := newTestEditor(stored)
	require.NoError(t, def.Apply(ed, nil))

	attrs := ed.Attributes()
	require.Len(t, attrs, 1, "full case folding matches the stored attribute")
	assert.Equal(t, "a1", attrs[0].ID)
	require.Len(t, attrs[0].Values, 1)
	assert.Equal(t, "v", attrs[0].Values[0].ID)
}

func TestDefinition_ApplyMaxAttributes(t *testing.T) {
	def := &MatrixDefinition{
		Name: "Too wide",
		Attributes: []AttributeDefinition{
			{Name: "A", Values: []string{"1"}},
			{Name: "B", Values: []string{"1"}},
			{Name: "C", Values: []string{"1"}},
			{Name: "D", Values: []string{"1"}},
		},
	}
	err := def.Apply(newTestEditor(nil), nil)
	require.Error(t, err)

	var me *matrix.MatrixError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, matrix.ErrCodeMaxAttributes, me.Code)
}
