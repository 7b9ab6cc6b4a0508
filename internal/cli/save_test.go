package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
	"github.com/roach88/varmatrix/internal/store"
)

func TestSaveAndShow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	path := writeFile(t, dir, "tee.yaml", teeDefinition)

	out, err := execute(t, "--format", "json", "save", "--db", db, path)
	require.NoError(t, err)
	saved := decodeMatrix(t, out)
	assert.Equal(t, "tee", saved.Data.ProductID)
	require.Len(t, saved.Data.Variants, 4)

	out, err = execute(t, "--format", "json", "show", "--db", db, "tee")
	require.NoError(t, err)
	shown := decodeMatrix(t, out)

	assert.Equal(t, "Basic Tee", shown.Data.Name)
	assert.Equal(t, skus(saved.Data), skus(shown.Data))
	assert.Equal(t, saved.Data.MatrixHash, shown.Data.MatrixHash)
	assert.Empty(t, shown.Data.Errors)
}

func TestSave_RegeneratePreservesStoredVariants(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	path := writeFile(t, dir, "tee.yaml", teeDefinition)

	out, err := execute(t, "--format", "json", "save", "--db", db, path)
	require.NoError(t, err)
	first := decodeMatrix(t, out)

	wider := writeFile(t, dir, "tee-l.yaml", `
id: tee
name: Basic Tee
prefix: TEE
attributes:
  - name: Size
    values: [S, M, L]
  - name: Color
    values: [Red, Blue]
`)
	out, err = execute(t, "--format", "json", "save", "--db", db, wider)
	require.NoError(t, err)
	second := decodeMatrix(t, out)

	require.Len(t, second.Data.Variants, 6)
	for i := 0; i < 4; i++ {
		assert.Equal(t, first.Data.Variants[i].ID, second.Data.Variants[i].ID)
		assert.Equal(t, first.Data.Variants[i].SKU, second.Data.Variants[i].SKU)
	}
	assert.Equal(t, "TEE-L-RED-005", second.Data.Variants[4].SKU)
	assert.Equal(t, first.Data.Attributes[0].ID, second.Data.Attributes[0].ID)
}

func TestSave_DroppingVariantsNeedsConfirmation(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")

	_, err := execute(t, "save", "--db", db, writeFile(t, dir, "tee.yaml", teeDefinition))
	require.NoError(t, err)

	narrower := writeFile(t, dir, "tee-s.yaml", `
id: tee
name: Basic Tee
prefix: TEE
attributes:
  - name: Size
    values: [S]
  - name: Color
    values: [Red, Blue]
`)
	out, err := execute(t, "save", "--db", db, narrower)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_CONFIRM]")
	assert.Contains(t, out, "would drop 2 stored variant(s)")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, variants, err := st.LoadMatrix(context.Background(), "tee")
	require.NoError(t, err)
	assert.Len(t, variants, 4, "refused save writes nothing")
	require.NoError(t, st.Close())

	out, err = execute(t, "--format", "json", "save", "--db", db, "--yes", narrower)
	require.NoError(t, err)
	saved := decodeMatrix(t, out)
	assert.Equal(t, []string{"TEE-S-RED-001", "TEE-S-BLUE-002"}, skus(saved.Data))
}

func TestSave_SKUConflictWithOtherProduct(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")

	_, err := execute(t, "save", "--db", db, writeFile(t, dir, "tee.yaml", teeDefinition))
	require.NoError(t, err)

	other := writeFile(t, dir, "other.yaml", `
id: other
name: Other Tee
prefix: TEE
attributes:
  - name: Size
    values: [S]
  - name: Color
    values: [Red]
`)
	out, err := execute(t, "save", "--db", db, other)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_SKU_CONFLICT]")
	assert.Contains(t, out, "Basic Tee")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	_, variants, err := st.LoadMatrix(context.Background(), "other")
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestSave_WithoutIDCreatesProducts(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	path := writeFile(t, dir, "mug.yaml", "name: Mug\nattributes: [{name: Size, values: [\"12oz\", \"16oz\"]}]\n")

	out, err := execute(t, "--format", "json", "save", "--db", db, path)
	require.NoError(t, err)
	resp := decodeMatrix(t, out)
	assert.NotEmpty(t, resp.Data.ProductID)
	assert.Equal(t, []string{"12OZ-001", "16OZ-002"}, skus(resp.Data))
}

func TestSaveError_ValidationListsLabels(t *testing.T) {
	attrs := []ir.Attribute{{ID: "a1", Name: "Size", Values: []ir.AttributeValue{{ID: "s", Value: "S"}}}}
	variants := []ir.Variant{{ID: "v1", Options: ir.Options{"Size": "S"}, Price: ir.Money("-1"), IsAvailable: true}}
	ed := matrix.NewEditor(attrs, variants)

	err := ed.Save(context.Background())
	require.Error(t, err)

	buf := &bytes.Buffer{}
	exitErr := saveError(&OutputFormatter{Format: "text", Writer: buf}, ed, err)
	assert.Equal(t, ExitFailure, GetExitCode(exitErr))
	assert.Contains(t, buf.String(), "Error [E_VALIDATION]: validation failed")
	assert.Contains(t, buf.String(), "S: price cannot be negative")
}

func TestShowCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")

	_, err := execute(t, "show", "--db", db, "tee")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")

	_, err = execute(t, "save", "--db", db, writeFile(t, dir, "tee.yaml", teeDefinition))
	require.NoError(t, err)

	_, err = execute(t, "show", "--db", db, "hat")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "product not found: hat")
}

func TestShowCommand_Page(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	cfg := writeFile(t, dir, "limits.yaml", "page_size: 3\n")

	_, err := execute(t, "save", "--db", db, writeFile(t, dir, "tee.yaml", teeDefinition))
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "--config", cfg, "show", "--db", db, "tee", "--page", "2")
	require.NoError(t, err)
	resp := decodeMatrix(t, out)
	assert.Equal(t, []string{"TEE-M-BLUE-004"}, skus(resp.Data))
	assert.Equal(t, 4, resp.Data.Summary.Total)

	out, err = execute(t, "--format", "json", "--config", cfg, "show", "--db", db, "tee", "--page", "3")
	require.NoError(t, err)
	assert.Empty(t, decodeMatrix(t, out).Data.Variants)
}

func TestShowCommand_Text(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")

	_, err := execute(t, "save", "--db", db, writeFile(t, dir, "tee.yaml", teeDefinition))
	require.NoError(t, err)

	out, err := execute(t, "show", "--db", db, "tee")
	require.NoError(t, err)
	assert.Contains(t, out, "Basic Tee (tee)")
	assert.Contains(t, out, "Color: Red, Blue")
	assert.Contains(t, out, "S / Red")
	assert.Contains(t, out, "Inventory: 0 units, value 0.00")
}
