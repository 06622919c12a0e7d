package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventastar/internal/model"
)

func TestNormalizeAccentedSynonyms(t *testing.T) {
	t.Parallel()

	table := &Table{
		Columns: []string{"Código", "Descripción", "Cant", "Precio", "Total"},
		Rows:    [][]string{{"A001", "CAMISA", "2", "10.50", "21.00"}},
	}

	got, err := NewNormalizer(testLogger()).Normalize(table)
	require.NoError(t, err)
	assert.Equal(t, []string{
		model.ColArticulo,
		model.ColDescripcion,
		model.ColCantidad,
		model.ColPrecio,
		model.ColTotalPrecio,
	}, got.Columns)
}

func TestNormalizeRuleTable(t *testing.T) {
	t.Parallel()

	// Identity synonyms map on their own: any other Articulo column in the
	// table would claim the role first.
	for _, raw := range []string{"Producto", "SKU", "Codigo de barras"} {
		table := &Table{Columns: []string{raw, "Descripcion", "Total"}}
		got, err := NewNormalizer(testLogger()).Normalize(table)
		require.NoError(t, err, raw)
		assert.Equal(t, model.ColArticulo, got.Columns[0], "column %q", raw)
	}

	cases := []struct {
		raw  string
		want string
	}{
		{"Nombre del item", model.ColDescripcion},
		{"Cantidad vendida", model.ColCantidad},
		{"Cantidad total", "Cantidad total"}, // cant+total is not Cantidad
		{"Precio", model.ColPrecio},
		{"Precio Unitario", model.ColPrecio},
		{"PrecioU", model.ColPrecio},
		{"Precio sugerido", "Precio sugerido"}, // only exact precio variants
		{"Total precio", model.ColTotalPrecio},
		{"Importe", model.ColTotalPrecio},
		{"Monto", "Monto"},
	}

	for _, c := range cases {
		table := &Table{Columns: []string{"Articulo", c.raw}}
		got, err := NewNormalizer(testLogger()).Normalize(table)
		require.NoError(t, err, c.raw)
		assert.Equal(t, c.want, got.Columns[1], "column %q", c.raw)
	}
}

func TestNormalizeArticuloFirstMatchWins(t *testing.T) {
	t.Parallel()

	// Both columns match the identity rule; only the first may claim it.
	// The second still falls through to the remaining rules.
	table := &Table{Columns: []string{"Codigo", "Producto descripcion", "Total"}}

	got, err := NewNormalizer(testLogger()).Normalize(table)
	require.NoError(t, err)
	assert.Equal(t, model.ColArticulo, got.Columns[0])
	assert.NotEqual(t, model.ColArticulo, got.Columns[1])
}

func TestNormalizeMissingArticulo(t *testing.T) {
	t.Parallel()

	table := &Table{Columns: []string{"Descripcion", "Cantidad", "Total"}}

	_, err := NewNormalizer(testLogger()).Normalize(table)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Error(), model.ColArticulo)
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	table := &Table{Columns: []string{
		model.ColArticulo,
		model.ColDescripcion,
		model.ColCantidad,
		model.ColPrecio,
		model.ColTotalPrecio,
	}}

	n := NewNormalizer(testLogger())
	once, err := n.Normalize(table)
	require.NoError(t, err)
	twice, err := n.Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, twice.Columns)
}
