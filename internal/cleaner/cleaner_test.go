package cleaner

import (
	"io"
	"log/slog"
	"testing"

	"ventastar/internal/model"
	"ventastar/internal/parser"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func canonicalTable(rows [][]string) *parser.Table {
	return &parser.Table{
		Columns: []string{
			model.ColArticulo,
			model.ColDescripcion,
			model.ColCantidad,
			model.ColPrecio,
			model.ColTotalPrecio,
			model.ColSucursal,
		},
		Rows: rows,
	}
}

func TestCleanTypesAndCanonicalizes(t *testing.T) {
	t.Parallel()

	table := canonicalTable([][]string{
		{"  a001 ", "camisa", "2", "10.50", "21.00", "CENTRO"},
		{"A002", "PANTALON", "sin dato", "x", "1.234,50", "CENTRO"},
	})

	records, stats := NewCleaner(testLogger()).Clean(table)
	if stats.RowsOut != 2 {
		t.Fatalf("rowsOut = %d, want 2", stats.RowsOut)
	}
	if stats.TotalColumn != model.ColTotalPrecio {
		t.Fatalf("totalColumn = %q", stats.TotalColumn)
	}

	first := records[0]
	if first.Articulo != "A001" || first.Descripcion != "CAMISA" {
		t.Fatalf("identity not canonicalized: %+v", first)
	}
	if first.Cantidad != 2 || first.Precio != 10.50 || first.VentaNeta != 21 {
		t.Fatalf("numeric coercion: %+v", first)
	}

	// Unparsable values coerce to 0, never error.
	second := records[1]
	if second.Cantidad != 0 || second.Precio != 0 {
		t.Fatalf("dirty numerics should coerce to 0: %+v", second)
	}
	if second.VentaNeta != 1234.50 {
		t.Fatalf("regional decimal not parsed: %+v", second)
	}
}

func TestCleanDropsInvalidIdentities(t *testing.T) {
	t.Parallel()

	table := canonicalTable([][]string{
		{"A001", "CAMISA", "1", "10", "10", "CENTRO"},
		{"", "SIN CODIGO", "1", "10", "10", "CENTRO"},
		{"nan", "PANDAS ARTIFACT", "1", "10", "10", "CENTRO"},
		{"None", "OTRO ARTIFACT", "1", "10", "10", "CENTRO"},
	})

	records, stats := NewCleaner(testLogger()).Clean(table)
	if len(records) != 1 || stats.RowsNoIdentity != 3 {
		t.Fatalf("records = %d, dropped = %d", len(records), stats.RowsNoIdentity)
	}
}

func TestCleanDropsSummaryRows(t *testing.T) {
	t.Parallel()

	table := canonicalTable([][]string{
		{"A001", "CAMISA", "1", "10", "10", "CENTRO"},
		{"TOTAL GENERAL", "", "0", "0", "50000", "CENTRO"},
		{"A003", "subtotal enero", "1", "10", "10", "CENTRO"},
		{"TOTAL CLEAN KIT", "KIT DE LIMPIEZA", "1", "10", "10", "CENTRO"},
	})

	records, stats := NewCleaner(testLogger()).Clean(table)
	// The substring filter is deliberately aggressive: the legitimate
	// "TOTAL CLEAN KIT" item is a known false positive.
	if len(records) != 1 || stats.RowsSummary != 3 {
		t.Fatalf("records = %d, summary dropped = %d", len(records), stats.RowsSummary)
	}
	if records[0].Articulo != "A001" {
		t.Fatalf("surviving row = %+v", records[0])
	}
}

func TestCleanTotalColumnPriority(t *testing.T) {
	t.Parallel()

	table := &parser.Table{
		Columns: []string{model.ColArticulo, "Total", model.ColTotalPrecio, model.ColSucursal},
		Rows: [][]string{
			{"A001", "999", "10", "CENTRO"},
		},
	}

	records, stats := NewCleaner(testLogger()).Clean(table)
	if stats.TotalColumn != model.ColTotalPrecio {
		t.Fatalf("totalColumn = %q, want %s", stats.TotalColumn, model.ColTotalPrecio)
	}
	if records[0].VentaNeta != 10 {
		t.Fatalf("VentaNeta = %v, want 10", records[0].VentaNeta)
	}
}

func TestCleanTotalColumnFuzzyFallback(t *testing.T) {
	t.Parallel()

	table := &parser.Table{
		Columns: []string{model.ColArticulo, "Gran total mensual", model.ColSucursal},
		Rows: [][]string{
			{"A001", "123.45", "CENTRO"},
		},
	}

	records, stats := NewCleaner(testLogger()).Clean(table)
	if !stats.TotalFallback || stats.TotalColumn != "Gran total mensual" {
		t.Fatalf("stats = %+v", stats)
	}
	if records[0].VentaNeta != 123.45 {
		t.Fatalf("VentaNeta = %v", records[0].VentaNeta)
	}
}

func TestCleanNoTotalColumnDegenerate(t *testing.T) {
	t.Parallel()

	table := &parser.Table{
		Columns: []string{model.ColArticulo, model.ColCantidad, model.ColSucursal},
		Rows: [][]string{
			{"A001", "2", "CENTRO"},
		},
	}

	records, stats := NewCleaner(testLogger()).Clean(table)
	if stats.TotalColumn != "" {
		t.Fatalf("stats = %+v", stats)
	}
	if records[0].VentaNeta != 0 {
		t.Fatalf("degenerate VentaNeta = %v, want 0", records[0].VentaNeta)
	}
}

func TestCleanSynthesizesDescripcion(t *testing.T) {
	t.Parallel()

	table := &parser.Table{
		Columns: []string{model.ColArticulo, model.ColTotalPrecio, model.ColSucursal},
		Rows: [][]string{
			{"A001", "10", "CENTRO"},
		},
	}

	records, stats := NewCleaner(testLogger()).Clean(table)
	if !stats.DescripcionSynt {
		t.Fatalf("stats = %+v", stats)
	}
	if records[0].Descripcion != model.DescripcionDefault {
		t.Fatalf("Descripcion = %q", records[0].Descripcion)
	}
}
