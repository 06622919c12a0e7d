package cleaner

import (
	"log/slog"
	"strings"

	"ventastar/internal/model"
	"ventastar/internal/parser"
)

// Accepted line-total column names, in priority order. Normalization maps
// most variants to Total_precio, but the union of columns across files can
// still carry raw survivors.
var totalCandidates = []string{
	model.ColTotalPrecio,
	"Total precio",
	"Precio total",
	"Total_venta",
	"Total",
	"Importe",
}

// Summary/subtotal artifacts that would double-count revenue downstream.
// Substring match, deliberately aggressive: an item legitimately named
// "TOTAL CLEAN KIT" is dropped too.
var summaryPatterns = []string{
	"TOTAL",
	"GRAND TOTAL",
	"SUBTOTAL",
	"GRAN TOTAL",
	"TOTAL GENERAL",
}

// Stats summarizes one cleaning pass.
type Stats struct {
	RowsIn          int    `json:"rowsIn"`
	RowsNoIdentity  int    `json:"rowsNoIdentity"`
	RowsSummary     int    `json:"rowsSummary"`
	RowsOut         int    `json:"rowsOut"`
	TotalColumn     string `json:"totalColumn"` // "" when no total-like column existed
	TotalFallback   bool   `json:"totalFallback"`
	DescripcionSynt bool   `json:"descripcionSynthesized"`
}

// Cleaner turns the consolidated string table into typed sale records:
// derives Venta_Neta from whichever total column is present, coerces
// numerics leniently (unparsable -> 0), canonicalizes the item code and
// strips summary rows.
type Cleaner struct {
	log *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to slog.Default.
func NewCleaner(log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{log: log}
}

// Clean transforms the consolidated table. It never fails: the degenerate
// no-total-column case produces all-zero net sales and is logged at error
// level, because it silently yields a meaningless Pareto result.
func (c *Cleaner) Clean(t *parser.Table) ([]model.SaleRecord, Stats) {
	stats := Stats{RowsIn: len(t.Rows)}

	totalIdx := c.findTotalColumn(t, &stats)

	artIdx := t.ColumnIndex(model.ColArticulo)
	descIdx := t.ColumnIndex(model.ColDescripcion)
	cantIdx := t.ColumnIndex(model.ColCantidad)
	precioIdx := t.ColumnIndex(model.ColPrecio)
	sucIdx := t.ColumnIndex(model.ColSucursal)

	if descIdx < 0 {
		stats.DescripcionSynt = true
		c.log.Warn("no Descripcion column, synthesizing default", "default", model.DescripcionDefault)
	}

	records := make([]model.SaleRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		articulo := strings.ToUpper(strings.TrimSpace(t.Cell(row, artIdx)))
		if articulo == "" || articulo == "NAN" || articulo == "NONE" {
			stats.RowsNoIdentity++
			continue
		}

		descripcion := model.DescripcionDefault
		if descIdx >= 0 {
			descripcion = strings.ToUpper(strings.TrimSpace(t.Cell(row, descIdx)))
		}

		if isSummaryRow(articulo, descripcion) {
			stats.RowsSummary++
			continue
		}

		rec := model.SaleRecord{
			Articulo:    articulo,
			Descripcion: descripcion,
			Sucursal:    strings.TrimSpace(t.Cell(row, sucIdx)),
		}
		if cantIdx >= 0 {
			rec.Cantidad, _ = parser.ParseNumber(t.Cell(row, cantIdx))
		}
		if precioIdx >= 0 {
			rec.Precio, _ = parser.ParseNumber(t.Cell(row, precioIdx))
		}
		if totalIdx >= 0 {
			rec.VentaNeta, _ = parser.ParseNumber(t.Cell(row, totalIdx))
		}

		records = append(records, rec)
	}

	stats.RowsOut = len(records)

	if stats.RowsSummary > 0 {
		c.log.Warn("summary/subtotal rows removed", "rows", stats.RowsSummary)
	}
	c.log.Info("cleaning done",
		"rowsIn", stats.RowsIn,
		"rowsOut", stats.RowsOut,
		"droppedNoIdentity", stats.RowsNoIdentity,
		"droppedSummary", stats.RowsSummary,
		"totalColumn", stats.TotalColumn)

	return records, stats
}

// findTotalColumn searches the accepted variants in priority order, then
// falls back to the first column containing "total".
func (c *Cleaner) findTotalColumn(t *parser.Table, stats *Stats) int {
	for _, name := range totalCandidates {
		if idx := t.ColumnIndex(name); idx >= 0 {
			stats.TotalColumn = name
			c.log.Info("total column detected", "column", name)
			return idx
		}
	}

	for i, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), "total") {
			stats.TotalColumn = col
			stats.TotalFallback = true
			c.log.Warn("using similar column for total", "column", col)
			return i
		}
	}

	c.log.Error("no total column found, Venta_Neta initialized to 0",
		"columns", t.Columns)
	return -1
}

func isSummaryRow(articulo, descripcion string) bool {
	for _, pat := range summaryPatterns {
		if strings.Contains(articulo, pat) || strings.Contains(descripcion, pat) {
			return true
		}
	}
	return false
}
