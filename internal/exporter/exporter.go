package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"ventastar/internal/model"
)

// Output file names of the star schema.
const (
	DimArticulosFile  = "dim_articulos.csv"
	DimSucursalesFile = "dim_sucursales.csv"
	FactVentasFile    = "fact_ventas.csv"
)

// Exporter writes the three star-schema tables as regional CSV: semicolon
// field separator and comma decimal separator by default, the convention
// Excel and Power BI expect in es-locale setups.
type Exporter struct {
	separator    rune
	decimalComma bool
	log          *slog.Logger
}

// NewExporter creates an exporter. A nil logger falls back to slog.Default.
func NewExporter(separator rune, decimalComma bool, log *slog.Logger) *Exporter {
	if separator == 0 {
		separator = ';'
	}
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{separator: separator, decimalComma: decimalComma, log: log}
}

// Export writes the schema into dir (created if missing) and returns the
// table-name -> path map of everything written.
func (e *Exporter) Export(dir string, schema *model.StarSchema) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}

	paths := map[string]string{
		"dim_articulos":  filepath.Join(dir, DimArticulosFile),
		"dim_sucursales": filepath.Join(dir, DimSucursalesFile),
		"fact_ventas":    filepath.Join(dir, FactVentasFile),
	}

	if err := e.writeCSV(paths["dim_articulos"], e.dimArticulosRows(schema.Articulos)); err != nil {
		return nil, err
	}
	if err := e.writeCSV(paths["dim_sucursales"], e.dimSucursalesRows(schema.Sucursales)); err != nil {
		return nil, err
	}
	if err := e.writeCSV(paths["fact_ventas"], e.factVentasRows(schema.Facts)); err != nil {
		return nil, err
	}

	e.log.Info("star schema exported",
		"dir", dir,
		"articulos", len(schema.Articulos),
		"sucursales", len(schema.Sucursales),
		"facts", len(schema.Facts))

	return paths, nil
}

func (e *Exporter) dimArticulosRows(dims []model.DimArticulo) [][]string {
	rows := [][]string{{
		"Articulo", "Descripcion", "Ranking", "Clasificacion_ABC",
		"Venta_Neta_Total", "Venta_Bruta_Total", "Venta_Devolucion_Total",
		"Tasa_Devolucion", "Porcentaje_Articulo_Global", "Porcentaje_Acumulado",
	}}
	for _, d := range dims {
		rows = append(rows, []string{
			d.Articulo,
			d.Descripcion,
			strconv.Itoa(d.Ranking),
			d.ClasificacionABC,
			e.money(d.VentaNetaTotal),
			e.money(d.VentaBrutaTotal),
			e.money(d.VentaDevolucionTotal),
			e.share(d.TasaDevolucion),
			e.share(d.PorcentajeGlobal),
			e.share(d.PorcentajeAcumulado),
		})
	}
	return rows
}

func (e *Exporter) dimSucursalesRows(sucursales []model.DimSucursal) [][]string {
	rows := [][]string{{"Sucursal", "Tipo"}}
	for _, s := range sucursales {
		rows = append(rows, []string{s.Sucursal, s.Tipo})
	}
	return rows
}

func (e *Exporter) factVentasRows(facts []model.FactVenta) [][]string {
	rows := [][]string{{
		"Articulo", "Sucursal", "Venta_Neta", "Venta_Bruta", "Venta_Devolucion", "Cantidad",
	}}
	for _, f := range facts {
		rows = append(rows, []string{
			f.Articulo,
			f.Sucursal,
			e.money(f.VentaNeta),
			e.money(f.VentaBruta),
			e.money(f.VentaDevolucion),
			strconv.FormatFloat(f.Cantidad, 'f', 0, 64),
		})
	}
	return rows
}

func (e *Exporter) writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = e.separator
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (e *Exporter) money(v float64) string { return e.decimal(v, 2) }
func (e *Exporter) share(v float64) string { return e.decimal(v, 4) }

func (e *Exporter) decimal(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if e.decimalComma {
		for i := 0; i < len(s); i++ {
			if s[i] == '.' {
				s = s[:i] + "," + s[i+1:]
				break
			}
		}
	}
	return s
}
