package calculator

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"ventastar/internal/model"
)

// ErrNoPositiveSales: after filtering, no item has a positive net sale, so
// there is nothing to rank.
var ErrNoPositiveSales = errors.New("no items with positive net sales")

// Options tune the ABC boundaries and the fact/dim consistency tolerance.
// Zero values fall back to the standard 80/95 split and a $1 tolerance.
type Options struct {
	ClassAThreshold      float64
	ClassBThreshold      float64
	ConsistencyTolerance float64
}

func (o Options) withDefaults() Options {
	if o.ClassAThreshold == 0 {
		o.ClassAThreshold = 0.80
	}
	if o.ClassBThreshold == 0 {
		o.ClassBThreshold = 0.95
	}
	if o.ConsistencyTolerance == 0 {
		o.ConsistencyTolerance = 1.0
	}
	return o
}

// ConsistencyReport compares the dimension total against the restricted
// fact total. A difference beyond the tolerance is diagnostic, not fatal.
type ConsistencyReport struct {
	DimTotal   float64 `json:"dimTotal"`
	FactTotal  float64 `json:"factTotal"`
	Difference float64 `json:"difference"`
	OK         bool    `json:"ok"`
}

// Calculator builds the consistent (fact, dimension) pair: facts at
// (Articulo, Sucursal) grain, dimensions re-aggregated strictly from the
// facts, Pareto-ranked and ABC-classified.
type Calculator struct {
	opts Options
	log  *slog.Logger
}

// NewCalculator creates a calculator. A nil logger falls back to
// slog.Default.
func NewCalculator(opts Options, log *slog.Logger) *Calculator {
	if log == nil {
		log = slog.Default()
	}
	return &Calculator{opts: opts.withDefaults(), log: log}
}

// BuildStarSchema aggregates cleaned records into the star schema. The
// exported fact set is restricted to items present in the ranked dimension
// (referential integrity); items with zero or negative net totals carry no
// meaning for an 80/20 analysis and are excluded from both tables.
func (c *Calculator) BuildStarSchema(records []model.SaleRecord) (*model.StarSchema, ConsistencyReport, error) {
	facts := c.aggregateFacts(records)
	dims := c.aggregateDims(facts, records)

	ranked, err := c.rankPareto(dims)
	if err != nil {
		return nil, ConsistencyReport{}, err
	}

	kept := make(map[string]bool, len(ranked))
	for _, d := range ranked {
		kept[d.Articulo] = true
	}
	exported := facts[:0:0]
	for _, f := range facts {
		if kept[f.Articulo] {
			exported = append(exported, f)
		}
	}

	report := c.checkConsistency(ranked, exported)

	schema := &model.StarSchema{
		Facts:      exported,
		Articulos:  ranked,
		Sucursales: branchDimension(exported),
	}
	return schema, report, nil
}

// aggregateFacts groups records by (Articulo, Sucursal), splitting each net
// sale into its gross and absolute return components before summing.
func (c *Calculator) aggregateFacts(records []model.SaleRecord) []model.FactVenta {
	type key struct{ articulo, sucursal string }

	acc := make(map[key]*model.FactVenta)
	for _, r := range records {
		k := key{r.Articulo, r.Sucursal}
		f := acc[k]
		if f == nil {
			f = &model.FactVenta{Articulo: r.Articulo, Sucursal: r.Sucursal}
			acc[k] = f
		}
		f.VentaNeta += r.VentaNeta
		f.VentaBruta += math.Max(r.VentaNeta, 0)
		f.VentaDevolucion += math.Max(-r.VentaNeta, 0)
		f.Cantidad += r.Cantidad
	}

	facts := make([]model.FactVenta, 0, len(acc))
	for _, f := range acc {
		f.VentaNeta = round2(f.VentaNeta)
		f.VentaBruta = round2(f.VentaBruta)
		f.VentaDevolucion = round2(f.VentaDevolucion)
		f.Cantidad = math.Round(f.Cantidad)
		facts = append(facts, *f)
	}
	sort.Slice(facts, func(i, j int) bool {
		if facts[i].Articulo != facts[j].Articulo {
			return facts[i].Articulo < facts[j].Articulo
		}
		return facts[i].Sucursal < facts[j].Sucursal
	})

	c.log.Info("fact table built", "rows", len(facts))
	return facts
}

// aggregateDims re-aggregates the facts by Articulo. Building the
// dimension from the facts, never from the raw records, is what keeps
// SUM(fact.Venta_Neta) equal to SUM(dim.Venta_Neta_Total). The original
// records are consulted only for a representative description.
func (c *Calculator) aggregateDims(facts []model.FactVenta, records []model.SaleRecord) []model.DimArticulo {
	descByArt := make(map[string]string)
	for _, r := range records {
		if _, ok := descByArt[r.Articulo]; !ok {
			descByArt[r.Articulo] = r.Descripcion
		}
	}

	acc := make(map[string]*model.DimArticulo)
	order := make([]string, 0)
	for _, f := range facts {
		d := acc[f.Articulo]
		if d == nil {
			d = &model.DimArticulo{
				Articulo:    f.Articulo,
				Descripcion: descByArt[f.Articulo],
			}
			acc[f.Articulo] = d
			order = append(order, f.Articulo)
		}
		d.VentaNetaTotal += f.VentaNeta
		d.VentaBrutaTotal += f.VentaBruta
		d.VentaDevolucionTotal += f.VentaDevolucion
	}

	dims := make([]model.DimArticulo, 0, len(acc))
	for _, art := range order {
		d := acc[art]
		d.VentaNetaTotal = round2(d.VentaNetaTotal)
		d.VentaBrutaTotal = round2(d.VentaBrutaTotal)
		d.VentaDevolucionTotal = round2(d.VentaDevolucionTotal)
		if d.VentaBrutaTotal > 0 {
			d.TasaDevolucion = round4(d.VentaDevolucionTotal / d.VentaBrutaTotal)
		}
		dims = append(dims, *d)
	}
	return dims
}

// rankPareto keeps items with positive net totals, sorts them by net total
// descending and assigns shares, cumulative shares, ABC classes and dense
// 1-based ranks.
func (c *Calculator) rankPareto(dims []model.DimArticulo) ([]model.DimArticulo, error) {
	ranked := dims[:0:0]
	for _, d := range dims {
		if d.VentaNetaTotal > 0 {
			ranked = append(ranked, d)
		}
	}
	if len(ranked) == 0 {
		return nil, ErrNoPositiveSales
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].VentaNetaTotal != ranked[j].VentaNetaTotal {
			return ranked[i].VentaNetaTotal > ranked[j].VentaNetaTotal
		}
		return ranked[i].Articulo < ranked[j].Articulo
	})

	totalPositive := 0.0
	for _, d := range ranked {
		totalPositive += d.VentaNetaTotal
	}

	classCount := map[string]int{}
	cumulative := 0.0
	for i := range ranked {
		share := round4(ranked[i].VentaNetaTotal / totalPositive)
		cumulative = round4(cumulative + share)

		ranked[i].PorcentajeGlobal = share
		ranked[i].PorcentajeAcumulado = cumulative
		ranked[i].Ranking = i + 1
		ranked[i].ClasificacionABC = c.classify(cumulative)
		classCount[ranked[i].ClasificacionABC]++
	}

	c.log.Info("pareto ranking done",
		"items", len(ranked),
		"totalPositive", fmt.Sprintf("%.2f", totalPositive),
		"classA", classCount["A"],
		"classB", classCount["B"],
		"classC", classCount["C"])

	return ranked, nil
}

func (c *Calculator) classify(cumulative float64) string {
	switch {
	case cumulative <= c.opts.ClassAThreshold:
		return "A"
	case cumulative <= c.opts.ClassBThreshold:
		return "B"
	default:
		return "C"
	}
}

// checkConsistency verifies that both tables sum to the same net total
// within the rounding tolerance. A divergence is logged, never fatal.
func (c *Calculator) checkConsistency(dims []model.DimArticulo, facts []model.FactVenta) ConsistencyReport {
	report := ConsistencyReport{}
	for _, d := range dims {
		report.DimTotal += d.VentaNetaTotal
	}
	for _, f := range facts {
		report.FactTotal += f.VentaNeta
	}
	report.DimTotal = round2(report.DimTotal)
	report.FactTotal = round2(report.FactTotal)
	report.Difference = round2(math.Abs(report.DimTotal - report.FactTotal))
	report.OK = report.Difference < c.opts.ConsistencyTolerance

	if report.OK {
		c.log.Info("fact/dim consistency check passed",
			"dimTotal", report.DimTotal, "factTotal", report.FactTotal)
	} else {
		c.log.Warn("fact/dim totals diverge beyond tolerance",
			"dimTotal", report.DimTotal,
			"factTotal", report.FactTotal,
			"difference", report.Difference,
			"tolerance", c.opts.ConsistencyTolerance)
	}
	return report
}

// branchDimension derives the branch dimension from the exported facts.
func branchDimension(facts []model.FactVenta) []model.DimSucursal {
	seen := make(map[string]bool)
	var out []model.DimSucursal
	for _, f := range facts {
		if seen[f.Sucursal] {
			continue
		}
		seen[f.Sucursal] = true
		tipo := model.SucursalFisica
		if strings.Contains(f.Sucursal, model.SucursalOnline) {
			tipo = model.SucursalOnline
		}
		out = append(out, model.DimSucursal{Sucursal: f.Sucursal, Tipo: tipo})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sucursal < out[j].Sucursal })
	return out
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
