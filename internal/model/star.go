package model

// FactVenta is one fact row at (Articulo, Sucursal) grain. Monetary sums
// are rounded to 2 decimals, quantities to whole units.
type FactVenta struct {
	Articulo        string  `json:"articulo"`
	Sucursal        string  `json:"sucursal"`
	VentaNeta       float64 `json:"ventaNeta"`
	VentaBruta      float64 `json:"ventaBruta"`
	VentaDevolucion float64 `json:"ventaDevolucion"`
	Cantidad        float64 `json:"cantidad"`
}

// DimArticulo is one ranked item-dimension row, rebuilt from the fact rows
// so both tables always sum to the same net total.
type DimArticulo struct {
	Articulo             string  `json:"articulo"`
	Descripcion          string  `json:"descripcion"`
	Ranking              int     `json:"ranking"`
	ClasificacionABC     string  `json:"clasificacionAbc"`
	VentaNetaTotal       float64 `json:"ventaNetaTotal"`
	VentaBrutaTotal      float64 `json:"ventaBrutaTotal"`
	VentaDevolucionTotal float64 `json:"ventaDevolucionTotal"`
	TasaDevolucion       float64 `json:"tasaDevolucion"`
	PorcentajeGlobal     float64 `json:"porcentajeArticuloGlobal"`
	PorcentajeAcumulado  float64 `json:"porcentajeAcumulado"`
}

// DimSucursal is one branch-dimension row. Tipo is ONLINE when the branch
// name contains "ONLINE", FISICA otherwise.
type DimSucursal struct {
	Sucursal string `json:"sucursal"`
	Tipo     string `json:"tipo"`
}

// Branch types.
const (
	SucursalOnline = "ONLINE"
	SucursalFisica = "FISICA"
)

// StarSchema bundles the three export tables of one pipeline run.
type StarSchema struct {
	Facts      []FactVenta   `json:"facts"`
	Articulos  []DimArticulo `json:"articulos"`
	Sucursales []DimSucursal `json:"sucursales"`
}
