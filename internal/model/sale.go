package model

// SaleRecord is one cleaned line item: typed, branch-tagged and with the
// net sale already derived from whichever total column the source carried.
type SaleRecord struct {
	Articulo    string  `json:"articulo"`
	Descripcion string  `json:"descripcion"`
	Sucursal    string  `json:"sucursal"`
	Cantidad    float64 `json:"cantidad"`
	Precio      float64 `json:"precio"`
	VentaNeta   float64 `json:"ventaNeta"`
}
