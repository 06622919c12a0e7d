package model

// Canonical column names every input file is mapped onto before cleaning.
// The normalizer renames raw headers to these; everything downstream keys
// off them.
const (
	ColArticulo    = "Articulo"
	ColDescripcion = "Descripcion"
	ColCantidad    = "Cantidad"
	ColPrecio      = "Precio"
	ColTotalPrecio = "Total_precio"
	ColSucursal    = "Sucursal"
)

// DescripcionDefault fills the description when no source column mapped to
// Descripcion.
const DescripcionDefault = "SIN DESCRIPCION"
