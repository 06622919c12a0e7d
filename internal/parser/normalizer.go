package parser

import (
	"log/slog"
	"strings"

	"ventastar/internal/model"
)

// Substrings that claim a column for Articulo. First matching column wins
// and locks the role; the scan order is part of the contract, changing it
// silently changes which column becomes the identity key on ambiguous
// inputs.
var articuloKeywords = []string{"art", "prod", "codigo", "sku"}

// Normalizer renames arbitrary column labels onto the canonical vocabulary
// using ordered substring rules over trimmed, accent-stripped labels.
type Normalizer struct {
	log *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to
// slog.Default.
func NewNormalizer(log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{log: log}
}

// Normalize returns a copy of the table with canonical column names.
// Rules, evaluated per column in original order:
//
//  1. art/prod/codigo/sku        -> Articulo (first match only)
//  2. desc/nombre                -> Descripcion
//  3. cant (and not total)       -> Cantidad
//  4. exactly precio / precio unitario / preciou -> Precio
//  5. total+prec, or exactly total / importe     -> Total_precio
//
// Unmatched columns keep their cleaned label. A *SchemaError is returned
// when no column was claimed for Articulo. Running Normalize on an already
// canonical table is a no-op.
func (n *Normalizer) Normalize(t *Table) (*Table, error) {
	cleaned := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cleaned[i] = NormalizeLabel(col)
	}

	renamed := make([]string, len(cleaned))
	copy(renamed, cleaned)

	applied := make(map[string]string)
	articuloFound := false

	for i, col := range cleaned {
		key := strings.ToLower(col)

		if !articuloFound && ContainsAny(key, articuloKeywords) {
			renamed[i] = model.ColArticulo
			applied[col] = model.ColArticulo
			articuloFound = true
			continue
		}

		switch {
		case strings.Contains(key, "desc") || strings.Contains(key, "nombre"):
			renamed[i] = model.ColDescripcion
		case strings.Contains(key, "cant") && !strings.Contains(key, "total"):
			renamed[i] = model.ColCantidad
		case key == "precio" || key == "precio unitario" || key == "preciou":
			renamed[i] = model.ColPrecio
		case (strings.Contains(key, "total") && strings.Contains(key, "prec")) ||
			key == "total" || key == "importe":
			renamed[i] = model.ColTotalPrecio
		}
		if renamed[i] != col {
			applied[col] = renamed[i]
		}
	}

	if !articuloFound {
		n.log.Error("identity column not found",
			"columns", cleaned,
			"hint", "expected a column containing art/prod/codigo/sku")
		return nil, &SchemaError{Columns: cleaned}
	}

	if len(applied) > 0 {
		n.log.Debug("column mapping applied", "mapping", applied)
	}

	return &Table{Columns: renamed, Rows: t.Rows}, nil
}
