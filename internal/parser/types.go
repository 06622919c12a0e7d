package parser

import (
	"fmt"
	"strings"

	"ventastar/internal/model"
)

// Table is a parsed tabular file: named columns over string cells. Rows may
// be ragged; Cell pads missing trailing fields with "".
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the index of the named column, or -1. When two source
// columns were renamed to the same canonical name the last one wins, which
// mirrors a batch-rename followed by a positional lookup.
func (t *Table) ColumnIndex(name string) int {
	for i := len(t.Columns) - 1; i >= 0; i-- {
		if t.Columns[i] == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at idx in row, "" when the row is shorter.
func (t *Table) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// SniffResult records the combination that produced an accepted parse.
type SniffResult struct {
	Encoding     string `json:"encoding"`
	HeaderOffset int    `json:"headerOffset"` // -1 = headerless
	Delimiter    rune   `json:"delimiter"`
	Fallback     bool   `json:"fallback"` // no combination validated; fixed default used
}

// SchemaError reports a table whose identity column could not be inferred.
// Processing of that file cannot continue without it.
type SchemaError struct {
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no column maps to %s (have: %s)",
		model.ColArticulo, strings.Join(e.Columns, ", "))
}
