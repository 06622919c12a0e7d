package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ventastar/internal/model"
	"ventastar/internal/parser"
)

// Fatal consolidation errors.
var (
	// ErrNoFiles: the raw directory yielded no input files at all.
	ErrNoFiles = errors.New("no input files found")
	// ErrNoData: files were found but none survived sniffing+normalization.
	ErrNoData = errors.New("no input file could be processed")
)

// TableReader abstracts the best-effort sniffer so a stricter
// schema-validated reader can be swapped in without touching the
// consolidation flow.
type TableReader interface {
	Read(path string) (*parser.Table, parser.SniffResult, error)
}

// FileResult is the per-file outcome of a consolidation run.
type FileResult struct {
	File         string        `json:"file"`
	Sucursal     string        `json:"sucursal"`
	Status       string        `json:"status"` // imported/skipped
	Rows         int           `json:"rows"`
	Encoding     string        `json:"encoding,omitempty"`
	HeaderOffset int           `json:"headerOffset"`
	Fallback     bool          `json:"fallback,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Consolidator discovers branch export files, normalizes each one
// independently and concatenates them into a single working table, tagging
// every row with the branch derived from the file name. A file that fails
// to sniff or normalize is logged and skipped; it never aborts the run.
type Consolidator struct {
	reader     TableReader
	normalizer *parser.Normalizer
	log        *slog.Logger
}

// NewConsolidator creates a consolidator backed by the header sniffer.
func NewConsolidator(log *slog.Logger) *Consolidator {
	if log == nil {
		log = slog.Default()
	}
	return &Consolidator{
		reader:     parser.NewSniffer(log),
		normalizer: parser.NewNormalizer(log),
		log:        log,
	}
}

// NewConsolidatorWithReader creates a consolidator with a custom reader.
func NewConsolidatorWithReader(reader TableReader, log *slog.Logger) *Consolidator {
	c := NewConsolidator(log)
	c.reader = reader
	return c
}

// Consolidate processes every discovered file under rawDir and returns the
// concatenated table plus per-file results. The column set is the union of
// all normalized columns; cells a file did not carry stay empty.
func (c *Consolidator) Consolidate(rawDir string) (*parser.Table, []FileResult, error) {
	files, err := discoverFiles(rawDir)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoFiles, rawDir)
	}

	c.log.Info("consolidating input files", "dir", rawDir, "files", len(files))

	master := &parser.Table{}
	var results []FileResult
	imported := 0

	for _, path := range files {
		res := c.processFile(master, path)
		results = append(results, res)
		if res.Status == "imported" {
			imported++
		}
	}

	if imported == 0 {
		return nil, results, fmt.Errorf("%w (%d files, all skipped)", ErrNoData, len(files))
	}

	c.log.Info("consolidation done",
		"files", len(files),
		"imported", imported,
		"rows", len(master.Rows),
		"columns", len(master.Columns))

	return master, results, nil
}

// processFile sniffs and normalizes one file and merges it into master.
// Both parse and schema errors are scoped to the file.
func (c *Consolidator) processFile(master *parser.Table, path string) FileResult {
	start := time.Now()
	base := filepath.Base(path)
	sucursal := branchName(base)

	result := FileResult{File: base, Sucursal: sucursal}

	table, sniff, err := c.reader.Read(path)
	if err != nil {
		c.log.Error("file skipped: sniff failed", "file", base, "error", err)
		result.Status = "skipped"
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	normalized, err := c.normalizer.Normalize(table)
	if err != nil {
		c.log.Error("file skipped: normalization failed", "file", base, "error", err)
		result.Status = "skipped"
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	mergeTable(master, normalized, sucursal)

	result.Status = "imported"
	result.Rows = len(normalized.Rows)
	result.Encoding = sniff.Encoding
	result.HeaderOffset = sniff.HeaderOffset
	result.Fallback = sniff.Fallback
	result.Duration = time.Since(start)

	c.log.Info("file imported",
		"file", base,
		"sucursal", sucursal,
		"rows", result.Rows,
		"encoding", sniff.Encoding,
		"headerOffset", sniff.HeaderOffset,
		"fallback", sniff.Fallback)

	return result
}

// discoverFiles lists supported exports in dir, sorted by name.
func discoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx", ".xlsm":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// branchName derives the branch identifier from a file name: base name
// without extension, uppercased.
func branchName(base string) string {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToUpper(strings.TrimSpace(name))
}

// mergeTable appends src rows to master under the union of both column
// sets, stamping the branch on every appended row. Duplicate column names
// within one file keep their multiplicity (the n-th duplicate aligns with
// the n-th master occurrence).
func mergeTable(master *parser.Table, src *parser.Table, sucursal string) {
	colIdx := make([]int, len(src.Columns))
	seen := make(map[string]int)

	for i, name := range src.Columns {
		ordinal := seen[name]
		seen[name] = ordinal + 1
		colIdx[i] = masterColumn(master, name, ordinal)
	}
	sucIdx := masterColumn(master, model.ColSucursal, 0)

	for _, row := range src.Rows {
		out := make([]string, len(master.Columns))
		for i, cell := range row {
			if i >= len(colIdx) {
				break
			}
			out[colIdx[i]] = cell
		}
		out[sucIdx] = sucursal
		master.Rows = append(master.Rows, out)
	}

	// Earlier rows may be narrower than the final column union.
	for i, row := range master.Rows {
		if len(row) < len(master.Columns) {
			widened := make([]string, len(master.Columns))
			copy(widened, row)
			master.Rows[i] = widened
		}
	}
}

// masterColumn finds the ordinal-th occurrence of name in master's
// columns, appending a new column when absent.
func masterColumn(master *parser.Table, name string, ordinal int) int {
	count := 0
	for i, col := range master.Columns {
		if col == name {
			if count == ordinal {
				return i
			}
			count++
		}
	}
	master.Columns = append(master.Columns, name)
	return len(master.Columns) - 1
}
