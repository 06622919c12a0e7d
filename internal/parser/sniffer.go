package parser

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Keywords a plausible sales export header must show at least twice
// (accent-stripped, lowercased, substring match).
var sniffKeywords = []string{"art", "prod", "desc", "prec", "cant", "total"}

// Header row positions to try, in order. -1 treats every row as data.
var headerOffsets = []int{0, 1, 2, 3, -1}

// Fixed best-effort default when no combination validates.
const fallbackHeaderOffset = 2

// Sniffer reads a raw tabular file with unknown encoding, delimiter and
// header position and returns the first parse that looks like a sales
// export. When nothing validates it falls back to a fixed default (header
// at offset 2, UTF-8, comma) instead of failing; the result is flagged so
// callers know it is a guess, not a guarantee.
type Sniffer struct {
	log *slog.Logger
}

// NewSniffer creates a sniffer. A nil logger falls back to slog.Default.
func NewSniffer(log *slog.Logger) *Sniffer {
	if log == nil {
		log = slog.Default()
	}
	return &Sniffer{log: log}
}

// Read dispatches on the file extension: Excel workbooks skip the encoding
// and delimiter dimensions, everything else is treated as CSV.
func (s *Sniffer) Read(path string) (*Table, SniffResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return s.sniffExcel(path)
	default:
		return s.sniffCSV(path)
	}
}

func (s *Sniffer) sniffCSV(path string) (*Table, SniffResult, error) {
	base := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, SniffResult{}, fmt.Errorf("read %s: %w", base, err)
	}

	encodings := []struct {
		name   string
		decode func([]byte) (string, bool)
	}{
		{"utf-8", decodeUTF8},
		{"latin-1", decodeCharmap(charmap.ISO8859_1)},
		{"windows-1252", decodeCharmap(charmap.Windows1252)},
	}

	for _, enc := range encodings {
		text, ok := enc.decode(data)
		if !ok {
			continue
		}
		for _, offset := range headerOffsets {
			for _, delim := range []rune{',', ';'} {
				table := parseDelimited(text, delim, offset)
				if table == nil {
					continue
				}
				if hasValidColumns(table) {
					s.log.Debug("header detected",
						"file", base,
						"encoding", enc.name,
						"headerOffset", offset,
						"delimiter", string(delim))
					return table, SniffResult{
						Encoding:     enc.name,
						HeaderOffset: offset,
						Delimiter:    delim,
					}, nil
				}
			}
		}
	}

	// Best-effort fallback, not a correctness guarantee.
	table := parseDelimited(string(data), ',', fallbackHeaderOffset)
	if table == nil {
		return nil, SniffResult{}, fmt.Errorf("sniff %s: no parseable rows at fallback header offset %d", base, fallbackHeaderOffset)
	}
	s.log.Warn("no valid header combination found, using fallback",
		"file", base, "headerOffset", fallbackHeaderOffset)
	return table, SniffResult{
		Encoding:     "utf-8",
		HeaderOffset: fallbackHeaderOffset,
		Delimiter:    ',',
		Fallback:     true,
	}, nil
}

// parseDelimited parses text with the given delimiter and header offset.
// Returns nil when the combination cannot produce a table at all.
func parseDelimited(text string, delim rune, offset int) *Table {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return nil
	}
	return tableFromRecords(records, offset)
}

// tableFromRecords applies a header offset to raw records. offset -1 keeps
// every record as data under synthetic column names.
func tableFromRecords(records [][]string, offset int) *Table {
	if len(records) == 0 {
		return nil
	}

	if offset < 0 {
		width := 0
		for _, rec := range records {
			if len(rec) > width {
				width = len(rec)
			}
		}
		cols := make([]string, width)
		for i := range cols {
			cols[i] = fmt.Sprintf("col_%d", i+1)
		}
		return &Table{Columns: cols, Rows: records}
	}

	if offset >= len(records) {
		return nil
	}
	return &Table{
		Columns: records[offset],
		Rows:    records[offset+1:],
	}
}

// hasValidColumns is the acceptance predicate: at least 3 columns, and at
// least 2 of them naming something sales-shaped.
func hasValidColumns(t *Table) bool {
	if t == nil || len(t.Columns) < 3 {
		return false
	}
	matches := 0
	for _, col := range t.Columns {
		key := strings.ToLower(RemoveAccents(col))
		if ContainsAny(key, sniffKeywords) {
			matches++
		}
	}
	return matches >= 2
}

func decodeUTF8(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

func decodeCharmap(cm *charmap.Charmap) func([]byte) (string, bool) {
	return func(data []byte) (string, bool) {
		out, _, err := transform.Bytes(cm.NewDecoder(), data)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}
