package parser

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// sniffExcel reads the first sheet of a workbook and runs the same header
// offset search as the CSV path. Cell values arrive already decoded, so
// only the offset dimension applies.
func (s *Sniffer) sniffExcel(path string) (*Table, SniffResult, error) {
	base := filepath.Base(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, SniffResult{}, fmt.Errorf("open %s: %w", base, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, SniffResult{}, fmt.Errorf("sniff %s: workbook has no sheets", base)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, SniffResult{}, fmt.Errorf("read %s sheet %q: %w", base, sheets[0], err)
	}
	if len(records) == 0 {
		return nil, SniffResult{}, fmt.Errorf("sniff %s: sheet %q is empty", base, sheets[0])
	}

	for _, offset := range headerOffsets {
		table := tableFromRecords(records, offset)
		if table == nil {
			continue
		}
		if hasValidColumns(table) {
			s.logExcelHit(base, sheets[0], offset)
			return table, SniffResult{Encoding: "xlsx", HeaderOffset: offset}, nil
		}
	}

	table := tableFromRecords(records, fallbackHeaderOffset)
	if table == nil {
		return nil, SniffResult{}, fmt.Errorf("sniff %s: no parseable rows at fallback header offset %d", base, fallbackHeaderOffset)
	}
	s.log.Warn("no valid header combination found, using fallback",
		"file", base, "headerOffset", fallbackHeaderOffset)
	return table, SniffResult{
		Encoding:     "xlsx",
		HeaderOffset: fallbackHeaderOffset,
		Fallback:     true,
	}, nil
}

func (s *Sniffer) logExcelHit(file, sheet string, offset int) {
	s.log.Debug("header detected",
		"file", file, "sheet", sheet, "headerOffset", offset)
}
