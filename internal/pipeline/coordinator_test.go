package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"ventastar/internal/calculator"
	"ventastar/internal/config"
	"ventastar/internal/exporter"
	"ventastar/internal/importer"
	"ventastar/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	base := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Data.RawDir = filepath.Join(base, "raw")
	cfg.Data.ProcessedDir = filepath.Join(base, "processed")
	cfg.Data.LogDir = filepath.Join(base, "logs")
	cfg.Export.SQLitePath = filepath.Join(base, "ventas.db")
	if err := os.MkdirAll(cfg.Data.RawDir, 0755); err != nil {
		t.Fatalf("mkdir raw: %v", err)
	}
	return cfg
}

// fakeBranchCSV renders a branch export with the given header dialect and
// faker-generated item rows.
func fakeBranchCSV(f *gofakeit.Faker, header string, sep string, items int) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 0; i < items; i++ {
		qty := f.Number(1, 20)
		price := float64(f.Number(100, 9999)) / 100
		b.WriteString(strings.Join([]string{
			fmt.Sprintf("A%03d", i+1),
			strings.ToUpper(f.ProductName()),
			fmt.Sprintf("%d", qty),
			fmt.Sprintf("%.2f", price),
			fmt.Sprintf("%.2f", float64(qty)*price),
		}, sep) + "\n")
	}
	return b.String()
}

func writeRaw(t *testing.T, cfg *config.AppConfig, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(cfg.Data.RawDir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRunSyncEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	f := gofakeit.New(11)
	writeRaw(t, cfg, "centro.csv",
		fakeBranchCSV(f, "Articulo,Descripcion,Cantidad,Precio,Total", ",", 12))
	writeRaw(t, cfg, "online.csv",
		fakeBranchCSV(f, "Codigo;Desc;Cant;Precio;Importe", ";", 8))

	report, err := NewCoordinator(cfg, testLogger()).RunSync()
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.RunID == "" {
		t.Fatal("missing run ID")
	}
	if report.FilesImported != 2 || report.FilesSkipped != 0 {
		t.Fatalf("files = %+v", report.Files)
	}
	if report.RowsConsolidated != 20 {
		t.Fatalf("rows = %d, want 20", report.RowsConsolidated)
	}
	if report.Articulos == 0 || report.Facts == 0 || report.Sucursales != 2 {
		t.Fatalf("schema sizes = %d/%d/%d", report.Articulos, report.Facts, report.Sucursales)
	}
	if !report.Consistency.OK {
		t.Fatalf("consistency = %+v", report.Consistency)
	}

	var classed int
	for _, n := range report.ClassCounts {
		classed += n
	}
	if classed != report.Articulos {
		t.Fatalf("class counts %v do not cover %d items", report.ClassCounts, report.Articulos)
	}

	for _, name := range []string{
		exporter.DimArticulosFile, exporter.DimSucursalesFile, exporter.FactVentasFile,
	} {
		if _, err := os.Stat(filepath.Join(cfg.Data.ProcessedDir, name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}

	if !report.WarehouseLoaded {
		t.Fatal("warehouse not loaded")
	}
	s, err := store.New(cfg.Export.SQLitePath)
	if err != nil {
		t.Fatalf("open warehouse: %v", err)
	}
	defer s.Close()
	n, err := s.CountRows("fact_ventas")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != report.Facts {
		t.Fatalf("warehouse facts = %d, report says %d", n, report.Facts)
	}
}

func TestRunProgressEvents(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Export.SQLitePath = "" // CSVs only
	writeRaw(t, cfg, "centro.csv",
		fakeBranchCSV(gofakeit.New(7), "Articulo,Descripcion,Cantidad,Precio,Total", ",", 5))

	var events []ProgressEvent
	for ev := range NewCoordinator(cfg, testLogger()).Run() {
		events = append(events, ev)
	}

	if len(events) < 3 {
		t.Fatalf("events = %d", len(events))
	}
	if events[0].Type != "start" {
		t.Fatalf("first event = %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Type != "done" {
		t.Fatalf("terminal event = %+v", last)
	}
	report, ok := last.Data.(*RunReport)
	if !ok || report.WarehouseLoaded {
		t.Fatalf("terminal payload = %+v", last.Data)
	}
}

func TestRunSyncNoFiles(t *testing.T) {
	t.Parallel()

	_, err := NewCoordinator(testConfig(t), testLogger()).RunSync()
	if !errors.Is(err, importer.ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}
}

func TestRunSyncNoPositiveSales(t *testing.T) {
	t.Parallel()

	// Importable file with an identity column but no usable total: every
	// net amount degenerates to zero and the ranking has nothing to work
	// with.
	cfg := testConfig(t)
	writeRaw(t, cfg, "centro.csv",
		"Articulo,Descripcion,Cantidad\nA001,CAMISA,2\nA002,PANTALON,1\n")

	_, err := NewCoordinator(cfg, testLogger()).RunSync()
	if !errors.Is(err, calculator.ErrNoPositiveSales) {
		t.Fatalf("err = %v, want ErrNoPositiveSales", err)
	}
}
