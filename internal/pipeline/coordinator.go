package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ventastar/internal/calculator"
	"ventastar/internal/cleaner"
	"ventastar/internal/config"
	"ventastar/internal/exporter"
	"ventastar/internal/importer"
	"ventastar/internal/model"
	"ventastar/internal/store"
)

// ProgressEvent is one step of a running pipeline, published on the
// progress channel.
type ProgressEvent struct {
	Type      string      `json:"type"` // start/stage/warning/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RunReport summarizes one full pipeline run.
type RunReport struct {
	RunID            string                        `json:"runId"`
	Files            []importer.FileResult         `json:"files"`
	FilesFound       int                           `json:"filesFound"`
	FilesImported    int                           `json:"filesImported"`
	FilesSkipped     int                           `json:"filesSkipped"`
	RowsConsolidated int                           `json:"rowsConsolidated"`
	Clean            cleaner.Stats                 `json:"clean"`
	Facts            int                           `json:"facts"`
	Articulos        int                           `json:"articulos"`
	Sucursales       int                           `json:"sucursales"`
	ClassCounts      map[string]int                `json:"classCounts"`
	Consistency      calculator.ConsistencyReport  `json:"consistency"`
	OutputPaths      map[string]string             `json:"outputPaths"`
	WarehouseLoaded  bool                          `json:"warehouseLoaded"`
	Duration         time.Duration                 `json:"duration"`
	Schema           *model.StarSchema             `json:"-"`
}

// Coordinator wires the stages together: consolidate, clean, calculate,
// export, and (optionally) load the SQLite warehouse. Stages own the data
// exclusively and hand it forward; nothing here is concurrent beyond the
// progress channel.
type Coordinator struct {
	cfg *config.AppConfig
	log *slog.Logger
}

// NewCoordinator creates a coordinator. A nil logger falls back to
// slog.Default.
func NewCoordinator(cfg *config.AppConfig, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{cfg: cfg, log: log}
}

// Run executes the pipeline in a goroutine and returns the progress
// channel. The terminal event is either "done" (Data: *RunReport) or
// "error".
func (c *Coordinator) Run() <-chan ProgressEvent {
	progress := make(chan ProgressEvent, 100)

	go func() {
		defer close(progress)
		report, err := c.run(progress)
		if err != nil {
			c.send(progress, ProgressEvent{
				Type:      "error",
				Message:   err.Error(),
				Timestamp: time.Now(),
			})
			return
		}
		c.send(progress, ProgressEvent{
			Type:      "done",
			Message:   "pipeline completed",
			Data:      report,
			Timestamp: time.Now(),
		})
	}()

	return progress
}

// RunSync executes the pipeline synchronously, discarding progress events.
func (c *Coordinator) RunSync() (*RunReport, error) {
	return c.run(nil)
}

func (c *Coordinator) run(progress chan ProgressEvent) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{
		RunID:       uuid.New().String(),
		ClassCounts: map[string]int{},
	}
	log := c.log.With("runId", report.RunID)

	c.send(progress, ProgressEvent{
		Type:      "start",
		Message:   fmt.Sprintf("pipeline run %s", report.RunID),
		Timestamp: time.Now(),
	})
	log.Info("pipeline started", "rawDir", c.cfg.Data.RawDir)

	// Extraction: per-file sniff + normalize + branch tagging.
	c.stage(progress, "extracting input files")
	cons := importer.NewConsolidator(log)
	table, files, err := cons.Consolidate(c.cfg.Data.RawDir)
	report.Files = files
	report.FilesFound = len(files)
	for _, f := range files {
		if f.Status == "imported" {
			report.FilesImported++
		} else {
			report.FilesSkipped++
		}
	}
	if err != nil {
		return nil, err
	}
	report.RowsConsolidated = len(table.Rows)

	// Cleaning: typing, Venta_Neta derivation, summary-row filter.
	c.stage(progress, "cleaning consolidated data")
	cl := cleaner.NewCleaner(log)
	records, stats := cl.Clean(table)
	report.Clean = stats

	// Transformation: Pareto/ABC star schema.
	c.stage(progress, "building star schema")
	calc := calculator.NewCalculator(calculator.Options{
		ClassAThreshold:      c.cfg.Pareto.ClassAThreshold,
		ClassBThreshold:      c.cfg.Pareto.ClassBThreshold,
		ConsistencyTolerance: c.cfg.Pareto.ConsistencyTolerance,
	}, log)
	schema, consistency, err := calc.BuildStarSchema(records)
	if err != nil {
		return nil, err
	}
	report.Schema = schema
	report.Consistency = consistency
	report.Facts = len(schema.Facts)
	report.Articulos = len(schema.Articulos)
	report.Sucursales = len(schema.Sucursales)
	for _, d := range schema.Articulos {
		report.ClassCounts[d.ClasificacionABC]++
	}
	if !consistency.OK {
		c.send(progress, ProgressEvent{
			Type:      "warning",
			Message:   fmt.Sprintf("fact/dim totals diverge by %.2f", consistency.Difference),
			Timestamp: time.Now(),
		})
	}

	// Load: regional CSVs, then the optional warehouse.
	c.stage(progress, "exporting star schema")
	exp := exporter.NewExporter(c.cfg.Separator(), c.cfg.Export.DecimalComma, log)
	paths, err := exp.Export(c.cfg.Data.ProcessedDir, schema)
	if err != nil {
		return nil, err
	}
	report.OutputPaths = paths

	if c.cfg.Export.SQLitePath != "" {
		c.stage(progress, "loading warehouse")
		if err := c.loadWarehouse(schema); err != nil {
			// The CSVs are already on disk; a warehouse failure is a
			// degraded run, not a failed one.
			log.Error("warehouse load failed", "error", err)
			c.send(progress, ProgressEvent{
				Type:      "warning",
				Message:   fmt.Sprintf("warehouse load failed: %v", err),
				Timestamp: time.Now(),
			})
		} else {
			report.WarehouseLoaded = true
		}
	}

	report.Duration = time.Since(start)
	log.Info("pipeline finished",
		"duration", report.Duration,
		"facts", report.Facts,
		"articulos", report.Articulos,
		"sucursales", report.Sucursales)

	return report, nil
}

func (c *Coordinator) loadWarehouse(schema *model.StarSchema) error {
	st, err := store.New(c.cfg.Export.SQLitePath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.ReplaceStarSchema(schema)
}

func (c *Coordinator) stage(progress chan ProgressEvent, msg string) {
	c.send(progress, ProgressEvent{
		Type:      "stage",
		Message:   msg,
		Timestamp: time.Now(),
	})
}

// send publishes an event, dropping it when the channel is full or absent.
func (c *Coordinator) send(ch chan ProgressEvent, event ProgressEvent) {
	if ch == nil {
		return
	}
	select {
	case ch <- event:
	default:
	}
}
