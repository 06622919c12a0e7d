package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ventastar/internal/config"
	"ventastar/internal/pipeline"
)

var (
	configPath = flag.String("config", "", "config file (default: config.toml next to the executable)")
	rawDir     = flag.String("rawDir", "", "input directory with branch exports (overrides config)")
	outDir     = flag.String("outDir", "", "output directory for the star schema CSVs (overrides config)")
	sqlitePath = flag.String("sqlite", "", "SQLite warehouse path (overrides config; empty disables)")
	initConfig = flag.Bool("init", false, "write a default config.toml next to the executable and exit")
	verbose    = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config.toml: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("default config.toml written next to the executable")
		return
	}

	fmt.Println("==========================================")
	fmt.Println("  ventastar - ETL Pareto de ventas")
	fmt.Println("==========================================")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if *rawDir != "" {
		cfg.Data.RawDir = *rawDir
	}
	if *outDir != "" {
		cfg.Data.ProcessedDir = *outDir
	}
	if *sqlitePath != "" {
		cfg.Export.SQLitePath = *sqlitePath
	}

	if err := config.EnsureDirs(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare directories: %v\n", err)
		os.Exit(1)
	}

	log, logFile := newLogger(cfg, *verbose)
	if logFile != nil {
		defer logFile.Close()
	}

	coord := pipeline.NewCoordinator(cfg, log)

	var report *pipeline.RunReport
	for event := range coord.Run() {
		switch event.Type {
		case "stage":
			fmt.Printf("-> %s\n", event.Message)
		case "warning":
			fmt.Printf("   WARN: %s\n", event.Message)
		case "error":
			fmt.Fprintf(os.Stderr, "pipeline failed: %s\n", event.Message)
			os.Exit(1)
		case "done":
			report, _ = event.Data.(*pipeline.RunReport)
		}
	}
	if report == nil {
		fmt.Fprintln(os.Stderr, "pipeline produced no report")
		os.Exit(1)
	}

	printSummary(report)
}

func loadConfig() (*config.AppConfig, error) {
	if *configPath != "" {
		return config.LoadConfigFile(*configPath)
	}
	return config.LoadConfig()
}

// newLogger builds the run logger: console plus a log file under the
// configured log directory, mirroring both destinations.
func newLogger(cfg *config.AppConfig, verbose bool) (*slog.Logger, *os.File) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	w := io.Writer(os.Stderr)
	var logFile *os.File
	if cfg.Data.LogDir != "" {
		path := filepath.Join(cfg.Data.LogDir, "ventastar.log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", path, err)
		} else {
			logFile = f
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), logFile
}

func printSummary(r *pipeline.RunReport) {
	fmt.Println()
	fmt.Printf("Run %s finished in %s\n", r.RunID, r.Duration.Round(1e6))
	fmt.Printf("  files:      %d found, %d imported, %d skipped\n",
		r.FilesFound, r.FilesImported, r.FilesSkipped)
	fmt.Printf("  rows:       %d consolidated, %d clean\n",
		r.RowsConsolidated, r.Clean.RowsOut)
	fmt.Printf("  articulos:  %d ranked (A=%d B=%d C=%d)\n",
		r.Articulos, r.ClassCounts["A"], r.ClassCounts["B"], r.ClassCounts["C"])
	fmt.Printf("  facts:      %d rows over %d sucursales\n", r.Facts, r.Sucursales)
	if !r.Consistency.OK {
		fmt.Printf("  WARN: fact/dim difference %.2f\n", r.Consistency.Difference)
	}
	if r.WarehouseLoaded {
		fmt.Println("  warehouse:  loaded")
	}
	fmt.Println("\nOutput files (Excel-Spanish format, Power BI ready):")
	for name, path := range r.OutputPaths {
		fmt.Printf("  %-14s %s\n", name, path)
	}
}
