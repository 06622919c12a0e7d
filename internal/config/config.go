package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the pipeline configuration, loaded from config.toml next to
// the executable.
type AppConfig struct {
	Data   DataConfig   `toml:"data"`
	Pareto ParetoConfig `toml:"pareto"`
	Export ExportConfig `toml:"export"`
}

// DataConfig locates the input, output and log directories.
type DataConfig struct {
	RawDir       string `toml:"raw_dir"`
	ProcessedDir string `toml:"processed_dir"`
	LogDir       string `toml:"log_dir"`
}

// ParetoConfig tunes the ABC classification.
type ParetoConfig struct {
	ClassAThreshold      float64 `toml:"class_a_threshold"`
	ClassBThreshold      float64 `toml:"class_b_threshold"`
	ConsistencyTolerance float64 `toml:"consistency_tolerance"`
}

// ExportConfig controls the output format. SQLitePath empty disables the
// warehouse load.
type ExportConfig struct {
	CSVSeparator string `toml:"csv_separator"`
	DecimalComma bool   `toml:"decimal_comma"`
	SQLitePath   string `toml:"sqlite_path"`
}

// DefaultConfig returns the configuration used when no config.toml exists.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Data: DataConfig{
			RawDir:       filepath.Join("data", "raw"),
			ProcessedDir: filepath.Join("data", "processed"),
			LogDir:       "logs",
		},
		Pareto: ParetoConfig{
			ClassAThreshold:      0.80,
			ClassBThreshold:      0.95,
			ConsistencyTolerance: 1.0,
		},
		Export: ExportConfig{
			CSVSeparator: ";",
			DecimalComma: true,
		},
	}
}

// Separator returns the configured CSV field separator as a rune,
// defaulting to ';'.
func (c *AppConfig) Separator() rune {
	for _, r := range c.Export.CSVSeparator {
		return r
	}
	return ';'
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig loads config.toml from the executable's directory, falling
// back to defaults when the file does not exist. Environment variables
// VENTASTAR_RAW_DIR and VENTASTAR_SQLITE_PATH override the file.
func LoadConfig() (*AppConfig, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return LoadConfigFile(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFile loads a specific config file.
func LoadConfigFile(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("VENTASTAR_RAW_DIR"); v != "" {
		cfg.Data.RawDir = v
	}
	if v := os.Getenv("VENTASTAR_SQLITE_PATH"); v != "" {
		cfg.Export.SQLitePath = v
	}
}

// SaveConfig writes the configuration as config.toml next to the
// executable.
func SaveConfig(cfg *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return SaveConfigFile(filepath.Join(exeDir, "config.toml"), cfg)
}

// SaveConfigFile writes the configuration to a specific path.
func SaveConfigFile(path string, cfg *AppConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDirs creates the processed and log directories.
func EnsureDirs(cfg *AppConfig) error {
	for _, dir := range []string{cfg.Data.ProcessedDir, cfg.Data.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
