package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/menta2k/aoistats/pkg/analyzer"
	"github.com/menta2k/aoistats/pkg/mask"
	"github.com/menta2k/aoistats/pkg/regionstats"
	"github.com/menta2k/aoistats/pkg/saliency"
)

// Config holds the application configuration
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Corpus   CorpusConfig   `json:"corpus"`
	Geometry GeometryConfig `json:"geometry"`
	Masks    MasksConfig    `json:"masks"`
	Saliency SaliencyConfig `json:"saliency"`
	Stats    StatsConfig    `json:"stats"`
	Batch    BatchConfig    `json:"batch"`
	Log      LogConfig      `json:"log"`
}

// PathsConfig holds input and output locations
type PathsConfig struct {
	ImageDir    string `json:"image_dir"`
	AOIDir      string `json:"aoi_dir"`
	Output      string `json:"output"`
	Report      string `json:"report"`
	MaskDumpDir string `json:"mask_dump_dir"`
}

// CorpusConfig holds configuration for image enumeration
type CorpusConfig struct {
	ImageExtension string `json:"image_extension"`
	MinImageSize   int    `json:"min_image_size"`
}

// GeometryConfig holds configuration for AOI files
type GeometryConfig struct {
	Extension string `json:"extension"`
}

// MasksConfig holds configuration for mask generation
type MasksConfig struct {
	Names       []string `json:"names"`
	MaxCoverage float64  `json:"max_coverage"`
}

// SaliencyConfig holds configuration for saliency correlation
type SaliencyConfig struct {
	Sources      []saliency.Source `json:"sources"`
	ResizeFilter string            `json:"resize_filter"`
}

// StatsConfig holds configuration for region statistics
type StatsConfig struct {
	JPEGQuality int `json:"jpeg_quality"`
}

// BatchConfig holds configuration for the batch driver
type BatchConfig struct {
	Workers int `json:"workers"`
}

// LogConfig holds configuration for diagnostics
type LogConfig struct {
	Level string `json:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			ImageDir: "./images",
			AOIDir:   "./aoi",
			Output:   "stats.csv",
		},
		Corpus: CorpusConfig{
			ImageExtension: ".bmp",
			MinImageSize:   1,
		},
		Geometry: GeometryConfig{
			Extension: ".OBT",
		},
		Masks: MasksConfig{
			Names:       append([]string(nil), mask.DefaultNames...),
			MaxCoverage: mask.DefaultMaxCoverage,
		},
		Saliency: SaliencyConfig{
			Sources: []saliency.Source{
				{Prefix: "saliency", Dir: "./saliency", Extension: ".png"},
				{Prefix: "sun_saliency", Dir: "./sunsaliency", Extension: ".png"},
			},
			ResizeFilter: "nearest",
		},
		Stats: StatsConfig{
			JPEGQuality: regionstats.DefaultQuality,
		},
		Batch: BatchConfig{
			Workers: 1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from
// the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Paths.ImageDir == "" {
		return fmt.Errorf("paths.image_dir cannot be empty")
	}

	if c.Paths.AOIDir == "" {
		return fmt.Errorf("paths.aoi_dir cannot be empty")
	}

	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output cannot be empty")
	}

	if !strings.HasPrefix(c.Corpus.ImageExtension, ".") {
		return fmt.Errorf("corpus.image_extension must start with a dot")
	}

	if c.Geometry.Extension == "" {
		return fmt.Errorf("geometry.extension cannot be empty")
	}

	if len(c.Masks.Names) < 2 {
		return fmt.Errorf("masks.names needs at least the union and emotional names")
	}

	seen := map[string]bool{}
	for _, name := range c.Masks.Names {
		if name == "" || seen[name] {
			return fmt.Errorf("masks.names must be unique and non-empty")
		}
		seen[name] = true
	}

	if c.Masks.MaxCoverage <= 0 || c.Masks.MaxCoverage > 1 {
		return fmt.Errorf("masks.max_coverage must be in (0, 1]")
	}

	prefixes := map[string]bool{}
	for _, src := range c.Saliency.Sources {
		if src.Prefix == "" || src.Dir == "" {
			return fmt.Errorf("saliency.sources entries need a prefix and a dir")
		}
		if prefixes[src.Prefix] {
			return fmt.Errorf("saliency.sources prefix %q is duplicated", src.Prefix)
		}
		prefixes[src.Prefix] = true
	}

	if _, err := saliency.ParseFilter(c.Saliency.ResizeFilter); err != nil {
		return fmt.Errorf("saliency.resize_filter: %w", err)
	}

	if c.Stats.JPEGQuality < 1 || c.Stats.JPEGQuality > 100 {
		return fmt.Errorf("stats.jpeg_quality must be between 1 and 100")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}

	return nil
}

// Prefixes returns the saliency column prefixes in configured order
func (c *Config) Prefixes() []string {
	prefixes := make([]string, len(c.Saliency.Sources))
	for i, src := range c.Saliency.Sources {
		prefixes[i] = src.Prefix
	}
	return prefixes
}

// Analyzer converts the configuration into per-image pipeline settings
func (c *Config) Analyzer() (analyzer.Config, error) {
	filter, err := saliency.ParseFilter(c.Saliency.ResizeFilter)
	if err != nil {
		return analyzer.Config{}, err
	}

	ac := analyzer.DefaultConfig()
	ac.GeometryDir = c.Paths.AOIDir
	ac.GeometryExtension = c.Geometry.Extension
	ac.MaskNames = c.Masks.Names
	ac.MaxCoverage = c.Masks.MaxCoverage
	ac.JPEGQuality = c.Stats.JPEGQuality
	ac.DumpDir = c.Paths.MaskDumpDir
	ac.Sources = c.Saliency.Sources
	ac.ResizeFilter = filter
	ac.MinImageSize = c.Corpus.MinImageSize
	return ac, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "aoistats", "config.json")
}
