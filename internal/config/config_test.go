package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty image dir", func(c *Config) { c.Paths.ImageDir = "" }},
		{"extension without dot", func(c *Config) { c.Corpus.ImageExtension = "bmp" }},
		{"single mask name", func(c *Config) { c.Masks.Names = []string{"0"} }},
		{"duplicate mask name", func(c *Config) { c.Masks.Names = []string{"0", "E", "1", "1"} }},
		{"zero coverage", func(c *Config) { c.Masks.MaxCoverage = 0 }},
		{"duplicate prefix", func(c *Config) { c.Saliency.Sources[1].Prefix = "saliency" }},
		{"unknown filter", func(c *Config) { c.Saliency.ResizeFilter = "box" }},
		{"quality too high", func(c *Config) { c.Stats.JPEGQuality = 101 }},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Paths.ImageDir = "/data/iaps"
	cfg.Stats.JPEGQuality = 75
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Paths.ImageDir != "/data/iaps" {
		t.Errorf("Expected image dir /data/iaps, got %s", loaded.Paths.ImageDir)
	}
	if loaded.Stats.JPEGQuality != 75 {
		t.Errorf("Expected quality 75, got %d", loaded.Stats.JPEGQuality)
	}
	if len(loaded.Saliency.Sources) != 2 {
		t.Errorf("Expected 2 saliency sources, got %d", len(loaded.Saliency.Sources))
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"paths": {"image_dir": "/corpus"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Paths.ImageDir != "/corpus" {
		t.Errorf("Expected image dir /corpus, got %s", cfg.Paths.ImageDir)
	}
	if cfg.Geometry.Extension != ".OBT" {
		t.Errorf("Expected default geometry extension, got %s", cfg.Geometry.Extension)
	}
	if cfg.Paths.Output != "stats.csv" {
		t.Errorf("Expected default output, got %s", cfg.Paths.Output)
	}
}

func TestAnalyzerConfig(t *testing.T) {
	cfg := Default()
	cfg.Paths.AOIDir = "/aoi"
	cfg.Stats.JPEGQuality = 60

	ac, err := cfg.Analyzer()
	if err != nil {
		t.Fatalf("Analyzer failed: %v", err)
	}
	if ac.GeometryDir != "/aoi" || ac.JPEGQuality != 60 {
		t.Errorf("Unexpected analyzer config %+v", ac)
	}
	if len(ac.Sources) != 2 || ac.Sources[1].Prefix != "sun_saliency" {
		t.Errorf("Unexpected saliency sources %+v", ac.Sources)
	}
}
