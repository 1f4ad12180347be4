package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/menta2k/aoistats/internal/config"
	"github.com/menta2k/aoistats/internal/logger"
	"github.com/menta2k/aoistats/internal/utils"
	"github.com/menta2k/aoistats/pkg/batch"
)

func main() {
	var cfgPath, images, aoi, sal, sunSal, out, report, dump, level, writeCfg string
	var workers, quality int

	flag.StringVar(&cfgPath, "config", "", "JSON configuration file (default ~/.config/aoistats/config.json if present)")
	flag.StringVar(&images, "images", "", "directory of stimulus images")
	flag.StringVar(&aoi, "aoi", "", "directory of AOI geometry files")
	flag.StringVar(&sal, "saliency", "", "directory of saliency maps")
	flag.StringVar(&sunSal, "sun-saliency", "", "directory of SUN saliency maps")
	flag.StringVar(&out, "out", "", "output CSV path, - for stdout")
	flag.StringVar(&report, "report", "", "write a JSON run report to this path")
	flag.StringVar(&dump, "dump", "", "write masks and masked composites to this directory")
	flag.IntVar(&workers, "workers", 0, "number of images processed concurrently")
	flag.IntVar(&quality, "quality", 0, "JPEG quality for the complexity measure (1-100)")
	flag.StringVar(&level, "log-level", "", "debug|info|warn|error")
	flag.StringVar(&writeCfg, "write-config", "", "write the effective configuration to this path and exit")

	flag.Parse()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// Flags override file values
	if images != "" {
		cfg.Paths.ImageDir = images
	}
	if aoi != "" {
		cfg.Paths.AOIDir = aoi
	}
	if sal != "" && len(cfg.Saliency.Sources) > 0 {
		cfg.Saliency.Sources[0].Dir = sal
	}
	if sunSal != "" && len(cfg.Saliency.Sources) > 1 {
		cfg.Saliency.Sources[1].Dir = sunSal
	}
	if out != "" {
		cfg.Paths.Output = out
	}
	if report != "" {
		cfg.Paths.Report = report
	}
	if dump != "" {
		cfg.Paths.MaskDumpDir = dump
	}
	if workers > 0 {
		cfg.Batch.Workers = workers
	}
	if quality > 0 {
		cfg.Stats.JPEGQuality = quality
	}
	if level != "" {
		cfg.Log.Level = level
	}

	if writeCfg != "" {
		if err := cfg.SaveToFile(writeCfg); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", writeCfg)
		return
	}

	lg := logger.NewConsoleLogger(logger.ParseLevel(cfg.Log.Level))
	driver, err := batch.New(cfg, lg)
	if err != nil {
		log.Fatal(err)
	}

	var w io.Writer = os.Stdout
	if cfg.Paths.Output != "-" {
		if err := utils.EnsureDir(filepath.Dir(cfg.Paths.Output)); err != nil {
			log.Fatal(err)
		}
		f, err := os.Create(cfg.Paths.Output)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		w = f
	}

	res, err := driver.Run(w)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Paths.Report != "" {
		if err := batch.WriteReport(cfg.Paths.Report, res); err != nil {
			log.Printf("report save failed: %v", err)
		} else {
			log.Printf("wrote %s", cfg.Paths.Report)
		}
	}

	fmt.Fprintf(os.Stderr, "%d images: %d processed, %d skipped, %d failed (%s)\n",
		res.Total, len(res.Processed), len(res.Skipped), len(res.Failed), res.Duration)
	for _, f := range res.Failed {
		fmt.Fprintf(os.Stderr, "  %s [%s]: %s\n", f.ImageID, f.Stage, f.Error)
	}
}

// loadConfig reads path, or the default location when it exists, or falls
// back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	if def := config.GetConfigPath(); utils.FileExists(def) {
		return config.LoadFromFile(def)
	}
	return config.Default(), nil
}
