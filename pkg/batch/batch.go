// Package batch drives the statistics pipeline over an image corpus.
//
// Images are visited in lexicographic file name order and rows are written
// in that order whatever the worker count. Each image ends in exactly one
// outcome: processed (one row written), skipped (no geometry, no row) or
// failed (no row, stage and error recorded). A failure never stops the run.
package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/menta2k/aoistats/internal/config"
	"github.com/menta2k/aoistats/internal/logger"
	"github.com/menta2k/aoistats/internal/utils"
	"github.com/menta2k/aoistats/pkg/analyzer"
	"github.com/menta2k/aoistats/pkg/schema"
	"github.com/menta2k/aoistats/pkg/types"
)

// StageUnexpected marks failures that did not come from a known stage
const StageUnexpected = "unexpected"

// Driver runs the pipeline for every image in the corpus
type Driver struct {
	config   *config.Config
	analyzer *analyzer.Analyzer
	schema   schema.Schema
	log      logger.Logger
}

// New validates cfg and creates a Driver
func New(cfg *config.Config, log logger.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	ac, err := cfg.Analyzer()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Driver{
		config:   cfg,
		analyzer: analyzer.NewWithConfig(ac),
		schema:   schema.New(cfg.Masks.Names, cfg.Prefixes()),
		log:      log,
	}, nil
}

// Schema returns the output column layout
func (d *Driver) Schema() schema.Schema {
	return d.schema
}

// Run processes the corpus and writes the table to out. The returned error
// is reserved for problems that make the whole run impossible (unreadable
// corpus, broken output); per-image problems are in the Report.
func (d *Driver) Run(out io.Writer) (*types.Report, error) {
	started := time.Now()
	report := &types.Report{
		RunID:     uuid.New().String(),
		StartedAt: started,
	}

	if !utils.DirExists(d.config.Paths.ImageDir) {
		return report, errors.Errorf("image directory %s does not exist", d.config.Paths.ImageDir)
	}
	corpus, err := utils.ListCorpus(d.config.Paths.ImageDir, d.config.Corpus.ImageExtension)
	if err != nil {
		return report, errors.Wrap(err, "list corpus")
	}
	if dir := d.config.Paths.MaskDumpDir; dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return report, errors.Wrap(err, "create mask dump directory")
		}
	}

	d.log.Info("starting run", map[string]interface{}{
		"run_id":  report.RunID,
		"images":  len(corpus),
		"workers": d.config.Batch.Workers,
		"columns": len(d.schema),
	})

	w := schema.NewWriter(out, d.schema)
	err = d.each(corpus, d.analyze, func(o types.Outcome) error {
		report.Add(o)
		switch o.Status {
		case types.StatusProcessed:
			d.log.Debug("image processed", map[string]interface{}{"image": o.ImageID})
			return w.Write(o.Result)
		case types.StatusSkipped:
			d.log.Warning("no geometry found, skipping", map[string]interface{}{"image": o.ImageID})
		case types.StatusFailed:
			d.log.Error("image failed", errors.New(o.Error), map[string]interface{}{
				"image": o.ImageID,
				"stage": o.Stage,
			})
		}
		return nil
	})
	if err != nil {
		return report, errors.Wrap(err, "write output")
	}
	if err := w.Close(); err != nil {
		return report, errors.Wrap(err, "write output")
	}

	report.Duration = time.Since(started).Round(time.Millisecond).String()
	d.log.Info("run finished", map[string]interface{}{
		"run_id":    report.RunID,
		"processed": len(report.Processed),
		"skipped":   len(report.Skipped),
		"failed":    len(report.Failed),
		"duration":  report.Duration,
	})
	return report, nil
}

// each runs work on every entry and hands outcomes to emit in corpus order.
// It returns only after every started job has finished, even when emit fails.
func (d *Driver) each(corpus []utils.CorpusEntry, work func(utils.CorpusEntry) types.Outcome, emit func(types.Outcome) error) error {
	workers := d.config.Batch.Workers
	if workers <= 1 {
		for _, e := range corpus {
			if err := emit(work(e)); err != nil {
				return err
			}
		}
		return nil
	}

	results := make([]chan types.Outcome, len(corpus))
	for i := range results {
		results[i] = make(chan types.Outcome, 1)
	}

	jobs := make(chan int)
	done := make(chan struct{})

	go func() {
		defer close(jobs)
		for i := range corpus {
			select {
			case jobs <- i:
			case <-done:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] <- work(corpus[i])
			}
		}()
	}

	var err error
	for i := range corpus {
		if err = emit(<-results[i]); err != nil {
			break
		}
	}
	close(done)
	wg.Wait()
	return err
}

func (d *Driver) analyze(e utils.CorpusEntry) (o types.Outcome) {
	o.ImageID = e.ID
	defer func() {
		if r := recover(); r != nil {
			o = types.Outcome{
				ImageID: e.ID,
				Status:  types.StatusFailed,
				Stage:   StageUnexpected,
				Error:   fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	res, err := d.analyzer.Analyze(e.ID, e.Path)
	switch {
	case err == nil:
		o.Status = types.StatusProcessed
		o.Result = res
	case errors.Is(err, analyzer.ErrNoGeometry):
		o.Status = types.StatusSkipped
	default:
		o.Status = types.StatusFailed
		o.Error = err.Error()
		o.Stage = string(analyzer.StageOf(err))
		if o.Stage == "" {
			o.Stage = StageUnexpected
		}
	}
	return o
}

// WriteReport saves a run report as indented JSON
func WriteReport(path string, r *types.Report) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "create report directory")
	}
	js, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	return errors.Wrap(os.WriteFile(path, js, 0o644), "write report")
}
