package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Fepozopo/pgmedge/pkg/edge"
	"github.com/Fepozopo/pgmedge/pkg/logger"
	"github.com/Fepozopo/pgmedge/pkg/pgm"
	"github.com/Fepozopo/pgmedge/pkg/raster"
	"github.com/Fepozopo/pgmedge/pkg/threshold"
)

// Summary counts what a batch run did.
type Summary struct {
	// Processed images were filtered, thresholded and written.
	Processed int
	// Failed images hit a read, format, allocation or write error.
	Failed int
	// Skipped names were rejected before any I/O.
	Skipped int
	Records []Record
}

// result is the outcome of one image; rec is set once a threshold exists.
type result struct {
	rec *Record
	err error
}

// RunBatch filters every .pgm in cfg.InputDir with the named filter, writes
// the filtered and binarized images, and logs each threshold. Per-image
// failures are logged and counted; only setup failures are returned.
func RunBatch(ctx context.Context, cfg Config, filter string, log logger.Logger) (Summary, error) {
	var sum Summary
	if err := cfg.Validate(); err != nil {
		return sum, err
	}
	f, err := edge.Lookup(filter)
	if err != nil || !f.Selectable {
		return sum, fmt.Errorf("%w: invalid filter type: %s", ErrUsage, filter)
	}

	dirs := []string{cfg.FilteredDir, cfg.ThresholdedDir}
	if cfg.HistogramDir != "" {
		dirs = append(dirs, cfg.HistogramDir)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return sum, fmt.Errorf("creating output directory: %w", err)
		}
	}

	lf, err := os.Create(cfg.LogFile)
	if err != nil {
		return sum, fmt.Errorf("failed to create log file: %w", err)
	}
	defer lf.Close()
	bw := bufio.NewWriter(lf)
	tlog, err := NewThresholdLog(bw)
	if err != nil {
		return sum, err
	}

	names, err := discoverInputs(cfg.InputDir)
	if err != nil {
		return sum, fmt.Errorf("failed to open %s directory: %w", cfg.InputDir, err)
	}
	log.Info("Batch", "starting batch", map[string]interface{}{
		"filter": f.Name,
		"input":  cfg.InputDir,
		"files":  len(names),
		"jobs":   cfg.Jobs,
	})

	results := make([]result, len(names))
	var g errgroup.Group
	g.SetLimit(cfg.Jobs)
	for i, name := range names {
		paths, err := pathsFor(cfg, name)
		if err != nil {
			log.Warning("Batch", "skipping file", map[string]interface{}{"file": name, "reason": err.Error()})
			results[i].err = errSkipped
			continue
		}
		if ctx.Err() != nil {
			results[i].err = ctx.Err()
			continue
		}
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			rec, err := processImage(f, name, paths, log)
			results[i] = result{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		switch {
		case errors.Is(r.err, errSkipped):
			sum.Skipped++
			continue
		case r.err != nil:
			sum.Failed++
			log.Error("Batch", r.err, map[string]interface{}{"file": names[i]})
		default:
			sum.Processed++
		}
		if r.rec != nil {
			sum.Records = append(sum.Records, *r.rec)
			if err := tlog.Append(*r.rec); err != nil {
				return sum, err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("writing %s: %w", cfg.LogFile, err)
	}
	if err := lf.Close(); err != nil {
		return sum, fmt.Errorf("closing %s: %w", cfg.LogFile, err)
	}

	log.Info("Batch", "batch finished", map[string]interface{}{
		"processed": sum.Processed,
		"failed":    sum.Failed,
		"skipped":   sum.Skipped,
	})
	return sum, ctx.Err()
}

var errSkipped = errors.New("skipped")

// processImage runs the full pipeline for one file. Every raster it
// allocates is released before it returns.
func processImage(f edge.FilterSpec, name string, p imagePaths, log logger.Logger) (*Record, error) {
	src, err := pgm.ReadFile(p.Input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	defer src.Release()
	log.Debug("Batch", "image loaded", map[string]interface{}{"file": name, "info": rasterInfo(src)})

	filtered, err := raster.New(src.Width, src.Height, src.Max)
	if err != nil {
		return nil, fmt.Errorf("allocating result for %s: %w", name, err)
	}
	defer filtered.Release()
	if err := edge.Apply(f.Name, filtered, src); err != nil {
		return nil, err
	}
	if err := pgm.WriteFile(p.Filtered, filtered); err != nil {
		return nil, fmt.Errorf("writing %s: %w", p.Filtered, err)
	}

	binary, err := raster.New(filtered.Width, filtered.Height, filtered.Max)
	if err != nil {
		return nil, fmt.Errorf("allocating threshold image for %s: %w", name, err)
	}
	defer binary.Release()
	res := threshold.Analyze(binary, filtered)
	rec := &Record{Name: name, Threshold: res.Threshold}
	threshold.Binarize(binary, filtered, res.Threshold)
	if err := pgm.WriteFile(p.Thresholded, binary); err != nil {
		return rec, fmt.Errorf("writing %s: %w", p.Thresholded, err)
	}

	if p.Histogram != "" {
		hist, err := threshold.RenderHistogram(res.Histogram, res.Threshold, 0, 0)
		if err != nil {
			return rec, err
		}
		defer hist.Release()
		if err := pgm.WriteFile(p.Histogram, hist); err != nil {
			return rec, fmt.Errorf("writing %s: %w", p.Histogram, err)
		}
	}

	log.Info("Batch", "image processed", map[string]interface{}{
		"file":      name,
		"filter":    f.Name,
		"threshold": res.Threshold,
	})
	return rec, nil
}
