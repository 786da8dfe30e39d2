package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

// MaxPathLength bounds every input and output path the batch builds.
const MaxPathLength = 1024

// inputExtension selects batch inputs; compared case-sensitively.
const inputExtension = "pgm"

// fileExtension returns the text after the last dot, or "" when there is no
// dot or the only dot starts the name.
func fileExtension(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return ""
	}
	return name[dot+1:]
}

// discoverInputs lists the regular .pgm files in dir, sorted by name.
func discoverInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || fileExtension(e.Name()) != inputExtension {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// imagePaths holds the files touched for one input.
type imagePaths struct {
	Input       string
	Filtered    string
	Thresholded string
	Histogram   string
}

// pathsFor joins name onto every configured directory and rejects names
// that would exceed MaxPathLength anywhere.
func pathsFor(cfg Config, name string) (imagePaths, error) {
	p := imagePaths{
		Input:       filepath.Join(cfg.InputDir, name),
		Filtered:    filepath.Join(cfg.FilteredDir, name),
		Thresholded: filepath.Join(cfg.ThresholdedDir, name),
	}
	if cfg.HistogramDir != "" {
		p.Histogram = filepath.Join(cfg.HistogramDir, name)
	}
	for _, s := range []string{p.Input, p.Filtered, p.Thresholded, p.Histogram} {
		if len(s) >= MaxPathLength {
			return imagePaths{}, fmt.Errorf("file name too long: %s", name)
		}
	}
	return p, nil
}

// rasterInfo returns a short description of r for logs.
func rasterInfo(r *raster.Raster) string {
	return fmt.Sprintf("Width: %d, Height: %d, Max: %d", r.Width, r.Height, r.Max)
}
