// Package threshold selects a global threshold with Otsu's method and
// binarizes rasters against it.
package threshold

import (
	"gonum.org/v1/gonum/floats"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

// Levels is the number of intensity bins.
const Levels = 256

// epsilon replaces an empty class weight when computing a class mean.
const epsilon = 0.0001

// Result is the outcome of an Otsu search.
type Result struct {
	Threshold int
	// Variance is the between-class variance at Threshold.
	Variance  float64
	Histogram [Levels]int
	Total     int
}

// Histogram counts the intensities of src inside its overlap with dst.
func Histogram(dst, src *raster.Raster) [Levels]int {
	var hist [Levels]int
	width, height := raster.Overlap(src, dst)
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Width : y*src.Width+width]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// Otsu returns the level k in [0,255] maximizing the between-class variance
// of src over its overlap with dst. Pixels <= k form the background class.
func Otsu(dst, src *raster.Raster) int {
	return Analyze(dst, src).Threshold
}

// Analyze runs the Otsu search and returns the histogram alongside the
// selected level. The first level reaching the best variance wins.
func Analyze(dst, src *raster.Raster) Result {
	res := Result{Histogram: Histogram(dst, src)}
	for _, n := range res.Histogram {
		res.Total += n
	}
	if res.Total == 0 {
		return res
	}

	p := make([]float64, Levels)
	ip := make([]float64, Levels)
	for i, n := range res.Histogram {
		p[i] = float64(n) / float64(res.Total)
		ip[i] = float64(i) * p[i]
	}
	omega := floats.CumSum(make([]float64, Levels), p)
	mu := floats.CumSum(make([]float64, Levels), ip)
	muT := mu[Levels-1]

	for k := 0; k < Levels; k++ {
		omega1 := omega[Levels-1] - omega[k]
		w0 := omega[k]
		if w0 == 0 {
			w0 = epsilon
		}
		w1 := omega1
		if w1 == 0 {
			w1 = epsilon
		}
		mean0 := mu[k] / w0
		mean1 := (muT - mu[k]) / w1
		v := omega[k]*(mean0-muT)*(mean0-muT) + omega1*(mean1-muT)*(mean1-muT)
		if v > res.Variance {
			res.Variance = v
			res.Threshold = k
		}
	}
	return res
}
