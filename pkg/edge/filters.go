package edge

import (
	"math"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

// Range picks the numerator of the rescale factor applied after a sweep.
type Range int

const (
	// RangeDestination maps the strongest edge to dst.Max.
	RangeDestination Range = iota
	// RangeFixed256 maps the strongest edge to 256 before clamping to dst.Max.
	// Forsen has always been scaled this way; keep it for output compatibility.
	RangeFixed256
)

// Detect runs strategy s over the overlap of src and dst and writes the
// rescaled magnitudes into dst. Pixels of dst outside the overlap are left
// untouched.
func Detect(dst, src *raster.Raster, s Strategy, rng Range) {
	width, height := raster.Overlap(src, dst)
	mag, maxMag := sweep(src, width, height, s)
	if mag == nil {
		return
	}
	rescale(dst, mag, width, height, maxMag, rng)
}

// rescale writes clamp(round(raw*scale), 0, dst.Max) for every raw value.
func rescale(dst *raster.Raster, mag []int, width, height, maxMag int, rng Range) {
	scale := 1.0
	if maxMag > 0 {
		top := float64(dst.Max)
		if rng == RangeFixed256 {
			top = 256
		}
		scale = top / float64(maxMag)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := int(math.Round(float64(mag[y*width+x]) * scale))
			dst.Pix[y*dst.Width+x] = uint8(raster.ClampInt(v, 0, dst.Max))
		}
	}
}

// Prewitt writes the Prewitt gradient magnitude of src into dst.
func Prewitt(dst, src *raster.Raster) {
	Detect(dst, src, DualKernel{X: PrewittX, Y: PrewittY}, RangeDestination)
}

// Sobel writes the Sobel gradient magnitude of src into dst.
func Sobel(dst, src *raster.Raster) {
	Detect(dst, src, DualKernel{X: SobelX, Y: SobelY}, RangeDestination)
}

// Laplacian writes the 4-neighbour Laplacian response of src into dst.
func Laplacian(dst, src *raster.Raster) {
	Detect(dst, src, SingleKernel{K: Laplacian4}, RangeDestination)
}

// Forsen writes the diagonal-difference (Roberts cross style) response of src
// into dst, scaled against 256 rather than dst.Max.
func Forsen(dst, src *raster.Raster) {
	Detect(dst, src, DiagonalDifference{}, RangeFixed256)
}

// Negative inverts src into dst, rescaling from src.Max to dst.Max. It is
// reachable through Apply but not offered on the command line.
func Negative(dst, src *raster.Raster) {
	width, height := raster.Overlap(src, dst)
	if src.Max <= 0 {
		return
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := int(src.Pix[y*src.Width+x])
			dst.Pix[y*dst.Width+x] = uint8(raster.ClampInt((src.Max-v)*dst.Max/src.Max, 0, dst.Max))
		}
	}
}
