// Package raster holds the 8-bit grayscale buffer the edge and threshold
// engines operate on, plus the zero-bordered padded view and the 3x3
// neighbourhood reads used by every filter.
package raster

import (
	"errors"
	"fmt"
)

// MaxPixels bounds a single allocation. Larger requests fail with ErrAllocation
// instead of letting the runtime abort the whole process.
const MaxPixels = 1 << 30

var (
	// ErrAllocation is returned when a pixel buffer cannot be obtained.
	ErrAllocation = errors.New("raster: out of memory")
	// ErrInvalidDimensions is returned for non-positive sizes or a max value outside 1..255.
	ErrInvalidDimensions = errors.New("raster: invalid dimensions")
)

// Raster is a row-major grayscale image with an explicit intensity ceiling.
// Every pixel is expected to lie in [0, Max].
type Raster struct {
	Width  int
	Height int
	Max    int
	Pix    []uint8

	released bool
}

// CheckDimensions reports whether a width x height raster with the given max
// intensity may be allocated.
func CheckDimensions(width, height, maxValue int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if maxValue <= 0 || maxValue > 255 {
		return fmt.Errorf("%w: max value %d", ErrInvalidDimensions, maxValue)
	}
	if width > MaxPixels/height {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrAllocation, width, height, MaxPixels)
	}
	return nil
}

// New allocates a width x height raster with the given max intensity.
func New(width, height, maxValue int) (*Raster, error) {
	if err := CheckDimensions(width, height, maxValue); err != nil {
		return nil, err
	}
	return &Raster{
		Width:  width,
		Height: height,
		Max:    maxValue,
		Pix:    make([]uint8, width*height),
	}, nil
}

// FromPix wraps pix as a raster without copying. pix must hold exactly
// width*height bytes.
func FromPix(width, height, maxValue int, pix []uint8) (*Raster, error) {
	if err := CheckDimensions(width, height, maxValue); err != nil {
		return nil, err
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidDimensions, len(pix), width, height)
	}
	return &Raster{Width: width, Height: height, Max: maxValue, Pix: pix}, nil
}

// Release drops the pixel buffer. Releasing a raster twice is a programming
// error and panics.
func (r *Raster) Release() {
	if r.released {
		panic("raster: release of already released raster")
	}
	r.Pix = nil
	r.Width, r.Height = 0, 0
	r.released = true
}

// Released reports whether Release has been called.
func (r *Raster) Released() bool {
	return r.released
}

// At returns the intensity at (x, y).
func (r *Raster) At(x, y int) uint8 {
	return r.Pix[y*r.Width+x]
}

// Set stores v at (x, y).
func (r *Raster) Set(x, y int, v uint8) {
	r.Pix[y*r.Width+x] = v
}

// Clone returns an independent copy of r.
func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Max: r.Max, Pix: make([]uint8, len(r.Pix))}
	copy(out.Pix, r.Pix)
	return out
}

// Fill sets every pixel to v.
func (r *Raster) Fill(v uint8) {
	for i := range r.Pix {
		r.Pix[i] = v
	}
}

// Overlap returns the width and height shared by a and b.
func Overlap(a, b *Raster) (int, int) {
	return min(a.Width, b.Width), min(a.Height, b.Height)
}

// ClampInt clamps v to [lo,hi]
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
