package edge

import (
	"math"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

// Kernel is a 3x3 integer convolution mask; [row][col].
type Kernel [3][3]int

// Gradient kernel pairs. Values are never modified.
var (
	PrewittX = Kernel{{-1, 0, 1}, {-1, 0, 1}, {-1, 0, 1}}
	PrewittY = Kernel{{-1, -1, -1}, {0, 0, 0}, {1, 1, 1}}

	SobelX = Kernel{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	SobelY = Kernel{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	Laplacian4 = Kernel{{0, 1, 0}, {1, -4, 1}, {0, 1, 0}}
)

// Dot returns the elementwise product sum of k and n.
func (k Kernel) Dot(n raster.Neighborhood) int {
	sum := 0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum += k[i][j] * n[i][j]
		}
	}
	return sum
}

// Strategy selects how a raw magnitude is computed from a neighbourhood.
// The set is closed: DualKernel, SingleKernel and DiagonalDifference.
type Strategy interface {
	Magnitude(n raster.Neighborhood) int
	strategy()
}

// DualKernel combines a horizontal and vertical response with the Euclidean norm.
type DualKernel struct {
	X, Y Kernel
}

// Magnitude returns int(sqrt(dx^2 + dy^2)).
func (d DualKernel) Magnitude(n raster.Neighborhood) int {
	return norm(d.X.Dot(n), d.Y.Dot(n))
}

func (DualKernel) strategy() {}

// SingleKernel evaluates one kernel as both directional responses, so the
// magnitude is the single response scaled by sqrt(2) and truncated.
type SingleKernel struct {
	K Kernel
}

func (s SingleKernel) Magnitude(n raster.Neighborhood) int {
	d := s.K.Dot(n)
	return norm(d, d)
}

func (SingleKernel) strategy() {}

// DiagonalDifference is the Forsen rule |c - br| + |tr - bl|.
type DiagonalDifference struct{}

func (DiagonalDifference) Magnitude(n raster.Neighborhood) int {
	return absInt(n[1][1]-n[2][2]) + absInt(n[1][2]-n[2][1])
}

func (DiagonalDifference) strategy() {}

func norm(dx, dy int) int {
	return int(math.Sqrt(float64(dx*dx + dy*dy)))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// sweep pads the top-left width x height region of src and evaluates s at
// every interior pixel. It returns the raw magnitudes (row-major, stride
// width) and their maximum.
func sweep(src *raster.Raster, width, height int, s Strategy) ([]int, int) {
	if width <= 0 || height <= 0 {
		return nil, 0
	}
	padded := raster.Pad(src, width, height)
	mag := make([]int, width*height)
	maxMag := 0
	for y := 1; y <= height; y++ {
		for x := 1; x <= width; x++ {
			m := s.Magnitude(padded.Neighborhood(x, y))
			mag[(y-1)*width+x-1] = m
			if m > maxMag {
				maxMag = m
			}
		}
	}
	return mag, maxMag
}
