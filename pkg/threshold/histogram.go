package threshold

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

const (
	histBackground = 255
	histBar        = 0
	histMarker     = 128
)

// RenderHistogram draws hist as black bars on white with a gray column at
// the threshold bin and a "t=<n>" label in the top-left corner. width and
// height default to 512x120 when not positive.
func RenderHistogram(hist [Levels]int, threshold, width, height int) (*raster.Raster, error) {
	if width <= 0 {
		width = 512
	}
	if height <= 0 {
		height = 120
	}
	out, err := raster.New(width, height, 255)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	out.Fill(histBackground)

	maxv := 1
	for _, v := range hist {
		if v > maxv {
			maxv = v
		}
	}

	// draw each bin as a vertical line at x position
	for x := 0; x < width; x++ {
		bin := raster.ClampInt(int(math.Floor(float64(x)*Levels/float64(width))), 0, Levels-1)
		bh := int(math.Round(float64(hist[bin]) / float64(maxv) * float64(height-1)))
		for y := 0; y < height; y++ {
			switch {
			case y >= height-bh:
				out.Set(x, y, histBar)
			case bin == threshold:
				out.Set(x, y, histMarker)
			}
		}
	}

	drawLabel(out, fmt.Sprintf("t=%d", threshold), 4, 13)
	return out, nil
}

// drawLabel renders text with the built-in 7x13 face; y is the baseline.
func drawLabel(r *raster.Raster, text string, x, y int) {
	canvas := &image.Gray{Pix: r.Pix, Stride: r.Width, Rect: image.Rect(0, 0, r.Width, r.Height)}
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Gray{Y: histBar}),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
