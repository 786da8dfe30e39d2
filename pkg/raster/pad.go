package raster

// Neighborhood is a 3x3 window of intensities; [row][col].
type Neighborhood [3][3]int

// Pad builds a (width+2) x (height+2) copy of the top-left width x height
// region of src with a one pixel border of zeros.
func Pad(src *Raster, width, height int) *Raster {
	width = max(width, 0)
	height = max(height, 0)
	pw, ph := width+2, height+2
	out := &Raster{Width: pw, Height: ph, Max: src.Max, Pix: make([]uint8, pw*ph)}
	for y := 0; y < height; y++ {
		copy(out.Pix[(y+1)*pw+1:(y+1)*pw+1+width], src.Pix[y*src.Width:y*src.Width+width])
	}
	return out
}

// Neighborhood reads the 3x3 window centred on (x, y) of a padded raster.
// x and y are padded coordinates in [1,width] x [1,height].
func (r *Raster) Neighborhood(x, y int) Neighborhood {
	var n Neighborhood
	for i := 0; i < 3; i++ {
		row := (y+i-1)*r.Width + x - 1
		for j := 0; j < 3; j++ {
			n[i][j] = int(r.Pix[row+j])
		}
	}
	return n
}
