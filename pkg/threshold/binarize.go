package threshold

import "github.com/Fepozopo/pgmedge/pkg/raster"

// Binarize writes dst.Max where src is above threshold and 0 elsewhere, over
// the overlap of src and dst. Pixels equal to threshold are background.
func Binarize(dst, src *raster.Raster, threshold int) {
	width, height := raster.Overlap(src, dst)
	fg := uint8(dst.Max)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if int(src.Pix[y*src.Width+x]) > threshold {
				dst.Pix[y*dst.Width+x] = fg
			} else {
				dst.Pix[y*dst.Width+x] = 0
			}
		}
	}
}
