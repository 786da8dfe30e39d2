// Package pgm reads and writes binary ("P5") portable graymaps with one
// header field per line.
//
//	P5
//	# comments are allowed before any header line
//	<width> <height>
//	<max value>
//	<width*height raw bytes>
package pgm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

// maxLine is the longest accepted header line, newline included.
const maxLine = 128

var (
	// ErrFormat marks malformed header fields or a truncated body.
	ErrFormat = errors.New("pgm: malformed file")
	// ErrIO marks a failure of the underlying reader or writer.
	ErrIO = errors.New("pgm: i/o error")
)

// readChunk is the largest step by which the pixel buffer grows ahead of
// the bytes the body has delivered.
const readChunk = 64 << 10

// Read decodes a P5 image from r.
func Read(r io.Reader) (*raster.Raster, error) {
	return decode(r, -1)
}

// decode reads one image from r. When size is not negative it is the total
// length of r, and a body shorter than the header claims is rejected before
// any pixel memory is allocated.
func decode(r io.Reader, size int64) (*raster.Raster, error) {
	br := bufio.NewReaderSize(r, maxLine)
	var consumed int64
	next := func() (string, error) {
		line, n, err := readHeaderLine(br)
		consumed += int64(n)
		return line, err
	}

	line, err := next()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "P5") {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, line)
	}

	line, err = next()
	if err != nil {
		return nil, err
	}
	var width, height int
	if _, err := fmt.Sscanf(line, "%d %d", &width, &height); err != nil {
		return nil, fmt.Errorf("%w: bad size line %q", ErrFormat, line)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: non-positive size %dx%d", ErrFormat, width, height)
	}

	line, err = next()
	if err != nil {
		return nil, err
	}
	var maxValue int
	if _, err := fmt.Sscanf(line, "%d", &maxValue); err != nil {
		return nil, fmt.Errorf("%w: bad max value line %q", ErrFormat, line)
	}
	if maxValue <= 0 || maxValue >= 256 {
		return nil, fmt.Errorf("%w: max value %d out of range 1..255", ErrFormat, maxValue)
	}

	if err := raster.CheckDimensions(width, height, maxValue); err != nil {
		return nil, err
	}
	n := width * height
	if size >= 0 && size-consumed < int64(n) {
		return nil, fmt.Errorf("%w: want %d bytes of pixel data, file has %d", ErrFormat, n, size-consumed)
	}
	pix, err := readBody(br, n)
	if err != nil {
		return nil, err
	}
	return raster.FromPix(width, height, maxValue, pix)
}

// readBody reads exactly n bytes, growing the buffer only as data arrives.
func readBody(r io.Reader, n int) ([]uint8, error) {
	pix := make([]uint8, 0, min(n, readChunk))
	for len(pix) < n {
		if len(pix) == cap(pix) {
			pix = slices.Grow(pix, min(cap(pix), n-len(pix)))
		}
		got, err := io.ReadFull(r, pix[len(pix):min(cap(pix), n)])
		pix = pix[:len(pix)+got]
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: want %d bytes of pixel data, got %d", ErrFormat, n, len(pix))
			}
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	return pix[:n:n], nil
}

// readHeaderLine returns the next line that does not start with '#',
// without its line ending, and the number of bytes consumed including
// skipped comments. br must be sized maxLine so longer lines fail while
// they are being read.
func readHeaderLine(br *bufio.Reader) (string, int, error) {
	consumed := 0
	for {
		raw, err := br.ReadSlice('\n')
		consumed += len(raw)
		if errors.Is(err, bufio.ErrBufferFull) {
			return "", consumed, fmt.Errorf("%w: header line longer than %d bytes", ErrFormat, maxLine-1)
		}
		if err != nil && !(errors.Is(err, io.EOF) && len(raw) > 0) {
			if errors.Is(err, io.EOF) {
				return "", consumed, fmt.Errorf("%w: unexpected end of header", ErrFormat)
			}
			return "", consumed, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if raw[0] == '#' {
			continue
		}
		return strings.TrimRight(string(raw), "\r\n"), consumed, nil
	}
}

// Write encodes img as P5 to w.
func Write(w io.Writer, img *raster.Raster) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n%d\n", img.Width, img.Height, img.Max); err != nil {
		return fmt.Errorf("%w: header: %w", ErrIO, err)
	}
	if _, err := bw.Write(img.Pix); err != nil {
		return fmt.Errorf("%w: pixel data: %w", ErrIO, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// ReadFile loads the P5 image at path.
func ReadFile(path string) (*raster.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	size := int64(-1)
	if fi, err := f.Stat(); err == nil && fi.Mode().IsRegular() {
		size = fi.Size()
	}
	return decode(f, size)
}

// WriteFile saves img to path as P5, replacing any existing file.
func WriteFile(path string, img *raster.Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := Write(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
