package pgm

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

func sample(t *testing.T) *raster.Raster {
	t.Helper()
	r, err := raster.New(4, 3, 200)
	require.NoError(t, err)
	for i := range r.Pix {
		r.Pix[i] = uint8(i * 16)
	}
	// include bytes that look like header text
	r.Pix[0] = '\n'
	r.Pix[1] = '#'
	return r
}

func TestRoundTrip(t *testing.T) {
	img := sample(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))
	assert.True(t, strings.HasPrefix(buf.String(), "P5\n4 3\n200\n"))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Width, got.Width)
	assert.Equal(t, img.Height, got.Height)
	assert.Equal(t, img.Max, got.Max)
	assert.Equal(t, img.Pix, got.Pix)
}

func TestFileRoundTrip(t *testing.T) {
	img := sample(t)
	path := filepath.Join(t.TempDir(), "a.pgm")
	require.NoError(t, WriteFile(path, img))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, got.Pix)
}

func TestReadSkipsComments(t *testing.T) {
	in := "# leading\nP5\n# size follows\n# twice\n2 2\n#max\n255\n\x01\x02\x03\x04"
	got, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Width)
	assert.Equal(t, 2, got.Height)
	assert.Equal(t, 255, got.Max)
	assert.Equal(t, []uint8{1, 2, 3, 4}, got.Pix)
}

func TestReadCRLFHeader(t *testing.T) {
	got, err := Read(strings.NewReader("P5\r\n1 1\r\n9\r\n\x07"))
	require.NoError(t, err)
	assert.Equal(t, []uint8{7}, got.Pix)
	assert.Equal(t, 9, got.Max)
}

func TestReadFormatErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"bad magic":      "P2\n1 1\n255\n\x00",
		"only comments":  "# a\n# b\n",
		"missing height": "P5\n3\n255\n\x00\x00\x00",
		"zero width":     "P5\n0 2\n255\n",
		"negative size":  "P5\n2 -2\n255\n",
		"max zero":       "P5\n1 1\n0\n\x00",
		"max 256":        "P5\n1 1\n256\n\x00",
		"max missing":    "P5\n1 1\n",
		"max not number": "P5\n1 1\nabc\n\x00",
		"short body":     "P5\n2 2\n255\n\x00\x00\x00",
		"no body":        "P5\n2 2\n255\n",
		"long line":      "P5\n" + strings.Repeat(" ", 200) + "1 1\n255\n\x00",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			img, err := Read(strings.NewReader(in))
			require.Error(t, err)
			assert.Nil(t, img)
			assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
		})
	}
}

// heapGrowth returns how many bytes fn allocated on the heap.
func heapGrowth(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestReadHugeHeaderTinyBody(t *testing.T) {
	const in = "P5\n32768 32768\n255\n\x00"
	var err error
	grown := heapGrowth(func() {
		_, err = Read(strings.NewReader(in))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Less(t, grown, uint64(8<<20), "a 20-byte input must not allocate the claimed 1 GiB")

	path := filepath.Join(t.TempDir(), "huge.pgm")
	require.NoError(t, os.WriteFile(path, []byte(in), 0o600))
	grown = heapGrowth(func() {
		_, err = ReadFile(path)
	})
	assert.ErrorIs(t, err, ErrFormat)
	assert.ErrorContains(t, err, "file has 1")
	assert.Less(t, grown, uint64(1<<20))
}

func TestReadBodyAcrossChunks(t *testing.T) {
	img, err := raster.New(400, 300, 255)
	require.NoError(t, err)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))

	got, err := Read(iotest.HalfReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, img.Pix, got.Pix)
	assert.Len(t, got.Pix, 400*300)

	buf.Reset()
	require.NoError(t, Write(&buf, img))
	truncated := buf.Bytes()[:buf.Len()-1]
	_, err = Read(bytes.NewReader(truncated))
	assert.ErrorIs(t, err, ErrFormat)
}

// endless yields '1' forever without a line break.
type endless struct{}

func (endless) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = '1'
	}
	return len(p), nil
}

func TestReadHeaderLineIsBounded(t *testing.T) {
	r := io.MultiReader(strings.NewReader("P5\n"), endless{})
	_, err := Read(r)
	assert.ErrorIs(t, err, ErrFormat)
	assert.ErrorContains(t, err, "longer than 127")

	line := strings.Repeat("1", 126)
	_, err = Read(strings.NewReader("P5\n" + line + "\n"))
	assert.ErrorIs(t, err, ErrFormat, "a 127-byte line is read, then rejected as a size")
	assert.NotContains(t, err.Error(), "longer than")
}

func TestReadIOError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Read(iotest.ErrReader(boom))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, boom))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.pgm"))
	assert.True(t, errors.Is(err, ErrIO))
}

type failWriter struct{ err error }

func (f failWriter) Write(p []byte) (int, error) { return 0, f.err }

func TestWriteIOError(t *testing.T) {
	boom := errors.New("disk full")
	err := Write(failWriter{boom}, sample(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, boom))

	err = WriteFile(filepath.Join(t.TempDir(), "no", "such", "dir.pgm"), sample(t))
	assert.True(t, errors.Is(err, ErrIO))
}
