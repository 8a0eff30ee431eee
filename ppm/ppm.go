package ppm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// MaxValue is the only maximum sample value supported.
const MaxValue = 255

// MaxPixels is the largest number of pixels Read accepts.
const MaxPixels = 1 << 28

// Image is a grayscale image with one float sample per pixel, stored row-major.
type Image struct {
	Width, Height int
	Data          []float64
}

// New creates a black image of the given size.
func New(width, height int) *Image {
	return &Image{Width: width, Height: height, Data: make([]float64, width*height)}
}

// At returns the sample at (x, y).
func (im *Image) At(x, y int) float64 {
	return im.Data[y*im.Width+x]
}

// Set sets the sample at (x, y).
func (im *Image) Set(x, y int, v float64) {
	im.Data[y*im.Width+x] = v
}

// -----------------------------------------------------------------------------

// Load reads a binary (P6) PPM file as a grayscale image.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	im, err := Read(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading `%s`", path)
	}

	return im, nil
}

// Read reads a binary (P6) PPM image.  Each pixel becomes the average of its
// three channels.  The header fields may be separated by any amount of
// whitespace and comments, but exactly one whitespace byte must separate the
// header from the pixel data and nothing may follow the pixel data.
func Read(r io.Reader) (*Image, error) {
	hr := &headerReader{r: bufio.NewReader(r)}

	if err := hr.expect('P'); err != nil {
		return nil, err
	}

	if err := hr.expect('6'); err != nil {
		return nil, err
	}

	var fields [3]int
	for i := range fields {
		if err := hr.skipWhitespace(); err != nil {
			return nil, err
		}

		n, err := hr.integer()
		if err != nil {
			return nil, err
		}

		fields[i] = n
	}

	width, height, maxValue := fields[0], fields[1], fields[2]
	if maxValue != MaxValue {
		return nil, errors.Errorf("only supports %d as max value, got %d", MaxValue, maxValue)
	}

	if c, err := hr.r.ReadByte(); err != nil || !isSpace(c) {
		return nil, errors.New("expected whitespace after max value")
	}

	if width*height > MaxPixels {
		return nil, errors.Errorf("image of %dx%d pixels exceeds the limit of %d pixels", width, height, MaxPixels)
	}

	pixels := make([]byte, width*height*3)
	if _, err := io.ReadFull(hr.r, pixels); err != nil {
		return nil, errors.Wrap(err, "truncated pixel data")
	}

	if _, err := hr.r.ReadByte(); err != io.EOF {
		return nil, errors.New("expected end of file after pixel data")
	}

	im := New(width, height)
	for i := range im.Data {
		r, g, b := float64(pixels[3*i]), float64(pixels[3*i+1]), float64(pixels[3*i+2])
		im.Data[i] = math.Min(MaxValue, (r+g+b)/3)
	}

	return im, nil
}

// headerReader tokenizes a PPM header.
type headerReader struct {
	r *bufio.Reader
}

func (hr *headerReader) expect(want byte) error {
	c, err := hr.r.ReadByte()
	if err != nil || c != want {
		return errors.New("wrong magic number")
	}

	return nil
}

// skipWhitespace skips at least one whitespace character or comment.  A
// comment runs from `#` to the end of the line.
func (hr *headerReader) skipWhitespace() error {
	skipped := false

	for {
		c, err := hr.r.ReadByte()
		if err != nil {
			return errors.New("unexpected end of file in header")
		}

		switch {
		case c == '#':
			if _, err := hr.r.ReadBytes('\n'); err != nil {
				return errors.New("unexpected end of file in comment")
			}
		case isSpace(c):
		default:
			if !skipped {
				return errors.New("expected at least one whitespace character")
			}

			return hr.r.UnreadByte()
		}

		skipped = true
	}
}

// integer reads a decimal integer.
func (hr *headerReader) integer() (int, error) {
	n, digits := 0, 0

	for {
		c, err := hr.r.ReadByte()
		if err != nil || c < '0' || c > '9' {
			if err == nil {
				hr.r.UnreadByte()
			}

			if digits == 0 {
				return 0, errors.New("expected a number")
			}

			return n, nil
		}

		n = n*10 + int(c-'0')
		digits++

		if n > 1<<24 {
			return 0, errors.New("header value too large")
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// -----------------------------------------------------------------------------

// Save writes the image as a binary (P6) PPM file.
func Save(im *Image, path string) error {
	var buff bytes.Buffer
	if err := Write(&buff, im); err != nil {
		return err
	}

	if err := os.WriteFile(path, buff.Bytes(), 0644); err != nil {
		return errors.Wrap(err, "failed to write image")
	}

	return nil
}

// Write writes the image as a binary (P6) PPM image.  Each sample is floored,
// clamped to [0, 255] and written to all three channels.
func Write(w io.Writer, im *Image) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P6\n%d %d\n%d\n", im.Width, im.Height, MaxValue)

	for _, v := range im.Data {
		b := Sample(v)
		bw.Write([]byte{b, b, b})
	}

	return errors.Wrap(bw.Flush(), "failed to write image")
}

// Sample converts a pixel value to a byte: floored and clamped to [0, 255].
// NaN is written as 0.
func Sample(v float64) byte {
	v = math.Floor(v)

	switch {
	case v >= MaxValue:
		return MaxValue
	case v > 0:
		return byte(v)
	}

	return 0
}
