package ppm

import (
	"bufio"
	"bytes"
	"image"
	"math"
	"os"

	// registered raster formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pkg/errors"
)

// Decode reads an image file in any supported format as a grayscale image.
// PPM files are read with Load.  Other formats are converted with the same
// channel averaging.
func Decode(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if magic, err := br.Peek(2); err == nil && bytes.Equal(magic, []byte("P6")) {
		im, err := Read(br)
		if err != nil {
			return nil, errors.WithMessagef(err, "reading `%s`", path)
		}

		return im, nil
	}

	src, format, err := image.Decode(br)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode `%s`", path)
	}

	if format == "" {
		return nil, errors.Errorf("unknown image format in `%s`", path)
	}

	return FromImage(src), nil
}

// FromImage converts a Go image into a grayscale image.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	im := New(bounds.Dx(), bounds.Dy())

	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			sum := float64(r>>8) + float64(g>>8) + float64(b>>8)
			im.Set(x, y, math.Min(MaxValue, sum/3))
		}
	}

	return im
}
