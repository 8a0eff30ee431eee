package ppm

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/kr/pretty"
)

func TestRead(t *testing.T) {
	data := "P6\n# a comment\n2 1 # another\n255\n" + string([]byte{30, 60, 90, 255, 255, 254})

	im, err := Read(bytes.NewBufferString(data))
	if err != nil {
		t.Fatal(err)
	}

	want := &Image{Width: 2, Height: 1, Data: []float64{60, 764.0 / 3}}
	if diff := pretty.Diff(im, want); len(diff) > 0 {
		t.Errorf("image differs: %v", diff)
	}
}

func TestReadErrors(t *testing.T) {
	pixel := string([]byte{1, 2, 3})

	tests := map[string]string{
		"magic":                "P3\n1 1\n255\n" + pixel,
		"max value":            "P6\n1 1\n65535\n" + pixel,
		"missing separator":    "P61 1\n255\n" + pixel,
		"missing number":       "P6\n1 x\n255\n" + pixel,
		"no whitespace":        "P6\n1 1\n255" + pixel,
		"truncated":            "P6\n2 1\n255\n" + pixel,
		"trailing data":        "P6\n1 1\n255\n" + pixel + "x",
		"end in header":        "P6\n1",
		"unterminated comment": "P6\n# comment",
		"too many pixels":      "P6\n16777215 16777215\n255\n" + pixel,
	}

	for name, data := range tests {
		if _, err := Read(bytes.NewBufferString(data)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestSample(t *testing.T) {
	tests := []struct {
		v    float64
		want byte
	}{
		{0, 0},
		{-3, 0},
		{12.9, 12},
		{254.99, 254},
		{255, 255},
		{1e9, 255},
		{math.NaN(), 0},
		{math.Inf(-1), 0},
	}

	for _, test := range tests {
		if got := Sample(test.v); got != test.want {
			t.Errorf("Sample(%v) = %d, want %d", test.v, got, test.want)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	im := New(3, 2)
	for i := range im.Data {
		im.Data[i] = float64(i * 40)
	}
	im.Data[5] = 300.5

	path := filepath.Join(t.TempDir(), "out.ppm")
	if err := Save(im, path); err != nil {
		t.Fatal(err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 40, 80, 120, 160, 255}
	if diff := pretty.Diff(back.Data, want); len(diff) > 0 {
		t.Errorf("round trip differs: %v", diff)
	}
}

func TestWriteHeader(t *testing.T) {
	var buff bytes.Buffer
	if err := Write(&buff, New(2, 1)); err != nil {
		t.Fatal(err)
	}

	want := "P6\n2 1\n255\n" + string(make([]byte, 6))
	if buff.String() != want {
		t.Errorf("Write() = %q, want %q", buff.String(), want)
	}
}

func TestDecode(t *testing.T) {
	dir := t.TempDir()

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 30, G: 60, B: 90, A: 255})
	src.Set(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	pngPath := filepath.Join(dir, "in.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	im, err := Decode(pngPath)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{60, 0, 0, 255}
	if diff := pretty.Diff(im.Data, want); len(diff) > 0 {
		t.Errorf("decoded png differs: %v", diff)
	}

	// PPM files go through the PPM reader
	ppmPath := filepath.Join(dir, "in.ppm")
	if err := Save(im, ppmPath); err != nil {
		t.Fatal(err)
	}

	again, err := Decode(ppmPath)
	if err != nil {
		t.Fatal(err)
	}

	if diff := pretty.Diff(again.Data, want); len(diff) > 0 {
		t.Errorf("decoded ppm differs: %v", diff)
	}

	if _, err := Decode(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("decoding a missing file succeeded")
	}
}
