package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"testing"

	"github.com/tdewolff/test"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/imagediff"
)

// sample is opaque so every format keeps exact values.
func sample() *imagediff.Pixmap {
	pm := imagediff.NewPixmap(3, 2)
	pm.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	pm.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	pm.SetNRGBA(2, 0, color.NRGBA{B: 255, A: 255})
	pm.SetNRGBA(0, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	pm.SetNRGBA(1, 1, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	pm.SetNRGBA(2, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return pm
}

func TestDecodeFormats(t *testing.T) {
	src := sample()
	encoders := []struct {
		format string
		encode func(io.Writer, image.Image) error
	}{
		{"png", png.Encode},
		{"bmp", bmp.Encode},
		{"tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }},
	}
	for _, tt := range encoders {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			test.Error(t, tt.encode(&buf, src.ToImage()))

			pm, format, err := Decode(&buf)
			test.Error(t, err)
			test.T(t, format, tt.format)
			test.T(t, pm.Width(), 3)
			test.T(t, pm.Height(), 2)
			test.T(t, pm.NRGBAAt(0, 0), color.NRGBA{R: 255, A: 255})
			test.T(t, pm.NRGBAAt(0, 1), color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		})
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image")))
	test.That(t, err != nil, "expected error for unknown format")
}

func TestRawRoundTrip(t *testing.T) {
	src := sample()
	src.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	var buf bytes.Buffer
	test.Error(t, EncodeRaw(&buf, src))
	test.Bytes(t, buf.Bytes()[:4], []byte("IDR1"))

	got, err := DecodeRaw(&buf)
	test.Error(t, err)
	test.T(t, got.Width(), 3)
	test.T(t, got.Height(), 2)
	test.Bytes(t, got.Data(), src.Data())
}

func TestDecodeRawErrors(t *testing.T) {
	var good bytes.Buffer
	test.Error(t, EncodeRaw(&good, sample()))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte("IDR1\x03\x00")},
		{"bad magic", append([]byte("XXXX"), good.Bytes()[4:]...)},
		{"zero size", []byte("IDR1\x00\x00\x00\x00\x02\x00\x00\x00")},
		{"oversized", []byte("IDR1\xff\xff\xff\xff\xff\xff\xff\xff")},
		{"too many pixels", []byte("IDR1\x00\x00\x01\x00\x01\x10\x00\x00")},
		{"truncated pixels", good.Bytes()[:rawHeaderSize]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRaw(bytes.NewReader(tt.data))
			test.That(t, errors.Is(err, ErrBadRaw), "want ErrBadRaw, got", err)
		})
	}
}

func TestEncodeRawWriteError(t *testing.T) {
	err := EncodeRaw(test.NewErrorWriter(0), sample())
	test.T(t, err, test.ErrPlain)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	src := sample()
	for _, name := range []string{"out.png", "out.PNG", "out" + RawExt} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			test.Error(t, Save(path, src))

			got, err := Load(path)
			test.Error(t, err)
			test.Bytes(t, got.Data(), src.Data())
		})
	}
}

func TestSaveUnsupported(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "out.jpg"), sample())
	test.That(t, errors.Is(err, ErrUnsupportedFormat), "want ErrUnsupportedFormat, got", err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	test.That(t, err != nil, "expected error for missing file")
}
