// Package imageio loads and saves imagediff pixmaps.
//
// Decoding covers PNG, JPEG and GIF from the standard library plus BMP, TIFF
// and WebP from golang.org/x/image. Results are written as PNG or as raw
// straight RGBA compressed with zstd (".rgba.zst"), which keeps exact
// channel values for later comparison.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/imagediff"
)

// RawExt is the file extension of zstd-compressed raw RGBA output.
const RawExt = ".rgba.zst"

// ErrUnsupportedFormat is returned by Save for an unknown file extension.
var ErrUnsupportedFormat = errors.New("imageio: unsupported output format")

// Decode reads any registered image format. It returns the pixmap and the
// format name.
func Decode(r io.Reader) (*imagediff.Pixmap, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: decode: %w", err)
	}
	return imagediff.FromImage(img), format, nil
}

// Load reads the image at path. Files ending in RawExt are read with
// DecodeRaw, everything else with Decode.
func Load(path string) (*imagediff.Pixmap, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if isRaw(path) {
		pm, err := DecodeRaw(bufio.NewReader(f))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return pm, nil
	}
	pm, _, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pm, nil
}

// Save writes pm to path, choosing the encoding from the extension: ".png"
// or RawExt.
func Save(path string, pm *imagediff.Pixmap) error {
	var encode func(io.Writer, *imagediff.Pixmap) error
	switch {
	case isRaw(path):
		encode = EncodeRaw
	case strings.EqualFold(filepath.Ext(path), ".png"):
		encode = EncodePNG
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := encode(w, pm); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodePNG writes pm as a non-premultiplied PNG.
func EncodePNG(w io.Writer, pm *imagediff.Pixmap) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, pm.ToImage()); err != nil {
		return fmt.Errorf("imageio: encode png: %w", err)
	}
	return nil
}

func isRaw(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), RawExt)
}
