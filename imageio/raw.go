package imageio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/imagediff"
)

// rawMagic starts every raw file. The header is followed by a zstd frame
// holding width*height*4 bytes of straight RGBA.
var rawMagic = [4]byte{'I', 'D', 'R', '1'}

const (
	rawHeaderSize = 12
	// rawMaxPixels bounds the allocation made for a header.
	rawMaxPixels = 1 << 28
)

// ErrBadRaw is returned for a raw stream with a wrong header or size.
var ErrBadRaw = errors.New("imageio: malformed raw image")

// EncodeRaw writes pm as a raw header plus a zstd frame.
func EncodeRaw(w io.Writer, pm *imagediff.Pixmap) error {
	var hdr [rawHeaderSize]byte
	copy(hdr[:4], rawMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:], uint32(pm.Width()))  //nolint:gosec // pixmap sizes are non-negative
	binary.LittleEndian.PutUint32(hdr[8:], uint32(pm.Height())) //nolint:gosec // pixmap sizes are non-negative
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(pm.Data()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// DecodeRaw reads a stream written by EncodeRaw.
func DecodeRaw(r io.Reader) (*imagediff.Pixmap, error) {
	var hdr [rawHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrBadRaw, err)
	}
	if [4]byte(hdr[:4]) != rawMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadRaw, hdr[:4])
	}
	w64 := uint64(binary.LittleEndian.Uint32(hdr[4:]))
	h64 := uint64(binary.LittleEndian.Uint32(hdr[8:]))
	if w64 == 0 || h64 == 0 || w64*h64 > rawMaxPixels {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadRaw, w64, h64)
	}
	w, h := int(w64), int(h64)

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data := make([]byte, w*h*4)
	if _, err := io.ReadFull(dec, data); err != nil {
		return nil, fmt.Errorf("%w: pixels: %w", ErrBadRaw, err)
	}
	return imagediff.PixmapFromData(w, h, data)
}
