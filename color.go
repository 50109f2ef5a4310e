package imagediff

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// RGB is an opaque colour with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// Common highlight colours.
var (
	Red    = RGB{R: 1}
	Yellow = RGB{R: 1, G: 1}
	Green  = RGB{G: 1}
	Blue   = RGB{B: 1}
	Black  = RGB{}
	White  = RGB{R: 1, G: 1, B: 1}
)

// Color converts c to an opaque color.NRGBA.
func (c RGB) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: 255,
	}
}

// array returns the components in shader order.
func (c RGB) array() [3]float64 {
	return [3]float64{c.R, c.G, c.B}
}

// Hex formats c as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x",
		uint8(clamp255(c.R*255)), uint8(clamp255(c.G*255)), uint8(clamp255(c.B*255)))
}

// String implements fmt.Stringer.
func (c RGB) String() string { return c.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the formats
// understood by ParseHex.
func (c *RGB) UnmarshalText(text []byte) error {
	v, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseHex parses "rgb" or "rrggbb", with or without a leading '#'.
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	var r, g, b uint64
	var err error
	switch len(hex) {
	case 3:
		if r, err = strconv.ParseUint(hex[0:1], 16, 8); err == nil {
			if g, err = strconv.ParseUint(hex[1:2], 16, 8); err == nil {
				b, err = strconv.ParseUint(hex[2:3], 16, 8)
			}
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if r, err = strconv.ParseUint(hex[0:2], 16, 8); err == nil {
			if g, err = strconv.ParseUint(hex[2:4], 16, 8); err == nil {
				b, err = strconv.ParseUint(hex[4:6], 16, 8)
			}
		}
	default:
		return RGB{}, fmt.Errorf("imagediff: invalid hex colour %q", s)
	}
	if err != nil {
		return RGB{}, fmt.Errorf("imagediff: invalid hex colour %q: %w", s, err)
	}

	return RGB{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}, nil
}

// clamp255 clamps a value to [0, 255] and rounds to nearest.
func clamp255(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return math.Round(v)
}
