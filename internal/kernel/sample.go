package kernel

import "math"

// SampleIndex maps output column (or row) x of an axis with out pixels to the
// texel a nearest sampler reads from a texture with tex pixels on that axis.
// The texture is stretched over the whole output, sampled at pixel centres.
func SampleIndex(x, out, tex int) int {
	i := (2*x + 1) * tex / (2 * out)
	if i >= tex {
		i = tex - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// FromBytes converts four 8-bit straight RGBA channels to a Pixel.
func FromBytes(p []uint8) Pixel {
	return Pixel{
		R: float64(p[0]) / 255,
		G: float64(p[1]) / 255,
		B: float64(p[2]) / 255,
		A: float64(p[3]) / 255,
	}
}

// PutBytes stores c into the first four bytes of p.
func PutBytes(p []uint8, c Pixel) {
	p[0] = ToByte(c.R)
	p[1] = ToByte(c.G)
	p[2] = ToByte(c.B)
	p[3] = ToByte(c.A)
}

// ToByte converts a [0, 1] channel to 8 bits with round-to-nearest, the same
// conversion a unorm render target applies.
func ToByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
