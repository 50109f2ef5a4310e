// Package kernel evaluates the perceptual difference of a single pixel pair.
//
// The functions here are the CPU mirror of the fragment stage in
// internal/gpu/shaders/diff.wgsl. Both must stay in sync: the software
// compositor and the tests rely on this package producing the same
// classification the GPU produces.
package kernel

import "math"

// YIQ coefficients (NTSC, as used by pixelmatch-style perceptual metrics).
const (
	yR, yG, yB = 0.29889531, 0.58662247, 0.11448223
	iR, iG, iB = 0.59597799, -0.27417610, -0.32180189
	qR, qG, qB = 0.21147017, -0.52261711, 0.31114694
)

// MaxDelta is an upper bound for Delta over straight RGB in [0, 1].
// A threshold at or above it classifies every pixel pair as unchanged.
const MaxDelta = 1.7320508075688772

// Policy selects how changed and unchanged pixels are shaded.
type Policy uint8

const (
	// Directional marks additions and deletions with separate colours and
	// blends the overlay onto the background where nothing changed.
	Directional Policy = iota

	// SingleColor marks every change with one colour and shows the
	// background where nothing changed.
	SingleColor
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Directional:
		return "directional"
	case SingleColor:
		return "single"
	default:
		return "unknown"
	}
}

// Class is the classification of one pixel pair.
type Class uint8

const (
	Unchanged Class = iota
	Addition
	Deletion
	Changed
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Pixel is a straight-alpha colour with components in [0, 1].
type Pixel struct {
	R, G, B, A float64
}

// Transparent is the zero pixel.
var Transparent = Pixel{}

// Params are fully resolved diff parameters.
type Params struct {
	Threshold float64
	Alpha     float64
	Policy    Policy
	Addition  [3]float64
	Deletion  [3]float64
	Diff      [3]float64
}

// YIQ converts straight RGB to luma and the two chroma axes.
func YIQ(r, g, b float64) (y, i, q float64) {
	y = r*yR + g*yG + b*yB
	i = r*iR + g*iG + b*iB
	q = r*qR + g*qG + b*qB
	return y, i, q
}

// Delta returns the Euclidean YIQ distance and the absolute alpha difference
// between two pixels.
func Delta(c1, c2 Pixel) (delta, alphaDiff float64) {
	y1, i1, q1 := YIQ(c1.R, c1.G, c1.B)
	y2, i2, q2 := YIQ(c2.R, c2.G, c2.B)
	dy, di, dq := y1-y2, i1-i2, q1-q2
	return math.Sqrt(dy*dy + di*di + dq*dq), math.Abs(c1.A - c2.A)
}

// brightness averages luma and alpha. It decides the direction of a change.
func brightness(c Pixel) float64 {
	y, _, _ := YIQ(c.R, c.G, c.B)
	return (y + c.A) / 2
}

// Classify returns the class of the background pixel c1 against the overlay
// pixel c2 under p. The test has the same form as diff.wgsl so a NaN
// threshold marks nothing as changed on either path.
func Classify(c1, c2 Pixel, p *Params) Class {
	delta, alphaDiff := Delta(c1, c2)
	if !(delta > p.Threshold || alphaDiff > p.Threshold) {
		return Unchanged
	}
	if p.Policy == SingleColor {
		return Changed
	}
	if brightness(c2) > brightness(c1) {
		return Addition
	}
	return Deletion
}

// Shade returns the output pixel for the pair together with its class.
func Shade(c1, c2 Pixel, p *Params) (Pixel, Class) {
	class := Classify(c1, c2, p)
	switch class {
	case Addition:
		return opaque(p.Addition), class
	case Deletion:
		if p.Alpha > 0.5 {
			return opaque(p.Deletion), class
		}
		return Transparent, class
	case Changed:
		return opaque(p.Diff), class
	}

	if p.Policy == SingleColor {
		return Pixel{R: c1.R, G: c1.G, B: c1.B, A: c1.A * p.Alpha}, class
	}
	f := c2.A * p.Alpha
	return Pixel{
		R: mix(c1.R, c2.R, f),
		G: mix(c1.G, c2.G, f),
		B: mix(c1.B, c2.B, f),
		A: math.Max(c1.A, f),
	}, class
}

func mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func opaque(c [3]float64) Pixel {
	return Pixel{R: c[0], G: c[1], B: c[2], A: 1}
}
