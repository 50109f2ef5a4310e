//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
)

// uniformSize is the byte size of DiffParams in diff.wgsl.
const uniformSize = 64

// Uniforms are the per-render parameters of the diff program.
type Uniforms struct {
	Threshold   float32
	Alpha       float32
	SingleColor bool
	Addition    [3]float32
	Deletion    [3]float32
	Diff        [3]float32
}

// bytes encodes u in the std140 layout of DiffParams: three vec4 colours
// followed by threshold, alpha, the policy flag and padding.
func (u *Uniforms) bytes() []byte {
	buf := make([]byte, uniformSize)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	for i, c := range [3][3]float32{u.Addition, u.Deletion, u.Diff} {
		base := i * 16
		put(base, c[0])
		put(base+4, c[1])
		put(base+8, c[2])
		put(base+12, 1)
	}
	put(48, u.Threshold)
	put(52, u.Alpha)
	if u.SingleColor {
		put(56, 1)
	}
	return buf
}
