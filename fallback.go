package imagediff

import (
	"fmt"

	"github.com/gogpu/imagediff/internal/kernel"
	"github.com/gogpu/imagediff/internal/parallel"
)

// RenderFallback draws overlay onto dst at the origin, unscaled, with
// straight-alpha source-over at the opacity of opts. Pixels outside dst are
// clipped. Nothing is highlighted; this is the output of a compositor
// without a GPU.
func RenderFallback(dst, overlay *Pixmap, opts DiffOptions) error {
	if dst.Empty() || overlay.Empty() {
		return fmt.Errorf("%w: destination %s, overlay %s", ErrInvalidDimensions, dims(dst), dims(overlay))
	}
	compositeOver(nil, dst, overlay, opts.AlphaValue())
	return nil
}

// blit copies src into dst at the origin, clipped to dst.
func blit(dst, src *Pixmap) {
	w := min(dst.Width(), src.Width()) * 4
	h := min(dst.Height(), src.Height())
	for y := 0; y < h; y++ {
		copy(dst.data[y*dst.Stride():y*dst.Stride()+w], src.data[y*src.Stride():])
	}
}

// compositeOver blends src over dst at the origin:
//
//	sa   = src.a * alpha
//	outA = sa + da*(1-sa)
//	out  = (src*sa + dst*da*(1-sa)) / outA
func compositeOver(pool *parallel.WorkerPool, dst, src *Pixmap, alpha float64) {
	alpha = clampUnit(alpha)
	w := min(dst.Width(), src.Width())
	h := min(dst.Height(), src.Height())

	forRows(pool, h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			d := dst.data[y*dst.Stride():]
			s := src.data[y*src.Stride():]
			for x := 0; x < w; x++ {
				i := x * 4
				kernel.PutBytes(d[i:], over(kernel.FromBytes(s[i:]), kernel.FromBytes(d[i:]), alpha))
			}
		}
	})
}

func over(s, d kernel.Pixel, alpha float64) kernel.Pixel {
	sa := s.A * alpha
	da := d.A * (1 - sa)
	outA := sa + da
	if outA <= 0 {
		return kernel.Transparent
	}
	return kernel.Pixel{
		R: (s.R*sa + d.R*da) / outA,
		G: (s.G*sa + d.G*da) / outA,
		B: (s.B*sa + d.B*da) / outA,
		A: outA,
	}
}

func clampUnit(v float64) float64 {
	switch {
	case !(v > 0):
		return 0
	case v > 1:
		return 1
	}
	return v
}
