package imagediff

import (
	"sync"

	"github.com/gogpu/imagediff/internal/kernel"
	"github.com/gogpu/imagediff/internal/parallel"
)

// renderSoftware runs the perceptual diff on the CPU. It samples both inputs
// the way the GPU nearest sampler does, so its output matches the GPU path
// up to float precision.
func renderSoftware(pool *parallel.WorkerPool, bg, ov *Pixmap, p *kernel.Params, dst *Pixmap) {
	w, h := dst.Width(), dst.Height()
	xbg, xov := columnMap(w, bg.Width()), columnMap(w, ov.Width())

	forRows(pool, h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			rowBG := bg.data[kernel.SampleIndex(y, h, bg.Height())*bg.Stride():]
			rowOV := ov.data[kernel.SampleIndex(y, h, ov.Height())*ov.Stride():]
			out := dst.data[y*dst.Stride():]
			for x := 0; x < w; x++ {
				c1 := kernel.FromBytes(rowBG[xbg[x]*4:])
				c2 := kernel.FromBytes(rowOV[xov[x]*4:])
				px, _ := kernel.Shade(c1, c2, p)
				kernel.PutBytes(out[x*4:], px)
			}
		}
	})
}

// classify counts the classes of every output pixel without writing any.
func classify(pool *parallel.WorkerPool, bg, ov *Pixmap, p *kernel.Params) [4]int {
	w := max(bg.Width(), ov.Width())
	h := max(bg.Height(), ov.Height())
	xbg, xov := columnMap(w, bg.Width()), columnMap(w, ov.Width())

	var (
		mu     sync.Mutex
		totals [4]int
	)
	forRows(pool, h, func(y0, y1 int) {
		var counts [4]int
		for y := y0; y < y1; y++ {
			rowBG := bg.data[kernel.SampleIndex(y, h, bg.Height())*bg.Stride():]
			rowOV := ov.data[kernel.SampleIndex(y, h, ov.Height())*ov.Stride():]
			for x := 0; x < w; x++ {
				c1 := kernel.FromBytes(rowBG[xbg[x]*4:])
				c2 := kernel.FromBytes(rowOV[xov[x]*4:])
				counts[kernel.Classify(c1, c2, p)]++
			}
		}
		mu.Lock()
		for i, n := range counts {
			totals[i] += n
		}
		mu.Unlock()
	})
	return totals
}

// columnMap precomputes the sampled source column of every output column.
func columnMap(out, tex int) []int {
	m := make([]int, out)
	for x := range m {
		m[x] = kernel.SampleIndex(x, out, tex)
	}
	return m
}

// forRows runs fn over row bands on pool, or inline when pool is nil.
func forRows(pool *parallel.WorkerPool, height int, fn func(y0, y1 int)) {
	if pool == nil {
		fn(0, height)
		return
	}
	pool.Rows(height, fn)
}
