package parallel

// minBandRows keeps bands large enough that scheduling stays cheaper than
// the per-pixel work.
const minBandRows = 16

// Rows splits [0, height) into contiguous bands and calls fn once per band.
// Small images run inline on the calling goroutine.
func (p *WorkerPool) Rows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := p.workers * 2
	if maxBands := (height + minBandRows - 1) / minBandRows; bands > maxBands {
		bands = maxBands
	}
	if bands <= 1 {
		fn(0, height)
		return
	}

	step := (height + bands - 1) / bands
	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += step {
		y1 := min(y0+step, height)
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}
