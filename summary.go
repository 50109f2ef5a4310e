package imagediff

import (
	"fmt"

	"github.com/gogpu/imagediff/internal/kernel"
)

// Summary counts the output pixels of a diff by class.
type Summary struct {
	Width  int
	Height int

	Unchanged int
	Added     int
	Deleted   int

	// Changed counts highlighted pixels under the single colour policy.
	Changed int
}

// Total returns the number of output pixels.
func (s Summary) Total() int {
	return s.Width * s.Height
}

// Different returns the number of highlighted pixels.
func (s Summary) Different() int {
	return s.Added + s.Deleted + s.Changed
}

// Ratio returns the share of highlighted pixels in [0, 1].
func (s Summary) Ratio() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Different()) / float64(s.Total())
}

// Summarize classifies every output pixel the way Render would, on the CPU.
// Deleted pixels are counted even when they are hidden by a low opacity.
func (c *Compositor) Summarize(bg, ov *Pixmap, opts DiffOptions) (Summary, error) {
	if c.state == StateDisposed {
		return Summary{}, ErrDisposed
	}
	if bg.Empty() || ov.Empty() {
		return Summary{}, fmt.Errorf("%w: background %s, overlay %s", ErrInvalidDimensions, dims(bg), dims(ov))
	}

	params := opts.params()
	counts := classify(c.pool, bg, ov, &params)
	return Summary{
		Width:     max(bg.Width(), ov.Width()),
		Height:    max(bg.Height(), ov.Height()),
		Unchanged: counts[kernel.Unchanged],
		Added:     counts[kernel.Addition],
		Deleted:   counts[kernel.Deletion],
		Changed:   counts[kernel.Changed],
	}, nil
}
