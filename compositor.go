package imagediff

import (
	"errors"
	"fmt"

	"github.com/gogpu/imagediff/internal/kernel"
	"github.com/gogpu/imagediff/internal/parallel"
)

// State is the lifecycle state of a Compositor.
type State int

const (
	// StateUninitialized means nothing has been rendered yet.
	StateUninitialized State = iota

	// StateReady means at least one render succeeded.
	StateReady

	// StateDisposed means Dispose was called. There is no way back.
	StateDisposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateDisposed:
		return "Disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend identifies the path that produced the last render.
type Backend int

const (
	// BackendNone means nothing has been rendered yet.
	BackendNone Backend = iota

	// BackendGPU is the WebGPU diff program.
	BackendGPU

	// BackendSoftware is the perceptual diff on the CPU.
	BackendSoftware

	// BackendFallback is the plain alpha overlay without highlighting.
	BackendFallback
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendNone:
		return "none"
	case BackendGPU:
		return "gpu"
	case BackendSoftware:
		return "software"
	case BackendFallback:
		return "fallback"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// gpuRenderer is the GPU path as seen by the compositor. It is implemented
// over internal/gpu, or by a stub in nogpu builds.
type gpuRenderer interface {
	render(bg, ov *Pixmap, p *kernel.Params, dst *Pixmap) error
	adapterName() string
	release()
}

// Compositor renders the perceptual difference of two images.
//
// The GPU context is created lazily on the first Render. When it cannot be
// created the compositor degrades to the CPU: the software diff with
// WithSoftwareDiff, the plain alpha overlay otherwise. Degradation is logged
// and reported by Err, not returned from Render.
//
// A Compositor is not safe for concurrent use. Independent compositors may
// run in parallel.
type Compositor struct {
	opts  options
	state State

	gpu       gpuRenderer
	gpuFailed bool
	gpuErr    error
	warned    bool

	backend Backend
	output  *Pixmap
	pool    *parallel.WorkerPool
}

// New creates a Compositor. No GPU work happens until the first Render.
func New(opts ...Option) *Compositor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compositor{
		opts:   o,
		output: &Pixmap{},
		pool:   parallel.NewWorkerPool(o.workers),
	}
}

// Render composites ov over bg and returns the result, sized to the
// per-axis maximum of the inputs. Both inputs are stretched over the
// output. The inputs are never modified.
//
// The returned Pixmap is owned by the compositor and overwritten by the next
// Render; use Clone to keep it. Render returns ErrInvalidDimensions for nil
// or empty inputs and ErrDisposed after Dispose. Errors of a GPU that was
// working are returned wrapped.
func (c *Compositor) Render(bg, ov *Pixmap, opts DiffOptions) (*Pixmap, error) {
	if c.state == StateDisposed {
		return nil, ErrDisposed
	}
	if bg.Empty() || ov.Empty() {
		return nil, fmt.Errorf("%w: background %s, overlay %s", ErrInvalidDimensions, dims(bg), dims(ov))
	}

	w := max(bg.Width(), ov.Width())
	h := max(bg.Height(), ov.Height())
	if c.output.Width() != w || c.output.Height() != h {
		c.output.resize(w, h)
		Logger().Debug("imagediff: output resized", "width", w, "height", h)
	}

	params := opts.params()
	if c.ensureGPU() {
		if err := c.gpu.render(bg, ov, &params, c.output); err != nil {
			return nil, fmt.Errorf("imagediff: gpu render: %w", err)
		}
		c.finish(BackendGPU)
		return c.output, nil
	}

	if c.opts.softwareDiff {
		renderSoftware(c.pool, bg, ov, &params, c.output)
		c.finish(BackendSoftware)
		return c.output, nil
	}

	clear(c.output.data)
	blit(c.output, bg)
	compositeOver(c.pool, c.output, ov, params.Alpha)
	c.finish(BackendFallback)
	return c.output, nil
}

func (c *Compositor) finish(b Backend) {
	c.backend = b
	c.state = StateReady
}

// ensureGPU creates the GPU renderer once and reports whether it is usable.
// A failure is remembered until Reset.
func (c *Compositor) ensureGPU() bool {
	if c.gpu != nil {
		return true
	}
	if c.gpuFailed {
		return false
	}
	if c.opts.noGPU {
		c.fail(fmt.Errorf("%w: disabled by WithoutGPU", ErrContextUnavailable))
		return false
	}

	r, err := newGPURenderer(&c.opts)
	if err != nil {
		c.fail(err)
		return false
	}
	c.gpu = r
	Logger().Info("imagediff: GPU diff enabled", "adapter", r.adapterName())
	return true
}

func (c *Compositor) fail(err error) {
	c.gpuFailed = true
	c.gpuErr = err
	if c.warned {
		return
	}
	c.warned = true

	mode := "fallback"
	if c.opts.softwareDiff {
		mode = "software"
	}
	var se *ShaderError
	if errors.As(err, &se) {
		Logger().Error("imagediff: diff program failed", "stage", se.Stage, "log", se.Log)
	}
	Logger().Warn("imagediff: GPU unavailable, rendering on CPU", "mode", mode, "err", err)
}

// Backend returns the path used by the last Render, BackendNone before the
// first one.
func (c *Compositor) Backend() Backend {
	return c.backend
}

// State returns the lifecycle state.
func (c *Compositor) State() State {
	return c.state
}

// Err returns the error that made the compositor fall back to the CPU, or
// nil while the GPU is in use or untried. Use errors.Is with
// ErrContextUnavailable, ErrShaderCompile or ErrProgramLink, or errors.As
// with *ShaderError.
func (c *Compositor) Err() error {
	return c.gpuErr
}

// Reset forgets a failed GPU initialization so the next Render tries again.
// It does nothing after Dispose.
func (c *Compositor) Reset() {
	if c.state == StateDisposed {
		return
	}
	c.gpuFailed = false
	c.gpuErr = nil
	c.warned = false
}

// Dispose releases every GPU resource, the worker pool and the output. The
// output Pixmap returned by Render becomes empty. Later Render calls return
// ErrDisposed. Calling Dispose again does nothing.
func (c *Compositor) Dispose() {
	if c.state == StateDisposed {
		return
	}
	if c.gpu != nil {
		c.gpu.release()
		c.gpu = nil
	}
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	c.output.release()
	c.state = StateDisposed
	Logger().Debug("imagediff: compositor disposed")
}

func dims(p *Pixmap) string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprintf("%dx%d", p.Width(), p.Height())
}
