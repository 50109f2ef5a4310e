//go:build !nogpu

package imagediff

import (
	"log/slog"

	"github.com/gogpu/imagediff/internal/gpu"
	"github.com/gogpu/imagediff/internal/kernel"
)

// gpuAdapter drives internal/gpu for the compositor.
type gpuAdapter struct {
	r *gpu.Renderer
}

func newGPURenderer(o *options) (gpuRenderer, error) {
	r, err := gpu.NewRenderer(gpu.Config{
		Provider:        o.provider,
		Backends:        o.backends,
		PowerPreference: o.powerPreference,
		Label:           o.label,
	})
	if err != nil {
		return nil, err
	}
	return &gpuAdapter{r: r}, nil
}

func (a *gpuAdapter) render(bg, ov *Pixmap, p *kernel.Params, dst *Pixmap) error {
	return a.r.Render(gpuImage(bg), gpuImage(ov), uniforms(p), dst.data, dst.Width(), dst.Height())
}

func (a *gpuAdapter) adapterName() string {
	return a.r.AdapterName()
}

func (a *gpuAdapter) release() {
	a.r.Release()
}

func gpuImage(p *Pixmap) gpu.Image {
	return gpu.Image{Width: p.Width(), Height: p.Height(), Pix: p.data}
}

// uniforms lowers resolved parameters to the shader layout.
func uniforms(p *kernel.Params) gpu.Uniforms {
	return gpu.Uniforms{
		Threshold:   float32(p.Threshold),
		Alpha:       float32(p.Alpha),
		SingleColor: p.Policy == kernel.SingleColor,
		Addition:    vec3(p.Addition),
		Deletion:    vec3(p.Deletion),
		Diff:        vec3(p.Diff),
	}
}

func vec3(c [3]float64) [3]float32 {
	return [3]float32{float32(c[0]), float32(c[1]), float32(c[2])}
}

func propagateLogger(l *slog.Logger) {
	gpu.SetLogger(l)
}
