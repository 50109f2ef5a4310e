//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// ErrRendererReleased is returned by Render after Release.
var ErrRendererReleased = errors.New("imagediff: renderer released")

// copyRowAlignment is the bytesPerRow alignment required by
// texture-to-buffer copies.
const copyRowAlignment = 256

// Renderer draws the diff of two images into an offscreen target and reads
// the result back. Not safe for concurrent use.
type Renderer struct {
	ctx      *Context
	program  *Program
	geometry *Geometry
	sampler  *wgpu.Sampler
	params   *wgpu.Buffer

	background textureSlot
	overlay    textureSlot

	label    string
	released bool
}

// NewRenderer acquires a device and builds every long-lived resource.
// Device failures wrap ErrContextUnavailable; program failures are a
// *ShaderError.
func NewRenderer(cfg Config) (*Renderer, error) {
	ctx, err := NewContext(cfg)
	if err != nil {
		return nil, err
	}
	label := ctx.label
	r := &Renderer{
		ctx:        ctx,
		label:      label,
		background: textureSlot{name: label + "_background"},
		overlay:    textureSlot{name: label + "_overlay"},
	}

	r.program, err = NewProgram(ctx.Device(), label+"_diff", diffShaderSource)
	if err != nil {
		r.Release()
		return nil, err
	}
	if err := r.createResources(); err != nil {
		r.Release()
		return nil, fmt.Errorf("%w: %w", ErrContextUnavailable, err)
	}
	return r, nil
}

func (r *Renderer) createResources() error {
	device, queue := r.ctx.Device(), r.ctx.Queue()
	var err error
	if r.geometry, err = NewGeometry(device, queue, r.label); err != nil {
		return err
	}
	if r.sampler, err = newNearestSampler(device, r.label); err != nil {
		return err
	}
	r.params, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: r.label + "_params",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create params buffer: %w", err)
	}
	return nil
}

// AdapterName returns the name of the adapter in use.
func (r *Renderer) AdapterName() string {
	return r.ctx.AdapterName()
}

// Render draws the diff of bg and ov into a w x h target and copies the
// straight-alpha RGBA8 result into dst, which must hold w*h*4 bytes.
// Both inputs are stretched over the whole target.
func (r *Renderer) Render(bg, ov Image, u Uniforms, dst []byte, w, h int) error {
	if r.released {
		return ErrRendererReleased
	}
	if w <= 0 || h <= 0 || len(dst) < w*h*4 {
		return fmt.Errorf("render: invalid target %dx%d (%d bytes)", w, h, len(dst))
	}
	tw, th := uint32(w), uint32(h) //nolint:gosec // validated positive

	device, queue := r.ctx.Device(), r.ctx.Queue()
	if err := r.ctx.EnsureTarget(tw, th); err != nil {
		return err
	}
	if err := r.background.upload(device, queue, bg); err != nil {
		return err
	}
	if err := r.overlay.upload(device, queue, ov); err != nil {
		return err
	}
	if err := queue.WriteBuffer(r.params, 0, u.bytes()); err != nil {
		return fmt.Errorf("write params: %w", err)
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  r.label + "_bind_group",
		Layout: r.program.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: bindingParams, Buffer: r.params, Size: uniformSize},
			{Binding: bindingBackground, TextureView: r.background.view},
			{Binding: bindingOverlay, TextureView: r.overlay.view},
			{Binding: bindingSampler, Sampler: r.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer bindGroup.Release()

	return r.encodeAndReadback(bindGroup, dst, tw, th)
}

// encodeAndReadback clears the target, draws the quad, copies the target
// into a staging buffer and waits for the mapped result.
func (r *Renderer) encodeAndReadback(bindGroup *wgpu.BindGroup, dst []byte, w, h uint32) error {
	device, queue := r.ctx.Device(), r.ctx.Queue()

	encoder, err := device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: r.label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}

	rp, err := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: r.label + "_pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       r.ctx.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("begin render pass: %w", err)
	}
	rp.SetPipeline(r.program.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	r.geometry.bind(rp)
	rp.Draw(quadVertexCount, 1, 0, 0)
	if err := rp.End(); err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end render pass: %w", err)
	}

	encoder.TransitionTextures([]wgpu.TextureBarrier{{
		Texture: r.ctx.target,
		Usage: wgpu.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	rowBytes := w * 4
	paddedRow := alignUp(rowBytes, copyRowAlignment)
	size := uint64(paddedRow) * uint64(h)
	staging, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: r.label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder.CopyTextureToBuffer(r.ctx.target, staging, []wgpu.BufferTextureCopy{{
		BufferLayout: wgpu.ImageDataLayout{BytesPerRow: paddedRow, RowsPerImage: h},
		TextureBase:  wgpu.ImageCopyTexture{Texture: r.ctx.target},
		Size:         wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("finish encoding: %w", err)
	}
	if _, err := queue.Submit(cmdBuf); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	if err := staging.Map(context.Background(), wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("map staging: %w", err)
	}
	rng, err := staging.MappedRange(0, size)
	if err != nil {
		if uerr := staging.Unmap(); uerr != nil {
			slogger().Warn("gpu: unmap failed", "err", uerr)
		}
		return fmt.Errorf("mapped range: %w", err)
	}
	copyRows(dst, rng.Bytes(), int(rowBytes), int(paddedRow), int(h))
	rng.Release()
	if err := staging.Unmap(); err != nil {
		slogger().Warn("gpu: unmap failed", "err", err)
	}
	return nil
}

// copyRows strips the row padding of a readback buffer.
func copyRows(dst, src []byte, rowBytes, srcStride, rows int) {
	for y := 0; y < rows; y++ {
		s := y * srcStride
		if s+rowBytes > len(src) {
			return
		}
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[s:s+rowBytes])
	}
}

func alignUp(v, a uint32) uint32 {
	return (v + a - 1) / a * a
}

// Release frees every GPU resource. An owned device is destroyed; a shared
// one is left to its provider. Safe to call more than once.
func (r *Renderer) Release() {
	if r.released {
		return
	}
	r.released = true
	r.background.release()
	r.overlay.release()
	if r.params != nil {
		r.params.Release()
		r.params = nil
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	if r.geometry != nil {
		r.geometry.Release()
		r.geometry = nil
	}
	if r.program != nil {
		r.program.Release()
		r.program = nil
	}
	if r.ctx != nil {
		r.ctx.Release()
	}
	slogger().Debug("gpu: renderer released", "label", r.label)
}
