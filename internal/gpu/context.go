//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// Register the Vulkan HAL for devices the renderer creates itself.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// targetFormat is the format of the render target and of both input textures.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

// Config selects the device a Renderer draws with.
type Config struct {
	// Provider shares the device of a host application. When nil the
	// renderer creates and owns its own device.
	Provider gpucontext.DeviceProvider

	// Backends and PowerPreference are used only for owned devices.
	Backends        gputypes.Backends
	PowerPreference gputypes.PowerPreference

	// Label prefixes every GPU resource label.
	Label string
}

// Context owns the device handles and the offscreen render target.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	owned    bool
	label    string

	adapterName string

	target     *wgpu.Texture
	targetView *wgpu.TextureView
	width      uint32
	height     uint32
}

// NewContext acquires a device. Software adapters count as unavailable:
// the diff shader on a CPU interpreter is slower than the CPU paths.
// Every failure wraps ErrContextUnavailable.
func NewContext(cfg Config) (*Context, error) {
	if cfg.Label == "" {
		cfg.Label = "imagediff"
	}
	if cfg.Provider != nil {
		return contextFromProvider(cfg.Provider, cfg.Label)
	}
	return ownedContext(cfg)
}

func contextFromProvider(p gpucontext.DeviceProvider, label string) (*Context, error) {
	if p.AdapterInfo().Type == gpucontext.AdapterTypeSoftware {
		return nil, fmt.Errorf("%w: provider adapter is a software renderer", ErrContextUnavailable)
	}
	name := p.AdapterInfo().Name
	if a, ok := p.Adapter().(*wgpu.Adapter); ok && a != nil {
		if a.Info().DeviceType == gputypes.DeviceTypeCPU {
			return nil, fmt.Errorf("%w: provider adapter is a software renderer", ErrContextUnavailable)
		}
		name = a.Info().Name
	}

	dev := p.Device()
	if dev == nil {
		return nil, fmt.Errorf("%w: provider Device is nil", ErrContextUnavailable)
	}
	device, ok := dev.(*wgpu.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider Device is not *wgpu.Device (got %T)", ErrContextUnavailable, dev)
	}
	queue := device.Queue()
	if queue == nil {
		return nil, fmt.Errorf("%w: provider Queue is nil", ErrContextUnavailable)
	}

	slogger().Debug("gpu: using shared device", "adapter", name)
	return &Context{
		device:      device,
		queue:       queue,
		label:       label,
		adapterName: name,
	}, nil
}

func ownedContext(cfg Config) (*Context, error) {
	backends := cfg.Backends
	if backends == 0 {
		backends = gputypes.BackendsPrimary
	}
	instance, err := wgpu.CreateInstance(&wgpu.InstanceDescriptor{
		Backends: backends,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrContextUnavailable, err)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: cfg.PowerPreference,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", ErrContextUnavailable, err)
	}
	info := adapter.Info()
	if info.DeviceType == gputypes.DeviceTypeCPU {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: adapter %q is a software renderer", ErrContextUnavailable, info.Name)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: cfg.Label})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %w", ErrContextUnavailable, err)
	}

	slogger().Info("gpu: device created", "adapter", info.Name, "backend", info.Backend)
	return &Context{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       device.Queue(),
		owned:       true,
		label:       cfg.Label,
		adapterName: info.Name,
	}, nil
}

// Device returns the device handle.
func (c *Context) Device() *wgpu.Device { return c.device }

// Queue returns the device queue.
func (c *Context) Queue() *wgpu.Queue { return c.queue }

// AdapterName returns the adapter name, empty when the provider hides it.
func (c *Context) AdapterName() string { return c.adapterName }

// Owned reports whether Release destroys the device.
func (c *Context) Owned() bool { return c.owned }

// Size returns the render target dimensions, zero before EnsureTarget.
func (c *Context) Size() (uint32, uint32) { return c.width, c.height }

// EnsureTarget (re)creates the render target when the requested size
// differs from the current one.
func (c *Context) EnsureTarget(w, h uint32) error {
	if c.target != nil && c.width == w && c.height == h {
		return nil
	}
	c.releaseTarget()

	tex, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         c.label + "_target",
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &wgpu.TextureViewDescriptor{
		Label:         c.label + "_target_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		tex.Release()
		return fmt.Errorf("create target view: %w", err)
	}

	c.target = tex
	c.targetView = view
	c.width = w
	c.height = h
	slogger().Debug("gpu: render target resized", "width", w, "height", h)
	return nil
}

func (c *Context) releaseTarget() {
	if c.targetView != nil {
		c.targetView.Release()
		c.targetView = nil
	}
	if c.target != nil {
		c.target.Release()
		c.target = nil
	}
	c.width = 0
	c.height = 0
}

// Release frees the render target and, for owned devices, the device,
// adapter and instance. Safe to call more than once.
func (c *Context) Release() {
	c.releaseTarget()
	if !c.owned {
		c.device = nil
		c.queue = nil
		return
	}
	if c.device != nil {
		if err := c.device.WaitIdle(); err != nil {
			slogger().Warn("gpu: wait idle failed", "err", err)
		}
		c.device.Release()
		c.device = nil
		c.queue = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}
