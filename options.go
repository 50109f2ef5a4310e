package imagediff

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Option configures a Compositor during creation.
//
// Example:
//
//	// GPU with the plain fallback when no device is found
//	c := imagediff.New()
//
//	// Share the device of a host application
//	c := imagediff.New(imagediff.WithDeviceProvider(app))
//
//	// CPU only, still highlighting changes
//	c := imagediff.New(imagediff.WithoutGPU(), imagediff.WithSoftwareDiff())
type Option func(*options)

// options holds the configuration of a Compositor.
type options struct {
	provider        gpucontext.DeviceProvider
	backends        gputypes.Backends
	powerPreference gputypes.PowerPreference
	noGPU           bool
	softwareDiff    bool
	workers         int
	label           string
}

func defaultOptions() options {
	return options{
		backends:        gputypes.BackendsPrimary,
		powerPreference: gputypes.PowerPreferenceHighPerformance,
		label:           "imagediff",
	}
}

// WithDeviceProvider makes the compositor render on the device of an
// external provider instead of creating its own. The provider's Device must
// be a *wgpu.Device. The shared device is never released by Dispose.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithBackends restricts which graphics APIs are probed when the compositor
// creates its own device.
func WithBackends(b gputypes.Backends) Option {
	return func(o *options) {
		o.backends = b
	}
}

// WithPowerPreference selects the adapter class when the compositor creates
// its own device.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *options) {
		o.powerPreference = p
	}
}

// WithoutGPU treats the GPU context as unavailable. Renders take the
// fallback path, or the software diff with WithSoftwareDiff.
func WithoutGPU() Option {
	return func(o *options) {
		o.noGPU = true
	}
}

// WithSoftwareDiff runs the perceptual diff on the CPU whenever the GPU is
// unavailable, instead of the plain alpha overlay.
func WithSoftwareDiff() Option {
	return func(o *options) {
		o.softwareDiff = true
	}
}

// WithWorkers sets the number of goroutines used by the CPU paths.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLabel sets the label prefix of the GPU resources, visible in
// graphics debuggers.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}
