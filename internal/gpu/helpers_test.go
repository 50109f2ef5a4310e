//go:build !nogpu

package gpu

import (
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a *wgpu.Device on the noop HAL. Resources can be
// created and released but nothing is drawn.
func createNoopDevice(t *testing.T) (*wgpu.Device, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop backend: no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}

	device, err := wgpu.NewDeviceFromHAL(
		openDev.Device,
		openDev.Queue,
		gputypes.Features(0),
		gputypes.DefaultLimits(),
		"noop-test",
	)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		t.Fatalf("NewDeviceFromHAL failed: %v", err)
	}

	cleanup := func() {
		device.Release()
		instance.Destroy()
	}
	return device, cleanup
}

// testProvider is a gpucontext.DeviceProvider over a test device.
type testProvider struct {
	device *wgpu.Device
	other  gpucontext.Device
	info   gpucontext.AdapterInfo
}

func (p *testProvider) Device() gpucontext.Device {
	if p.other != nil {
		return p.other
	}
	if p.device == nil {
		return nil
	}
	return p.device
}

func (p *testProvider) Queue() gpucontext.Queue {
	if p.device == nil {
		return nil
	}
	return p.device.Queue()
}

func (p *testProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

func (p *testProvider) Adapter() gpucontext.Adapter { return nil }

func (p *testProvider) AdapterInfo() gpucontext.AdapterInfo { return p.info }

var _ gpucontext.DeviceProvider = (*testProvider)(nil)

// skipOnNagaLimit skips when err reports a WGSL feature naga does not
// implement yet.
func skipOnNagaLimit(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("Skipping: naga limitation: %v", err)
	}
}
