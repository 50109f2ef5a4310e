package imagediff

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/imagediff/internal/kernel"
)

func solid(w, h int, c color.NRGBA) *Pixmap {
	pm := NewPixmap(w, h)
	pm.Fill(c)
	return pm
}

// newCPU returns a compositor that never touches the GPU.
func newCPU(t *testing.T, software bool) *Compositor {
	t.Helper()
	opts := []Option{WithoutGPU(), WithWorkers(2)}
	if software {
		opts = append(opts, WithSoftwareDiff())
	}
	c := New(opts...)
	t.Cleanup(c.Dispose)
	return c
}

func mustRender(t *testing.T, c *Compositor, bg, ov *Pixmap, opts DiffOptions) *Pixmap {
	t.Helper()
	out, err := c.Render(bg, ov, opts)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	return out
}

func assertPixel(t *testing.T, pm *Pixmap, x, y int, want color.NRGBA) {
	t.Helper()
	if got := pm.NRGBAAt(x, y); got != want {
		t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
	}
}

var (
	opaqueRed    = color.NRGBA{R: 255, A: 255}
	opaqueYellow = color.NRGBA{R: 255, G: 255, A: 255}
	opaqueBlack  = color.NRGBA{A: 255}
	opaqueWhite  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestRenderIdenticalInputsUnchanged(t *testing.T) {
	c := newCPU(t, true)

	img := NewPixmap(8, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 40), B: 77, A: 255})
		}
	}

	for _, threshold := range []float64{0, 0.2, 1, 5} {
		out := mustRender(t, c, img, img, DiffOptions{}.WithThreshold(threshold))
		for i, v := range out.Data() {
			if v != img.Data()[i] {
				t.Fatalf("threshold %v: byte %d = %d, want %d", threshold, i, v, img.Data()[i])
			}
		}
	}
}

func TestRenderSingleAlphaChange(t *testing.T) {
	c := newCPU(t, true)

	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	bg := solid(5, 5, gray)
	ov := bg.Clone()
	ov.SetNRGBA(2, 3, color.NRGBA{R: 128, G: 128, B: 128, A: 0})

	out := mustRender(t, c, bg, ov, DiffOptions{})
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := gray
			if x == 2 && y == 3 {
				want = opaqueYellow
			}
			assertPixel(t, out, x, y, want)
		}
	}

	s, err := c.Summarize(bg, ov, DiffOptions{})
	if err != nil {
		t.Fatalf("Summarize() = %v", err)
	}
	if s.Different() != 1 || s.Deleted != 1 {
		t.Errorf("summary = %+v, want exactly one deletion", s)
	}
}

func TestRenderThresholdExtremes(t *testing.T) {
	c := newCPU(t, true)

	bg := solid(4, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	ov := solid(4, 4, color.NRGBA{R: 101, G: 100, B: 100, A: 255})

	s, err := c.Summarize(bg, ov, DiffOptions{}.WithThreshold(0))
	if err != nil {
		t.Fatalf("Summarize() = %v", err)
	}
	if s.Different() != s.Total() {
		t.Errorf("threshold 0: %d of %d changed, want all", s.Different(), s.Total())
	}

	black := solid(4, 4, color.NRGBA{})
	white := solid(4, 4, opaqueWhite)
	s, err = c.Summarize(black, white, DiffOptions{}.WithThreshold(kernel.MaxDelta))
	if err != nil {
		t.Fatalf("Summarize() = %v", err)
	}
	if s.Different() != 0 {
		t.Errorf("threshold MaxDelta: %d changed, want 0", s.Different())
	}
}

func TestRenderDirectionFlipsOnSwap(t *testing.T) {
	c := newCPU(t, true)

	dark := solid(3, 3, opaqueBlack)
	light := solid(3, 3, opaqueWhite)

	out := mustRender(t, c, dark, light, DiffOptions{})
	assertPixel(t, out, 1, 1, opaqueRed)

	out = mustRender(t, c, light, dark, DiffOptions{})
	assertPixel(t, out, 1, 1, opaqueYellow)

	s1, _ := c.Summarize(dark, light, DiffOptions{})
	s2, _ := c.Summarize(light, dark, DiffOptions{})
	if s1.Added != 9 || s1.Deleted != 0 || s2.Added != 0 || s2.Deleted != 9 {
		t.Errorf("summaries = %+v / %+v, want 9 additions then 9 deletions", s1, s2)
	}
}

func TestRenderDeletionHiding(t *testing.T) {
	c := newCPU(t, true)

	light := solid(2, 2, opaqueWhite)
	dark := solid(2, 2, opaqueBlack)

	tests := []struct {
		alpha float64
		want  color.NRGBA
	}{
		{0, color.NRGBA{}},
		{0.5, color.NRGBA{}},
		{0.51, opaqueYellow},
		{1, opaqueYellow},
	}
	for _, tt := range tests {
		out := mustRender(t, c, light, dark, DiffOptions{}.WithOverlayAlpha(tt.alpha))
		assertPixel(t, out, 0, 0, tt.want)
	}
}

func TestRenderHalfAlphaBlend(t *testing.T) {
	c := newCPU(t, true)

	bg := solid(2, 2, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	ov := solid(2, 2, color.NRGBA{R: 150, G: 150, B: 150, A: 128})

	out := mustRender(t, c, bg, ov, DiffOptions{}.WithThreshold(0.6))
	// 100 + 50*128/255 = 125.1
	assertPixel(t, out, 0, 0, color.NRGBA{R: 125, G: 125, B: 125, A: 255})
}

func TestRenderSingleColorPolicy(t *testing.T) {
	c := newCPU(t, true)

	bg := solid(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 200})
	ov := bg.Clone()
	ov.SetNRGBA(1, 0, opaqueWhite)

	out := mustRender(t, c, bg, ov, DiffOptions{}.WithDiffColor(Blue).WithOverlayAlpha(0.5))
	assertPixel(t, out, 0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 100})
	assertPixel(t, out, 1, 0, color.NRGBA{B: 255, A: 255})

	s, err := c.Summarize(bg, ov, DiffOptions{}.WithDiffColor(Blue))
	if err != nil {
		t.Fatalf("Summarize() = %v", err)
	}
	if s.Changed != 1 || s.Added != 0 || s.Deleted != 0 {
		t.Errorf("summary = %+v, want one change", s)
	}
}

func TestRenderResizeNoResidue(t *testing.T) {
	for _, software := range []bool{true, false} {
		c := newCPU(t, software)

		mustRender(t, c, solid(100, 100, opaqueBlack), solid(100, 100, opaqueWhite), DiffOptions{})

		empty := NewPixmap(200, 50)
		out := mustRender(t, c, empty, empty, DiffOptions{})
		if out.Width() != 200 || out.Height() != 50 {
			t.Fatalf("software=%v: output = %dx%d, want 200x50", software, out.Width(), out.Height())
		}
		if len(out.Data()) != 200*50*4 {
			t.Fatalf("software=%v: len(Data()) = %d", software, len(out.Data()))
		}
		for i, v := range out.Data() {
			if v != 0 {
				t.Fatalf("software=%v: byte %d = %d, want 0", software, i, v)
			}
		}
	}
}

func TestRenderOutputIsMaxSize(t *testing.T) {
	c := newCPU(t, true)

	bg := solid(3, 7, opaqueBlack)
	ov := solid(6, 2, opaqueBlack)
	out := mustRender(t, c, bg, ov, DiffOptions{})
	if out.Width() != 6 || out.Height() != 7 {
		t.Errorf("output = %dx%d, want 6x7", out.Width(), out.Height())
	}
	// Both inputs are stretched, so every pixel compares black to black.
	for y := 0; y < 7; y++ {
		for x := 0; x < 6; x++ {
			assertPixel(t, out, x, y, opaqueBlack)
		}
	}
}

func TestRenderInvalidDimensions(t *testing.T) {
	c := newCPU(t, true)
	ok := solid(2, 2, opaqueBlack)

	tests := []struct {
		name   string
		bg, ov *Pixmap
	}{
		{"nil background", nil, ok},
		{"nil overlay", ok, nil},
		{"empty background", NewPixmap(0, 0), ok},
		{"zero height overlay", ok, NewPixmap(3, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Render(tt.bg, tt.ov, DiffOptions{}); !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("Render() = %v, want ErrInvalidDimensions", err)
			}
		})
	}
	if c.State() != StateUninitialized {
		t.Errorf("State() = %v after rejected renders, want Uninitialized", c.State())
	}
}

func TestRenderAfterDispose(t *testing.T) {
	c := New(WithoutGPU())
	img := solid(2, 2, opaqueBlack)
	out := mustRender(t, c, img, img, DiffOptions{})

	c.Dispose()
	c.Dispose()

	if c.State() != StateDisposed {
		t.Errorf("State() = %v, want Disposed", c.State())
	}
	if !out.Empty() {
		t.Error("output must be zero-sized after Dispose")
	}
	if _, err := c.Render(img, img, DiffOptions{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Render() after Dispose = %v, want ErrDisposed", err)
	}
	if _, err := c.Summarize(img, img, DiffOptions{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Summarize() after Dispose = %v, want ErrDisposed", err)
	}

	c.Reset()
	if c.State() != StateDisposed {
		t.Error("Reset must not leave Disposed")
	}
}

func TestCompositorDegradation(t *testing.T) {
	c := newCPU(t, false)
	if c.Err() != nil {
		t.Errorf("Err() before render = %v, want nil", c.Err())
	}

	img := solid(2, 2, opaqueBlack)
	mustRender(t, c, img, img, DiffOptions{})

	if c.Backend() != BackendFallback {
		t.Errorf("Backend() = %v, want fallback", c.Backend())
	}
	if c.State() != StateReady {
		t.Errorf("State() = %v, want Ready", c.State())
	}
	if !errors.Is(c.Err(), ErrContextUnavailable) {
		t.Errorf("Err() = %v, want ErrContextUnavailable", c.Err())
	}

	c.Reset()
	if c.Err() != nil {
		t.Errorf("Err() after Reset = %v, want nil", c.Err())
	}
	mustRender(t, c, img, img, DiffOptions{})
	if !errors.Is(c.Err(), ErrContextUnavailable) {
		t.Error("render after Reset must retry and fail again")
	}
}

func TestCompositorSoftwareBackend(t *testing.T) {
	c := newCPU(t, true)
	img := solid(2, 2, opaqueBlack)
	mustRender(t, c, img, img, DiffOptions{})
	if c.Backend() != BackendSoftware {
		t.Errorf("Backend() = %v, want software", c.Backend())
	}
}

func TestCompositorFallbackMatchesRenderFallback(t *testing.T) {
	c := newCPU(t, false)

	bg := solid(3, 3, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	ov := solid(2, 2, color.NRGBA{R: 100, G: 0, B: 250, A: 255})
	out := mustRender(t, c, bg, ov, DiffOptions{}.WithOverlayAlpha(0.3))

	want := bg.Clone()
	if err := RenderFallback(want, ov, DiffOptions{}.WithOverlayAlpha(0.3)); err != nil {
		t.Fatalf("RenderFallback() = %v", err)
	}
	for i, v := range out.Data() {
		if v != want.Data()[i] {
			t.Fatalf("byte %d = %d, want %d", i, v, want.Data()[i])
		}
	}
	assertPixel(t, out, 0, 0, color.NRGBA{R: 170, G: 70, B: 110, A: 255})
	assertPixel(t, out, 2, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
}

// fakeGPU records calls made by the compositor.
type fakeGPU struct {
	renders  int
	released int
	err      error
	params   kernel.Params
}

func (f *fakeGPU) render(_, _ *Pixmap, p *kernel.Params, dst *Pixmap) error {
	f.renders++
	f.params = *p
	if f.err != nil {
		return f.err
	}
	dst.Fill(opaqueRed)
	return nil
}

func (f *fakeGPU) adapterName() string { return "fake" }
func (f *fakeGPU) release()            { f.released++ }

func TestCompositorGPUPath(t *testing.T) {
	c := newCPU(t, false)
	fake := &fakeGPU{}
	c.gpu = fake

	img := solid(2, 2, opaqueBlack)
	out := mustRender(t, c, img, img, DiffOptions{}.WithThreshold(0.4).WithDiffColor(Blue))

	if c.Backend() != BackendGPU {
		t.Errorf("Backend() = %v, want gpu", c.Backend())
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, want nil", c.Err())
	}
	assertPixel(t, out, 1, 1, opaqueRed)
	if fake.params.Threshold != 0.4 || fake.params.Policy != kernel.SingleColor {
		t.Errorf("params = %+v, want threshold 0.4 single colour", fake.params)
	}

	c.Dispose()
	c.Dispose()
	if fake.released != 1 {
		t.Errorf("release called %d times, want 1", fake.released)
	}
}

func TestCompositorGPUErrorReturned(t *testing.T) {
	c := newCPU(t, true)
	cause := errors.New("device lost")
	c.gpu = &fakeGPU{err: cause}

	img := solid(2, 2, opaqueBlack)
	_, err := c.Render(img, img, DiffOptions{})
	if !errors.Is(err, cause) {
		t.Errorf("Render() = %v, want wrapped device error", err)
	}
	if c.State() != StateUninitialized {
		t.Errorf("State() = %v, want Uninitialized", c.State())
	}
}

func TestStateAndBackendString(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{StateUninitialized.String(), "Uninitialized"},
		{StateReady.String(), "Ready"},
		{StateDisposed.String(), "Disposed"},
		{State(9).String(), "State(9)"},
		{BackendNone.String(), "none"},
		{BackendGPU.String(), "gpu"},
		{BackendSoftware.String(), "software"},
		{BackendFallback.String(), "fallback"},
		{Backend(7).String(), "Backend(7)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
