//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// Image is a straight-alpha RGBA8 image, rows tightly packed.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

func (img Image) valid() bool {
	return img.Width > 0 && img.Height > 0 && len(img.Pix) >= img.Width*img.Height*4
}

// textureSlot is one input texture kept across renders. It is recreated
// only when the uploaded image changes size.
type textureSlot struct {
	name   string
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	width  uint32
	height uint32
}

// upload writes img into the slot, recreating the texture on size change.
func (s *textureSlot) upload(device *wgpu.Device, queue *wgpu.Queue, img Image) error {
	if !img.valid() {
		return fmt.Errorf("%s: invalid image %dx%d (%d bytes)", s.name, img.Width, img.Height, len(img.Pix))
	}
	w, h := uint32(img.Width), uint32(img.Height) //nolint:gosec // validated positive
	if s.tex == nil || s.width != w || s.height != h {
		if err := s.create(device, w, h); err != nil {
			return err
		}
	}

	err := queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: s.tex, Aspect: gputypes.TextureAspectAll},
		img.Pix[:int(w)*int(h)*4],
		&wgpu.ImageDataLayout{BytesPerRow: w * 4, RowsPerImage: h},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write %s texture: %w", s.name, err)
	}
	return nil
}

func (s *textureSlot) create(device *wgpu.Device, w, h uint32) error {
	s.release()
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         s.name,
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create %s texture: %w", s.name, err)
	}
	view, err := device.CreateTextureView(tex, &wgpu.TextureViewDescriptor{
		Label:         s.name + "_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		tex.Release()
		return fmt.Errorf("create %s view: %w", s.name, err)
	}
	s.tex = tex
	s.view = view
	s.width = w
	s.height = h
	return nil
}

func (s *textureSlot) release() {
	if s.view != nil {
		s.view.Release()
		s.view = nil
	}
	if s.tex != nil {
		s.tex.Release()
		s.tex = nil
	}
	s.width = 0
	s.height = 0
}

// newNearestSampler creates the sampler shared by both inputs. Nearest
// filtering keeps exact texel values when the inputs match the output size.
func newNearestSampler(device *wgpu.Device, label string) (*wgpu.Sampler, error) {
	s, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	return s, nil
}
