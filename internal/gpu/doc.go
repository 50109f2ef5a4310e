// Package gpu renders the perceptual image diff with WebGPU.
//
// It is an internal package of imagediff built on the gogpu/wgpu Pure Go
// WebGPU implementation (zero CGO). The renderer owns one offscreen RGBA8
// target, two input textures, a full-target quad and the diff program:
//
//	Image (bg) ──► background texture ─┐
//	                                    ├─► diff.wgsl ─► target ─► staging ─► []byte
//	Image (ov) ──► overlay texture ────┘
//
// # Device
//
// A Renderer either shares the device of a gpucontext.DeviceProvider or
// creates its own through the Vulkan HAL. Software adapters are rejected
// with ErrContextUnavailable.
//
// # Program
//
// The WGSL source is parsed, lowered and validated with naga before any
// device call so diagnostics are reported as a *ShaderError with the
// compile or link stage.
//
// # Build tags
//
// Building with -tags nogpu removes everything but the error definitions.
package gpu
