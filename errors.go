package imagediff

import (
	"errors"

	"github.com/gogpu/imagediff/internal/gpu"
)

var (
	// ErrContextUnavailable means the GPU context could not be acquired.
	// The compositor degrades to the CPU paths and does not retry until
	// Reset is called.
	ErrContextUnavailable = gpu.ErrContextUnavailable

	// ErrShaderCompile means the diff shader failed to compile. See ShaderError
	// for the diagnostics.
	ErrShaderCompile = gpu.ErrShaderCompile

	// ErrProgramLink means the diff program failed validation or pipeline
	// creation.
	ErrProgramLink = gpu.ErrProgramLink

	// ErrInvalidDimensions is returned for nil or zero-size surfaces.
	ErrInvalidDimensions = errors.New("imagediff: invalid surface dimensions")

	// ErrDisposed is returned by Render after Dispose.
	ErrDisposed = errors.New("imagediff: compositor disposed")
)

// ShaderError carries the compile or link log of a failed diff program.
// Use errors.As to retrieve it from Compositor.Err.
type ShaderError = gpu.ShaderError
