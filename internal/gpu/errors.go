package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// Errors reported by the GPU path. They are re-exported by the imagediff
// package. This file carries no build tag so the sentinels exist in nogpu
// builds too.
var (
	// ErrContextUnavailable means no GPU device could be acquired.
	ErrContextUnavailable = errors.New("imagediff: GPU context unavailable")

	// ErrShaderCompile means the WGSL source failed to parse or lower.
	ErrShaderCompile = errors.New("imagediff: shader compile failed")

	// ErrProgramLink means validation or pipeline creation failed.
	ErrProgramLink = errors.New("imagediff: program link failed")
)

// Shader stages reported in ShaderError.Stage.
const (
	StageCompile = "compile"
	StageLink    = "link"
)

// ShaderError carries the diagnostics of a failed program build.
type ShaderError struct {
	// Stage is StageCompile or StageLink.
	Stage string

	// Label names the shader module.
	Label string

	// Log holds the compiler or validator output, one diagnostic per line.
	Log string

	cause error
}

// Error implements the error interface.
func (e *ShaderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "imagediff: shader %s failed", e.Stage)
	if e.Label != "" {
		fmt.Fprintf(&b, " for %q", e.Label)
	}
	if e.Log != "" {
		b.WriteString(": ")
		b.WriteString(e.Log)
	}
	return b.String()
}

// Unwrap returns the stage sentinel and the underlying cause.
func (e *ShaderError) Unwrap() []error {
	sentinel := ErrProgramLink
	if e.Stage == StageCompile {
		sentinel = ErrShaderCompile
	}
	if e.cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.cause}
}
