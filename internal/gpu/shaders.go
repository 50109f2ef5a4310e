//go:build !nogpu

package gpu

import (
	_ "embed"
)

// Shader entry points shared by every program in this package.
const (
	shaderEntryVS = "vs_main"
	shaderEntryFS = "fs_main"
)

// diffShaderSource is the perceptual diff program.
//
//go:embed shaders/diff.wgsl
var diffShaderSource string

// DiffShaderSource returns the WGSL source of the diff program.
func DiffShaderSource() string {
	return diffShaderSource
}
