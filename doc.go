// Package imagediff renders a perceptual difference between two raster
// images.
//
// # Overview
//
// A background and an overlay are compared pixel by pixel in YIQ space.
// Pixels whose perceptual distance, or alpha difference, stays within a
// threshold are blended; the rest are highlighted. The comparison runs as a
// WebGPU fragment program via gogpu/wgpu (Pure Go, zero CGO) and falls back
// to the CPU when no GPU is available.
//
// # Quick Start
//
//	import "github.com/gogpu/imagediff"
//
//	c := imagediff.New()
//	defer c.Dispose()
//
//	out, err := c.Render(before, after, imagediff.DiffOptions{}.WithThreshold(0.1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out.SavePNG("diff.png")
//
// # Policies
//
// Directional (the default) marks changes where the overlay is brighter as
// additions and the rest as deletions, in separate colours. Deletions are
// hidden while the overlay opacity is 0.5 or less. SingleColor marks every
// change with one colour and fades the background by the opacity instead of
// blending the overlay in. Setting only DiffColor selects SingleColor.
//
// # Backends
//
// The GPU context is created on the first Render. If it cannot be created
// the compositor keeps working on the CPU and reports the cause through Err:
//   - WithSoftwareDiff runs the same diff on the CPU.
//   - Otherwise the overlay is drawn over the background at the configured
//     opacity, unscaled and without highlighting (see RenderFallback).
//
// Backend reports which path produced the last result. Reset retries the
// GPU after a failure.
//
// # Ownership
//
// Render returns a Pixmap owned by the compositor that the next Render
// overwrites. Clone it to keep it. Dispose releases every resource and
// empties that Pixmap.
//
// # Coordinate System
//
// Origin (0,0) at top-left, rows top to bottom. Inputs of different sizes
// are each stretched over the output, which is as large as the larger input
// on each axis.
package imagediff

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
