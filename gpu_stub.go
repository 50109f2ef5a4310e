//go:build nogpu

package imagediff

import (
	"fmt"
	"log/slog"
)

// newGPURenderer always fails in nogpu builds; every render takes a CPU path.
func newGPURenderer(*options) (gpuRenderer, error) {
	return nil, fmt.Errorf("%w: built with nogpu", ErrContextUnavailable)
}

func propagateLogger(*slog.Logger) {}
