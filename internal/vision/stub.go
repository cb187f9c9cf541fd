//go:build !tflite

package vision

import (
	"context"

	"github.com/asgard/heimdall/internal/camera"
)

// StubDetector is the default-build detector: it returns an empty
// detection set. A test double, and a safe default when no model is
// configured.
type StubDetector struct{}

// NewDetector returns a StubDetector in builds without the "tflite" tag.
func NewDetector(string, float64) (*StubDetector, error) {
	return &StubDetector{}, nil
}

func (StubDetector) Detect(ctx context.Context, _ camera.Frameset) (ImageDetectedTargetSet, error) {
	return ImageDetectedTargetSet{}, nil
}
