// Package vision defines the detection boundary: the Detector interface
// producing an ImageDetectedTargetSet from a camera frameset, and the two
// concrete backends (a TensorFlow Lite model behind the "tflite" build
// tag, and a stub returning nothing for default builds and tests).
package vision

import (
	"context"

	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/robomaster"
)

// DetectedTargetRegion is one raw detector output: a confidence, a team
// color classification, and the pixel rectangle it was found in.
type DetectedTargetRegion struct {
	Confidence float64
	Color      robomaster.TeamColor
	Rect       camera.Rectangle
}

// ImageDetectedTargetSet is the detector's raw output for one frame.
type ImageDetectedTargetSet struct {
	Regions []DetectedTargetRegion
}

// Detector runs armor-plate detection over one frameset.
type Detector interface {
	Detect(ctx context.Context, fs camera.Frameset) (ImageDetectedTargetSet, error)
}
