package platefilter_test

import (
	"math"
	"testing"

	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/platefilter"
	"github.com/asgard/heimdall/internal/robomaster"
	"github.com/asgard/heimdall/internal/spatial"
	"github.com/asgard/heimdall/internal/vision"
)

func flatDepthFrame(width, height int, depth float32) camera.Frameset {
	samples := make([]float32, width*height)
	for i := range samples {
		samples[i] = depth
	}
	return camera.Frameset{
		Width: width, Height: height, Depth: samples,
		Intrinsics: camera.Intrinsics{Fx: 100, Fy: 100, Cx: float64(width) / 2, Cy: float64(height) / 2},
	}
}

func TestRunPrunesSameTeamColorAndTooSmall(t *testing.T) {
	f := platefilter.New(platefilter.Config{
		OwnTeamColor: robomaster.Red, MinWidth: 10, MinHeight: 10, MaxInvalidFraction: 0.7,
		DepthStddevCoeff: 0.01, PixelStddevCoeff: 0.01,
	})
	fs := flatDepthFrame(100, 100, 2.0)
	detections := vision.ImageDetectedTargetSet{Regions: []vision.DetectedTargetRegion{
		{Confidence: 0.9, Color: robomaster.Red, Rect: camera.Rectangle{X0: 10, Y0: 10, X1: 30, Y1: 30}},
		{Confidence: 0.9, Color: robomaster.Blue, Rect: camera.Rectangle{X0: 10, Y0: 10, X1: 15, Y1: 15}},
		{Confidence: 0.9, Color: robomaster.Blue, Rect: camera.Rectangle{X0: 40, Y0: 40, X1: 60, Y1: 60}},
	}}

	out, rejections := f.Run(fs, detections)
	if rejections.SameTeamColor != 1 || rejections.TooSmall != 1 {
		t.Fatalf("unexpected rejections: %+v", rejections)
	}
	if len(out.Targets) != 1 {
		t.Fatalf("expected 1 surviving target, got %d", len(out.Targets))
	}
}

func TestRunDropsRegionWithTooManyInvalidDepthSamples(t *testing.T) {
	f := platefilter.New(platefilter.Config{
		OwnTeamColor: robomaster.Red, MinWidth: 1, MinHeight: 1, MaxInvalidFraction: 0.7,
		DepthStddevCoeff: 0.01, PixelStddevCoeff: 0.01,
	})
	fs := flatDepthFrame(10, 10, 0) // all zero => all invalid
	detections := vision.ImageDetectedTargetSet{Regions: []vision.DetectedTargetRegion{
		{Confidence: 0.9, Color: robomaster.Blue, Rect: camera.Rectangle{X0: 0, Y0: 0, X1: 10, Y1: 10}},
	}}

	out, rejections := f.Run(fs, detections)
	if rejections.InvalidDepth != 1 || len(out.Targets) != 0 {
		t.Fatalf("expected the all-invalid-depth region to be dropped, got rejections=%+v targets=%d", rejections, len(out.Targets))
	}
}

func TestToWorldAppliesTransform(t *testing.T) {
	set := platefilter.CameraRelativeDetectedTargetSet{
		LocalTimestamp: clock.New[clock.Local](0),
		Targets: []platefilter.DetectedTargetPosition[frame.ColorCamera]{
			{Confidence: 1, Color: robomaster.Blue, Measured: spatial.MeasuredPosition[frame.ColorCamera]{
				Position:    spatial.Position[frame.ColorCamera]{X: 1, Y: 2, Z: 3},
				Uncertainty: spatial.FromVariances[frame.ColorCamera](0.1, 0.1, 0.1),
			}},
		},
	}
	transform := spatial.Transform[frame.ColorCamera, frame.World]{Rotation: spatial.Identity[frame.ColorCamera]()}
	world := platefilter.ToWorld(set, transform, clock.New[clock.Odometry](500))

	if len(world.Targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(world.Targets))
	}
	got := world.Targets[0].Measured.Position
	if math.Abs(got.X-1) > 1e-9 || math.Abs(got.Y-2) > 1e-9 || math.Abs(got.Z-3) > 1e-9 {
		t.Fatalf("identity transform changed position: %+v", got)
	}
}
