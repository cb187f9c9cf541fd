// Package platefilter implements the prune-then-project pipeline that
// turns a detector's raw ImageDetectedTargetSet into a
// CameraRelativeDetectedTargetSet: drop implausible or same-team regions,
// then deproject each survivor into a frame-tagged measured position
// using its depth-image footprint.
package platefilter

import (
	"math"
	"sort"

	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/robomaster"
	"github.com/asgard/heimdall/internal/spatial"
	"github.com/asgard/heimdall/internal/vision"
)

// Config parameterizes pruning and depth-to-uncertainty conversion.
type Config struct {
	OwnTeamColor       robomaster.TeamColor
	MinWidth           int
	MinHeight          int
	MaxInvalidFraction float64 // drop a region if more than this fraction of its depth samples are invalid
	DepthStddevCoeff   float64 // meters of stddev per meter of range, along the ray
	PixelStddevCoeff   float64 // meters of stddev per meter of range, across the ray
}

// DetectedTargetPosition is one surviving, deprojected detection.
type DetectedTargetPosition[F frame.Frame] struct {
	Confidence float64
	Color      robomaster.TeamColor
	Measured   spatial.MeasuredPosition[F]
}

// CameraRelativeDetectedTargetSet is the prune+project pipeline's output,
// still in the color camera's own frame.
type CameraRelativeDetectedTargetSet struct {
	Targets        []DetectedTargetPosition[frame.ColorCamera]
	LocalTimestamp clock.Timestamp[clock.Local]
}

// PruneRejections counts why regions were dropped, for diagnostics.
type PruneRejections struct {
	SameTeamColor int
	TooSmall      int
	InvalidDepth  int
}

// Filter runs prune-then-project.
type Filter struct {
	cfg Config
}

// New constructs a Filter.
func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Run prunes and projects fs's detections, returning the surviving
// camera-relative targets and a rejection tally for logging.
func (f *Filter) Run(fs camera.Frameset, detections vision.ImageDetectedTargetSet) (CameraRelativeDetectedTargetSet, PruneRejections) {
	var rejections PruneRejections
	out := CameraRelativeDetectedTargetSet{LocalTimestamp: fs.Time}

	for _, region := range detections.Regions {
		if region.Color == f.cfg.OwnTeamColor {
			rejections.SameTeamColor++
			continue
		}
		if region.Rect.Width() < f.cfg.MinWidth || region.Rect.Height() < f.cfg.MinHeight {
			rejections.TooSmall++
			continue
		}

		depth, ok := f.medianDepth(fs, region.Rect)
		if !ok {
			rejections.InvalidDepth++
			continue
		}

		pos := fs.Intrinsics.Deproject(region.Rect.CenterX(), region.Rect.CenterY(), depth)
		d := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
		uncertainty := spatial.FromVariances[frame.ColorCamera](
			square(f.cfg.DepthStddevCoeff*d),
			square(f.cfg.PixelStddevCoeff*d),
			square(f.cfg.PixelStddevCoeff*d),
		)

		out.Targets = append(out.Targets, DetectedTargetPosition[frame.ColorCamera]{
			Confidence: region.Confidence,
			Color:      region.Color,
			Measured:   spatial.MeasuredPosition[frame.ColorCamera]{Position: pos, Uncertainty: uncertainty},
		})
	}

	return out, rejections
}

func square(x float64) float64 { return x * x }

// medianDepth returns the median of the valid (nonzero, non-NaN) depth
// samples in rect, or ok=false if the invalid fraction exceeds the
// configured threshold.
func (f *Filter) medianDepth(fs camera.Frameset, rect camera.Rectangle) (float64, bool) {
	samples, err := fs.SubsectionDepth(rect)
	if err != nil || len(samples) == 0 {
		return 0, false
	}

	valid := make([]float64, 0, len(samples))
	for _, s := range samples {
		v := float64(s)
		if v == 0 || math.IsNaN(v) {
			continue
		}
		valid = append(valid, v)
	}

	invalidFraction := 1 - float64(len(valid))/float64(len(samples))
	if invalidFraction > f.cfg.MaxInvalidFraction {
		return 0, false
	}
	if len(valid) == 0 {
		return 0, false
	}

	sort.Float64s(valid)
	mid := len(valid) / 2
	if len(valid)%2 == 1 {
		return valid[mid], true
	}
	return (valid[mid-1] + valid[mid]) / 2, true
}

// ToWorld applies a ColorCamera->World transform to every target in set,
// producing the world-frame set the tracker consumes.
func ToWorld(set CameraRelativeDetectedTargetSet, transform spatial.Transform[frame.ColorCamera, frame.World], mcbTimestamp clock.Timestamp[clock.Odometry]) WorldDetectedTargetSet {
	out := WorldDetectedTargetSet{LocalTimestamp: set.LocalTimestamp, MCBTimestamp: mcbTimestamp}
	for _, t := range set.Targets {
		out.Targets = append(out.Targets, DetectedTargetPosition[frame.World]{
			Confidence: t.Confidence,
			Color:      t.Color,
			Measured:   transform.ApplyToMeasuredPosition(t.Measured),
		})
	}
	return out
}

// WorldDetectedTargetSet is the final, tracker-ready output of the
// detection pipeline.
type WorldDetectedTargetSet struct {
	Targets        []DetectedTargetPosition[frame.World]
	LocalTimestamp clock.Timestamp[clock.Local]
	MCBTimestamp   clock.Timestamp[clock.Odometry]
}
