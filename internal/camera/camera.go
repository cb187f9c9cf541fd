// Package camera defines the frame-acquisition boundary: a FrameSource
// that blocks until a time-stamped color+depth frameset is available, and
// the pinhole Intrinsics used to project/deproject between image points
// and color-camera-frame positions. A real implementation (wrapping the
// depth camera's SDK) is a thin adapter left as an extension point; the
// depth camera driver itself is out of scope.
package camera

import (
	"context"
	"fmt"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

// Rectangle is an axis-aligned pixel rectangle. X1/Y1 are exclusive, so
// width is X1-X0 and height is Y1-Y0.
type Rectangle struct {
	X0, Y0, X1, Y1 int
}

// Width returns the rectangle's pixel width.
func (r Rectangle) Width() int { return r.X1 - r.X0 }

// Height returns the rectangle's pixel height.
func (r Rectangle) Height() int { return r.Y1 - r.Y0 }

// CenterX returns the rectangle's horizontal center in pixel coordinates.
func (r Rectangle) CenterX() float64 { return float64(r.X0+r.X1) / 2 }

// CenterY returns the rectangle's vertical center in pixel coordinates.
func (r Rectangle) CenterY() float64 { return float64(r.Y0+r.Y1) / 2 }

// Intrinsics is a pinhole camera model: focal lengths and principal
// point in pixels.
type Intrinsics struct {
	Fx, Fy, Cx, Cy float64
}

// Project maps a color-camera-frame position to the pixel it appears at.
// Positions with non-positive depth (behind or at the camera) have no
// valid projection.
func (in Intrinsics) Project(pos spatial.Position[frame.ColorCamera]) (x, y float64, ok bool) {
	if pos.Z <= 0 {
		return 0, 0, false
	}
	return in.Fx*pos.X/pos.Z + in.Cx, in.Fy*pos.Y/pos.Z + in.Cy, true
}

// Deproject maps a pixel plus a depth (meters, along the camera's
// optical axis) back to a color-camera-frame position.
func (in Intrinsics) Deproject(px, py, depth float64) spatial.Position[frame.ColorCamera] {
	return spatial.Position[frame.ColorCamera]{
		X: (px - in.Cx) / in.Fx * depth,
		Y: (py - in.Cy) / in.Fy * depth,
		Z: depth,
	}
}

// Frameset is a time-stamped color+depth pair captured together. Depth
// is in meters; a zero or NaN sample means "no valid depth reading".
type Frameset struct {
	Color      []byte
	Depth      []float32
	Width      int
	Height     int
	Time       clock.Timestamp[clock.Local]
	Intrinsics Intrinsics
}

// SubsectionDepth returns the depth samples within rect, row-major. The
// right and bottom bounds are exclusive.
func (fs Frameset) SubsectionDepth(rect Rectangle) ([]float32, error) {
	if rect.X0 < 0 || rect.Y0 < 0 || rect.X1 > fs.Width || rect.Y1 > fs.Height {
		return nil, fmt.Errorf("camera: rectangle %+v out of bounds for %dx%d frame", rect, fs.Width, fs.Height)
	}
	out := make([]float32, 0, rect.Width()*rect.Height())
	for row := rect.Y0; row < rect.Y1; row++ {
		start := row*fs.Width + rect.X0
		out = append(out, fs.Depth[start:start+rect.Width()]...)
	}
	return out, nil
}

// FrameSource produces framesets on demand, blocking until one is ready
// or ctx is cancelled.
type FrameSource interface {
	NextFrame(ctx context.Context) (Frameset, error)
}
