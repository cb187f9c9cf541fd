package spatial

import (
	"math"
	"testing"

	"github.com/asgard/heimdall/internal/frame"
)

// TestEulerRoundTrip locks the intrinsic rotating ZYX convention: building
// an Orientation from (roll, pitch, yaw) and decomposing it back must
// recover the same angles (up to the sign-of-q / wrap ambiguity, avoided
// here by staying well inside the gimbal-lock-free range).
func TestEulerRoundTrip(t *testing.T) {
	cases := []struct{ roll, pitch, yaw float64 }{
		{0, 0, 0},
		{0.2, 0.1, 0.4},
		{-0.5, 0.3, -1.2},
		{1.0, -0.4, 2.5},
	}
	for _, c := range cases {
		o := FromEulerAngles[frame.World](c.roll, c.pitch, c.yaw)
		roll, pitch, yaw := o.ToEulerAngles()
		if !approxEqual(roll, c.roll, 1e-9) || !approxEqual(pitch, c.pitch, 1e-9) || !approxEqual(yaw, c.yaw, 1e-9) {
			t.Fatalf("round trip mismatch for %+v: got roll=%v pitch=%v yaw=%v", c, roll, pitch, yaw)
		}
	}
}

// TestEulerYawOnlyRotatesXIntoY checks the yaw term on its own: a pure
// +90° yaw carries the +x axis onto +y, staying within the xy-plane.
func TestEulerYawOnlyRotatesXIntoY(t *testing.T) {
	yaw := math.Pi / 2
	o := FromEulerAngles[frame.World](0, 0, yaw)
	v := o.RotateVector(Vector[frame.World]{X: 1})
	if !approxEqual(v.X, 0, 1e-9) || !approxEqual(v.Y, 1, 1e-9) {
		t.Fatalf("yaw-only rotation of +x expected (0,1,0), got %+v", v)
	}
}

func TestNewOrientationZeroQuaternionFails(t *testing.T) {
	if _, err := New[frame.World](0, 0, 0, 0); err != ErrZeroQuaternion {
		t.Fatalf("expected ErrZeroQuaternion, got %v", err)
	}
}

func TestAxisAngleRoundTrip(t *testing.T) {
	axis := Vector[frame.World]{X: 1, Y: 1, Z: 0}
	angle := 1.3
	o, err := FromAxisAngle(axis, angle)
	if err != nil {
		t.Fatalf("FromAxisAngle: %v", err)
	}
	gotAxis, gotAngle, err := o.AxisAngle()
	if err != nil {
		t.Fatalf("AxisAngle: %v", err)
	}
	normAxis := axis.Div(axis.Magnitude())
	if !approxEqual(gotAxis.X, normAxis.X, 1e-9) || !approxEqual(gotAxis.Y, normAxis.Y, 1e-9) {
		t.Fatalf("axis mismatch: got %+v want %+v", gotAxis, normAxis)
	}
	if !approxEqual(gotAngle, angle, 1e-9) {
		t.Fatalf("angle mismatch: got %v want %v", gotAngle, angle)
	}
}
