package spatial

import (
	"errors"
	"math"

	"github.com/asgard/heimdall/internal/frame"
	"gonum.org/v1/gonum/mat"
)

// ErrZeroQuaternion is returned when constructing an Orientation from a
// zero-norm quaternion, which cannot be normalized.
var ErrZeroQuaternion = errors.New("spatial: cannot normalize a zero quaternion")

// ErrZeroAxis is returned by FromAxisAngle and AxisAngle when the
// rotation axis is undefined (zero-length axis, or a near-identity
// orientation with no well-defined axis).
var ErrZeroAxis = errors.New("spatial: undefined rotation axis")

// Orientation is a unit quaternion (w,x,y,z) expressed in frame F.
type Orientation[F frame.Frame] struct {
	W, X, Y, Z float64
}

// New constructs an Orientation by normalizing the given quaternion
// components.
func New[F frame.Frame](w, x, y, z float64) (Orientation[F], error) {
	n := quatNorm(w, x, y, z)
	if n == 0 {
		return Orientation[F]{}, ErrZeroQuaternion
	}
	return Orientation[F]{w / n, x / n, y / n, z / n}, nil
}

// Identity returns the identity orientation.
func Identity[F frame.Frame]() Orientation[F] {
	return Orientation[F]{W: 1}
}

// Conjugate returns the conjugate (inverse, for a unit quaternion) of o.
func (o Orientation[F]) Conjugate() Orientation[F] {
	return Orientation[F]{o.W, -o.X, -o.Y, -o.Z}
}

// Multiply returns the quaternion product o*other, both expressed in F.
func (o Orientation[F]) Multiply(other Orientation[F]) Orientation[F] {
	w, x, y, z := quatMultiply(o.W, o.X, o.Y, o.Z, other.W, other.X, other.Y, other.Z)
	return Orientation[F]{w, x, y, z}
}

// RotateVector rotates v (expressed in the same frame F) by o.
func (o Orientation[F]) RotateVector(v Vector[F]) Vector[F] {
	rx, ry, rz := quatRotateVector(o.W, o.X, o.Y, o.Z, v.X, v.Y, v.Z)
	return Vector[F]{rx, ry, rz}
}

// Matrix returns the 3x3 rotation matrix equivalent to o.
func (o Orientation[F]) Matrix() *mat.Dense {
	w, x, y, z := o.W, o.X, o.Y, o.Z
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// FromEulerAngles builds an Orientation from roll, pitch, yaw (radians)
// under the intrinsic rotating ZYX convention: yaw is applied first, then
// pitch about the new y-axis, then roll about the newest x-axis, i.e.
// q = q_yaw * q_pitch * q_roll.
func FromEulerAngles[Fr frame.Frame](roll, pitch, yaw float64) Orientation[Fr] {
	hr, hp, hy := roll/2, pitch/2, yaw/2

	qxw, qxx, qxy, qxz := math.Cos(hr), math.Sin(hr), 0.0, 0.0
	qyw, qyx, qyy, qyz := math.Cos(hp), 0.0, math.Sin(hp), 0.0
	qzw, qzx, qzy, qzz := math.Cos(hy), 0.0, 0.0, math.Sin(hy)

	w1, x1, y1, z1 := quatMultiply(qzw, qzx, qzy, qzz, qyw, qyx, qyy, qyz)
	w, x, y, z := quatMultiply(w1, x1, y1, z1, qxw, qxx, qxy, qxz)
	return Orientation[Fr]{w, x, y, z}
}

// ToEulerAngles recovers (roll, pitch, yaw) in radians, inverse to
// FromEulerAngles, up to the usual sign-of-q and angle-wrapping ambiguity.
func (o Orientation[F]) ToEulerAngles() (roll, pitch, yaw float64) {
	w, x, y, z := o.W, o.X, o.Y, o.Z

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	switch {
	case sinp >= 1:
		pitch = math.Pi / 2
	case sinp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw = math.Atan2(sinyCosp, cosyCosp)
	return
}

// FromAxisAngle builds an Orientation rotating by angle radians about
// axis. The axis need not be normalized but must be nonzero.
func FromAxisAngle[Fr frame.Frame](axis Vector[Fr], angle float64) (Orientation[Fr], error) {
	mag := axis.Magnitude()
	if mag == 0 {
		return Orientation[Fr]{}, ErrZeroAxis
	}
	half := angle / 2
	s := math.Sin(half)
	return Orientation[Fr]{
		W: math.Cos(half),
		X: axis.X / mag * s,
		Y: axis.Y / mag * s,
		Z: axis.Z / mag * s,
	}, nil
}

// AxisAngle decomposes o into a rotation axis and angle. Near-identity
// orientations (angle ~ 0, mod 2*pi) have no well-defined axis and return
// ErrZeroAxis.
func (o Orientation[F]) AxisAngle() (axis Vector[F], angle float64, err error) {
	w := math.Max(-1, math.Min(1, o.W))
	angle = 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return Vector[F]{}, 0, ErrZeroAxis
	}
	return Vector[F]{o.X / s, o.Y / s, o.Z / s}, angle, nil
}
