package spatial

import "math"

import "github.com/asgard/heimdall/internal/frame"

// Vector is a displacement in frame F.
type Vector[F frame.Frame] struct {
	X, Y, Z float64
}

// Plus returns v+o.
func (v Vector[F]) Plus(o Vector[F]) Vector[F] {
	return Vector[F]{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Minus returns v-o.
func (v Vector[F]) Minus(o Vector[F]) Vector[F] {
	return Vector[F]{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v multiplied by a scalar.
func (v Vector[F]) Scale(s float64) Vector[F] {
	return Vector[F]{v.X * s, v.Y * s, v.Z * s}
}

// Div returns v divided by a scalar.
func (v Vector[F]) Div(s float64) Vector[F] {
	return Vector[F]{v.X / s, v.Y / s, v.Z / s}
}

// Magnitude returns the Euclidean norm of v.
func (v Vector[F]) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
