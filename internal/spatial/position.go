// Package spatial implements frame-tagged positions, vectors, orientations,
// linear uncertainty, measured positions, and the transform algebra
// composing them. Axis convention: x forward, y left, z up.
package spatial

import "github.com/asgard/heimdall/internal/frame"

// Position is a point in frame F.
type Position[F frame.Frame] struct {
	X, Y, Z float64
}

// Plus returns the position obtained by displacing p by v.
func (p Position[F]) Plus(v Vector[F]) Position[F] {
	return Position[F]{p.X + v.X, p.Y + v.Y, p.Z + v.Z}
}

// Minus returns the vector from o to p.
func (p Position[F]) Minus(o Position[F]) Vector[F] {
	return Vector[F]{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// MinusVector returns the position obtained by displacing p by -v.
func (p Position[F]) MinusVector(v Vector[F]) Position[F] {
	return Position[F]{p.X - v.X, p.Y - v.Y, p.Z - v.Z}
}
