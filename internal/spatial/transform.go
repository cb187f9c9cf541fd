package spatial

import (
	"github.com/asgard/heimdall/internal/frame"
	"gonum.org/v1/gonum/mat"
)

// Transform maps spatial values expressed in Src into Dst. Translation is
// Dst's origin expressed in Src; Rotation is the rotation of Dst's axes
// relative to Src's, expressed in Src.
type Transform[Src, Dst frame.Frame] struct {
	Translation Position[Src]
	Rotation    Orientation[Src]
}

// IdentityTransform returns the identity transform from F to F.
func IdentityTransform[F frame.Frame]() Transform[F, F] {
	return Transform[F, F]{Translation: Position[F]{}, Rotation: Identity[F]()}
}

// ApplyToPosition translates then rotates p by the reverse (conjugate) of
// Rotation.
func (t Transform[Src, Dst]) ApplyToPosition(p Position[Src]) Position[Dst] {
	shifted := p.Minus(t.Translation)
	conj := t.Rotation.Conjugate()
	rx, ry, rz := quatRotateVector(conj.W, conj.X, conj.Y, conj.Z, shifted.X, shifted.Y, shifted.Z)
	return Position[Dst]{rx, ry, rz}
}

// ApplyToVector rotates v by the reverse (conjugate) of Rotation; vectors
// are not affected by translation.
func (t Transform[Src, Dst]) ApplyToVector(v Vector[Src]) Vector[Dst] {
	conj := t.Rotation.Conjugate()
	rx, ry, rz := quatRotateVector(conj.W, conj.X, conj.Y, conj.Z, v.X, v.Y, v.Z)
	return Vector[Dst]{rx, ry, rz}
}

// ApplyToLinearUncertainty computes R*C*R^T using the forward rotation
// matrix R (not its conjugate); translation does not affect covariance.
func (t Transform[Src, Dst]) ApplyToLinearUncertainty(c LinearUncertainty[Src]) LinearUncertainty[Dst] {
	r := t.Rotation.Matrix()
	var tmp mat.Dense
	tmp.Mul(r, c.Cov)
	var result mat.Dense
	result.Mul(&tmp, r.T())

	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, (result.At(i, j)+result.At(j, i))/2)
		}
	}
	return LinearUncertainty[Dst]{Cov: sym}
}

// ApplyToMeasuredPosition applies the transform component-wise.
func (t Transform[Src, Dst]) ApplyToMeasuredPosition(mp MeasuredPosition[Src]) MeasuredPosition[Dst] {
	return MeasuredPosition[Dst]{
		Position:    t.ApplyToPosition(mp.Position),
		Uncertainty: t.ApplyToLinearUncertainty(mp.Uncertainty),
	}
}

// Inverse returns the Dst->Src transform undoing t.
func (t Transform[Src, Dst]) Inverse() Transform[Dst, Src] {
	conj := t.Rotation.Conjugate()
	rx, ry, rz := quatRotateVector(conj.W, conj.X, conj.Y, conj.Z, -t.Translation.X, -t.Translation.Y, -t.Translation.Z)
	return Transform[Dst, Src]{
		Translation: Position[Dst]{rx, ry, rz},
		Rotation:    Orientation[Dst]{conj.W, conj.X, conj.Y, conj.Z},
	}
}

// Compose builds the Src->New transform from A: Src->Dst followed by
// B: Dst->New. The resulting translation is A.Inverse().ApplyToPosition
// (B.Translation); the resulting rotation is A.Rotation * B.Rotation.
//
// Compose cannot be a method because it introduces a third frame type
// parameter beyond the receiver's Src,Dst.
func Compose[Src, Dst, New frame.Frame](a Transform[Src, Dst], b Transform[Dst, New]) Transform[Src, New] {
	translation := a.Inverse().ApplyToPosition(b.Translation)
	w, x, y, z := quatMultiply(a.Rotation.W, a.Rotation.X, a.Rotation.Y, a.Rotation.Z,
		b.Rotation.W, b.Rotation.X, b.Rotation.Y, b.Rotation.Z)
	return Transform[Src, New]{
		Translation: translation,
		Rotation:    Orientation[Src]{w, x, y, z},
	}
}
