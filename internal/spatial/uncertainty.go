package spatial

import (
	"errors"

	"github.com/asgard/heimdall/internal/frame"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidCovarianceShape is returned when constructing a
// LinearUncertainty from a non-3x3 matrix.
var ErrInvalidCovarianceShape = errors.New("spatial: linear uncertainty requires a 3x3 covariance matrix")

// LinearUncertainty is a 3x3 covariance matrix expressed in frame F.
type LinearUncertainty[F frame.Frame] struct {
	Cov *mat.SymDense
}

// FromVariances builds a diagonal LinearUncertainty from per-axis
// variances.
func FromVariances[Fr frame.Frame](varX, varY, varZ float64) LinearUncertainty[Fr] {
	sym := mat.NewSymDense(3, nil)
	sym.SetSym(0, 0, varX)
	sym.SetSym(1, 1, varY)
	sym.SetSym(2, 2, varZ)
	return LinearUncertainty[Fr]{Cov: sym}
}

// FromMatrix builds a LinearUncertainty from an arbitrary matrix,
// validating it is 3x3 and symmetrizing it.
func FromMatrix[Fr frame.Frame](m mat.Matrix) (LinearUncertainty[Fr], error) {
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return LinearUncertainty[Fr]{}, ErrInvalidCovarianceShape
	}
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return LinearUncertainty[Fr]{Cov: sym}, nil
}

// Variances returns the diagonal (per-axis variance) of the covariance.
func (u LinearUncertainty[F]) Variances() Vector[F] {
	return Vector[F]{u.Cov.At(0, 0), u.Cov.At(1, 1), u.Cov.At(2, 2)}
}
