// Package kalman implements a generalized discrete Kalman filter bank:
// per-axis constant-derivative-order kinematic models (Taylor expansion
// evolution) with greedy nearest-neighbor measurement association, used
// both for tracking individual armor plates and for tracking clustered
// robot centers.
package kalman

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Config parameterizes the per-axis kinematic model: NumVars independent
// spatial axes, each carrying NumDerivatives derivatives above position
// (2 means position/velocity/acceleration), with NumMeasured of those
// axes observed directly by measurements.
type Config struct {
	NumVars                   int
	NumDerivatives            int
	NumMeasured               int
	InitialPositionVariance   float64
	InitialDerivativeVariance float64
	// IntrinsicNoise has NumDerivatives+1 entries: per-derivative-order
	// process noise variance, applied identically to every axis.
	IntrinsicNoise []float64
	// OdeCoefficients overlays each axis's highest-derivative row of the
	// evolution operator: instead of carrying the previous top-derivative
	// value forward unchanged, x_i^(top) evolves as a linear combination
	// of every axis's lower-order state, x_i^(top,new) = Σ_j,k a_{ijk}
	// x_j^(k). Shape is NumVars rows by NumVars*NumDerivatives columns,
	// axis-major (axis 0's derivatives 0..NumDerivatives-1, then axis
	// 1's, ...). Nil applies no overlay, so the top derivative is carried
	// forward unchanged; PositionTrackingConfig instead supplies an
	// explicit all-zero matrix, the discrete white-noise-acceleration
	// model used for plate/robot position tracking.
	OdeCoefficients [][]float64
	// WarnCovarianceThreshold logs (but never fails) when any diagonal
	// entry of P exceeds it after an update.
	WarnCovarianceThreshold float64
}

// StateDim is the size of the state vector: NumVars*(NumDerivatives+1).
func (c Config) StateDim() int { return c.NumVars * (c.NumDerivatives + 1) }

// blockSize is the per-axis sub-state size.
func (c Config) blockSize() int { return c.NumDerivatives + 1 }

func (c Config) validate() error {
	if c.NumVars <= 0 || c.NumDerivatives < 0 || c.NumMeasured <= 0 {
		return fmt.Errorf("kalman: invalid shape n=%d m=%d k=%d", c.NumVars, c.NumDerivatives, c.NumMeasured)
	}
	if c.NumMeasured > c.NumVars {
		return fmt.Errorf("kalman: num_measured (%d) exceeds num_vars (%d)", c.NumMeasured, c.NumVars)
	}
	if len(c.IntrinsicNoise) != c.NumDerivatives+1 {
		return fmt.Errorf("kalman: intrinsic_noise has %d entries, want %d", len(c.IntrinsicNoise), c.NumDerivatives+1)
	}
	if c.OdeCoefficients != nil {
		if len(c.OdeCoefficients) != c.NumVars {
			return fmt.Errorf("kalman: ode_coefficients has %d rows, want %d", len(c.OdeCoefficients), c.NumVars)
		}
		wantCols := c.NumVars * c.NumDerivatives
		for i, row := range c.OdeCoefficients {
			if len(row) != wantCols {
				return fmt.Errorf("kalman: ode_coefficients row %d has %d entries, want %d", i, len(row), wantCols)
			}
		}
	}
	return nil
}

// PositionTrackingConfig returns the n=3,m=2,k=3 configuration used for
// tracking plate and robot positions (position, velocity, acceleration).
// Acceleration evolves under the zero ODE coefficient matrix: a discrete
// white-noise-acceleration model, not a carried-forward constant.
func PositionTrackingConfig(initialDerivativeVariance float64, intrinsicNoise [3]float64) Config {
	const numVars = 3
	const numDerivatives = 2
	odeCoefficients := make([][]float64, numVars)
	for i := range odeCoefficients {
		odeCoefficients[i] = make([]float64, numVars*numDerivatives)
	}
	return Config{
		NumVars:                   numVars,
		NumDerivatives:            numDerivatives,
		NumMeasured:               3,
		InitialPositionVariance:   1e12,
		InitialDerivativeVariance: initialDerivativeVariance,
		IntrinsicNoise:            intrinsicNoise[:],
		OdeCoefficients:           odeCoefficients,
		WarnCovarianceThreshold:   1e13,
	}
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

// taylorBlock builds the (order+1)x(order+1) Taylor expansion operator
// for a single axis's derivative stack over elapsed time dt:
// block[i][k] = dt^(k-i) / (k-i)! for k >= i, else 0.
func taylorBlock(dt float64, order int) *mat.Dense {
	size := order + 1
	b := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for k := i; k < size; k++ {
			b.Set(i, k, math.Pow(dt, float64(k-i))/factorial(k-i))
		}
	}
	return b
}

// buildTaylor constructs the block-diagonal evolution operator for
// elapsed time dt: one taylorBlock per spatial axis, with no ODE
// coefficient overlay.
func buildTaylor(cfg Config, dt float64) *mat.Dense {
	block := taylorBlock(dt, cfg.NumDerivatives)
	size := cfg.blockSize()
	stateDim := cfg.StateDim()
	f := mat.NewDense(stateDim, stateDim, nil)
	for axis := 0; axis < cfg.NumVars; axis++ {
		off := axis * size
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				f.Set(off+i, off+j, block.At(i, j))
			}
		}
	}
	return f
}

// buildF constructs the state transition operator used for prediction:
// taylor with each axis's highest-derivative row overlaid by the ODE
// coefficients (see Config.OdeCoefficients), replacing the plain
// carry-forward of the previous top-derivative value.
func buildF(cfg Config, taylor *mat.Dense) *mat.Dense {
	f := mat.DenseCopyOf(taylor)
	if cfg.OdeCoefficients == nil {
		return f
	}
	size := cfg.blockSize()
	stateDim := cfg.StateDim()
	for axis := 0; axis < cfg.NumVars; axis++ {
		topRow := axis*size + cfg.NumDerivatives
		coeffs := cfg.OdeCoefficients[axis]
		for col := 0; col < stateDim; col++ {
			f.Set(topRow, col, 0)
		}
		for j := 0; j < cfg.NumVars; j++ {
			for d := 0; d < cfg.NumDerivatives; d++ {
				f.Set(topRow, j*size+d, coeffs[j*cfg.NumDerivatives+d])
			}
		}
	}
	return f
}

// buildQ constructs the process noise covariance Q = taylor diag(noise)
// taylorᵀ, with the per-derivative-order intrinsic noise replicated
// across axes. This uses the plain Taylor operator, not the
// ODE-coefficient-overlaid transition matrix: the original's
// evolution-noise computation is taken before the overlay.
func buildQ(cfg Config, f *mat.Dense) *mat.SymDense {
	stateDim := cfg.StateDim()
	size := cfg.blockSize()
	diagVals := make([]float64, stateDim)
	for axis := 0; axis < cfg.NumVars; axis++ {
		for i := 0; i < size; i++ {
			diagVals[axis*size+i] = cfg.IntrinsicNoise[i]
		}
	}
	diag := mat.NewDiagDense(stateDim, diagVals)
	var fq mat.Dense
	fq.Mul(f, diag)
	var q mat.Dense
	q.Mul(&fq, f.T())
	return symmetrize(&q)
}

// buildH constructs the measurement map: each measured axis observes its
// own position slot directly.
func buildH(cfg Config) *mat.Dense {
	size := cfg.blockSize()
	h := mat.NewDense(cfg.NumMeasured, cfg.StateDim(), nil)
	for i := 0; i < cfg.NumMeasured; i++ {
		h.Set(i, i*size, 1)
	}
	return h
}

func symmetrize(m mat.Matrix) *mat.SymDense {
	r, _ := m.Dims()
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return sym
}

// projectPSD projects a symmetric matrix to the nearest symmetric
// positive-semidefinite matrix by clamping negative eigenvalues to zero,
// absorbing the numeric drift that accumulates across predict/update
// cycles.
func projectPSD(p *mat.SymDense) *mat.SymDense {
	n := p.SymmetricDim()
	var eig mat.EigenSym
	if !eig.Factorize(p, true) {
		return p
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	clamped := make([]float64, n)
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		clamped[i] = v
	}
	diag := mat.NewDiagDense(n, clamped)
	var vd mat.Dense
	vd.Mul(&vectors, diag)
	var recon mat.Dense
	recon.Mul(&vd, vectors.T())
	return symmetrize(&recon)
}

// predict evolves (x, p) forward by dt seconds in place, returning the
// evolved state and covariance.
func predict(cfg Config, x *mat.VecDense, p *mat.SymDense, dt float64) (*mat.VecDense, *mat.SymDense) {
	if dt < 0 {
		dt = 0
	}
	taylor := buildTaylor(cfg, dt)
	f := buildF(cfg, taylor)
	q := buildQ(cfg, taylor)

	newX := mat.NewVecDense(cfg.StateDim(), nil)
	newX.MulVec(f, x)

	var fp mat.Dense
	fp.Mul(f, p)
	var fpft mat.Dense
	fpft.Mul(&fp, f.T())
	var pPred mat.Dense
	pPred.Add(&fpft, q)

	return newX, projectPSD(symmetrize(&pPred))
}

// measurementUpdate folds measurement z (with noise covariance r) into
// (x, p) via H, returning the posterior state and covariance using the
// non-Joseph form P <- P - K H P.
func measurementUpdate(x *mat.VecDense, p *mat.SymDense, h *mat.Dense, z *mat.VecDense, r *mat.SymDense) (*mat.VecDense, *mat.SymDense) {
	var hx mat.VecDense
	hx.MulVec(h, x)
	var y mat.VecDense
	y.SubVec(z, &hx)

	var hp mat.Dense
	hp.Mul(h, p)
	var hpht mat.Dense
	hpht.Mul(&hp, h.T())
	var s mat.Dense
	s.Add(&hpht, r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		// Singular innovation covariance: skip the update rather than
		// propagate NaNs into the state.
		return x, p
	}

	var ph mat.Dense
	ph.Mul(p, h.T())
	var k mat.Dense
	k.Mul(&ph, &sInv)

	var ky mat.VecDense
	ky.MulVec(&k, &y)
	newX := mat.NewVecDense(x.Len(), nil)
	newX.AddVec(x, &ky)

	var khp mat.Dense
	khp.Mul(&k, &hp)
	var pNew mat.Dense
	pNew.Sub(p, &khp)

	return newX, projectPSD(symmetrize(&pNew))
}
