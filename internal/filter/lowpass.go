// Package filter implements a generic, time-aware exponential low-pass
// filter used by the robot clusterer and the beyblade identifier.
package filter

import (
	"errors"
	"math"

	"github.com/asgard/heimdall/internal/clock"
)

// ErrInvalidCoefficient is returned when constructing a LowPassFilter with
// a coefficient outside (0,1).
var ErrInvalidCoefficient = errors.New("filter: one-second coefficient must satisfy 0 < alpha < 1")

// Interp linearly interpolates from a toward b by fraction alpha in [0,1].
type Interp[V any] func(alpha float64, a, b V) V

// LowPassFilter is a time-varying exponential low-pass filter over value
// type V, parameterized by a pluggable linear interpolation function and
// timestamps in domain D.
type LowPassFilter[V any, D clock.Domain] struct {
	lambda float64
	interp Interp[V]

	value    V
	prevTime clock.Timestamp[D]
	seeded   bool
}

// New constructs a LowPassFilter. alpha is the canonical one-second
// coefficient; it must satisfy 0 < alpha < 1.
func New[V any, D clock.Domain](alpha float64, interp Interp[V]) (*LowPassFilter[V, D], error) {
	if alpha <= 0 || alpha >= 1 {
		return nil, ErrInvalidCoefficient
	}
	return &LowPassFilter[V, D]{
		lambda: -math.Log(1 - alpha),
		interp: interp,
	}, nil
}

// Seed initializes the filter's value and time without blending, as if
// the filter had always held this value.
func (f *LowPassFilter[V, D]) Seed(v V, t clock.Timestamp[D]) {
	f.value = v
	f.prevTime = t
	f.seeded = true
}

// Update blends the new observation into the filter's value according to
// the elapsed time since the previous update (or Seed).
func (f *LowPassFilter[V, D]) Update(v V, t clock.Timestamp[D]) {
	if !f.seeded {
		f.Seed(v, t)
		return
	}
	elapsed := t.Diff(f.prevTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	alphaEff := 1 - math.Exp(-f.lambda*elapsed)
	f.value = f.interp(alphaEff, f.value, v)
	f.prevTime = t
}

// Value returns the filter's current value.
func (f *LowPassFilter[V, D]) Value() V {
	return f.value
}

// LastUpdateTime returns the timestamp of the most recent Update or Seed.
func (f *LowPassFilter[V, D]) LastUpdateTime() clock.Timestamp[D] {
	return f.prevTime
}
