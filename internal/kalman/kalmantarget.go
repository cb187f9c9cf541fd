package kalman

import (
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// KalmanTarget is the in-house TrackedTarget implementation: a per-target
// Kalman filter over (position, velocity, acceleration) per spatial axis.
type KalmanTarget struct {
	cfg        Config
	h          *mat.Dense
	instanceID uint64
	logger     *logrus.Logger

	x *mat.VecDense
	p *mat.SymDense

	updateTime       clock.Timestamp[clock.Local]
	observedTime     clock.Timestamp[clock.Local]
	observedPosition spatial.Position[frame.World]
}

// NewKalmanTarget constructs a target prior: measured position in the
// position slots, zero elsewhere; a very large position variance (to be
// immediately overwritten by the first measurement update) and the
// configured derivative variance in the higher-order slots. Callers
// typically follow this with an immediate UpdateFromMeasurement using the
// same measurement and timestamp.
func NewKalmanTarget(cfg Config, id uint64, measured spatial.MeasuredPosition[frame.World], t clock.Timestamp[clock.Local], logger *logrus.Logger) (*KalmanTarget, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	size := cfg.blockSize()
	stateDim := cfg.StateDim()

	x := mat.NewVecDense(stateDim, nil)
	x.SetVec(0*size, measured.Position.X)
	x.SetVec(1*size, measured.Position.Y)
	x.SetVec(2*size, measured.Position.Z)

	p := mat.NewSymDense(stateDim, nil)
	for axis := 0; axis < cfg.NumVars; axis++ {
		p.SetSym(axis*size, axis*size, cfg.InitialPositionVariance)
		for d := 1; d < size; d++ {
			p.SetSym(axis*size+d, axis*size+d, cfg.InitialDerivativeVariance)
		}
	}

	return &KalmanTarget{
		cfg:              cfg,
		h:                buildH(cfg),
		instanceID:       id,
		logger:           logger,
		x:                x,
		p:                p,
		updateTime:       t,
		observedTime:     t,
		observedPosition: measured.Position,
	}, nil
}

func (kt *KalmanTarget) InstanceID() uint64 { return kt.instanceID }

func (kt *KalmanTarget) position(x *mat.VecDense) spatial.Position[frame.World] {
	size := kt.cfg.blockSize()
	return spatial.Position[frame.World]{
		X: x.AtVec(0 * size),
		Y: x.AtVec(1 * size),
		Z: x.AtVec(2 * size),
	}
}

func (kt *KalmanTarget) LatestEstimatedPosition() spatial.Position[frame.World] {
	return kt.position(kt.x)
}

func (kt *KalmanTarget) LatestEstimatedVelocity() spatial.Vector[frame.World] {
	size := kt.cfg.blockSize()
	if size < 2 {
		return spatial.Vector[frame.World]{}
	}
	return spatial.Vector[frame.World]{
		X: kt.x.AtVec(0*size + 1),
		Y: kt.x.AtVec(1*size + 1),
		Z: kt.x.AtVec(2*size + 1),
	}
}

func (kt *KalmanTarget) LatestUncertainty() spatial.Vector[frame.World] {
	size := kt.cfg.blockSize()
	return spatial.Vector[frame.World]{
		X: kt.p.At(0*size, 0*size),
		Y: kt.p.At(1*size, 1*size),
		Z: kt.p.At(2*size, 2*size),
	}
}

func (kt *KalmanTarget) LatestUpdateTimestamp() clock.Timestamp[clock.Local]   { return kt.updateTime }
func (kt *KalmanTarget) LatestObservedTimestamp() clock.Timestamp[clock.Local] { return kt.observedTime }
func (kt *KalmanTarget) LatestObservedPosition() spatial.Position[frame.World] { return kt.observedPosition }

func (kt *KalmanTarget) ExtrapolatePosition(t clock.Timestamp[clock.Local]) spatial.Position[frame.World] {
	dt := t.Diff(kt.updateTime).Seconds()
	f := buildF(kt.cfg, buildTaylor(kt.cfg, dt))
	predicted := mat.NewVecDense(kt.cfg.StateDim(), nil)
	predicted.MulVec(f, kt.x)
	return kt.position(predicted)
}

func (kt *KalmanTarget) predictTo(t clock.Timestamp[clock.Local]) {
	dt := t.Diff(kt.updateTime).Seconds()
	kt.x, kt.p = predict(kt.cfg, kt.x, kt.p, dt)
	kt.updateTime = t
	kt.warnIfExcessive()
}

func (kt *KalmanTarget) UpdateFromMeasurement(measured spatial.MeasuredPosition[frame.World], t clock.Timestamp[clock.Local]) {
	kt.predictTo(t)
	z := mat.NewVecDense(kt.cfg.NumMeasured, []float64{measured.Position.X, measured.Position.Y, measured.Position.Z})
	kt.x, kt.p = measurementUpdate(kt.x, kt.p, kt.h, z, measured.Uncertainty.Cov)
	kt.observedTime = t
	kt.observedPosition = measured.Position
	kt.warnIfExcessive()
}

func (kt *KalmanTarget) UpdateFromExtrapolation(t clock.Timestamp[clock.Local]) {
	kt.predictTo(t)
}

func (kt *KalmanTarget) warnIfExcessive() {
	if kt.logger == nil || kt.cfg.WarnCovarianceThreshold <= 0 {
		return
	}
	n := kt.p.SymmetricDim()
	for i := 0; i < n; i++ {
		if kt.p.At(i, i) >= kt.cfg.WarnCovarianceThreshold {
			kt.logger.WithField("instance_id", kt.instanceID).
				WithField("diagonal_index", i).
				WithField("value", kt.p.At(i, i)).
				Warn("kalman: covariance excursion beyond threshold")
			return
		}
	}
}

// KalmanFactory returns a Factory producing KalmanTargets seeded and
// immediately folded against their first measurement.
func KalmanFactory(cfg Config, logger *logrus.Logger) Factory {
	return func(id uint64, measured spatial.MeasuredPosition[frame.World], t clock.Timestamp[clock.Local]) TrackedTarget {
		target, err := NewKalmanTarget(cfg, id, measured, t, logger)
		if err != nil {
			// NewKalmanTarget only fails on an invalid Config. Neither
			// KalmanFactory nor NewTracker validates the Config up
			// front, so an invalid Config panics here on the first
			// spawned target.
			panic(err)
		}
		target.UpdateFromMeasurement(measured, t)
		return target
	}
}
