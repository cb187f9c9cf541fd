package mainloop_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/asgard/heimdall/internal/beyblade"
	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/clustering"
	"github.com/asgard/heimdall/internal/identity"
	"github.com/asgard/heimdall/internal/kalman"
	"github.com/asgard/heimdall/internal/mainloop"
	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/odometry"
	"github.com/asgard/heimdall/internal/platefilter"
	"github.com/asgard/heimdall/internal/reselect"
	"github.com/asgard/heimdall/internal/robomaster"
	"github.com/asgard/heimdall/internal/selection"
	"github.com/asgard/heimdall/internal/streamsink"
	"github.com/asgard/heimdall/internal/vision"
)

var errStop = errors.New("mainloop_test: frame source exhausted")

// oneShotFrameSource yields a single frameset, then errStop forever.
type oneShotFrameSource struct {
	frame camera.Frameset
	used  bool
}

func (s *oneShotFrameSource) NextFrame(ctx context.Context) (camera.Frameset, error) {
	if s.used {
		return camera.Frameset{}, errStop
	}
	s.used = true
	return s.frame, nil
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type loopOption func(*mainloop.Deps)

func withUnknownIdentity() loopOption {
	return func(d *mainloop.Deps) { d.IdentityLatch = identity.NewLatch() }
}

func newLoop(t *testing.T, frameTime clock.Timestamp[clock.Local], transceiver io.Writer, opts ...loopOption) (*mainloop.Loop, *streamsink.Sink) {
	t.Helper()

	fs := camera.Frameset{
		Width: 4, Height: 4,
		Depth:      make([]float32, 16),
		Time:       frameTime,
		Intrinsics: camera.Intrinsics{Fx: 500, Fy: 500, Cx: 2, Cy: 2},
	}

	identityLatch := identity.NewLatch()
	identityLatch.Set(robomaster.Identity{Team: robomaster.Red, Type: robomaster.Std3})

	odometryStore := odometry.NewStore(odometry.Config{ReceiptOffset: 0, HistorySize: 8, MaxEntryAge: clock.Duration(1e9)})
	if err := odometryStore.Record(frameTime, messages.OdometryMessage{Time: clock.New[clock.Odometry](frameTime.Micros)}); err != nil {
		t.Fatalf("seed odometry: %v", err)
	}

	logger := discardLogger()
	plateTracker, err := kalman.NewTracker(
		kalman.TrackerConfig{MaxDistance: 1.0, MaxStaleness: clock.Duration(1e9)},
		kalman.KalmanFactory(kalman.PositionTrackingConfig(1, [3]float64{0.01, 0.01, 0.01}), logger),
		logger,
	)
	if err != nil {
		t.Fatalf("new plate tracker: %v", err)
	}
	robotTracker, err := kalman.NewTracker(
		kalman.TrackerConfig{MaxDistance: 1.0, MaxStaleness: clock.Duration(1e9)},
		kalman.KalmanFactory(kalman.PositionTrackingConfig(1, [3]float64{0.01, 0.01, 0.01}), logger),
		logger,
	)
	if err != nil {
		t.Fatalf("new robot tracker: %v", err)
	}
	clusterer, err := clustering.NewRobotClusterer(0.1, 0.5, 0.5, clock.Duration(1e9))
	if err != nil {
		t.Fatalf("new clusterer: %v", err)
	}

	beybladeIdentifier := beyblade.NewIdentifier(beyblade.Config{
		MaxRadius:                          0.3,
		RelativeVelocityMagnitudeThreshold: 1,
		IndicatorThreshold:                 0.5,
		AlphaSlow:                          0.1,
		AlphaFast:                          0.9,
	})
	targetSelector := selection.NewTargetSelector(beybladeIdentifier, 0.3)

	sink := streamsink.New()

	deps := mainloop.Deps{
		Logger:        logger,
		FrameSource:   &oneShotFrameSource{frame: fs},
		Detector:      vision.StubDetector{},
		IdentityLatch: identityLatch,
		PlatefilterBase: platefilter.Config{
			MinWidth: 1, MinHeight: 1,
			MaxInvalidFraction: 0.9,
			DepthStddevCoeff:   0.01,
			PixelStddevCoeff:   0.01,
		},
		OdometryStore:            odometryStore,
		Mechanical:               mainloop.Mechanical{},
		PlateTracker:             plateTracker,
		RobotTracker:             robotTracker,
		Clusterer:                clusterer,
		RobotMeasurementVariance: 0.05,
		TargetSelector:           targetSelector,
		Selection: mainloop.SelectionConfig{
			MaxPlateRadius:       0.3,
			TurretDistanceMax:    10,
			TurretDistanceWeight: 1,
			TurretRotationWeight: 1,
		},
		ReselectRequest: reselect.New(),
		Sink:            sink,
		Transceiver:     transceiver,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return mainloop.New(deps), sink
}

func TestTickWithNoDetectionsPublishesNoTargetSnapshot(t *testing.T) {
	var out bytes.Buffer
	loop, sink := newLoop(t, clock.New[clock.Local](1_000_000), &out)

	if err := loop.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	snap, ok := sink.Latest()
	if !ok {
		t.Fatal("expected a published snapshot")
	}
	if snap.HasTarget {
		t.Fatalf("expected no target with an empty detection set, got %+v", snap)
	}
	if out.Len() == 0 {
		t.Fatal("expected an AutoAimTargetUpdate frame to be written to the transceiver")
	}
}

func TestTickSkipsFrameOnUnknownIdentity(t *testing.T) {
	var out bytes.Buffer
	loop, sink := newLoop(t, clock.New[clock.Local](1_000_000), &out, withUnknownIdentity())

	if err := loop.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if _, ok := sink.Latest(); ok {
		t.Fatal("expected no snapshot to be published when identity is unknown")
	}
	if out.Len() != 0 {
		t.Fatal("expected no frame written to the transceiver when the tick is skipped")
	}
}

func TestRunStopsOnFrameSourceError(t *testing.T) {
	var out bytes.Buffer
	loop, _ := newLoop(t, clock.New[clock.Local](1_000_000), &out)

	err := loop.Run(context.Background())
	if !errors.Is(err, errStop) {
		t.Fatalf("expected errStop, got %v", err)
	}
}
