// Package mainloop implements the per-frame orchestration described in
// the system overview: pull a frame, detect, prune, fuse with odometry,
// track, cluster, identify beyblading, select a target, and stream the
// resulting aim point back to the MCB. It owns every piece of tracker,
// clusterer, identifier, and selector state single-threaded, per the
// concurrency model's "owns ... state (single-threaded within this
// thread)" rule: nothing in this package is safe to call concurrently
// from more than one goroutine.
package mainloop

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/clustering"
	"github.com/asgard/heimdall/internal/debugserver"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/identity"
	"github.com/asgard/heimdall/internal/kalman"
	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/obslog"
	"github.com/asgard/heimdall/internal/odometry"
	"github.com/asgard/heimdall/internal/platefilter"
	"github.com/asgard/heimdall/internal/reselect"
	"github.com/asgard/heimdall/internal/selection"
	"github.com/asgard/heimdall/internal/spatial"
	"github.com/asgard/heimdall/internal/streamsink"
	"github.com/asgard/heimdall/internal/telemetry/eventbus"
	"github.com/asgard/heimdall/internal/telemetry/metricsexport"
	"github.com/asgard/heimdall/internal/telemetry/msgstore"
	"github.com/asgard/heimdall/internal/uart"
	"github.com/asgard/heimdall/internal/videodump"
	"github.com/asgard/heimdall/internal/vision"
)

// SelectionConfig holds the weighted-rule parameters rebuilt fresh every
// tick (spec.md §4.10: "run target-selector update with freshly-built
// rule instances").
type SelectionConfig struct {
	MaxPlateRadius       float64
	TurretDistanceMax    float64
	TurretDistanceWeight float64
	TurretRotationWeight float64
	MaxScoreThreshold    float64 // 0 means unconfigured
}

// Deps bundles every collaborator one tick of the loop touches. All
// fields except VideoDumper, DebugServer, Metrics, EventBus, Sink,
// MsgStore, and Transceiver are required.
type Deps struct {
	Logger *logrus.Logger

	FrameSource   camera.FrameSource
	Detector      vision.Detector
	IdentityLatch *identity.Latch
	PlatefilterBase platefilter.Config // OwnTeamColor is overwritten per tick from identity

	OdometryStore *odometry.Store
	Mechanical    Mechanical

	PlateTracker *kalman.Tracker
	RobotTracker *kalman.Tracker
	Clusterer    *clustering.RobotClusterer

	RobotMeasurementVariance float64

	TargetSelector *selection.TargetSelector
	Selection      SelectionConfig
	ReselectRequest *reselect.Request

	Sink        *streamsink.Sink
	DebugServer *debugserver.Server
	Metrics     *metricsexport.Metrics
	EventBus    *eventbus.Bus
	VideoDumper *videodump.Dumper
	MsgStore    *msgstore.Store

	Transceiver io.Writer // outbound serial stream to the MCB
}

// Loop owns the per-frame pipeline's mutable sequence number; everything
// else it touches is owned by the collaborators in Deps.
type Loop struct {
	deps Deps
	seq  uint8
}

// New constructs a Loop. It does not itself start anything; call Run or
// Tick.
func New(deps Deps) *Loop {
	return &Loop{deps: deps}
}

// Run calls Tick until ctx is cancelled or Tick returns a fatal error
// (anything other than a per-frame skip, which Tick swallows itself).
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := l.Tick(ctx); err != nil {
			return err
		}
	}
}

// Tick runs exactly one iteration of the frame pipeline per spec.md
// §4.10. A skipped frame (unknown identity, no nearby odometry, detector
// error) is logged and reported as nil, not an error: only a failure to
// pull the next frame at all is fatal, since that means the frame
// source (or ctx) is done for good.
func (l *Loop) Tick(ctx context.Context) error {
	d := &l.deps

	tickStart := time.Now()
	fs, err := d.FrameSource.NextFrame(ctx)
	if err != nil {
		return err
	}
	entry := obslog.Frame(d.Logger, fs.Time)

	if d.VideoDumper != nil {
		d.VideoDumper.Submit(fs)
	}

	var stopDetectorTimer func()
	if d.Metrics != nil {
		stopDetectorTimer = d.Metrics.ObserveDetector(time.Now())
	}
	detections, err := d.Detector.Detect(ctx, fs)
	if stopDetectorTimer != nil {
		stopDetectorTimer()
	}
	if err != nil {
		entry.WithError(err).Warn("mainloop: detector failed, skipping frame")
		return nil
	}

	id, err := d.IdentityLatch.Current()
	if err != nil {
		entry.Warn("mainloop: identity not yet known, skipping frame")
		return nil
	}

	filterCfg := d.PlatefilterBase
	filterCfg.OwnTeamColor = id.Team
	cameraRelative, rejections := platefilter.New(filterCfg).Run(fs, detections)
	entry = entry.WithFields(logrus.Fields{
		"rejected_same_team": rejections.SameTeamColor,
		"rejected_too_small": rejections.TooSmall,
		"rejected_bad_depth": rejections.InvalidDepth,
	})

	odo, err := d.OdometryStore.Lookup(fs.Time)
	if err != nil {
		if d.Metrics != nil {
			d.Metrics.OdometryMisses.Inc()
		}
		entry.Warn("mainloop: no odometry near frame timestamp, skipping frame")
		return nil
	}

	worldToLauncher, colorCameraToWorld := BuildTransforms(odo, d.Mechanical)
	worldSet := platefilter.ToWorld(cameraRelative, colorCameraToWorld, odo.Time)

	plateMeasurements := make([]spatial.MeasuredPosition[frame.World], len(worldSet.Targets))
	for i, t := range worldSet.Targets {
		plateMeasurements[i] = t.Measured
	}
	plateTargets := d.PlateTracker.Update(plateMeasurements, fs.Time)

	clusterPlates := make([]clustering.PlateTarget, len(plateTargets))
	for i, t := range plateTargets {
		clusterPlates[i] = t
	}
	centers := d.Clusterer.Update(clusterPlates, fs.Time)

	robotMeasurements := make([]spatial.MeasuredPosition[frame.World], len(centers))
	for i, c := range centers {
		robotMeasurements[i] = robotMeasurement(c, d.RobotMeasurementVariance)
	}
	robotTargets := d.RobotTracker.Update(robotMeasurements, fs.Time)

	aimPlates := wrapAimable(plateTargets, worldToLauncher)
	aimRobots := wrapAimable(robotTargets, worldToLauncher)

	selPlates := make([]selection.Plate, len(aimPlates))
	for i, p := range aimPlates {
		selPlates[i] = p
	}
	selRobots := make([]selection.Robot, len(aimRobots))
	for i, r := range aimRobots {
		selRobots[i] = r
	}

	selector := l.buildSelector()
	robotSelector := selection.AsRobotSelector(selector)
	plateSelector := selection.AsPlateSelector(selector)

	aim := d.TargetSelector.Update(selRobots, selPlates, robotSelector, plateSelector, fs.Time)
	if reqID, ok := d.ReselectRequest.TakeIfPending(); ok {
		entry.WithField("request_id", reqID).Info("mainloop: servicing forced reselect")
		aim = d.TargetSelector.ForceReselect()
	}

	msg := aimMessage(aim, odo.Time, worldToLauncher)
	if d.Metrics != nil {
		d.Metrics.TrackedPlates.Set(float64(len(plateTargets)))
		d.Metrics.TrackedRobots.Set(float64(len(robotTargets)))
		d.Metrics.FramesProcessed.Inc()
		if msg.HasTarget {
			d.Metrics.TargetAcquired.Set(1)
		} else {
			d.Metrics.TargetAcquired.Set(0)
		}
	}
	if d.EventBus != nil {
		d.EventBus.PublishTargetUpdate(msg)
	}

	snap := snapshot(fs, msg, aim, len(robotTargets), len(plateTargets))
	if d.Sink != nil {
		d.Sink.Publish(snap)
	}
	if d.DebugServer != nil {
		d.DebugServer.Broadcast(snap)
	}

	if d.Transceiver != nil {
		l.seq++
		if err := uart.Send(d.Transceiver, l.seq, msg); err != nil {
			entry.WithError(err).Warn("mainloop: failed to send aim update to MCB")
		} else if d.MsgStore != nil {
			if body, err := msg.MarshalBody(); err == nil {
				if err := d.MsgStore.Record(ctx, msgstore.Outbound, uint8(msg.TypeID()), fs.Time.Micros, body); err != nil {
					entry.WithError(err).Warn("mainloop: failed to audit outbound message")
				}
			}
		}
	}

	if d.Metrics != nil {
		d.Metrics.FrameLatency.Observe(time.Since(tickStart).Seconds())
	}

	return nil
}

func (l *Loop) buildSelector() *selection.Selector {
	cfg := l.deps.Selection
	rules := []selection.WeightedRule{
		{Rule: selection.TurretDistance{MaxDistance: cfg.TurretDistanceMax}, Weight: cfg.TurretDistanceWeight},
		{Rule: selection.TurretRotationDifference{}, Weight: cfg.TurretRotationWeight},
	}
	sel := selection.NewSelector(rules)
	if cfg.MaxScoreThreshold > 0 {
		sel = sel.WithMaxScoreThreshold(cfg.MaxScoreThreshold)
	}
	return sel
}

// aimMessage converts a selection.AimTarget into the wire message,
// addressed to the given odometry timestamp regardless of whether a
// target was found, per spec.md §4.10. Both position and velocity are
// reported in the launcher frame, so the MCB never has to know about the
// world frame at all.
func aimMessage(aim selection.AimTarget, odoTime clock.Timestamp[clock.Odometry], worldToLauncher spatial.Transform[frame.World, frame.Launcher]) messages.AutoAimTargetUpdateMessage {
	mcbTimestamp := uint32(odoTime.Micros)
	if !aim.HasAny {
		return messages.AutoAimTargetUpdateMessage{MCBTimestamp: mcbTimestamp}
	}

	var pos spatial.Position[frame.Launcher]
	var worldVel spatial.Vector[frame.World]
	switch {
	case aim.Plate != nil:
		pos = aim.Plate.LauncherPosition()
		worldVel = aim.Plate.LatestEstimatedVelocity()
	default:
		pos = aim.Robot.LauncherPosition()
		worldVel = aim.Robot.LatestEstimatedVelocity()
	}
	vel := worldToLauncher.ApplyToVector(worldVel)

	return messages.AutoAimTargetUpdateMessage{
		PosX:         float32(pos.X),
		PosY:         float32(pos.Y),
		PosZ:         float32(pos.Z),
		VelX:         float32(vel.X),
		VelY:         float32(vel.Y),
		VelZ:         float32(vel.Z),
		HasTarget:    true,
		MCBTimestamp: mcbTimestamp,
	}
}

func snapshot(fs camera.Frameset, msg messages.AutoAimTargetUpdateMessage, aim selection.AimTarget, trackedRobots, trackedPlates int) streamsink.Snapshot {
	snap := streamsink.Snapshot{
		LocalTimestampMicros: fs.Time.Micros,
		HasTarget:            msg.HasTarget,
		PositionX:            float64(msg.PosX),
		PositionY:            float64(msg.PosY),
		PositionZ:            float64(msg.PosZ),
		VelocityX:            float64(msg.VelX),
		VelocityY:            float64(msg.VelY),
		VelocityZ:            float64(msg.VelZ),
		TrackedRobots:        trackedRobots,
		TrackedPlates:        trackedPlates,
	}
	switch {
	case aim.Plate != nil:
		snap.TargetKind = "plate"
	case aim.HasAny:
		snap.TargetKind = "robot"
	}
	return snap
}
