// Package main wires the perception-and-targeting pipeline together and
// runs it as a standalone process: load configuration, construct every
// collaborator the main loop depends on, open the serial link to the
// MCB, and run the frame loop, the serial receive loop, and the debug
// HTTP server concurrently until a signal or a fatal error stops them.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/asgard/heimdall/internal/beyblade"
	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/clustering"
	"github.com/asgard/heimdall/internal/config"
	"github.com/asgard/heimdall/internal/debugserver"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/identity"
	"github.com/asgard/heimdall/internal/kalman"
	"github.com/asgard/heimdall/internal/lifecycle"
	"github.com/asgard/heimdall/internal/mainloop"
	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/odometry"
	"github.com/asgard/heimdall/internal/platefilter"
	"github.com/asgard/heimdall/internal/reselect"
	"github.com/asgard/heimdall/internal/selection"
	"github.com/asgard/heimdall/internal/session"
	"github.com/asgard/heimdall/internal/spatial"
	"github.com/asgard/heimdall/internal/streamsink"
	"github.com/asgard/heimdall/internal/telemetry/eventbus"
	"github.com/asgard/heimdall/internal/telemetry/metricsexport"
	"github.com/asgard/heimdall/internal/telemetry/msgstore"
	"github.com/asgard/heimdall/internal/telemetry/statsstore"
	"github.com/asgard/heimdall/internal/uart"
	"github.com/asgard/heimdall/internal/videodump"
	"github.com/asgard/heimdall/internal/vision"
)

func main() {
	app := &cli.App{
		Name:      "heimdall",
		Usage:     "perception and targeting core for the turret MCB link",
		ArgsUsage: "[config_paths...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "silent",
				Aliases: []string{"s"},
				Usage:   "suppress stdout logging (the session log file is always written)",
			},
			&cli.StringFlag{
				Name:        "v",
				Usage:       "log level: FATAL, ERROR, WARNING, INFO, DEBUG (bare -v means DEBUG)",
				DefaultText: "INFO",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("heimdall: fatal error")
	}
}

// resolveLevel implements spec.md §6's -v grammar: absent ⇒ INFO, bare
// (set with no value) ⇒ DEBUG, otherwise the given level name.
func resolveLevel(cCtx *cli.Context) (logrus.Level, error) {
	if !cCtx.IsSet("v") {
		return logrus.InfoLevel, nil
	}
	value := cCtx.String("v")
	if value == "" {
		return logrus.DebugLevel, nil
	}
	return logrus.ParseLevel(strings.ToLower(value))
}

func runAction(cCtx *cli.Context) error {
	cfg, err := config.Load(cCtx.Args().Slice())
	if err != nil {
		return fmt.Errorf("heimdall: loading config: %w", err)
	}

	sess, err := session.New(cfg.Session.RootDir, cfg.Session.Prefix)
	if err != nil {
		return fmt.Errorf("heimdall: creating session directory: %w", err)
	}

	level, err := resolveLevel(cCtx)
	if err != nil {
		return fmt.Errorf("heimdall: parsing -v: %w", err)
	}
	logger, logFile, err := newLogger(sess, level, cCtx.Bool("silent"))
	if err != nil {
		return fmt.Errorf("heimdall: opening session log: %w", err)
	}
	defer logFile.Close()

	logger.WithField("session_dir", sess.Dir()).Info("heimdall: starting")

	registry := prometheus.NewRegistry()
	metrics := metricsexport.New(registry)

	eventBus, err := connectEventBus(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("heimdall: event bus disabled")
		eventBus = eventbus.Disabled()
	}
	defer eventBus.Close()

	statsStore, err := connectStatsStore(cCtx.Context, cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("heimdall: stats store disabled")
	}
	if statsStore != nil {
		defer statsStore.Close(context.Background())
	}

	msgStore, err := connectMsgStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("heimdall: message store disabled")
	}
	if msgStore != nil {
		defer msgStore.Close()
	}

	dumper := videodump.New(2, 64)
	defer func() {
		if err := dumper.Stop(); err != nil {
			logger.WithError(err).Warn("heimdall: video dumper shutdown error")
		}
	}()
	if chunkFile, err := os.OpenFile(sess.ColorChunkPath(0), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644); err != nil {
		logger.WithError(err).Warn("heimdall: video dump chunk disabled")
	} else {
		defer chunkFile.Close()
		dumper.SetWriter(chunkFile)
	}

	deps, err := buildMainloopDeps(cfg, logger, registry, metrics, eventBus, dumper)
	if err != nil {
		return fmt.Errorf("heimdall: wiring main loop: %w", err)
	}

	serialPort, err := uart.OpenSerialPort(uart.SerialConfig{
		Port:        cfg.Uart.Port,
		BaudRate:    cfg.Uart.BaudRate,
		ReadTimeout: time.Duration(clock.Duration(cfg.Uart.ReadTimeout)) * time.Microsecond,
	})
	if err != nil {
		return fmt.Errorf("heimdall: opening serial port %q: %w", cfg.Uart.Port, err)
	}
	defer serialPort.Close()

	deps.Transceiver = serialPort
	deps.MsgStore = msgStore

	lifecycleController := lifecycle.New(logger)
	registryHandlers, err := buildRegistry(deps, lifecycleController)
	if err != nil {
		return fmt.Errorf("heimdall: building uart registry: %w", err)
	}

	now := func() clock.Timestamp[clock.Local] {
		return clock.New[clock.Local](time.Now().UnixMicro())
	}
	receiver := uart.NewReceiver(registryHandlers, now, logger, cfg.Uart.WarnThreshold)
	persevering := uart.NewPerseveringReceiver(receiver, logger, cfg.Uart.MaxParseErrors)

	loop := mainloop.New(deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if statsStore != nil {
		go flushStatsPeriodically(ctx, statsStore, deps.IdentityLatch, logger)
	}

	httpServer := &http.Server{
		Addr:    cfg.Debugserver.Addr,
		Handler: deps.DebugServer.Router(),
	}

	var wg sync.WaitGroup
	fatal := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			fatal <- fmt.Errorf("main loop: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			if err := persevering.ReceiveOne(serialPort); err != nil {
				fatal <- fmt.Errorf("serial receive loop: %w", err)
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.WithField("addr", cfg.Debugserver.Addr).Info("heimdall: debug server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal <- fmt.Errorf("debug server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("heimdall: shutdown signal received")
	case err := <-fatal:
		logger.WithError(err).Error("heimdall: fatal error, shutting down")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("heimdall: debug server shutdown error")
	}

	wg.Wait()
	logger.Info("heimdall: stopped")
	return nil
}

// newLogger opens the session's log.txt and routes logging to it per
// spec.md §7: always to the session log file, additionally to stdout
// unless silent is set.
func newLogger(sess *session.Session, level logrus.Level, silent bool) (*logrus.Logger, *os.File, error) {
	logFile, err := os.OpenFile(sess.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	if silent {
		logger.SetOutput(logFile)
	} else {
		logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}
	return logger, logFile, nil
}

func connectEventBus(cfg config.Config, logger *logrus.Logger) (*eventbus.Bus, error) {
	if cfg.Telemetry.NatsURL == "" {
		return eventbus.Disabled(), nil
	}
	return eventbus.Connect(cfg.Telemetry.NatsURL, logger)
}

func connectStatsStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*statsstore.Store, error) {
	if cfg.Telemetry.MongoURI == "" {
		return nil, nil
	}
	return statsstore.Connect(ctx, cfg.Telemetry.MongoURI, "heimdall", "counters")
}

func connectMsgStore(cfg config.Config, logger *logrus.Logger) (*msgstore.Store, error) {
	if cfg.Telemetry.PostgresDSN == "" {
		return nil, nil
	}
	return msgstore.Open(cfg.Telemetry.PostgresDSN)
}

// buildMainloopDeps constructs every collaborator the main loop needs
// except the serial transceiver, which the caller opens and attaches
// once the port is confirmed good.
func buildMainloopDeps(cfg config.Config, logger *logrus.Logger, registry *prometheus.Registry, metrics *metricsexport.Metrics, eventBus *eventbus.Bus, dumper *videodump.Dumper) (mainloop.Deps, error) {
	detector, err := vision.NewDetector(cfg.Vision.ModelPath, cfg.Vision.MinScore)
	if err != nil {
		return mainloop.Deps{}, fmt.Errorf("constructing detector: %w", err)
	}

	identityLatch := identity.NewLatch()

	odometryStore := odometry.NewStore(odometry.Config{
		ReceiptOffset: clock.Duration(cfg.Odometry.ReceiptOffset),
		HistorySize:   cfg.Odometry.HistorySize,
		MaxEntryAge:   clock.Duration(cfg.Odometry.MaxEntryAge),
	})

	mech := mainloop.Mechanical{
		TurretRefToLauncher: spatial.Transform[frame.TurretRef, frame.Launcher]{
			Translation: config.AsPosition[frame.TurretRef](cfg.Mechanical.TurretRefToLauncher.Translation),
			Rotation: spatial.FromEulerAngles[frame.TurretRef](
				cfg.Mechanical.TurretRefToLauncher.Rotation.RollRad,
				cfg.Mechanical.TurretRefToLauncher.Rotation.PitchRad,
				cfg.Mechanical.TurretRefToLauncher.Rotation.YawRad,
			),
		},
		TurretRefToColorCamera: spatial.Transform[frame.TurretRef, frame.ColorCamera]{
			Translation: config.AsPosition[frame.TurretRef](cfg.Mechanical.TurretRefToColorCamera.Translation),
			Rotation: spatial.FromEulerAngles[frame.TurretRef](
				cfg.Mechanical.TurretRefToColorCamera.Rotation.RollRad,
				cfg.Mechanical.TurretRefToColorCamera.Rotation.PitchRad,
				cfg.Mechanical.TurretRefToColorCamera.Rotation.YawRad,
			),
		},
	}

	plateTracker, err := kalman.NewTracker(
		kalman.TrackerConfig{MaxDistance: cfg.Tracker.MaxDistance, MaxStaleness: clock.Duration(cfg.Tracker.MaxStaleness)},
		kalman.KalmanFactory(kalman.PositionTrackingConfig(1, cfg.Tracker.IntrinsicNoise), logger),
		logger,
	)
	if err != nil {
		return mainloop.Deps{}, fmt.Errorf("constructing plate tracker: %w", err)
	}
	robotTracker, err := kalman.NewTracker(
		kalman.TrackerConfig{MaxDistance: cfg.Tracker.MaxDistance, MaxStaleness: clock.Duration(cfg.Tracker.MaxStaleness)},
		kalman.KalmanFactory(kalman.PositionTrackingConfig(1, cfg.Tracker.IntrinsicNoise), logger),
		logger,
	)
	if err != nil {
		return mainloop.Deps{}, fmt.Errorf("constructing robot tracker: %w", err)
	}

	clusterer, err := clustering.NewRobotClusterer(cfg.Clustering.MinRadius, cfg.Clustering.MaxRadius, cfg.Clustering.Alpha, clock.Duration(cfg.Clustering.AgeLimit))
	if err != nil {
		return mainloop.Deps{}, fmt.Errorf("constructing clusterer: %w", err)
	}

	beybladeIdentifier := beyblade.NewIdentifier(beyblade.Config{
		MaxRadius:                          cfg.Beyblade.MaxRadius,
		RelativeVelocityMagnitudeThreshold: cfg.Beyblade.RelativeVelocityMagnitudeThreshold,
		IndicatorThreshold:                 cfg.Beyblade.IndicatorThreshold,
		AlphaSlow:                          cfg.Beyblade.AlphaSlow,
		AlphaFast:                          cfg.Beyblade.AlphaFast,
	})
	targetSelector := selection.NewTargetSelector(beybladeIdentifier, cfg.Selection.MaxPlateRadius)

	sink := streamsink.New()
	debugServer := debugserver.New(sink, registry, logger)

	// The depth camera driver itself sits outside this module's boundary;
	// MockFrameSource stands in as the thin adapter until one is wired.
	frameSource := camera.NewMockFrameSource(nil)

	return mainloop.Deps{
		Logger:        logger,
		FrameSource:   frameSource,
		Detector:      detector,
		IdentityLatch: identityLatch,
		PlatefilterBase: platefilter.Config{
			MinWidth:           cfg.Platefilter.MinWidth,
			MinHeight:          cfg.Platefilter.MinHeight,
			MaxInvalidFraction: cfg.Platefilter.MaxInvalidFraction,
			DepthStddevCoeff:   cfg.Platefilter.DepthStddevCoeff,
			PixelStddevCoeff:   cfg.Platefilter.PixelStddevCoeff,
		},
		OdometryStore:            odometryStore,
		Mechanical:               mech,
		PlateTracker:             plateTracker,
		RobotTracker:             robotTracker,
		Clusterer:                clusterer,
		RobotMeasurementVariance: cfg.Tracker.IntrinsicNoise[0],
		TargetSelector:           targetSelector,
		Selection: mainloop.SelectionConfig{
			MaxPlateRadius:       cfg.Selection.MaxPlateRadius,
			TurretDistanceMax:    cfg.Selection.TurretDistanceMax,
			TurretDistanceWeight: cfg.Selection.TurretDistanceWeight,
			TurretRotationWeight: cfg.Selection.TurretRotationWeight,
			MaxScoreThreshold:    cfg.Selection.MaxScoreThreshold,
		},
		ReselectRequest: reselect.New(),
		Sink:            sink,
		DebugServer:     debugServer,
		Metrics:         metrics,
		EventBus:        eventBus,
		VideoDumper:     dumper,
	}, nil
}

// buildRegistry assembles the inbound-message handler table: odometry
// feeds the history buffer, select-new-target raises the pending
// reselect request, referee messages feed the identity latch, and
// reboot/shutdown are delegated to the lifecycle controller.
func buildRegistry(deps mainloop.Deps, lifecycleController *lifecycle.Controller) (*uart.Registry, error) {
	reselectRequest := deps.ReselectRequest

	return uart.NewRegistry(
		messages.OdometryHandler{
			OnMessage: func(receiptTime clock.Timestamp[clock.Local], msg messages.OdometryMessage) error {
				return deps.OdometryStore.Record(receiptTime, msg)
			},
		},
		messages.SelectNewTargetHandler{
			OnMessage: func(_ clock.Timestamp[clock.Local], msg messages.SelectNewTargetMessage) error {
				reselectRequest.Raise(msg.RequestID)
				return nil
			},
		},
		deps.IdentityLatch.RobotIDHandler(deps.Logger),
		deps.IdentityLatch.RealtimeDataHandler(),
		deps.IdentityLatch.CompetitionResultHandler(),
		deps.IdentityLatch.WarningHandler(),
		lifecycleController.RebootHandler(),
		lifecycleController.ShutdownHandler(),
	)
}

// flushStatsPeriodically persists the identity latch's diagnostic
// counters to the stats store every few seconds until ctx is cancelled.
func flushStatsPeriodically(ctx context.Context, store *statsstore.Store, identityLatch *identity.Latch, logger *logrus.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			warnings, realtimeUpdates, competitionEnds := identityLatch.Counters()
			now := time.Now()
			if err := store.RecordCounter(ctx, "identity.referee_warnings", warnings, now); err != nil {
				logger.WithError(err).Warn("heimdall: failed to persist warnings counter")
			}
			if err := store.RecordCounter(ctx, "identity.realtime_updates", realtimeUpdates, now); err != nil {
				logger.WithError(err).Warn("heimdall: failed to persist realtime-updates counter")
			}
			if err := store.RecordCounter(ctx, "identity.competition_ends", competitionEnds, now); err != nil {
				logger.WithError(err).Warn("heimdall: failed to persist competition-ends counter")
			}
		}
	}
}
