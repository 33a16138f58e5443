package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AryanVBW/focus-sub000/internal/blocker"
	"github.com/AryanVBW/focus-sub000/internal/classifier"
	"github.com/AryanVBW/focus-sub000/internal/config"
	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/infra"
	"github.com/AryanVBW/focus-sub000/internal/policy"
	"github.com/AryanVBW/focus-sub000/internal/strategy"
	"github.com/AryanVBW/focus-sub000/internal/usecase"
)

// host bundles the device-side collaborators of the engine.
type host struct {
	platform domain.Platform
	overlays domain.OverlayHost // nil when the host has no overlay windows
	pages    domain.BlockPageLauncher
	notifier domain.Notifier
}

// loadRegistry builds the app registry and merges rule packs from the
// configured directory.
func loadRegistry(cfg *config.Config, logger *zap.Logger) *policy.Registry {
	registry := policy.NewRegistry()

	packs, err := policy.LoadPacks(cfg.Resolve(cfg.PacksDir), logger)
	if err != nil {
		logger.Warn("failed to load rule packs", zap.Error(err))
		return registry
	}
	for _, pack := range packs {
		if err := registry.Apply(pack); err != nil {
			logger.Warn("skipping rule pack", zap.String("file", pack.Source()), zap.Error(err))
			continue
		}
		logger.Debug("applied rule pack", zap.String("file", pack.Source()))
	}
	return registry
}

// openEventLog opens the configured event log driver.
func openEventLog(cfg *config.Config) (*infra.SQLEventLog, error) {
	path := cfg.Resolve(cfg.EventLog.Path)
	switch cfg.EventLog.Driver {
	case "sqlite":
		return infra.NewPlainEventLog(path)
	default:
		return infra.NewEncryptedEventLog(path, cfg.Resolve(cfg.EventLog.KeyPath))
	}
}

// classifierConfig maps the detection section onto classifier thresholds.
func classifierConfig(cfg *config.Config) classifier.Config {
	return classifier.Config{
		SignalConfidence:      cfg.Detection.SignalConfidence,
		AspectRatio:           cfg.Detection.AspectRatio,
		FullScreenCoverage:    cfg.Detection.FullScreenCoverage,
		ActionColumnTolerance: cfg.Detection.ActionColumnTolerance,
	}
}

func engineConfig(cfg *config.Config) blocker.Config {
	g, o := cfg.Gesture, cfg.Overlay
	return blocker.Config{
		Gesture: blocker.GestureConfig{
			Duration:       g.Duration,
			BackupDuration: g.BackupDuration,
			SwipeFraction:  g.SwipeFraction,
			BurstCount:     g.BurstCount,
			BurstInterval:  g.BurstInterval,
			BurstDuration:  g.BurstDuration,
			CurvePoints:    g.CurvePoints,
			CurveDuration:  g.CurveDuration,
			CurveBend:      g.CurveBend,
		},
		Overlay: blocker.OverlayConfig{
			Duration:      o.Duration,
			Alpha:         o.Alpha,
			PulseAlpha:    o.PulseAlpha,
			PulseDuration: o.PulseDuration,
		},
	}
}

// newGate wires classifier, selector and executor into a gate.
func newGate(
	cfg *config.Config,
	registry *policy.Registry,
	h host,
	settings domain.SettingsReader,
	recorder *usecase.EventRecorder,
	metrics usecase.Metrics,
	logger *zap.Logger,
) *usecase.Gate {
	thresholds := strategy.Thresholds{
		Enhanced: cfg.Detection.EnhancedAbove,
		Rapid:    cfg.Detection.RapidAbove,
		Counter:  cfg.Detection.CounterAbove,
	}

	executor := blocker.NewEngine(
		h.platform,
		h.overlays,
		h.pages,
		registry,
		blocker.WallScheduler(),
		engineConfig(cfg),
		logger.Named("blocker"),
	)

	gateConfig := usecase.DefaultGateConfig()
	gateConfig.OwnPackage = cfg.Engine.OwnPackage
	gateConfig.Cooldown = cfg.Engine.Cooldown

	return usecase.NewGate(usecase.GateDeps{
		Settings:   usecase.ReaderSettings{Reader: settings, Supported: registry.Packages()},
		Classifier: classifier.New(registry, classifierConfig(cfg), logger.Named("classifier")),
		Selector:   strategy.NewSelector(registry, thresholds),
		Executor:   executor,
		Browsers:   registry,
		Notifier:   h.notifier,
		Recorder:   recorder,
		Metrics:    metrics,
	}, gateConfig, logger.Named("gate"))
}

// createLogger builds the daemon logger, writing to the data directory.
func createLogger(cfg *config.Config) *zap.Logger {
	dir := config.ExpandHome(cfg.DataDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		logger, _ := zap.NewProduction()
		return logger
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{filepath.Join(dir, "reelguard.log")}
	zcfg.ErrorOutputPaths = []string{filepath.Join(dir, "reelguard.error.log")}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func describeContent(ct domain.ContentType) string {
	if ct == "" || ct == domain.ContentNone {
		return "-"
	}
	return string(ct)
}

func describeOutcome(o domain.BlockOutcome) string {
	if o.Winner != "" {
		return fmt.Sprintf("%s via %s", o.State, o.Winner)
	}
	return string(o.State)
}
