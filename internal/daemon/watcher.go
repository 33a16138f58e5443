// Package daemon runs the blocking engine against a live device.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/usecase"
)

// ScreenSource captures the foreground window.
type ScreenSource interface {
	Capture(ctx context.Context) (pkg string, root domain.Node, err error)
}

// EventHandler consumes accessibility events.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev domain.AccessibilityEvent) usecase.Decision
}

// SettingsWatcher reloads user settings when they change on disk. Version
// counts successful reloads.
type SettingsWatcher interface {
	Watch(ctx context.Context, onChange func()) error
	Version() uint64
}

// ServerProbe reports whether the device bridge server is running.
type ServerProbe interface {
	ServerRunning() bool
}

// MonitorConfig holds monitor loop configuration.
type MonitorConfig struct {
	PollInterval  time.Duration // How often to capture the screen
	StatsInterval time.Duration // How often to log a decision summary
	// FailureThreshold is the number of consecutive capture failures
	// before the bridge server is probed.
	FailureThreshold int
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:     750 * time.Millisecond,
		StatsInterval:    5 * time.Minute,
		FailureThreshold: 5,
	}
}

// Monitor turns periodic screen captures into accessibility events.
// A package change is reported as a window state change, anything else as
// a content change.
type Monitor struct {
	config   MonitorConfig
	source   ScreenSource
	handler  EventHandler
	settings SettingsWatcher
	probe    ServerProbe
	logger   *zap.Logger

	lastPkg  string
	failures int
	stats    map[usecase.Action]int
}

// NewMonitor creates a monitor. settings and probe may be nil.
func NewMonitor(
	config MonitorConfig,
	source ScreenSource,
	handler EventHandler,
	settings SettingsWatcher,
	probe ServerProbe,
	logger *zap.Logger,
) *Monitor {
	return &Monitor{
		config:   config,
		source:   source,
		handler:  handler,
		settings: settings,
		probe:    probe,
		logger:   logger,
		stats:    make(map[usecase.Action]int),
	}
}

// Run polls until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	if m.settings != nil {
		go func() {
			if err := m.settings.Watch(ctx, m.settingsChanged); err != nil {
				m.logger.Warn("settings watcher stopped", zap.Error(err))
			}
		}()
	}

	m.logger.Info("monitor started", zap.Duration("poll_interval", m.config.PollInterval))

	// Poll immediately on startup
	m.Poll(ctx)

	pollTicker := time.NewTicker(m.config.PollInterval)
	statsTicker := time.NewTicker(m.config.StatsInterval)
	defer func() {
		pollTicker.Stop()
		statsTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping")
			return ctx.Err()

		case <-pollTicker.C:
			m.Poll(ctx)

		case <-statsTicker.C:
			m.logStats()
		}
	}
}

// Poll captures the screen once and hands it to the event handler.
func (m *Monitor) Poll(ctx context.Context) usecase.Decision {
	pkg, root, err := m.source.Capture(ctx)
	if err != nil {
		m.captureFailed(err)
		return usecase.Decision{Action: usecase.ActionIgnored, Reason: "capture failed", Err: err}
	}
	if m.failures > 0 {
		m.logger.Info("screen capture recovered", zap.Int("failures", m.failures))
		m.failures = 0
	}

	evType := domain.EventWindowContentChanged
	if pkg != m.lastPkg {
		evType = domain.EventWindowStateChanged
		m.lastPkg = pkg
	}

	d := m.handler.HandleEvent(ctx, domain.AccessibilityEvent{
		Type:        evType,
		PackageName: pkg,
		Root:        root,
		At:          time.Now(),
	})
	m.stats[d.Action]++

	if d.Action == usecase.ActionBlocked {
		m.logger.Info("blocked",
			zap.String("package", pkg),
			zap.String("content", string(d.ContentType)),
			zap.String("strategy", string(d.Strategy)),
			zap.Bool("succeeded", d.Outcome.Succeeded))
	}
	return d
}

func (m *Monitor) captureFailed(err error) {
	m.failures++
	if m.failures < m.config.FailureThreshold {
		m.logger.Debug("screen capture failed", zap.Error(err))
		return
	}
	if m.failures == m.config.FailureThreshold {
		fields := []zap.Field{zap.Int("failures", m.failures), zap.Error(err)}
		if m.probe != nil {
			fields = append(fields, zap.Bool("adb_server_running", m.probe.ServerRunning()))
		}
		m.logger.Warn("screen capture keeps failing", fields...)
	}
}

// settingsChanged runs on the watcher goroutine. The gate reads settings
// per event, so the next poll already sees the new values.
func (m *Monitor) settingsChanged() {
	m.logger.Info("settings changed, applying from next poll",
		zap.Uint64("settings_version", m.settings.Version()))
}

func (m *Monitor) logStats() {
	if len(m.stats) == 0 {
		return
	}
	fields := make([]zap.Field, 0, len(m.stats))
	for action, n := range m.stats {
		fields = append(fields, zap.Int(string(action), n))
	}
	m.logger.Info("monitor summary", fields...)
	m.stats = make(map[usecase.Action]int)
}
