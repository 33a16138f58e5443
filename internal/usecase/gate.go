// Package usecase contains application business logic.
package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/policy"
)

// Action summarises what the gate did with one event.
type Action string

const (
	ActionIgnored  Action = "ignored"   // no source, own package, or app not monitored
	ActionNotReady Action = "not_ready" // engine still initializing
	ActionSkipped  Action = "skipped"   // detected but suppressed by settings or cooldown
	ActionAllowed  Action = "allowed"   // nothing distracting on screen
	ActionBlocked  Action = "blocked"   // a strategy ran
	ActionFailed   Action = "failed"    // recovered from a panic
)

// Decision is the gate's result for one event.
type Decision struct {
	Action      Action
	Reason      string
	ContentType domain.ContentType
	Confidence  float64
	Strategy    domain.Strategy
	Outcome     domain.BlockOutcome
	Err         error
}

// BrowserSource recognises browsers and supplies adult block lists.
type BrowserSource interface {
	Browser(pkg string) (domain.BrowserProfile, bool)
	Adult() policy.AdultLists
}

// Metrics receives gate observations. Implementations must be safe for
// concurrent use.
type Metrics interface {
	EventHandled(action string)
	Detected(contentType, signal string)
	Blocked(strategy, state string)
	ClassifyDuration(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) EventHandled(string)            {}
func (nopMetrics) Detected(string, string)        {}
func (nopMetrics) Blocked(string, string)         {}
func (nopMetrics) ClassifyDuration(time.Duration) {}

// GateDeps are the collaborators of a Gate. Notifier, Recorder and Metrics
// are optional.
type GateDeps struct {
	Settings   SettingsProvider
	Classifier domain.Classifier
	Selector   domain.StrategySelector
	Executor   domain.Executor
	Browsers   BrowserSource
	Notifier   domain.Notifier
	Recorder   *EventRecorder
	Metrics    Metrics
}

// GateConfig tunes the gate.
type GateConfig struct {
	// OwnPackage is never inspected.
	OwnPackage string
	// Cooldown is the minimum time between two blocks of the same
	// (package, content) pair.
	Cooldown time.Duration
}

// DefaultGateConfig returns default gate settings.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		OwnPackage: "com.aryanvbw.reelguard",
		Cooldown:   500 * time.Millisecond,
	}
}

// Gate is the single entry point for accessibility events.
type Gate struct {
	deps   GateDeps
	config GateConfig
	logger *zap.Logger

	// Now is the clock; replaceable in tests.
	Now func() time.Time

	ready    atomic.Bool
	mu       sync.Mutex
	inflight map[string]bool
	last     map[string]time.Time
	async    sync.WaitGroup
}

// NewGate creates a gate. It drops every event until MarkReady is called.
func NewGate(deps GateDeps, config GateConfig, logger *zap.Logger) *Gate {
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	return &Gate{
		deps:     deps,
		config:   config,
		logger:   logger,
		Now:      time.Now,
		inflight: make(map[string]bool),
		last:     make(map[string]time.Time),
	}
}

// MarkReady allows the gate to process events.
func (g *Gate) MarkReady() {
	g.ready.Store(true)
}

// Ready reports whether the gate processes events.
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// HandleEvent evaluates one accessibility event. It never panics; the next
// event is always evaluated from scratch.
func (g *Gate) HandleEvent(ctx context.Context, ev domain.AccessibilityEvent) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("event handling panicked",
				zap.String("package", ev.PackageName),
				zap.Any("panic", r))
			d = Decision{Action: ActionFailed, Err: fmt.Errorf("event handling panicked: %v", r)}
		}
		g.deps.Metrics.EventHandled(string(d.Action))
	}()
	return g.handle(ctx, ev)
}

func (g *Gate) handle(ctx context.Context, ev domain.AccessibilityEvent) Decision {
	pkg, root := ev.PackageName, ev.Root
	if pkg == "" || root == nil {
		return Decision{Action: ActionIgnored, Reason: "no source"}
	}
	if pkg == g.config.OwnPackage {
		return Decision{Action: ActionIgnored, Reason: "own package"}
	}
	if !g.Ready() {
		return Decision{Action: ActionNotReady, Err: domain.ErrNotReady}
	}

	settings := g.deps.Settings.Settings()
	now := g.Now()

	// Adult content is checked in every mode and overrides everything else.
	if settings.AdultBlockEnabled && g.deps.Browsers != nil {
		if browser, ok := g.deps.Browsers.Browser(pkg); ok {
			if d, hit := g.checkAdult(ctx, root, pkg, browser, settings); hit {
				return d
			}
		}
	}

	if settings.TemporarilyUnblocked(now) {
		return Decision{Action: ActionSkipped, Reason: "temporarily unblocked"}
	}

	if settings.Mode == domain.ModeFocus && settings.FocusBlockedApps[pkg] {
		d := g.block(ctx, settings, pkg, domain.EventLabelFullApp, domain.StrategyFullAppBlock, domain.NoDetection(), root)
		d.Reason = "focus mode"
		return d
	}

	if !settings.IsAppMonitored(pkg) {
		return Decision{Action: ActionIgnored, Reason: "not monitored"}
	}

	start := time.Now()
	result := g.deps.Classifier.Classify(root, pkg)
	g.deps.Metrics.ClassifyDuration(time.Since(start))

	if !result.Detected || result.ContentType == domain.ContentNone {
		return Decision{Action: ActionAllowed}
	}
	g.deps.Metrics.Detected(string(result.ContentType), result.Signal)

	d := Decision{ContentType: result.ContentType, Confidence: result.Confidence}
	if !settings.IsContentBlocked(result.ContentType) {
		d.Action, d.Reason = ActionSkipped, "content type allowed"
		return d
	}
	if result.Confidence < settings.ConfidenceThreshold {
		d.Action, d.Reason = ActionSkipped, "below confidence threshold"
		return d
	}

	strategy := g.deps.Selector.Select(result, pkg, domain.SelectOptions{
		Preference:      settings.ActionPreference,
		OverlayEnabled:  settings.OverlayEnabled,
		GestureEnabled:  settings.GestureEnabled,
		RedirectEnabled: settings.RedirectEnabled,
	})
	if strategy == domain.StrategyNone {
		d.Action = ActionAllowed
		return d
	}

	bd := g.block(ctx, settings, pkg, string(result.ContentType), strategy, result, root)
	bd.ContentType, bd.Confidence = d.ContentType, d.Confidence
	return bd
}

func (g *Gate) checkAdult(ctx context.Context, root domain.Node, pkg string, browser domain.BrowserProfile, settings domain.AppSettings) (Decision, bool) {
	text := AddressBarText(root, browser)
	if text == "" {
		return Decision{}, false
	}
	lists := g.deps.Browsers.Adult()
	keywords := append(append([]string(nil), lists.Keywords...), settings.AdultKeywords...)
	domains := append(append([]string(nil), lists.Domains...), settings.AdultDomains...)

	term, hit := MatchAdult(text, keywords, domains)
	if !hit {
		return Decision{}, false
	}
	g.logger.Info("adult content in browser",
		zap.String("package", pkg),
		zap.String("browser", browser.Name),
		zap.String("match", term))

	d := g.block(ctx, settings, pkg, domain.EventLabelAdult, domain.StrategyBlockPage, domain.NoDetection(), root)
	d.Reason = "adult content"
	return d, true
}

// block runs strategy unless the same (pkg, label) pair is already being
// blocked or was blocked within the cooldown.
func (g *Gate) block(
	ctx context.Context,
	settings domain.AppSettings,
	pkg, label string,
	strategy domain.Strategy,
	result domain.DetectionResult,
	root domain.Node,
) Decision {
	key := pkg + "|" + label
	if !g.acquire(key) {
		return Decision{Action: ActionSkipped, Reason: "already blocking", Strategy: strategy}
	}
	defer g.release(key)

	outcome := g.deps.Executor.Execute(strategy, result, root, pkg)
	g.deps.Metrics.Blocked(string(strategy), string(outcome.State))

	d := Decision{Action: ActionBlocked, Strategy: strategy, Outcome: outcome}
	if !outcome.Succeeded {
		return d
	}

	ev := domain.BlockedContentEvent{
		ID:          uuid.NewString(),
		AppPackage:  pkg,
		ContentType: label,
		Strategy:    strategy,
		Timestamp:   g.Now(),
	}
	if g.deps.Recorder != nil {
		g.deps.Recorder.Record(ev)
	}
	if settings.NotificationsEnabled && g.deps.Notifier != nil {
		g.notify(ctx, notificationFor(ev))
	}
	return d
}

func (g *Gate) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.Now()
	if g.inflight[key] {
		return false
	}
	if last, ok := g.last[key]; ok && now.Sub(last) < g.config.Cooldown {
		return false
	}
	g.inflight[key] = true
	g.last[key] = now
	return true
}

func (g *Gate) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, key)
}

// notify posts n on a separate goroutine; a slow or failing notifier never
// delays the event path.
func (g *Gate) notify(ctx context.Context, n domain.Notification) {
	g.async.Add(1)
	go func() {
		defer g.async.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Warn("notifier panicked", zap.Any("panic", r))
			}
		}()
		if ctx.Err() != nil {
			return
		}
		if err := g.deps.Notifier.Notify(n); err != nil {
			g.logger.Warn("failed to post notification", zap.Error(err))
		}
	}()
}

// Wait blocks until pending notifications have been posted.
func (g *Gate) Wait() {
	g.async.Wait()
}

func notificationFor(ev domain.BlockedContentEvent) domain.Notification {
	msg := fmt.Sprintf("Blocked %s in %s", ev.ContentType, ev.AppPackage)
	switch ev.ContentType {
	case domain.EventLabelAdult:
		msg = "Blocked adult content in " + ev.AppPackage
	case domain.EventLabelFullApp:
		msg = ev.AppPackage + " is blocked during focus mode"
	}
	return domain.Notification{
		Title:   "Content blocked",
		Message: msg,
		Urgency: domain.UrgencyLow,
	}
}
