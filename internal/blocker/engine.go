// Package blocker executes blocking strategies as explicit fallback chains.
// Every chain ends with back-navigation; nothing here panics or returns an
// error to the caller. Results are reported as a domain.BlockOutcome.
package blocker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/uitree"
)

// Attempt names reported in BlockOutcome.Tried.
const (
	AttemptBack     = "back"
	AttemptHome     = "home"
	AttemptCounter  = "counter_scroll"
	AttemptRapid    = "rapid_counter"
	AttemptCurved   = "curved_counter"
	AttemptOverlay  = "overlay"
	AttemptRedirect = "redirect"
	AttemptPage     = "block_page"
)

// ReasonAdult is passed to the block page for adult content.
const ReasonAdult = "adult_content"

// Config groups executor settings.
type Config struct {
	Gesture GestureConfig
	Overlay OverlayConfig
}

// DefaultConfig returns default executor settings.
func DefaultConfig() Config {
	return Config{
		Gesture: DefaultGestureConfig(),
		Overlay: DefaultOverlayConfig(),
	}
}

// SafeTargetSource lists navigation controls that lead away from a feed.
type SafeTargetSource interface {
	SafeTargets(pkg string) []domain.NavTarget
}

// Engine implements domain.Executor on top of a Platform.
type Engine struct {
	platform  domain.Platform
	overlays  *OverlaySlot
	pages     domain.BlockPageLauncher
	targets   SafeTargetSource
	scheduler domain.Scheduler
	runner    *Runner
	config    Config
	logger    *zap.Logger
}

// NewEngine creates an executor. overlays and pages may be nil on hosts
// that lack them; the corresponding attempts then fail over to back.
func NewEngine(
	platform domain.Platform,
	overlays domain.OverlayHost,
	pages domain.BlockPageLauncher,
	targets SafeTargetSource,
	scheduler domain.Scheduler,
	config Config,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		platform:  platform,
		overlays:  NewOverlaySlot(overlays, scheduler, config.Overlay, logger),
		pages:     pages,
		targets:   targets,
		scheduler: scheduler,
		runner:    NewRunner(logger),
		config:    config,
		logger:    logger,
	}
}

// Execute runs strategy's chain. result and root are only read during the
// call.
func (e *Engine) Execute(strategy domain.Strategy, result domain.DetectionResult, root domain.Node, pkg string) domain.BlockOutcome {
	area := e.targetArea(result)
	dir := result.ScrollDirection

	back := Attempt{Name: AttemptBack, Run: e.back}
	counter := Attempt{Name: AttemptCounter, Run: func() error { return e.counterScroll(area, dir) }}
	rapid := Attempt{Name: AttemptRapid, Run: func() error { return e.rapidBurst(area, dir) }}
	curved := Attempt{Name: AttemptCurved, Run: func() error { return e.curvedScroll(area, dir) }}
	overlay := Attempt{Name: AttemptOverlay, Run: func() error { return e.overlays.Acquire(area) }}
	redirect := Attempt{Name: AttemptRedirect, Run: func() error { return e.redirect(root, pkg) }}
	home := Attempt{Name: AttemptHome, Run: e.home}
	page := Attempt{Name: AttemptPage, Run: func() error { return e.blockPage(pkg) }}

	var chain []Attempt
	switch strategy {
	case domain.StrategyNone:
		return domain.BlockOutcome{Strategy: strategy, State: domain.StateIdle}
	case domain.StrategyBackNavigation:
		chain = []Attempt{back}
	case domain.StrategyCounterScroll:
		chain = []Attempt{counter, back}
	case domain.StrategyRapidCounter:
		chain = []Attempt{rapid, back}
	case domain.StrategyEnhancedScrollDisable:
		chain = []Attempt{overlay, rapid, curved, back}
	case domain.StrategyOverlay:
		chain = []Attempt{overlay, back}
	case domain.StrategyRedirect:
		chain = []Attempt{redirect, back}
	case domain.StrategyFullAppBlock:
		chain = []Attempt{home, back}
	case domain.StrategyBlockPage:
		chain = []Attempt{page, back}
	default:
		e.logger.Warn("unknown strategy, using back", zap.String("strategy", string(strategy)))
		chain = []Attempt{back}
	}

	out := e.runner.Run(strategy, chain...)
	e.logger.Info("block executed",
		zap.String("package", pkg),
		zap.String("strategy", string(strategy)),
		zap.String("state", string(out.State)),
		zap.String("winner", out.Winner))
	return out
}

// targetArea is the scroll container's bounds, or the screen when there is
// no usable container.
func (e *Engine) targetArea(result domain.DetectionResult) domain.Rect {
	if b := uitree.Bounds(result.PrimaryScrollContainer); !b.Empty() {
		return b
	}
	var screen domain.Rect
	_ = safely(func() error { screen = e.platform.ScreenBounds(); return nil })
	return screen
}

func (e *Engine) back() error {
	if err := e.platform.PerformGlobalAction(domain.GlobalBack); err != nil {
		return fmt.Errorf("back navigation failed: %w", err)
	}
	return nil
}

func (e *Engine) home() error {
	if err := e.platform.PerformGlobalAction(domain.GlobalHome); err != nil {
		return fmt.Errorf("home navigation failed: %w", err)
	}
	return nil
}

// redirect clicks the first safe navigation control found, by view id first
// and label second. Non-clickable matches are resolved to their nearest
// clickable ancestor.
func (e *Engine) redirect(root domain.Node, pkg string) error {
	if root == nil || e.targets == nil {
		return domain.ErrStaleNode
	}
	targets := e.targets.SafeTargets(pkg)
	if len(targets) == 0 {
		return fmt.Errorf("no safe target for %s", pkg)
	}

	for _, t := range targets {
		var candidates []domain.Node
		if t.ViewID != "" {
			candidates = append(candidates, uitree.FindByID(root, t.ViewID)...)
		}
		if t.Label != "" {
			candidates = append(candidates, uitree.FindByText(root, t.Label)...)
		}
		for _, n := range candidates {
			target := uitree.ClickableAncestor(n)
			if target == nil {
				continue
			}
			if err := uitree.Click(target); err != nil {
				e.logger.Debug("safe target click failed",
					zap.String("view_id", t.ViewID),
					zap.String("label", t.Label),
					zap.Error(err))
				continue
			}
			return nil
		}
	}
	return fmt.Errorf("no clickable safe target on screen: %w", domain.ErrNotClickable)
}

func (e *Engine) blockPage(pkg string) error {
	if e.pages == nil {
		return fmt.Errorf("no block page: %w", domain.ErrUnsupported)
	}
	return e.pages.LaunchBlockPage(pkg, ReasonAdult)
}

// Ensure Engine implements domain.Executor.
var _ domain.Executor = (*Engine)(nil)
