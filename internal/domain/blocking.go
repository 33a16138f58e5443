package domain

import (
	"errors"
	"time"
)

// Strategy names a blocking approach picked by the strategy selector.
type Strategy string

const (
	StrategyNone                  Strategy = "none"
	StrategyBackNavigation        Strategy = "back_navigation"
	StrategyCounterScroll         Strategy = "counter_scroll"
	StrategyRapidCounter          Strategy = "rapid_counter"
	StrategyEnhancedScrollDisable Strategy = "enhanced_scroll_disable"
	StrategyOverlay               Strategy = "overlay"
	StrategyRedirect              Strategy = "redirect"
	StrategyFullAppBlock          Strategy = "full_app_block"
	StrategyBlockPage             Strategy = "block_page"
)

// ExecState tracks a single detection event through the blocking pipeline.
type ExecState string

const (
	StateIdle             ExecState = "idle"
	StateDetecting        ExecState = "detecting"
	StateStrategySelected ExecState = "strategy_selected"
	StateExecuting        ExecState = "executing"
	StateSucceeded        ExecState = "succeeded"
	StateExhausted        ExecState = "exhausted"
)

// BlockOutcome captures what happened while executing one strategy.
type BlockOutcome struct {
	Strategy  Strategy
	State     ExecState
	Succeeded bool
	Winner    string   // attempt that reported success
	Tried     []string // attempts in the order they ran
}

// Exhausted reports whether every attempt, including back-navigation, failed.
func (o BlockOutcome) Exhausted() bool {
	return o.State == StateExhausted
}

// GlobalAction is a platform-level action not targeted at a node.
type GlobalAction string

const (
	GlobalBack GlobalAction = "back"
	GlobalHome GlobalAction = "home"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X, Y float64
}

// Rect is a screen rectangle in pixels.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the rectangle width.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the rectangle height.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: float64(r.Left+r.Right) / 2, Y: float64(r.Top+r.Bottom) / 2}
}

// Area returns width*height, or 0 for empty rectangles.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= float64(r.Left) && p.X <= float64(r.Right) &&
		p.Y >= float64(r.Top) && p.Y <= float64(r.Bottom)
}

// Stroke is one continuous touch path within a gesture.
type Stroke struct {
	Path     []Point
	Start    time.Duration // offset from gesture dispatch
	Duration time.Duration
}

// Gesture is a synthetic touch sequence.
type Gesture struct {
	Name    string
	Strokes []Stroke
}

// GestureCallback receives asynchronous completion of a dispatched gesture.
// Either field may be nil.
type GestureCallback struct {
	OnCompleted func()
	OnCancelled func()
}

// OverlaySpec describes a touch-swallowing overlay window.
type OverlaySpec struct {
	Bounds  Rect // empty means full screen
	Alpha   float64
	OnTouch func() // invoked for every swallowed touch
}

// Errors shared across layers.
var (
	ErrStaleNode       = errors.New("ui node is stale")
	ErrNotClickable    = errors.New("ui node is not clickable")
	ErrGestureRejected = errors.New("gesture dispatch rejected")
	ErrOverlayRejected = errors.New("overlay rejected by window manager")
	ErrNotReady        = errors.New("blocking engine not initialized")
	ErrUnsupported     = errors.New("operation not supported by platform")
)
