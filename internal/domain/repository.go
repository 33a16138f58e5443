package domain

import (
	"context"
	"time"
)

// Node is a platform UI tree element exposed through accessibility
// introspection. Implementations may be invalidated by the platform at any
// time; callers treat every method as fallible and never keep a Node past the
// event that produced it.
type Node interface {
	ViewID() string
	ClassName() string
	Text() string
	ContentDescription() string
	Bounds() Rect
	Scrollable() bool
	Clickable() bool
	VisibleToUser() bool

	// ChildCount returns the current number of children. It may change
	// between calls while the app mutates its UI.
	ChildCount() int

	// Child returns the i-th child or ErrStaleNode when it vanished.
	Child(i int) (Node, error)

	// Parent returns the parent node, or nil at the root.
	Parent() (Node, error)

	// Click performs a synthetic click on the node.
	Click() error
}

// Platform issues actions to the host device.
type Platform interface {
	// PerformGlobalAction runs a device-wide action such as back or home.
	PerformGlobalAction(action GlobalAction) error

	// DispatchGesture injects a synthetic gesture. A nil error means the
	// platform accepted it; completion is reported through cb.
	DispatchGesture(g Gesture, cb GestureCallback) error

	// ScreenBounds returns the full display rectangle.
	ScreenBounds() Rect
}

// OverlayHost creates system-level overlay windows.
type OverlayHost interface {
	AddOverlay(spec OverlaySpec) (OverlayWindow, error)
}

// OverlayWindow is a live overlay. Methods must be safe to call after the
// window or its host has been torn down.
type OverlayWindow interface {
	SetAlpha(alpha float64) error
	Remove() error
}

// BlockPageLauncher opens the in-app page shown for blocked adult content.
type BlockPageLauncher interface {
	LaunchBlockPage(pkg, reason string) error
}

// SettingsReader is the key-value view of user configuration.
// Getters return def when the key is absent or has the wrong type.
type SettingsReader interface {
	GetBool(key string, def bool) bool
	GetString(key, def string) string
	GetFloat(key string, def float64) float64
	GetStrings(key string, def []string) []string
	GetTime(key string, def time.Time) time.Time
}

//go:generate mockgen -package mock -destination=mock/mock_repository.go github.com/AryanVBW/focus-sub000/internal/domain EventLog,Notifier

// EventLog persists BlockedContentEvents.
type EventLog interface {
	// Append stores a new event. Events are never mutated afterwards.
	Append(ctx context.Context, event BlockedContentEvent) error

	// List returns the most recent events, newest first.
	List(ctx context.Context, limit int) ([]BlockedContentEvent, error)

	// Close releases resources.
	Close() error
}

// Notifier surfaces a short message to the user.
type Notifier interface {
	Notify(n Notification) error
}

// Classifier decides whether the visible screen of pkg is distracting.
type Classifier interface {
	Classify(root Node, pkg string) DetectionResult
}

// SelectOptions carries the user settings that shape strategy selection.
type SelectOptions struct {
	Preference      ActionPreference
	OverlayEnabled  bool
	GestureEnabled  bool
	RedirectEnabled bool
}

// StrategySelector maps a detection to a blocking strategy.
type StrategySelector interface {
	Select(result DetectionResult, pkg string, opts SelectOptions) Strategy
}

// Executor performs a blocking strategy. It never panics and never returns an
// error; failures are reflected in the outcome.
type Executor interface {
	Execute(strategy Strategy, result DetectionResult, root Node, pkg string) BlockOutcome
}

// Timer is a cancellable deferred callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay on the host's main context.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
