// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// ContentType labels the kind of distracting content found on screen.
type ContentType string

const (
	ContentNone      ContentType = "none"
	ContentReels     ContentType = "reels"
	ContentStories   ContentType = "stories"
	ContentShorts    ContentType = "shorts"
	ContentExplore   ContentType = "explore"
	ContentSpotlight ContentType = "spotlight"
)

// ContentPriority is the fixed tie-break order used when more than one
// content type matches the same screen. Earlier entries win.
var ContentPriority = []ContentType{
	ContentReels,
	ContentShorts,
	ContentSpotlight,
	ContentStories,
	ContentExplore,
}

// Rank returns the position of c in ContentPriority, or len(ContentPriority)
// for types outside the list.
func (c ContentType) Rank() int {
	for i, p := range ContentPriority {
		if p == c {
			return i
		}
	}
	return len(ContentPriority)
}

// Labels stored in BlockedContentEvent.ContentType for blocks that are not
// driven by content classification.
const (
	EventLabelAdult   = "adult"
	EventLabelFullApp = "app"
)

// ScrollDirection is the inferred scroll axis of the offending content.
type ScrollDirection string

const (
	ScrollNone       ScrollDirection = "none"
	ScrollVertical   ScrollDirection = "vertical"
	ScrollHorizontal ScrollDirection = "horizontal"
	ScrollBoth       ScrollDirection = "both"
)

// IsVertical reports whether content scrolls along the vertical axis.
func (d ScrollDirection) IsVertical() bool {
	return d == ScrollVertical || d == ScrollBoth
}

// DetectionResult is the outcome of one classification pass.
//
// PrimaryScrollContainer is borrowed from the platform for the duration of the
// event that produced it. It must not be stored or used after the event has
// been handled.
type DetectionResult struct {
	Detected               bool
	ContentType            ContentType
	Confidence             float64
	ScrollDirection        ScrollDirection
	PrimaryScrollContainer Node
	Signal                 string // tier that matched: text, identifier, url, structural
}

// NoDetection returns the canonical "nothing found" result.
func NoDetection() DetectionResult {
	return DetectionResult{
		Detected:        false,
		ContentType:     ContentNone,
		ScrollDirection: ScrollNone,
	}
}

// Mode is the user's current blocking mode.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeFocus  Mode = "focus"
)

// ActionPreference lets the user bias strategy selection.
type ActionPreference string

const (
	PreferAuto     ActionPreference = "auto"
	PreferBack     ActionPreference = "back"
	PreferRedirect ActionPreference = "redirect"
	PreferOverlay  ActionPreference = "overlay"
)

// AppSettings is a read-only snapshot of user configuration.
type AppSettings struct {
	Mode                  Mode
	MonitoredApps         map[string]bool // package -> monitored (Normal and Focus mode)
	FocusBlockedApps      map[string]bool // package -> fully blocked in Focus mode
	ContentToggles        map[ContentType]bool
	ActionPreference      ActionPreference
	ConfidenceThreshold   float64
	OverlayEnabled        bool
	GestureEnabled        bool
	RedirectEnabled       bool
	AdultBlockEnabled     bool
	AdultKeywords         []string
	AdultDomains          []string
	NotificationsEnabled  bool
	TemporaryUnblockUntil time.Time
}

// IsAppMonitored reports whether the user opted into content monitoring for pkg.
func (s AppSettings) IsAppMonitored(pkg string) bool {
	return s.MonitoredApps[pkg]
}

// IsContentBlocked reports whether blocking is enabled for content type c.
// Types without an explicit toggle are blocked.
func (s AppSettings) IsContentBlocked(c ContentType) bool {
	enabled, ok := s.ContentToggles[c]
	if !ok {
		return true
	}
	return enabled
}

// TemporarilyUnblocked reports whether a time-boxed override is active at now.
func (s AppSettings) TemporarilyUnblocked(now time.Time) bool {
	return !s.TemporaryUnblockUntil.IsZero() && now.Before(s.TemporaryUnblockUntil)
}

// BlockedContentEvent is the durable, append-only record of a successful block.
type BlockedContentEvent struct {
	ID          string
	AppPackage  string
	ContentType string
	Strategy    Strategy
	Timestamp   time.Time
}

// EventType is the platform accessibility event kind.
type EventType string

const (
	EventWindowStateChanged   EventType = "window_state_changed"
	EventWindowContentChanged EventType = "window_content_changed"
	EventViewScrolled         EventType = "view_scrolled"
)

// AccessibilityEvent is a single notification that some app's UI changed.
type AccessibilityEvent struct {
	Type        EventType
	PackageName string
	Root        Node
	At          time.Time
}

// Urgency of a user notification.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Notification is a short user-facing message.
type Notification struct {
	Title   string
	Message string
	Urgency Urgency
}

// AppProfile is the detection and navigation data for one target app.
type AppProfile struct {
	ID             string
	Name           string
	Packages       []string
	TextRules      []TextRule
	IDRules        []IDRule
	URLRules       []URLRule
	WebViewIDs     []string // ids of URL-bearing nodes inside embedded browsers
	Structural     bool     // whether structural inference applies
	StructuralType ContentType
	SafeTargets    []NavTarget
	HighEngagement bool
}

// TextRule matches visible text or content descriptions.
type TextRule struct {
	Text        string
	Partial     bool
	ContentType ContentType
}

// IDRule matches a view resource identifier.
type IDRule struct {
	ViewID      string
	ContentType ContentType
}

// URLRule matches a path segment in a URL shown by an embedded browser.
type URLRule struct {
	Segment     string
	ContentType ContentType
}

// NavTarget is a known-stable navigation control used to leave a feed.
type NavTarget struct {
	ViewID string
	Label  string
}

// BrowserProfile describes how to read the address bar of a browser.
type BrowserProfile struct {
	Package  string
	Name     string
	URLBarID []string
}
