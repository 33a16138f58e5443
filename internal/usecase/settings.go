package usecase

import (
	"time"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Settings keys read by LoadAppSettings. Absent keys take the documented
// default.
const (
	KeyMode                = "mode"                           // "normal" | "focus"; default normal
	KeyMonitoredApps       = "apps.monitored"                 // packages; default every supported app
	KeyFocusBlockedApps    = "apps.focus_blocked"             // packages; default every supported app
	KeyContentPrefix       = "content."                       // content.<type> bool; default true
	KeyActionPreference    = "action.preference"              // auto | back | redirect | overlay; default auto
	KeyConfidenceThreshold = "detection.confidence_threshold" // default 0.5
	KeyOverlayEnabled      = "features.overlay"               // default true
	KeyGestureEnabled      = "features.gesture"               // default true
	KeyRedirectEnabled     = "features.redirect"              // default true
	KeyAdultEnabled        = "adult.enabled"                  // default false
	KeyAdultKeywords       = "adult.keywords"                 // extra keywords
	KeyAdultDomains        = "adult.domains"                  // extra domains
	KeyNotifications       = "notifications.enabled"          // default true
	KeyUnblockUntil        = "unblock.until"                  // RFC 3339; default none
)

// DefaultConfidenceThreshold is used when no threshold is configured.
const DefaultConfidenceThreshold = 0.5

// LoadAppSettings builds a settings snapshot from r. supported lists the
// packages monitored and focus-blocked by default.
func LoadAppSettings(r domain.SettingsReader, supported []string) domain.AppSettings {
	mode := domain.Mode(r.GetString(KeyMode, string(domain.ModeNormal)))
	if mode != domain.ModeFocus {
		mode = domain.ModeNormal
	}

	pref := domain.ActionPreference(r.GetString(KeyActionPreference, string(domain.PreferAuto)))
	switch pref {
	case domain.PreferBack, domain.PreferRedirect, domain.PreferOverlay:
	default:
		pref = domain.PreferAuto
	}

	threshold := r.GetFloat(KeyConfidenceThreshold, DefaultConfidenceThreshold)
	if threshold < 0 || threshold > 1 {
		threshold = DefaultConfidenceThreshold
	}

	toggles := make(map[domain.ContentType]bool, len(domain.ContentPriority))
	for _, ct := range domain.ContentPriority {
		toggles[ct] = r.GetBool(KeyContentPrefix+string(ct), true)
	}

	return domain.AppSettings{
		Mode:                  mode,
		MonitoredApps:         toSet(r.GetStrings(KeyMonitoredApps, supported)),
		FocusBlockedApps:      toSet(r.GetStrings(KeyFocusBlockedApps, supported)),
		ContentToggles:        toggles,
		ActionPreference:      pref,
		ConfidenceThreshold:   threshold,
		OverlayEnabled:        r.GetBool(KeyOverlayEnabled, true),
		GestureEnabled:        r.GetBool(KeyGestureEnabled, true),
		RedirectEnabled:       r.GetBool(KeyRedirectEnabled, true),
		AdultBlockEnabled:     r.GetBool(KeyAdultEnabled, false),
		AdultKeywords:         r.GetStrings(KeyAdultKeywords, nil),
		AdultDomains:          r.GetStrings(KeyAdultDomains, nil),
		NotificationsEnabled:  r.GetBool(KeyNotifications, true),
		TemporaryUnblockUntil: r.GetTime(KeyUnblockUntil, time.Time{}),
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// SettingsProvider returns the current settings snapshot.
type SettingsProvider interface {
	Settings() domain.AppSettings
}

// SettingsFunc adapts a function to SettingsProvider.
type SettingsFunc func() domain.AppSettings

func (f SettingsFunc) Settings() domain.AppSettings { return f() }

// ReaderSettings reads a fresh snapshot from a SettingsReader on every call.
// A stale read only delays a toggle by one event.
type ReaderSettings struct {
	Reader    domain.SettingsReader
	Supported []string
}

func (s ReaderSettings) Settings() domain.AppSettings {
	return LoadAppSettings(s.Reader, s.Supported)
}
