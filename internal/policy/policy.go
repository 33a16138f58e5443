// Package policy implements the Strategy pattern for app-specific detection rules.
// Each target app (Instagram, YouTube, ...) has its own policy describing
// the vocabulary, view identifiers, URL paths and navigation targets used to
// recognise and leave its short-form video surfaces.
package policy

import (
	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// AppPolicy defines the strategy interface for detecting distracting content
// in one application.
type AppPolicy interface {
	// ID returns unique identifier (e.g., "instagram", "youtube").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// Packages returns the Android package names the app ships under.
	Packages() []string

	// TextRules returns visible-text vocabulary. Matched case-insensitively.
	TextRules() []domain.TextRule

	// IDRules returns view identifiers tied to the distracting surfaces.
	IDRules() []domain.IDRule

	// URLRules returns path segments recognised in embedded browsers.
	URLRules() []domain.URLRule

	// WebViewIDs returns identifiers of URL-bearing nodes in embedded browsers.
	WebViewIDs() []string

	// StructuralType returns the content type reported by structural
	// inference, or ContentNone when structural inference does not apply.
	StructuralType() domain.ContentType

	// SafeTargets returns navigation controls that lead away from the feed.
	SafeTargets() []domain.NavTarget

	// HighEngagement reports whether the app is short-video-first.
	HighEngagement() bool
}

// ToProfile converts an AppPolicy to a domain.AppProfile entity.
func ToProfile(ap AppPolicy) domain.AppProfile {
	st := ap.StructuralType()
	return domain.AppProfile{
		ID:             ap.ID(),
		Name:           ap.Name(),
		Packages:       ap.Packages(),
		TextRules:      ap.TextRules(),
		IDRules:        ap.IDRules(),
		URLRules:       ap.URLRules(),
		WebViewIDs:     ap.WebViewIDs(),
		Structural:     st != domain.ContentNone && st != "",
		StructuralType: st,
		SafeTargets:    ap.SafeTargets(),
		HighEngagement: ap.HighEngagement(),
	}
}
