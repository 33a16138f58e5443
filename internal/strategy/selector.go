// Package strategy maps a detection result to the blocking strategy used to
// get the user out of the offending screen.
package strategy

import (
	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Thresholds are the confidence tiers for vertical content. Values are
// tunable policy, not calibrated probabilities.
type Thresholds struct {
	Enhanced float64 // above: overlay, rapid burst, curved scroll chain
	Rapid    float64 // above: rapid counter-gesture burst
	Counter  float64 // above: single counter-scroll
}

// DefaultThresholds returns the default confidence tiers.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Enhanced: 0.9,
		Rapid:    0.8,
		Counter:  0.6,
	}
}

// AppTraits exposes per-app facts the decision table depends on.
type AppTraits interface {
	SafeTargets(pkg string) []domain.NavTarget
	IsHighEngagement(pkg string) bool
}

// Selector implements domain.StrategySelector as a fixed decision table.
type Selector struct {
	apps       AppTraits
	thresholds Thresholds
}

// NewSelector creates a selector.
func NewSelector(apps AppTraits, thresholds Thresholds) *Selector {
	return &Selector{apps: apps, thresholds: thresholds}
}

// Select picks a strategy. It is a pure function of the confidence, the scroll
// direction, the package and opts; an undetected result selects StrategyNone.
//
// The table is evaluated top to bottom, first match wins:
//
//	vertical, confidence > Enhanced   enhanced scroll-disable
//	vertical, confidence > Rapid      rapid counter burst
//	vertical, confidence > Counter    single counter-scroll
//	app has a safe navigation target  redirect
//	app is high-engagement            overlay
//	anything else                     back-navigation
//
// Rows whose feature flag is off in opts are skipped.
func (s *Selector) Select(result domain.DetectionResult, pkg string, opts domain.SelectOptions) domain.Strategy {
	if !result.Detected || result.ContentType == domain.ContentNone {
		return domain.StrategyNone
	}

	switch opts.Preference {
	case domain.PreferBack:
		return domain.StrategyBackNavigation
	case domain.PreferRedirect:
		if opts.RedirectEnabled && s.hasSafeTarget(pkg) {
			return domain.StrategyRedirect
		}
	case domain.PreferOverlay:
		if opts.OverlayEnabled {
			return domain.StrategyOverlay
		}
	}

	if result.ScrollDirection.IsVertical() && opts.GestureEnabled {
		switch c := result.Confidence; {
		case c > s.thresholds.Enhanced:
			return domain.StrategyEnhancedScrollDisable
		case c > s.thresholds.Rapid:
			return domain.StrategyRapidCounter
		case c > s.thresholds.Counter:
			return domain.StrategyCounterScroll
		}
	}

	if opts.RedirectEnabled && s.hasSafeTarget(pkg) {
		return domain.StrategyRedirect
	}
	if opts.OverlayEnabled && s.apps.IsHighEngagement(pkg) {
		return domain.StrategyOverlay
	}
	return domain.StrategyBackNavigation
}

func (s *Selector) hasSafeTarget(pkg string) bool {
	return len(s.apps.SafeTargets(pkg)) > 0
}

// Ensure Selector implements domain.StrategySelector.
var _ domain.StrategySelector = (*Selector)(nil)
