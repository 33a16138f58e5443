// Package classifier decides whether the visible screen of a target app is
// short-form video content, and of which kind.
//
// Detection is an ordered chain of independent signals evaluated
// short-circuit: visible text, known view ids, URLs shown in embedded
// browsers, and finally structural inference from the layout. Each signal
// may fail on its own; a failing signal counts as "not detected".
package classifier

import (
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/uitree"
)

// Signal names reported in DetectionResult.Signal.
const (
	SignalText       = "text"
	SignalIdentifier = "identifier"
	SignalURL        = "url"
	SignalStructural = "structural"
)

// Config holds the tunable thresholds of the heuristics.
type Config struct {
	// SignalConfidence is reported by the text, identifier and URL tiers.
	SignalConfidence float64
	// AspectRatio is the minimum height/width for a vertical video container.
	AspectRatio float64
	// FullScreenCoverage is the share of the screen a container must cover
	// to count as full screen.
	FullScreenCoverage float64
	// ActionColumnTolerance is the max horizontal drift, in pixels, between
	// stacked like/comment/share controls.
	ActionColumnTolerance float64
}

// DefaultConfig returns default classifier thresholds.
func DefaultConfig() Config {
	return Config{
		SignalConfidence:      0.7,
		AspectRatio:           1.2,
		FullScreenCoverage:    0.8,
		ActionColumnTolerance: 80,
	}
}

// ProfileSource resolves a package name to its detection profile.
type ProfileSource interface {
	Lookup(pkg string) (domain.AppProfile, bool)
}

type signal struct {
	name  string
	match func(s *screen, p domain.AppProfile) (domain.DetectionResult, bool)
}

// Classifier implements domain.Classifier.
type Classifier struct {
	profiles ProfileSource
	config   Config
	signals  []signal
	logger   *zap.Logger
}

// New creates a classifier over the given profiles.
func New(profiles ProfileSource, config Config, logger *zap.Logger) *Classifier {
	c := &Classifier{
		profiles: profiles,
		config:   config,
		logger:   logger,
	}
	c.signals = []signal{
		{name: SignalText, match: c.matchText},
		{name: SignalIdentifier, match: c.matchIdentifier},
		{name: SignalURL, match: c.matchURL},
		{name: SignalStructural, match: c.inferStructure},
	}
	return c
}

// Classify inspects the tree under root for distracting content of pkg.
// It is stateless: the same tree always yields the same result.
func (c *Classifier) Classify(root domain.Node, pkg string) domain.DetectionResult {
	if root == nil {
		return domain.NoDetection()
	}
	profile, ok := c.profiles.Lookup(pkg)
	if !ok {
		return domain.NoDetection()
	}

	s := snapshot(root)
	for _, sig := range c.signals {
		if res, ok := c.run(sig, s, profile); ok {
			c.logger.Debug("content detected",
				zap.String("package", pkg),
				zap.String("signal", sig.name),
				zap.String("content_type", string(res.ContentType)),
				zap.Float64("confidence", res.Confidence))
			return res
		}
	}
	return domain.NoDetection()
}

// run isolates one signal so a misbehaving heuristic degrades to "not detected".
func (c *Classifier) run(sig signal, s *screen, p domain.AppProfile) (res domain.DetectionResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("signal failed",
				zap.String("signal", sig.name),
				zap.String("app", p.ID),
				zap.Any("panic", r))
			res, ok = domain.NoDetection(), false
		}
	}()
	res, ok = sig.match(s, p)
	if ok && (!res.Detected || res.ContentType == domain.ContentNone) {
		return domain.NoDetection(), false
	}
	return res, ok
}

// detected builds a fixed-confidence result for the text/id/url tiers.
func (c *Classifier) detected(s *screen, ct domain.ContentType, sig string, hint domain.Node) domain.DetectionResult {
	container := s.primaryContainer(hint)
	dir := c.direction(container)
	if dir == domain.ScrollNone {
		dir = defaultDirection(ct)
	}
	return domain.DetectionResult{
		Detected:               true,
		ContentType:            ct,
		Confidence:             c.config.SignalConfidence,
		ScrollDirection:        dir,
		PrimaryScrollContainer: container,
		Signal:                 sig,
	}
}

// direction infers the scroll axis from container geometry and class. A
// container nested in a scrollable ancestor that moves along the other axis,
// such as a vertical clips pager inside a horizontal tab pager, scrolls both
// ways.
func (c *Classifier) direction(n domain.Node) domain.ScrollDirection {
	own := c.axis(n)
	if own == domain.ScrollNone {
		return own
	}
	p := uitree.ParentOf(n)
	for depth := 0; p != nil && depth < uitree.MaxDepth; depth++ {
		if uitree.Scrollable(p) {
			if a := classAxis(uitree.ClassName(p)); a != domain.ScrollNone && a != own {
				return domain.ScrollBoth
			}
		}
		p = uitree.ParentOf(p)
	}
	return own
}

// classAxis is the axis implied by a container class alone. Geometry says
// nothing about a full-screen ancestor, so only fixed-axis classes count.
func classAxis(class string) domain.ScrollDirection {
	switch {
	case uitree.MatchesClass(class, "HorizontalScrollView"), uitree.MatchesClass(class, "ViewPager"):
		return domain.ScrollHorizontal
	case uitree.MatchesClass(class, "ScrollView"), uitree.MatchesClass(class, "NestedScrollView"), uitree.MatchesClass(class, "ListView"):
		return domain.ScrollVertical
	}
	return domain.ScrollNone
}

func (c *Classifier) axis(n domain.Node) domain.ScrollDirection {
	if n == nil {
		return domain.ScrollNone
	}
	class := uitree.ClassName(n)
	if uitree.MatchesClass(class, "HorizontalScrollView") {
		return domain.ScrollHorizontal
	}
	b := uitree.Bounds(n)
	if b.Empty() {
		return domain.ScrollNone
	}
	ratio := float64(b.Height()) / float64(b.Width())
	switch {
	case ratio > c.config.AspectRatio:
		return domain.ScrollVertical
	case 1/ratio > c.config.AspectRatio:
		return domain.ScrollHorizontal
	}
	return domain.ScrollNone
}

func defaultDirection(ct domain.ContentType) domain.ScrollDirection {
	switch ct {
	case domain.ContentReels, domain.ContentShorts, domain.ContentSpotlight:
		return domain.ScrollVertical
	case domain.ContentStories:
		return domain.ScrollHorizontal
	}
	return domain.ScrollNone
}

// Ensure Classifier implements domain.Classifier.
var _ domain.Classifier = (*Classifier)(nil)
