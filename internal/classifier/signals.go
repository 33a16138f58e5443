package classifier

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/uitree"
)

// Rules are evaluated in domain.ContentPriority order so the earliest
// content type wins when a screen matches several.

func (c *Classifier) matchText(s *screen, p domain.AppProfile) (domain.DetectionResult, bool) {
	for _, ct := range domain.ContentPriority {
		for _, rule := range p.TextRules {
			if rule.ContentType != ct {
				continue
			}
			if hit := findText(s, rule); hit != nil {
				return c.detected(s, ct, SignalText, hit), true
			}
		}
	}
	return domain.DetectionResult{}, false
}

func findText(s *screen, rule domain.TextRule) domain.Node {
	want := normalize(rule.Text)
	if want == "" {
		return nil
	}
	var hit domain.Node
	s.visible(func(e element) bool {
		for _, have := range []string{normalize(e.text), normalize(e.desc)} {
			if have == want || (rule.Partial && strings.Contains(have, want)) {
				hit = e.node
				return false
			}
		}
		return true
	})
	return hit
}

func (c *Classifier) matchIdentifier(s *screen, p domain.AppProfile) (domain.DetectionResult, bool) {
	for _, ct := range domain.ContentPriority {
		for _, rule := range p.IDRules {
			if rule.ContentType != ct {
				continue
			}
			var hit domain.Node
			s.visible(func(e element) bool {
				if uitree.MatchesID(e.id, rule.ViewID) {
					hit = e.node
					return false
				}
				return true
			})
			if hit != nil {
				return c.detected(s, ct, SignalIdentifier, hit), true
			}
		}
	}
	return domain.DetectionResult{}, false
}

// matchURL reads URLs shown by an embedded web view, e.g. an in-app browser
// opened on a /reels/ link.
func (c *Classifier) matchURL(s *screen, p domain.AppProfile) (domain.DetectionResult, bool) {
	if len(p.URLRules) == 0 {
		return domain.DetectionResult{}, false
	}
	urls := webURLs(s, p.WebViewIDs)
	if len(urls) == 0 {
		return domain.DetectionResult{}, false
	}

	for _, ct := range domain.ContentPriority {
		for _, rule := range p.URLRules {
			if rule.ContentType != ct {
				continue
			}
			seg := strings.ToLower(rule.Segment)
			for _, u := range urls {
				if strings.Contains(u.path, seg) {
					return c.detected(s, ct, SignalURL, u.node), true
				}
			}
		}
	}
	return domain.DetectionResult{}, false
}

type shownURL struct {
	node domain.Node
	path string
}

func webURLs(s *screen, webViewIDs []string) []shownURL {
	hasWebView := false
	s.visible(func(e element) bool {
		if strings.Contains(e.class, "WebView") {
			hasWebView = true
			return false
		}
		return true
	})

	var out []shownURL
	s.visible(func(e element) bool {
		urlBar := false
		for _, id := range webViewIDs {
			if uitree.MatchesID(e.id, id) {
				urlBar = true
				break
			}
		}
		if !urlBar && !hasWebView {
			return true
		}
		for _, raw := range []string{e.text, e.desc} {
			if path, ok := URLPath(raw); ok && (urlBar || looksLikeURL(raw)) {
				out = append(out, shownURL{node: e.node, path: path})
			}
		}
		return true
	})
	return out
}

// URLPath extracts the lowercased path of a URL as typed or displayed in an
// address bar, adding a scheme when missing. The path always ends with "/"
// so "/reel/" segments also match ".../reel".
func URLPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	path := strings.ToLower(u.EscapedPath())
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path, true
}

func looksLikeURL(raw string) bool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	return strings.Contains(raw, "://") || strings.HasPrefix(raw, "www.") ||
		(strings.Contains(raw, ".") && strings.Contains(raw, "/") && !strings.Contains(raw, " "))
}

var playerClasses = []string{"PlayerView", "VideoView", "SurfaceView", "TextureView"}

var actionWords = []string{"like", "comment", "share", "remix", "send"}

// inferStructure scores a layout without any known label or id. A tall
// scrollable container is the base; video surfaces and a vertical column of
// engagement controls corroborate it. At least one corroborating signal is
// required so an ordinary scrolling list is never flagged.
func (c *Classifier) inferStructure(s *screen, p domain.AppProfile) (domain.DetectionResult, bool) {
	if !p.Structural || p.StructuralType == domain.ContentNone {
		return domain.DetectionResult{}, false
	}

	container := c.tallestScroller(s)
	if container == nil {
		return domain.DetectionResult{}, false
	}
	area := container.bounds

	score := 2 // scrollable, taller than wide
	corroborating := 0

	players := 0
	s.visible(func(e element) bool {
		if isPlayer(e.class) && area.Contains(e.bounds.Center()) {
			players++
		}
		return true
	})
	if players > 0 {
		corroborating++
	}
	if players > 1 {
		corroborating++
	}
	if c.hasActionColumn(s, area) {
		corroborating++
	}
	if corroborating == 0 {
		return domain.DetectionResult{}, false
	}

	if screenArea := s.bounds.Area(); screenArea > 0 &&
		float64(area.Area()) >= c.config.FullScreenCoverage*float64(screenArea) {
		score++
	}
	if strings.Contains(container.class, "ViewPager") {
		score++
	}
	score += corroborating

	dir := c.direction(container.node)
	if dir == domain.ScrollNone {
		dir = defaultDirection(p.StructuralType)
	}
	return domain.DetectionResult{
		Detected:               true,
		ContentType:            p.StructuralType,
		Confidence:             1 - math.Pow(0.5, float64(score)),
		ScrollDirection:        dir,
		PrimaryScrollContainer: container.node,
		Signal:                 SignalStructural,
	}, true
}

// tallestScroller returns the largest scrollable element whose height/width
// exceeds the configured aspect ratio.
func (c *Classifier) tallestScroller(s *screen) *element {
	var best *element
	for i := range s.elements {
		e := &s.elements[i]
		b := e.bounds
		if !e.scroll || b.Empty() {
			continue
		}
		if float64(b.Height())/float64(b.Width()) <= c.config.AspectRatio {
			continue
		}
		if best == nil || b.Area() > best.bounds.Area() {
			best = e
		}
	}
	return best
}

// hasActionColumn looks for at least two distinct engagement controls stacked
// vertically in one column inside area.
func (c *Classifier) hasActionColumn(s *screen, area domain.Rect) bool {
	type control struct {
		word string
		at   domain.Point
	}
	var controls []control
	s.visible(func(e element) bool {
		label := normalize(e.label())
		if label == "" || e.bounds.Empty() || !area.Contains(e.bounds.Center()) {
			return true
		}
		for _, w := range actionWords {
			if label == w || strings.HasPrefix(label, w+" ") {
				controls = append(controls, control{word: w, at: e.bounds.Center()})
				break
			}
		}
		return true
	})
	if len(controls) < 2 {
		return false
	}

	sort.Slice(controls, func(i, j int) bool { return controls[i].at.Y < controls[j].at.Y })
	for i := range controls {
		words := map[string]bool{controls[i].word: true}
		for j := i + 1; j < len(controls); j++ {
			if math.Abs(controls[j].at.X-controls[i].at.X) > c.config.ActionColumnTolerance {
				continue
			}
			words[controls[j].word] = true
		}
		if len(words) >= 2 {
			return true
		}
	}
	return false
}

func isPlayer(class string) bool {
	simple := class
	if i := strings.LastIndex(class, "."); i >= 0 {
		simple = class[i+1:]
	}
	for _, pc := range playerClasses {
		if strings.HasSuffix(simple, pc) {
			return true
		}
	}
	return false
}
