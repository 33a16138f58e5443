package classifier

import (
	"strings"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/uitree"
)

// element is one node read once from the live tree. Reading every attribute
// up front keeps the signals from touching a node the platform may recycle.
type element struct {
	node    domain.Node
	text    string
	desc    string
	id      string
	class   string
	bounds  domain.Rect
	scroll  bool
	visible bool
}

func (e element) label() string {
	if e.text != "" {
		return e.text
	}
	return e.desc
}

type screen struct {
	root     domain.Node
	bounds   domain.Rect
	elements []element
}

func snapshot(root domain.Node) *screen {
	s := &screen{root: root, bounds: uitree.Bounds(root)}
	uitree.Walk(root, func(n domain.Node, _ int) bool {
		e := element{
			node:    n,
			text:    uitree.Text(n),
			desc:    uitree.Description(n),
			id:      uitree.ViewID(n),
			class:   uitree.ClassName(n),
			bounds:  uitree.Bounds(n),
			scroll:  uitree.Scrollable(n),
			visible: uitree.Visible(n),
		}
		if !e.visible {
			// hidden subtrees are not on screen
			return false
		}
		s.elements = append(s.elements, e)
		return true
	})
	return s
}

func (s *screen) visible(fn func(e element) bool) {
	for _, e := range s.elements {
		if !fn(e) {
			return
		}
	}
}

// primaryContainer returns the scrollable node driving the content: hint
// itself or its nearest scrollable ancestor, else the largest scrollable
// node on screen.
func (s *screen) primaryContainer(hint domain.Node) domain.Node {
	for cur, i := hint, 0; cur != nil && i <= uitree.MaxDepth; i++ {
		if uitree.Scrollable(cur) && !uitree.Bounds(cur).Empty() {
			return cur
		}
		cur = uitree.ParentOf(cur)
	}

	var best *element
	for i := range s.elements {
		e := &s.elements[i]
		if !e.scroll || e.bounds.Empty() {
			continue
		}
		if best == nil || e.bounds.Area() > best.bounds.Area() {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	return best.node
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
