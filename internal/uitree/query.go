// Package uitree wraps accessibility-tree traversal into helpers that never
// fail. Any platform error or panic while reading a node turns into an empty
// result for that node's subtree; traversal of its siblings continues.
package uitree

import (
	"strings"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// MaxDepth bounds recursive descent. Real app trees are far shallower.
const MaxDepth = 64

// Predicate selects nodes during a search.
type Predicate func(n domain.Node) bool

// Walk visits root and its descendants depth-first. Returning false from fn
// prunes that node's children. The child count is re-read at every level.
func Walk(root domain.Node, fn func(n domain.Node, depth int) bool) {
	if root == nil {
		return
	}
	walk(root, 0, fn)
}

func walk(n domain.Node, depth int, fn func(domain.Node, int) bool) {
	if depth > MaxDepth {
		return
	}
	descend := true
	if !guard(func() { descend = fn(n, depth) }) || !descend {
		return
	}

	count := ChildCount(n)
	for i := 0; i < count; i++ {
		child := ChildAt(n, i)
		if child == nil {
			continue
		}
		walk(child, depth+1, fn)
	}
}

// FindAll returns every node under root (inclusive) matching pred.
func FindAll(root domain.Node, pred Predicate) []domain.Node {
	var found []domain.Node
	Walk(root, func(n domain.Node, _ int) bool {
		if pred(n) {
			found = append(found, n)
		}
		return true
	})
	return found
}

// First returns the first node in depth-first order matching pred, or nil.
func First(root domain.Node, pred Predicate) domain.Node {
	var hit domain.Node
	Walk(root, func(n domain.Node, _ int) bool {
		if hit != nil {
			return false
		}
		if pred(n) {
			hit = n
			return false
		}
		return true
	})
	return hit
}

// FindByText returns nodes whose text or content description equals text,
// ignoring case and surrounding whitespace.
func FindByText(root domain.Node, text string) []domain.Node {
	want := normalize(text)
	if want == "" {
		return nil
	}
	return FindAll(root, func(n domain.Node) bool {
		return normalize(Text(n)) == want || normalize(Description(n)) == want
	})
}

// FindByTextContains returns nodes whose text or content description contains
// text, ignoring case.
func FindByTextContains(root domain.Node, text string) []domain.Node {
	want := normalize(text)
	if want == "" {
		return nil
	}
	return FindAll(root, func(n domain.Node) bool {
		return strings.Contains(normalize(Text(n)), want) ||
			strings.Contains(normalize(Description(n)), want)
	})
}

// FindByID returns nodes whose resource id equals id, either fully qualified
// ("com.app:id/name") or by entry name alone ("name").
func FindByID(root domain.Node, id string) []domain.Node {
	if id == "" {
		return nil
	}
	return FindAll(root, func(n domain.Node) bool {
		return MatchesID(ViewID(n), id)
	})
}

// FindByClass returns nodes whose class equals className or whose simple class
// name equals it ("RecyclerView" matches "androidx.recyclerview.widget.RecyclerView").
func FindByClass(root domain.Node, className string) []domain.Node {
	if className == "" {
		return nil
	}
	return FindAll(root, func(n domain.Node) bool {
		return MatchesClass(ClassName(n), className)
	})
}

// MatchesID compares a node's resource id to a rule id.
func MatchesID(viewID, id string) bool {
	if viewID == "" || id == "" {
		return false
	}
	if viewID == id {
		return true
	}
	return strings.HasSuffix(viewID, ":id/"+id)
}

// MatchesClass compares a node's class to a class name or simple name.
func MatchesClass(class, name string) bool {
	if class == "" || name == "" {
		return false
	}
	if class == name {
		return true
	}
	return strings.HasSuffix(class, "."+name)
}

// ClickableAncestor returns n if clickable, else the closest clickable
// ancestor within MaxDepth hops, else nil.
func ClickableAncestor(n domain.Node) domain.Node {
	cur := n
	for i := 0; cur != nil && i <= MaxDepth; i++ {
		if Clickable(cur) {
			return cur
		}
		cur = ParentOf(cur)
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
