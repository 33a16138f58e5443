package uitree

import (
	"fmt"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// guard runs fn and reports false if it panicked. Platform bindings surface
// recycled or detached nodes as panics as often as errors.
func guard(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	fn()
	return true
}

// ChildCount returns n's current child count, or 0 if it cannot be read.
func ChildCount(n domain.Node) int {
	if n == nil {
		return 0
	}
	var count int
	if !guard(func() { count = n.ChildCount() }) || count < 0 {
		return 0
	}
	return count
}

// ChildAt returns the i-th child of n, or nil if it is gone.
func ChildAt(n domain.Node, i int) domain.Node {
	if n == nil {
		return nil
	}
	var (
		child domain.Node
		err   error
	)
	if !guard(func() { child, err = n.Child(i) }) || err != nil {
		return nil
	}
	return child
}

// ParentOf returns n's parent, or nil.
func ParentOf(n domain.Node) domain.Node {
	if n == nil {
		return nil
	}
	var (
		p   domain.Node
		err error
	)
	if !guard(func() { p, err = n.Parent() }) || err != nil {
		return nil
	}
	return p
}

// Text returns n's text, or "" if unreadable.
func Text(n domain.Node) string {
	return readString(n, func(n domain.Node) string { return n.Text() })
}

// Description returns n's content description, or "".
func Description(n domain.Node) string {
	return readString(n, func(n domain.Node) string { return n.ContentDescription() })
}

// ViewID returns n's resource id, or "".
func ViewID(n domain.Node) string {
	return readString(n, func(n domain.Node) string { return n.ViewID() })
}

// ClassName returns n's class name, or "".
func ClassName(n domain.Node) string {
	return readString(n, func(n domain.Node) string { return n.ClassName() })
}

// Bounds returns n's screen bounds, or an empty rectangle.
func Bounds(n domain.Node) domain.Rect {
	if n == nil {
		return domain.Rect{}
	}
	var r domain.Rect
	if !guard(func() { r = n.Bounds() }) {
		return domain.Rect{}
	}
	return r
}

// Scrollable reports whether n is scrollable; unreadable nodes are not.
func Scrollable(n domain.Node) bool {
	return readBool(n, func(n domain.Node) bool { return n.Scrollable() })
}

// Clickable reports whether n is clickable; unreadable nodes are not.
func Clickable(n domain.Node) bool {
	return readBool(n, func(n domain.Node) bool { return n.Clickable() })
}

// Visible reports whether n is visible to the user.
func Visible(n domain.Node) bool {
	return readBool(n, func(n domain.Node) bool { return n.VisibleToUser() })
}

// Click clicks n, converting panics into errors.
func Click(n domain.Node) (err error) {
	if n == nil {
		return domain.ErrStaleNode
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("click panicked: %v: %w", r, domain.ErrStaleNode)
		}
	}()
	return n.Click()
}

func readString(n domain.Node, get func(domain.Node) string) string {
	if n == nil {
		return ""
	}
	var s string
	if !guard(func() { s = get(n) }) {
		return ""
	}
	return s
}

func readBool(n domain.Node, get func(domain.Node) bool) bool {
	if n == nil {
		return false
	}
	var b bool
	if !guard(func() { b = get(n) }) {
		return false
	}
	return b
}
