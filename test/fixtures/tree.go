// Package fixtures provides UI tree builders for tests.
package fixtures

import (
	"sync"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Node is an in-memory domain.Node with knobs for simulating platform
// failures.
type Node struct {
	ID          string
	Class       string
	TextValue   string
	Desc        string
	Rect        domain.Rect
	IsScroll    bool
	IsClickable bool
	Hidden      bool
	Kids        []*Node

	// StaleChildren lists child indexes whose Child call returns ErrStaleNode.
	StaleChildren map[int]bool
	// PanicOnText makes Text panic, as a recycled platform node would.
	PanicOnText bool
	// ClickErr is returned from Click.
	ClickErr error

	parent *Node
	mu     sync.Mutex
	clicks int
}

// N creates a node of the given class.
func N(class string) *Node {
	return &Node{Class: class}
}

// WithID sets the resource id.
func (n *Node) WithID(id string) *Node { n.ID = id; return n }

// WithText sets the text.
func (n *Node) WithText(t string) *Node { n.TextValue = t; return n }

// WithDesc sets the content description.
func (n *Node) WithDesc(d string) *Node { n.Desc = d; return n }

// WithBounds sets the screen bounds.
func (n *Node) WithBounds(l, t, r, b int) *Node {
	n.Rect = domain.Rect{Left: l, Top: t, Right: r, Bottom: b}
	return n
}

// Scroll marks the node scrollable.
func (n *Node) Scroll() *Node { n.IsScroll = true; return n }

// Tappable marks the node clickable.
func (n *Node) Tappable() *Node { n.IsClickable = true; return n }

// Add appends children and links their parent.
func (n *Node) Add(kids ...*Node) *Node {
	for _, k := range kids {
		k.parent = n
		n.Kids = append(n.Kids, k)
	}
	return n
}

// Clicks returns how many times Click succeeded.
func (n *Node) Clicks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clicks
}

func (n *Node) ViewID() string             { return n.ID }
func (n *Node) ClassName() string          { return n.Class }
func (n *Node) ContentDescription() string { return n.Desc }
func (n *Node) Bounds() domain.Rect        { return n.Rect }
func (n *Node) Scrollable() bool           { return n.IsScroll }
func (n *Node) Clickable() bool            { return n.IsClickable }
func (n *Node) VisibleToUser() bool        { return !n.Hidden }
func (n *Node) ChildCount() int            { return len(n.Kids) }

func (n *Node) Text() string {
	if n.PanicOnText {
		panic("node recycled")
	}
	return n.TextValue
}

func (n *Node) Child(i int) (domain.Node, error) {
	if n.StaleChildren[i] || i < 0 || i >= len(n.Kids) {
		return nil, domain.ErrStaleNode
	}
	return n.Kids[i], nil
}

func (n *Node) Parent() (domain.Node, error) {
	if n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}

func (n *Node) Click() error {
	if n.ClickErr != nil {
		return n.ClickErr
	}
	if !n.IsClickable {
		return domain.ErrNotClickable
	}
	n.mu.Lock()
	n.clicks++
	n.mu.Unlock()
	return nil
}

// Ensure Node implements domain.Node.
var _ domain.Node = (*Node)(nil)

// Screen is the default phone screen used by the builders below.
var Screen = domain.Rect{Left: 0, Top: 0, Right: 1080, Bottom: 2340}

// Root returns a full-screen FrameLayout holding kids.
func Root(kids ...*Node) *Node {
	return N("android.widget.FrameLayout").
		WithBounds(Screen.Left, Screen.Top, Screen.Right, Screen.Bottom).
		Add(kids...)
}

// HomeTab returns a clickable bottom-navigation tab labelled "Home".
func HomeTab(id string) *Node {
	return N("android.widget.FrameLayout").WithID(id).WithDesc("Home").
		WithBounds(0, 2200, 216, 2340).Tappable()
}

// VerticalFeed returns a full-screen vertical RecyclerView holding n player
// views and a like/comment/share action column.
func VerticalFeed(players int) *Node {
	feed := N("androidx.recyclerview.widget.RecyclerView").
		WithBounds(0, 0, 1080, 2200).Scroll()
	for i := 0; i < players; i++ {
		feed.Add(N("com.google.android.exoplayer2.ui.PlayerView").
			WithBounds(0, 0, 1080, 2200))
	}
	feed.Add(
		N("android.widget.Button").WithDesc("Like").WithBounds(960, 1200, 1060, 1300).Tappable(),
		N("android.widget.Button").WithDesc("Comment").WithBounds(960, 1400, 1060, 1500).Tappable(),
		N("android.widget.Button").WithDesc("Share").WithBounds(960, 1600, 1060, 1700).Tappable(),
	)
	return feed
}
