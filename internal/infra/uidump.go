package infra

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Tapper taps a screen coordinate. SnapshotNode.Click taps the node center.
type Tapper interface {
	Tap(p domain.Point) error
}

// SnapshotNode is an immutable domain.Node parsed from a uiautomator
// hierarchy dump.
type SnapshotNode struct {
	viewID    string
	class     string
	pkg       string
	text      string
	desc      string
	bounds    domain.Rect
	scroll    bool
	clickable bool
	visible   bool
	stacked   bool // synthetic root over several windows

	parent   *SnapshotNode
	children []*SnapshotNode
	tapper   Tapper
}

type dumpHierarchy struct {
	XMLName xml.Name   `xml:"hierarchy"`
	Nodes   []dumpNode `xml:"node"`
}

type dumpNode struct {
	ResourceID  string     `xml:"resource-id,attr"`
	Class       string     `xml:"class,attr"`
	Package     string     `xml:"package,attr"`
	Text        string     `xml:"text,attr"`
	ContentDesc string     `xml:"content-desc,attr"`
	Bounds      string     `xml:"bounds,attr"`
	Scrollable  string     `xml:"scrollable,attr"`
	Clickable   string     `xml:"clickable,attr"`
	Visible     string     `xml:"visible-to-user,attr"`
	Children    []dumpNode `xml:"node"`
}

// ParseUIDump parses a `uiautomator dump` document. Older dumps omit
// visible-to-user; such nodes count as visible. tapper may be nil, in which
// case Click returns domain.ErrUnsupported.
func ParseUIDump(r io.Reader, tapper Tapper) (*SnapshotNode, error) {
	var h dumpHierarchy
	if err := xml.NewDecoder(r).Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to decode ui dump: %w", err)
	}
	if len(h.Nodes) == 0 {
		return nil, errors.New("ui dump has no nodes")
	}

	// Multiple top-level nodes happen with stacked windows; wrap them.
	if len(h.Nodes) == 1 {
		return build(h.Nodes[0], nil, tapper)
	}
	root := &SnapshotNode{class: "hierarchy", visible: true, stacked: true, tapper: tapper}
	for _, n := range h.Nodes {
		child, err := build(n, root, tapper)
		if err != nil {
			return nil, err
		}
		root.children = append(root.children, child)
		root.bounds = union(root.bounds, child.bounds)
	}
	root.pkg = root.children[len(root.children)-1].pkg
	return root, nil
}

func build(d dumpNode, parent *SnapshotNode, tapper Tapper) (*SnapshotNode, error) {
	bounds, err := ParseBounds(d.Bounds)
	if err != nil {
		return nil, err
	}
	n := &SnapshotNode{
		viewID:    d.ResourceID,
		class:     d.Class,
		pkg:       d.Package,
		text:      d.Text,
		desc:      d.ContentDesc,
		bounds:    bounds,
		scroll:    d.Scrollable == "true",
		clickable: d.Clickable == "true",
		visible:   d.Visible != "false",
		parent:    parent,
		tapper:    tapper,
	}
	for _, c := range d.Children {
		child, err := build(c, n, tapper)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

// ParseBounds parses the "[left,top][right,bottom]" form used by dumps.
// An empty string yields an empty rectangle.
func ParseBounds(s string) (domain.Rect, error) {
	if s == "" {
		return domain.Rect{}, nil
	}
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	corners := strings.Split(s, "][")
	if len(corners) != 2 {
		return domain.Rect{}, fmt.Errorf("invalid bounds %q", s)
	}

	var vals [4]int
	for i, corner := range corners {
		xy := strings.Split(corner, ",")
		if len(xy) != 2 {
			return domain.Rect{}, fmt.Errorf("invalid bounds %q", s)
		}
		for j, part := range xy {
			v, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return domain.Rect{}, fmt.Errorf("invalid bounds %q: %w", s, err)
			}
			vals[i*2+j] = v
		}
	}
	return domain.Rect{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}, nil
}

func union(a, b domain.Rect) domain.Rect {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return domain.Rect{
		Left:   min(a.Left, b.Left),
		Top:    min(a.Top, b.Top),
		Right:  max(a.Right, b.Right),
		Bottom: max(a.Bottom, b.Bottom),
	}
}

// Package returns the package that owns the node's window.
func (n *SnapshotNode) Package() string { return n.pkg }

func (n *SnapshotNode) ViewID() string             { return n.viewID }
func (n *SnapshotNode) ClassName() string          { return n.class }
func (n *SnapshotNode) Text() string               { return n.text }
func (n *SnapshotNode) ContentDescription() string { return n.desc }
func (n *SnapshotNode) Bounds() domain.Rect        { return n.bounds }
func (n *SnapshotNode) Scrollable() bool           { return n.scroll }
func (n *SnapshotNode) Clickable() bool            { return n.clickable }
func (n *SnapshotNode) VisibleToUser() bool        { return n.visible }
func (n *SnapshotNode) ChildCount() int            { return len(n.children) }

func (n *SnapshotNode) Child(i int) (domain.Node, error) {
	if i < 0 || i >= len(n.children) {
		return nil, domain.ErrStaleNode
	}
	return n.children[i], nil
}

func (n *SnapshotNode) Parent() (domain.Node, error) {
	if n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}

// Click taps the center of the node.
func (n *SnapshotNode) Click() error {
	if !n.clickable {
		return domain.ErrNotClickable
	}
	if n.tapper == nil {
		return domain.ErrUnsupported
	}
	return n.tapper.Tap(n.bounds.Center())
}

// Ensure SnapshotNode implements domain.Node.
var _ domain.Node = (*SnapshotNode)(nil)
