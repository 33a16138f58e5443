package uitree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/test/fixtures"
)

func sampleTree() *fixtures.Node {
	return fixtures.Root(
		fixtures.N("android.widget.TextView").WithText("Reels"),
		fixtures.N("android.widget.LinearLayout").Add(
			fixtures.N("android.widget.TextView").WithText("Watch more shorts"),
			fixtures.N("android.widget.ImageView").WithID("com.instagram.android:id/clips_viewer_view_pager"),
		),
		fixtures.N("androidx.recyclerview.widget.RecyclerView").WithDesc("reels"),
	)
}

func TestFindByText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "exact text", text: "Reels", want: 2},
		{name: "case and space insensitive", text: "  REELS ", want: 2},
		{name: "partial does not match", text: "shorts", want: 0},
		{name: "empty text matches nothing", text: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, FindByText(sampleTree(), tt.text), tt.want)
		})
	}
}

func TestFindByTextContains(t *testing.T) {
	got := FindByTextContains(sampleTree(), "shorts")
	require.Len(t, got, 1)
	assert.Equal(t, "Watch more shorts", got[0].Text())
}

func TestFindByID(t *testing.T) {
	root := sampleTree()

	assert.Len(t, FindByID(root, "clips_viewer_view_pager"), 1)
	assert.Len(t, FindByID(root, "com.instagram.android:id/clips_viewer_view_pager"), 1)
	assert.Empty(t, FindByID(root, "viewer_view_pager"))
}

func TestFindByClass(t *testing.T) {
	root := sampleTree()

	assert.Len(t, FindByClass(root, "RecyclerView"), 1)
	assert.Len(t, FindByClass(root, "androidx.recyclerview.widget.RecyclerView"), 1)
	assert.Empty(t, FindByClass(root, "View"))
}

func TestNilRootReturnsEmpty(t *testing.T) {
	assert.Empty(t, FindByText(nil, "Reels"))
	assert.Empty(t, FindByID(nil, "x"))
	assert.Nil(t, First(nil, func(domain.Node) bool { return true }))
}

func TestStaleChildDoesNotAbortSiblings(t *testing.T) {
	root := fixtures.Root(
		fixtures.N("android.widget.TextView").WithText("first"),
		fixtures.N("android.widget.TextView").WithText("Reels"),
		fixtures.N("android.widget.TextView").WithText("Reels"),
	)
	root.StaleChildren = map[int]bool{1: true}

	got := FindByText(root, "reels")
	assert.Len(t, got, 1, "stale child skipped, later sibling still visited")
}

func TestPanickingNodeIsSkipped(t *testing.T) {
	bad := fixtures.N("android.widget.TextView")
	bad.PanicOnText = true
	root := fixtures.Root(
		bad,
		fixtures.N("android.widget.TextView").WithText("Reels"),
	)

	assert.NotPanics(t, func() {
		got := FindByText(root, "Reels")
		assert.Len(t, got, 1)
	})
}

func TestChildCountReadPerLevel(t *testing.T) {
	root := fixtures.Root(fixtures.N("a"), fixtures.N("b"))

	visited := 0
	Walk(root, func(n domain.Node, depth int) bool {
		visited++
		if depth == 0 {
			// UI shrinks mid-traversal
			root.Kids = root.Kids[:1]
		}
		return true
	})
	assert.Equal(t, 2, visited)
}

func TestWalkDepthIsBounded(t *testing.T) {
	root := fixtures.N("root")
	cur := root
	for i := 0; i < MaxDepth+10; i++ {
		next := fixtures.N("deep")
		cur.Add(next)
		cur = next
	}

	maxSeen := 0
	Walk(root, func(_ domain.Node, depth int) bool {
		if depth > maxSeen {
			maxSeen = depth
		}
		return true
	})
	assert.Equal(t, MaxDepth, maxSeen)
}

func TestClickableAncestor(t *testing.T) {
	label := fixtures.N("android.widget.TextView").WithText("Home")
	tab := fixtures.N("android.widget.FrameLayout").Tappable().Add(
		fixtures.N("android.widget.LinearLayout").Add(label),
	)
	fixtures.Root(tab)

	assert.Same(t, tab, ClickableAncestor(label))
	assert.Nil(t, ClickableAncestor(fixtures.N("orphan")))
}

func TestClickRecoversPanics(t *testing.T) {
	assert.ErrorIs(t, Click(nil), domain.ErrStaleNode)

	n := fixtures.N("android.widget.Button").Tappable()
	require.NoError(t, Click(n))
	assert.Equal(t, 1, n.Clicks())
}
