package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/policy"
	"github.com/AryanVBW/focus-sub000/test/fixtures"
)

const (
	instagram = "com.instagram.android"
	youtube   = "com.google.android.youtube"
)

func newTestClassifier() *Classifier {
	return New(policy.NewRegistry(), DefaultConfig(), zap.NewNop())
}

func TestClassify_HomeScreenIsNotDetected(t *testing.T) {
	c := newTestClassifier()
	root := fixtures.Root(
		fixtures.HomeTab("com.instagram.android:id/feed_tab"),
		fixtures.N("android.widget.TextView").WithText("Suggested for you"),
	)

	got := c.Classify(root, instagram)

	assert.False(t, got.Detected)
	assert.Equal(t, domain.ContentNone, got.ContentType)
	assert.Zero(t, got.Confidence)
}

func TestClassify_IdentifierMatch(t *testing.T) {
	c := newTestClassifier()
	root := fixtures.Root(
		fixtures.N("androidx.viewpager.widget.ViewPager").
			WithID("com.instagram.android:id/clips_viewer_view_pager").
			WithBounds(0, 0, 1080, 2200).Scroll(),
		fixtures.HomeTab("com.instagram.android:id/feed_tab"),
	)

	got := c.Classify(root, instagram)

	require.True(t, got.Detected)
	assert.Equal(t, domain.ContentReels, got.ContentType)
	assert.Equal(t, SignalIdentifier, got.Signal)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
	assert.Equal(t, domain.ScrollVertical, got.ScrollDirection)
	assert.NotNil(t, got.PrimaryScrollContainer)
}

func TestClassify_TextMatch(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		text    string
		want    domain.ContentType
		wantDir domain.ScrollDirection
	}{
		{name: "reels tab title", pkg: instagram, text: "Reels", want: domain.ContentReels, wantDir: domain.ScrollVertical},
		{name: "story header", pkg: instagram, text: "alice's story", want: domain.ContentStories, wantDir: domain.ScrollHorizontal},
		{name: "shorts hashtag", pkg: youtube, text: "Funny cats #Shorts", want: domain.ContentShorts, wantDir: domain.ScrollVertical},
		{name: "snapchat spotlight", pkg: "com.snapchat.android", text: "Spotlight", want: domain.ContentSpotlight, wantDir: domain.ScrollVertical},
		{name: "explore", pkg: instagram, text: "Explore", want: domain.ContentExplore, wantDir: domain.ScrollNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fixtures.Root(fixtures.N("android.widget.TextView").WithText(tt.text))

			got := newTestClassifier().Classify(root, tt.pkg)

			require.True(t, got.Detected)
			assert.Equal(t, tt.want, got.ContentType)
			assert.Equal(t, SignalText, got.Signal)
			assert.Equal(t, tt.wantDir, got.ScrollDirection)
		})
	}
}

func TestClassify_PriorityTieBreak(t *testing.T) {
	root := fixtures.Root(
		fixtures.N("android.widget.TextView").WithText("Story"),
		fixtures.N("android.widget.TextView").WithText("Reels"),
	)

	got := newTestClassifier().Classify(root, instagram)

	assert.Equal(t, domain.ContentReels, got.ContentType)
}

func TestClassify_URLInEmbeddedBrowser(t *testing.T) {
	root := fixtures.Root(
		fixtures.N("android.widget.TextView").
			WithID("com.instagram.android:id/browser_url").
			WithText("instagram.com/reels/C1a2b3"),
		fixtures.N("android.webkit.WebView").WithBounds(0, 200, 1080, 2340),
	)

	got := newTestClassifier().Classify(root, instagram)

	require.True(t, got.Detected)
	assert.Equal(t, domain.ContentReels, got.ContentType)
	assert.Equal(t, SignalURL, got.Signal)
}

func TestClassify_StructuralVerticalFeed(t *testing.T) {
	root := fixtures.Root(fixtures.VerticalFeed(3))

	got := newTestClassifier().Classify(root, youtube)

	require.True(t, got.Detected)
	assert.Equal(t, domain.ContentShorts, got.ContentType)
	assert.Equal(t, SignalStructural, got.Signal)
	assert.Greater(t, got.Confidence, 0.9)
	assert.Equal(t, domain.ScrollVertical, got.ScrollDirection)
}

func TestClassify_StructuralNeedsVideoEvidence(t *testing.T) {
	list := fixtures.N("androidx.recyclerview.widget.RecyclerView").
		WithBounds(0, 0, 1080, 2200).Scroll()
	list.Add(fixtures.N("android.widget.TextView").WithText("Settings").WithBounds(0, 0, 1080, 200))

	got := newTestClassifier().Classify(fixtures.Root(list), youtube)

	assert.False(t, got.Detected)
}

func TestClassify_UnsupportedPackageAndNilRoot(t *testing.T) {
	c := newTestClassifier()

	assert.False(t, c.Classify(fixtures.Root(fixtures.VerticalFeed(3)), "com.android.settings").Detected)
	assert.False(t, c.Classify(nil, instagram).Detected)
}

func TestClassify_HiddenNodesIgnored(t *testing.T) {
	reels := fixtures.N("android.widget.TextView").WithText("Reels")
	reels.Hidden = true

	got := newTestClassifier().Classify(fixtures.Root(reels), instagram)

	assert.False(t, got.Detected)
}

func TestClassify_Idempotent(t *testing.T) {
	c := newTestClassifier()
	root := fixtures.Root(fixtures.VerticalFeed(2))

	first := c.Classify(root, youtube)
	second := c.Classify(root, youtube)

	assert.Equal(t, first, second)
}

func TestRun_PanickingSignalCountsAsNotDetected(t *testing.T) {
	c := newTestClassifier()
	sig := signal{name: "boom", match: func(*screen, domain.AppProfile) (domain.DetectionResult, bool) {
		panic("platform went away")
	}}

	var (
		res domain.DetectionResult
		ok  bool
	)
	assert.NotPanics(t, func() {
		res, ok = c.run(sig, snapshot(fixtures.Root()), domain.AppProfile{ID: "x"})
	})
	assert.False(t, ok)
	assert.False(t, res.Detected)
}

func TestURLPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "https://www.youtube.com/shorts/abc", want: "/shorts/abc/", ok: true},
		{raw: "instagram.com/reel", want: "/reel/", ok: true},
		{raw: "Search or type URL", ok: false},
		{raw: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := URLPath(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_NestedContainerDirection(t *testing.T) {
	clips := func() *fixtures.Node {
		return fixtures.N("androidx.viewpager.widget.ViewPager").
			WithID("com.instagram.android:id/clips_viewer_view_pager").
			WithBounds(0, 0, 1080, 2200).Scroll()
	}

	tests := []struct {
		name   string
		parent *fixtures.Node
		want   domain.ScrollDirection
	}{
		{
			name:   "inside horizontal tab pager",
			parent: fixtures.N("androidx.viewpager.widget.ViewPager").WithBounds(0, 0, 1080, 2340).Scroll(),
			want:   domain.ScrollBoth,
		},
		{
			name:   "inside horizontal scroll view",
			parent: fixtures.N("android.widget.HorizontalScrollView").WithBounds(0, 0, 1080, 2340).Scroll(),
			want:   domain.ScrollBoth,
		},
		{
			name:   "inside vertical scroll view",
			parent: fixtures.N("androidx.core.widget.NestedScrollView").WithBounds(0, 0, 1080, 2340).Scroll(),
			want:   domain.ScrollVertical,
		},
		{
			name:   "inside non-scrolling pager",
			parent: fixtures.N("androidx.viewpager.widget.ViewPager").WithBounds(0, 0, 1080, 2340),
			want:   domain.ScrollVertical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fixtures.Root(tt.parent.Add(clips()))

			got := newTestClassifier().Classify(root, instagram)

			require.True(t, got.Detected)
			assert.Equal(t, domain.ContentReels, got.ContentType)
			assert.Equal(t, tt.want, got.ScrollDirection)
			assert.True(t, got.ScrollDirection.IsVertical())
		})
	}
}
