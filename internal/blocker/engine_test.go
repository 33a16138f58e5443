package blocker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/policy"
	"github.com/AryanVBW/focus-sub000/test/fixtures"
)

type harness struct {
	platform *fixtures.Platform
	overlays *fixtures.OverlayHost
	pages    *fixtures.BlockPages
	sched    *fixtures.ManualScheduler
	engine   *Engine
}

func newHarness() *harness {
	h := &harness{
		platform: fixtures.NewPlatform(),
		overlays: &fixtures.OverlayHost{},
		pages:    &fixtures.BlockPages{},
		sched:    &fixtures.ManualScheduler{},
	}
	h.engine = NewEngine(h.platform, h.overlays, h.pages, policy.NewRegistry(), h.sched, DefaultConfig(), zap.NewNop())
	return h
}

func vertical(container domain.Node) domain.DetectionResult {
	return domain.DetectionResult{
		Detected:               true,
		ContentType:            domain.ContentShorts,
		Confidence:             0.95,
		ScrollDirection:        domain.ScrollVertical,
		PrimaryScrollContainer: container,
	}
}

func TestExecute_BackNavigation(t *testing.T) {
	h := newHarness()

	out := h.engine.Execute(domain.StrategyBackNavigation, vertical(nil), fixtures.Root(), "com.example")

	assert.True(t, out.Succeeded)
	assert.Equal(t, []domain.GlobalAction{domain.GlobalBack}, h.platform.Actions())
}

func TestExecute_NoneDoesNothing(t *testing.T) {
	h := newHarness()

	out := h.engine.Execute(domain.StrategyNone, domain.NoDetection(), fixtures.Root(), "com.example")

	assert.Equal(t, domain.StateIdle, out.State)
	assert.Empty(t, h.platform.Actions())
	assert.Empty(t, h.platform.Gestures())
}

func TestExecute_CounterScrollOppositeToFeed(t *testing.T) {
	h := newHarness()
	feed := fixtures.VerticalFeed(1)

	out := h.engine.Execute(domain.StrategyCounterScroll, vertical(feed), fixtures.Root(feed), "com.example")

	require.True(t, out.Succeeded)
	assert.Equal(t, AttemptCounter, out.Winner)
	gestures := h.platform.Gestures()
	require.Len(t, gestures, 1)
	path := gestures[0].Strokes[0].Path
	assert.Less(t, path[0].Y, path[1].Y, "drags downward against an upward-advancing feed")
	assert.Equal(t, path[0].X, path[1].X)
	assert.True(t, feed.Rect.Contains(path[0]))
	assert.True(t, feed.Rect.Contains(path[1]))
}

func TestExecute_CounterScrollHorizontal(t *testing.T) {
	h := newHarness()
	result := vertical(nil)
	result.ScrollDirection = domain.ScrollHorizontal

	h.engine.Execute(domain.StrategyCounterScroll, result, fixtures.Root(), "com.example")

	path := h.platform.Gestures()[0].Strokes[0].Path
	assert.Less(t, path[0].X, path[1].X)
	assert.Equal(t, path[0].Y, path[1].Y)
}

func TestExecute_CounterScrollBackupOnCancel(t *testing.T) {
	h := newHarness()
	h.platform.CancelGestures = map[string]bool{GestureCounter: true}

	out := h.engine.Execute(domain.StrategyCounterScroll, vertical(nil), fixtures.Root(), "com.example")

	assert.True(t, out.Succeeded)
	assert.Equal(t, []string{GestureCounter, GestureBackup}, h.platform.GestureNames())
}

func TestExecute_CounterScrollFallsBackToBack(t *testing.T) {
	h := newHarness()
	h.platform.GestureErr = domain.ErrGestureRejected

	out := h.engine.Execute(domain.StrategyCounterScroll, vertical(nil), fixtures.Root(), "com.example")

	assert.True(t, out.Succeeded)
	assert.Equal(t, AttemptBack, out.Winner)
	assert.Equal(t, []domain.GlobalAction{domain.GlobalBack}, h.platform.Actions())
}

func TestExecute_RapidBurst(t *testing.T) {
	h := newHarness()
	cfg := DefaultGestureConfig()

	out := h.engine.Execute(domain.StrategyRapidCounter, vertical(nil), fixtures.Root(), "com.example")

	require.True(t, out.Succeeded)
	assert.Len(t, h.platform.Gestures(), 1, "first gesture is immediate")

	h.sched.Advance(time.Duration(cfg.BurstCount) * cfg.BurstInterval)
	assert.Equal(t, []string{GestureRapid, GestureRapid, GestureRapid}, h.platform.GestureNames())
}

// Scenario: enhanced chain where the overlay is refused must continue to the
// rapid burst rather than going straight back.
func TestExecute_EnhancedOverlayFailsThenRapid(t *testing.T) {
	h := newHarness()
	h.overlays.Err = domain.ErrOverlayRejected

	out := h.engine.Execute(domain.StrategyEnhancedScrollDisable, vertical(fixtures.VerticalFeed(3)), fixtures.Root(), "com.google.android.youtube")

	require.True(t, out.Succeeded)
	assert.Equal(t, AttemptRapid, out.Winner)
	assert.Equal(t, []string{AttemptOverlay, AttemptRapid}, out.Tried)
	assert.Empty(t, h.platform.Actions(), "back-navigation not reached")
}

func TestExecute_EnhancedOverlayCoversContainer(t *testing.T) {
	h := newHarness()
	feed := fixtures.VerticalFeed(3)

	out := h.engine.Execute(domain.StrategyEnhancedScrollDisable, vertical(feed), fixtures.Root(feed), "com.google.android.youtube")

	require.Equal(t, AttemptOverlay, out.Winner)
	windows := h.overlays.Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, feed.Rect, windows[0].Spec.Bounds)
}

func TestExecute_EnhancedCurvedThenBack(t *testing.T) {
	h := newHarness()
	h.overlays.Err = domain.ErrOverlayRejected
	h.platform.RejectGestures = map[string]bool{GestureRapid: true}

	out := h.engine.Execute(domain.StrategyEnhancedScrollDisable, vertical(nil), fixtures.Root(), "com.example")

	assert.Equal(t, AttemptCurved, out.Winner)
	g := h.platform.Gestures()
	require.Len(t, g, 1)
	assert.Len(t, g[0].Strokes[0].Path, DefaultGestureConfig().CurvePoints)

	h2 := newHarness()
	h2.overlays.Err = domain.ErrOverlayRejected
	h2.platform.GestureErr = domain.ErrGestureRejected
	out = h2.engine.Execute(domain.StrategyEnhancedScrollDisable, vertical(nil), fixtures.Root(), "com.example")
	assert.Equal(t, AttemptBack, out.Winner)
}

func TestExecute_FallbackExhaustionStillTriesBack(t *testing.T) {
	h := newHarness()
	h.overlays.Err = domain.ErrOverlayRejected
	h.platform.GestureErr = domain.ErrGestureRejected
	h.platform.BackErr = errors.New("service disconnected")

	var out domain.BlockOutcome
	assert.NotPanics(t, func() {
		out = h.engine.Execute(domain.StrategyEnhancedScrollDisable, vertical(nil), fixtures.Root(), "com.example")
	})

	assert.True(t, out.Exhausted())
	assert.Equal(t, []string{AttemptOverlay, AttemptRapid, AttemptCurved, AttemptBack}, out.Tried)
	assert.Equal(t, []domain.GlobalAction{domain.GlobalBack}, h.platform.Actions())
}

func TestExecute_RedirectClicksSafeTarget(t *testing.T) {
	h := newHarness()
	home := fixtures.HomeTab("com.instagram.android:id/feed_tab")
	root := fixtures.Root(fixtures.VerticalFeed(1), home)

	out := h.engine.Execute(domain.StrategyRedirect, vertical(nil), root, "com.instagram.android")

	assert.Equal(t, AttemptRedirect, out.Winner)
	assert.Equal(t, 1, home.Clicks())
	assert.Empty(t, h.platform.Actions())
}

func TestExecute_RedirectByLabelUsesClickableAncestor(t *testing.T) {
	h := newHarness()
	label := fixtures.N("android.widget.TextView").WithText("Home")
	tab := fixtures.N("android.widget.FrameLayout").Tappable().Add(label)
	root := fixtures.Root(tab)

	out := h.engine.Execute(domain.StrategyRedirect, vertical(nil), root, "com.facebook.katana")

	assert.Equal(t, AttemptRedirect, out.Winner)
	assert.Equal(t, 1, tab.Clicks())
}

func TestExecute_RedirectWithoutTargetGoesBack(t *testing.T) {
	h := newHarness()
	notClickable := fixtures.N("android.widget.TextView").WithID("com.instagram.android:id/feed_tab")

	out := h.engine.Execute(domain.StrategyRedirect, vertical(nil), fixtures.Root(notClickable), "com.instagram.android")

	assert.Equal(t, AttemptBack, out.Winner)
	assert.Equal(t, []string{AttemptRedirect, AttemptBack}, out.Tried)
}

func TestExecute_FullAppBlock(t *testing.T) {
	h := newHarness()

	out := h.engine.Execute(domain.StrategyFullAppBlock, domain.NoDetection(), fixtures.Root(), "com.example")

	assert.Equal(t, AttemptHome, out.Winner)
	assert.Equal(t, []domain.GlobalAction{domain.GlobalHome}, h.platform.Actions())
}

func TestExecute_BlockPage(t *testing.T) {
	h := newHarness()

	out := h.engine.Execute(domain.StrategyBlockPage, domain.NoDetection(), fixtures.Root(), "com.android.chrome")
	assert.Equal(t, AttemptPage, out.Winner)
	assert.Equal(t, []string{"com.android.chrome:" + ReasonAdult}, h.pages.Launched())

	h.pages.Err = errors.New("activity not found")
	out = h.engine.Execute(domain.StrategyBlockPage, domain.NoDetection(), fixtures.Root(), "com.android.chrome")
	assert.Equal(t, AttemptBack, out.Winner)
}

func TestExecute_WithoutOverlayHost(t *testing.T) {
	platform := fixtures.NewPlatform()
	engine := NewEngine(platform, nil, nil, policy.NewRegistry(), &fixtures.ManualScheduler{}, DefaultConfig(), zap.NewNop())

	out := engine.Execute(domain.StrategyOverlay, vertical(nil), fixtures.Root(), "com.example")

	assert.Equal(t, AttemptBack, out.Winner)
}

func TestCurveEndpoints(t *testing.T) {
	area := domain.Rect{Left: 0, Top: 0, Right: 1000, Bottom: 2000}
	from, to := counterLine(area, domain.ScrollVertical, 0.5)

	path := curve(area, from, to, 0.2, 5)

	require.Len(t, path, 5)
	assert.Equal(t, from, path[0])
	assert.Equal(t, to, path[4])
	assert.Greater(t, path[2].X, from.X, "bends sideways")
}
