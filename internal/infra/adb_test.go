package infra

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// fakeRunner records invocations and answers by the first matching prefix.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]string
	failures  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]string{}, failures: map[string]error{}}
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := name + " " + strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	for prefix, err := range f.failures {
		if strings.Contains(line, prefix) {
			return nil, err
		}
	}
	for prefix, out := range f.responses {
		if strings.Contains(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestBridge(runner CommandRunner) *ADBBridge {
	cfg := DefaultADBConfig()
	cfg.Serial = "emulator-5554"
	return NewADBBridgeWithRunner(cfg, runner, zap.NewNop())
}

func TestADBBridge_GlobalActions(t *testing.T) {
	runner := newFakeRunner()
	b := newTestBridge(runner)

	require.NoError(t, b.PerformGlobalAction(domain.GlobalBack))
	require.NoError(t, b.PerformGlobalAction(domain.GlobalHome))
	assert.ErrorIs(t, b.PerformGlobalAction("recents"), domain.ErrUnsupported)

	assert.Equal(t, []string{
		"adb -s emulator-5554 shell input keyevent 4",
		"adb -s emulator-5554 shell input keyevent 3",
	}, runner.Calls())
}

func TestADBBridge_DispatchGesture(t *testing.T) {
	runner := newFakeRunner()
	b := newTestBridge(runner)

	done := make(chan struct{})
	g := domain.Gesture{Name: "counter_scroll", Strokes: []domain.Stroke{{
		Path:     []domain.Point{{X: 540, Y: 800}, {X: 540, Y: 1000}, {X: 540.6, Y: 1400}},
		Duration: 300 * time.Millisecond,
	}}}
	require.NoError(t, b.DispatchGesture(g, domain.GestureCallback{OnCompleted: func() { close(done) }}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("gesture did not complete")
	}
	assert.Equal(t, []string{"adb -s emulator-5554 shell input swipe 540 800 541 1400 300"}, runner.Calls())
}

func TestADBBridge_DispatchGestureCancelled(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["input swipe"] = errors.New("device offline")
	b := newTestBridge(runner)

	cancelled := make(chan struct{})
	g := domain.Gesture{Name: "rapid_counter", Strokes: []domain.Stroke{
		{Path: []domain.Point{{X: 1, Y: 1}, {X: 1, Y: 2}}, Duration: 80 * time.Millisecond},
		{Path: []domain.Point{{X: 1, Y: 1}, {X: 1, Y: 2}}, Start: 60 * time.Millisecond, Duration: 80 * time.Millisecond},
	}}
	require.NoError(t, b.DispatchGesture(g, domain.GestureCallback{OnCancelled: func() { close(cancelled) }}))

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("gesture was not cancelled")
	}
	assert.Len(t, runner.Calls(), 1, "stops at the first failed stroke")
}

func TestADBBridge_DispatchGestureRejectsMalformed(t *testing.T) {
	b := newTestBridge(newFakeRunner())

	tests := []struct {
		name string
		g    domain.Gesture
	}{
		{name: "no strokes", g: domain.Gesture{Name: "x"}},
		{name: "single point", g: domain.Gesture{Name: "x", Strokes: []domain.Stroke{{Path: []domain.Point{{}}, Duration: time.Millisecond}}}},
		{name: "zero duration", g: domain.Gesture{Name: "x", Strokes: []domain.Stroke{{Path: []domain.Point{{}, {}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, b.DispatchGesture(tt.g, domain.GestureCallback{}), domain.ErrGestureRejected)
		})
	}
}

func TestADBBridge_ScreenBounds(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["wm size"] = "Physical size: 1440x3120\nOverride size: 1080x2340\n"
	b := newTestBridge(runner)

	assert.Equal(t, domain.Rect{Right: 1080, Bottom: 2340}, b.ScreenBounds())
	assert.Equal(t, domain.Rect{Right: 1080, Bottom: 2340}, b.ScreenBounds())
	assert.Len(t, runner.Calls(), 1, "cached")
}

func TestADBBridge_ScreenBoundsFallback(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["wm size"] = errors.New("no device")
	b := newTestBridge(runner)

	assert.Equal(t, fallbackScreen, b.ScreenBounds())
	assert.Equal(t, fallbackScreen, b.ScreenBounds())
	assert.Len(t, runner.Calls(), 2, "failures are not cached")
}

func TestADBBridge_NotifyAndBlockPage(t *testing.T) {
	runner := newFakeRunner()
	b := newTestBridge(runner)

	require.NoError(t, b.Notify(domain.Notification{Title: "Reels blocked", Message: "Don't scroll"}))
	require.NoError(t, b.LaunchBlockPage("com.android.chrome", "adult_content"))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], `cmd notification post -S bigtext -t 'Reels blocked' reelguard 'Don'\''t scroll'`)
	assert.Equal(t, "adb -s emulator-5554 shell am start -n com.aryanvbw.reelguard/.BlockActivity --es package com.android.chrome --es reason adult_content", calls[1])
}

func TestADBBridge_BlockPageUnset(t *testing.T) {
	cfg := DefaultADBConfig()
	cfg.BlockPage = ""
	b := NewADBBridgeWithRunner(cfg, newFakeRunner(), zap.NewNop())

	assert.ErrorIs(t, b.LaunchBlockPage("p", "r"), domain.ErrUnsupported)
}

func TestADBBridge_DumpUI(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["uiautomator dump"] = reelsDump
	b := newTestBridge(runner)

	root, err := b.DumpUI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "com.instagram.android", root.Package())

	// nodes tap through the bridge
	home, err := root.Child(1)
	require.NoError(t, err)
	require.NoError(t, home.Click())
	calls := runner.Calls()
	assert.Equal(t, "adb -s emulator-5554 shell input tap 108 2270", calls[len(calls)-1])
}

func TestADBBridge_ForegroundPackage(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["dumpsys window"] = `
  mCurrentFocus=Window{5c1d2e8 u0 com.google.android.youtube/com.google.android.apps.youtube.app.watchwhile.WatchWhileActivity}
  mFocusedApp=ActivityRecord{...}`
	b := newTestBridge(runner)

	pkg, err := b.ForegroundPackage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "com.google.android.youtube", pkg)

	runner.responses["dumpsys window"] = "mCurrentFocus=null"
	_, err = b.ForegroundPackage(context.Background())
	assert.Error(t, err)
}

func TestADBBridge_Devices(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["adb devices"] = "List of devices attached\nemulator-5554\tdevice\nR58M\tunauthorized\n\n"
	b := NewADBBridgeWithRunner(DefaultADBConfig(), runner, zap.NewNop())

	serials, err := b.Devices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"emulator-5554"}, serials)
}

type fakeLister map[int32]string

func (f fakeLister) Names() (map[int32]string, error) { return f, nil }

type failingLister struct{}

func (failingLister) Names() (map[int32]string, error) { return nil, errors.New("denied") }

func TestBridgeProbe(t *testing.T) {
	probe := NewBridgeProbeWithLister(fakeLister{1: "launchd", 42: "adb", 43: "ADB.exe", 44: "adbd-helper"})

	pids, err := probe.ServerPIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{42, 43}, pids)
	assert.True(t, probe.ServerRunning())

	assert.False(t, NewBridgeProbeWithLister(fakeLister{1: "init"}).ServerRunning())
	assert.False(t, NewBridgeProbeWithLister(failingLister{}).ServerRunning())
}

func TestRecordingPlatform(t *testing.T) {
	p := NewRecordingPlatform(domain.Rect{}, zap.NewNop())
	assert.Equal(t, fallbackScreen, p.ScreenBounds())

	completed := false
	require.NoError(t, p.PerformGlobalAction(domain.GlobalBack))
	require.NoError(t, p.DispatchGesture(domain.Gesture{Name: "rapid_counter"}, domain.GestureCallback{OnCompleted: func() { completed = true }}))
	w, err := p.AddOverlay(domain.OverlaySpec{Alpha: 0.01})
	require.NoError(t, err)
	require.NoError(t, w.Remove())
	require.NoError(t, w.Remove())
	require.NoError(t, p.LaunchBlockPage("com.android.chrome", "adult_content"))

	assert.True(t, completed)
	assert.Equal(t, []string{
		"global:back",
		"gesture:rapid_counter",
		"overlay:add",
		"overlay:remove",
		"block_page:adult_content",
	}, p.Actions())
}

func TestADBBridge_RouteTaps(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["uiautomator dump"] = reelsDump
	b := newTestBridge(runner)
	rec := NewRecordingPlatform(domain.Rect{}, zap.NewNop())
	b.RouteTaps(rec)

	root, err := b.DumpUI(context.Background())
	require.NoError(t, err)
	home, err := root.Child(1)
	require.NoError(t, err)
	require.NoError(t, home.Click())

	assert.Equal(t, []string{"tap:108,2270"}, rec.Actions())
	for _, call := range runner.Calls() {
		assert.NotContains(t, call, "input tap")
	}
}

func TestADBBridge_Capture(t *testing.T) {
	stacked := `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?><hierarchy rotation="0">
  <node class="android.widget.FrameLayout" package="com.google.android.youtube" bounds="[0,0][1080,2340]"/>
  <node class="android.widget.FrameLayout" package="com.google.android.inputmethod.latin" bounds="[0,1500][1080,2340]"/>
</hierarchy>
UI hierchary dumped to: /dev/tty`

	tests := []struct {
		name    string
		dump    string
		focus   string
		want    string
		dumpsys bool
	}{
		{name: "single window uses dump package", dump: reelsDump, want: "com.instagram.android"},
		{
			name:    "stacked windows use focused window",
			dump:    stacked,
			focus:   "mCurrentFocus=Window{1a2b u0 com.google.android.youtube/com.google.android.apps.youtube.app.WatchWhileActivity}",
			want:    "com.google.android.youtube",
			dumpsys: true,
		},
		{
			name:    "stacked windows without focus fall back to dump",
			dump:    stacked,
			focus:   "mCurrentFocus=null",
			want:    "com.google.android.inputmethod.latin",
			dumpsys: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.responses["uiautomator dump"] = tt.dump
			runner.responses["dumpsys window"] = tt.focus
			b := newTestBridge(runner)

			pkg, root, err := b.Capture(context.Background())
			require.NoError(t, err)
			require.NotNil(t, root)
			assert.Equal(t, tt.want, pkg)

			asked := false
			for _, call := range runner.Calls() {
				asked = asked || strings.Contains(call, "dumpsys window")
			}
			assert.Equal(t, tt.dumpsys, asked)
		})
	}
}
