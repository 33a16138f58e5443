package infra

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// RecordingPlatform is a dry-run host. It accepts every action, logs it, and
// keeps a transcript. Gestures complete synchronously.
type RecordingPlatform struct {
	screen domain.Rect
	logger *zap.Logger

	mu      sync.Mutex
	actions []string
}

// NewRecordingPlatform creates a dry-run host with the given screen size.
func NewRecordingPlatform(screen domain.Rect, logger *zap.Logger) *RecordingPlatform {
	if screen.Empty() {
		screen = fallbackScreen
	}
	return &RecordingPlatform{screen: screen, logger: logger}
}

func (p *RecordingPlatform) record(action string, fields ...zap.Field) {
	p.mu.Lock()
	p.actions = append(p.actions, action)
	p.mu.Unlock()
	p.logger.Info("dry-run "+action, fields...)
}

// Actions returns the transcript so far.
func (p *RecordingPlatform) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *RecordingPlatform) PerformGlobalAction(action domain.GlobalAction) error {
	p.record("global:" + string(action))
	return nil
}

func (p *RecordingPlatform) DispatchGesture(g domain.Gesture, cb domain.GestureCallback) error {
	p.record("gesture:"+g.Name, zap.Int("strokes", len(g.Strokes)))
	if cb.OnCompleted != nil {
		cb.OnCompleted()
	}
	return nil
}

func (p *RecordingPlatform) ScreenBounds() domain.Rect {
	return p.screen
}

func (p *RecordingPlatform) Tap(pt domain.Point) error {
	p.record(fmt.Sprintf("tap:%d,%d", int(pt.X), int(pt.Y)))
	return nil
}

func (p *RecordingPlatform) AddOverlay(spec domain.OverlaySpec) (domain.OverlayWindow, error) {
	p.record("overlay:add", zap.Float64("alpha", spec.Alpha))
	return &recordedOverlay{platform: p}, nil
}

func (p *RecordingPlatform) LaunchBlockPage(pkg, reason string) error {
	p.record("block_page:"+reason, zap.String("package", pkg))
	return nil
}

func (p *RecordingPlatform) Notify(n domain.Notification) error {
	p.record("notify", zap.String("title", n.Title), zap.String("message", n.Message))
	return nil
}

type recordedOverlay struct {
	platform *RecordingPlatform
	once     sync.Once
}

func (o *recordedOverlay) SetAlpha(alpha float64) error {
	return nil
}

func (o *recordedOverlay) Remove() error {
	o.once.Do(func() { o.platform.record("overlay:remove") })
	return nil
}

// Ensure RecordingPlatform implements the host interfaces.
var (
	_ domain.Platform          = (*RecordingPlatform)(nil)
	_ domain.OverlayHost       = (*RecordingPlatform)(nil)
	_ domain.BlockPageLauncher = (*RecordingPlatform)(nil)
	_ domain.Notifier          = (*RecordingPlatform)(nil)
	_ Tapper                   = (*RecordingPlatform)(nil)
)
