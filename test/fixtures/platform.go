package fixtures

import (
	"sort"
	"sync"
	"time"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Platform is an in-memory domain.Platform that records every action.
type Platform struct {
	Screen domain.Rect

	BackErr    error
	HomeErr    error
	GestureErr error // rejects every gesture
	// RejectGestures rejects gestures by name.
	RejectGestures map[string]bool
	// CancelGestures accepts gestures by name, then reports cancellation.
	CancelGestures map[string]bool

	mu       sync.Mutex
	actions  []domain.GlobalAction
	gestures []domain.Gesture
}

// NewPlatform returns a platform with the default screen.
func NewPlatform() *Platform {
	return &Platform{Screen: Screen}
}

func (p *Platform) PerformGlobalAction(action domain.GlobalAction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	switch action {
	case domain.GlobalBack:
		return p.BackErr
	case domain.GlobalHome:
		return p.HomeErr
	}
	return nil
}

func (p *Platform) DispatchGesture(g domain.Gesture, cb domain.GestureCallback) error {
	p.mu.Lock()
	if p.GestureErr != nil {
		p.mu.Unlock()
		return p.GestureErr
	}
	if p.RejectGestures[g.Name] {
		p.mu.Unlock()
		return domain.ErrGestureRejected
	}
	p.gestures = append(p.gestures, g)
	cancel := p.CancelGestures[g.Name]
	p.mu.Unlock()

	if cancel {
		if cb.OnCancelled != nil {
			cb.OnCancelled()
		}
		return nil
	}
	if cb.OnCompleted != nil {
		cb.OnCompleted()
	}
	return nil
}

func (p *Platform) ScreenBounds() domain.Rect {
	return p.Screen
}

// Actions returns the global actions performed so far.
func (p *Platform) Actions() []domain.GlobalAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.GlobalAction(nil), p.actions...)
}

// Gestures returns the accepted gestures.
func (p *Platform) Gestures() []domain.Gesture {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Gesture(nil), p.gestures...)
}

// GestureNames returns the names of accepted gestures in dispatch order.
func (p *Platform) GestureNames() []string {
	var names []string
	for _, g := range p.Gestures() {
		names = append(names, g.Name)
	}
	return names
}

var _ domain.Platform = (*Platform)(nil)

// OverlayHost is an in-memory domain.OverlayHost.
type OverlayHost struct {
	Err error

	mu      sync.Mutex
	windows []*OverlayWindow
}

func (h *OverlayHost) AddOverlay(spec domain.OverlaySpec) (domain.OverlayWindow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Err != nil {
		return nil, h.Err
	}
	w := &OverlayWindow{Spec: spec, alphas: []float64{spec.Alpha}}
	h.windows = append(h.windows, w)
	return w, nil
}

// Windows returns every overlay ever created.
func (h *OverlayHost) Windows() []*OverlayWindow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*OverlayWindow(nil), h.windows...)
}

// Active returns the number of overlays not yet removed.
func (h *OverlayHost) Active() int {
	n := 0
	for _, w := range h.Windows() {
		if !w.Removed() {
			n++
		}
	}
	return n
}

var _ domain.OverlayHost = (*OverlayHost)(nil)

// OverlayWindow records alpha changes and removal.
type OverlayWindow struct {
	Spec      domain.OverlaySpec
	RemoveErr error

	mu      sync.Mutex
	removed int
	alphas  []float64
}

func (w *OverlayWindow) SetAlpha(alpha float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.removed > 0 {
		return nil
	}
	w.alphas = append(w.alphas, alpha)
	return nil
}

func (w *OverlayWindow) Remove() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed++
	return w.RemoveErr
}

// Touch simulates a swallowed touch.
func (w *OverlayWindow) Touch() {
	if w.Spec.OnTouch != nil {
		w.Spec.OnTouch()
	}
}

// Removed reports whether Remove was called.
func (w *OverlayWindow) Removed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.removed > 0
}

// RemoveCalls returns how many times Remove was called.
func (w *OverlayWindow) RemoveCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.removed
}

// Alphas returns the alpha history, starting with the initial alpha.
func (w *OverlayWindow) Alphas() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]float64(nil), w.alphas...)
}

var _ domain.OverlayWindow = (*OverlayWindow)(nil)

// BlockPages records block page launches.
type BlockPages struct {
	Err error

	mu       sync.Mutex
	launched []string
}

func (b *BlockPages) LaunchBlockPage(pkg, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.launched = append(b.launched, pkg+":"+reason)
	return nil
}

// Launched returns "pkg:reason" for each launch.
func (b *BlockPages) Launched() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.launched...)
}

var _ domain.BlockPageLauncher = (*BlockPages)(nil)

// ManualScheduler is a domain.Scheduler driven by Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*task
}

type task struct {
	owner *ManualScheduler
	at    time.Duration
	seq   int
	f     func()
	done  bool
}

func (t *task) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) domain.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &task{owner: s, at: s.now + d, seq: s.seq, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the clock forward by d, running due callbacks in order.
// Callbacks scheduled while advancing run too if they fall due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due []*task
		for _, t := range s.tasks {
			if !t.done && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at != due[j].at {
				return due[i].at < due[j].at
			}
			return due[i].seq < due[j].seq
		})
		next := due[0]
		next.done = true
		s.now = next.at
		s.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of callbacks not yet run or stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

var _ domain.Scheduler = (*ManualScheduler)(nil)
