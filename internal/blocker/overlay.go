package blocker

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// OverlayConfig controls the touch-blocking overlay.
type OverlayConfig struct {
	Duration      time.Duration // auto-removal delay
	Alpha         float64       // resting opacity, nearly transparent
	PulseAlpha    float64       // opacity shown on a swallowed touch
	PulseDuration time.Duration
}

// DefaultOverlayConfig returns default overlay settings.
func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		Duration:      1500 * time.Millisecond,
		Alpha:         0.01,
		PulseAlpha:    0.3,
		PulseDuration: 100 * time.Millisecond,
	}
}

// OverlaySlot owns the single overlay window. Acquire replaces any active
// overlay; Release is idempotent. Every acquisition bumps a generation
// counter and timers from older generations do nothing.
type OverlaySlot struct {
	host      domain.OverlayHost
	scheduler domain.Scheduler
	config    OverlayConfig
	logger    *zap.Logger

	mu     sync.Mutex
	gen    uint64
	active domain.OverlayWindow
	expiry domain.Timer
}

// NewOverlaySlot creates an empty slot.
func NewOverlaySlot(host domain.OverlayHost, scheduler domain.Scheduler, config OverlayConfig, logger *zap.Logger) *OverlaySlot {
	return &OverlaySlot{
		host:      host,
		scheduler: scheduler,
		config:    config,
		logger:    logger,
	}
}

// Acquire tears down the current overlay, if any, and shows a new one over
// bounds (full screen when empty). The overlay removes itself after
// config.Duration. The slot lock is never held across host calls, so a host
// may deliver touches synchronously.
func (s *OverlaySlot) Acquire(bounds domain.Rect) error {
	if s.host == nil {
		return fmt.Errorf("no overlay host: %w", domain.ErrUnsupported)
	}

	s.mu.Lock()
	old := s.detachLocked()
	gen := s.gen
	s.mu.Unlock()
	s.remove(old)

	var (
		win domain.OverlayWindow
		err error
	)
	spec := domain.OverlaySpec{
		Bounds:  bounds,
		Alpha:   s.config.Alpha,
		OnTouch: func() { s.pulse(gen) },
	}
	if perr := safely(func() error { win, err = s.host.AddOverlay(spec); return err }); perr != nil {
		return fmt.Errorf("failed to add overlay: %w", perr)
	}
	if win == nil {
		return domain.ErrOverlayRejected
	}

	s.mu.Lock()
	if gen != s.gen {
		// a newer Acquire or a Release ran while the host was busy
		s.mu.Unlock()
		s.remove(win)
		return nil
	}
	s.active = win
	s.expiry = s.scheduler.AfterFunc(s.config.Duration, func() { s.expire(gen) })
	s.mu.Unlock()

	s.logger.Debug("overlay shown",
		zap.Int("width", bounds.Width()),
		zap.Int("height", bounds.Height()),
		zap.Duration("duration", s.config.Duration))
	return nil
}

// Release removes the active overlay. Calling it with no overlay is a no-op.
func (s *OverlaySlot) Release() {
	s.mu.Lock()
	win := s.detachLocked()
	s.mu.Unlock()
	s.remove(win)
}

// Active reports whether an overlay is currently shown.
func (s *OverlaySlot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// detachLocked starts a new generation and hands back the window to remove.
func (s *OverlaySlot) detachLocked() domain.OverlayWindow {
	s.gen++
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	win := s.active
	s.active = nil
	return win
}

func (s *OverlaySlot) remove(win domain.OverlayWindow) {
	if win == nil {
		return
	}
	if err := safely(win.Remove); err != nil {
		s.logger.Debug("overlay already gone", zap.Error(err))
	}
}

func (s *OverlaySlot) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	win := s.detachLocked()
	s.mu.Unlock()
	s.remove(win)
}

// current returns the active window if gen is still the live generation.
func (s *OverlaySlot) current(gen uint64) domain.OverlayWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	return s.active
}

// pulse briefly raises the overlay opacity as feedback for a swallowed touch.
// Touches that arrive before the window is registered are ignored.
func (s *OverlaySlot) pulse(gen uint64) {
	win := s.current(gen)
	if win == nil {
		return
	}
	_ = safely(func() error { return win.SetAlpha(s.config.PulseAlpha) })
	s.scheduler.AfterFunc(s.config.PulseDuration, func() {
		if s.current(gen) != win {
			return
		}
		_ = safely(func() error { return win.SetAlpha(s.config.Alpha) })
	})
}

// safely runs fn, converting a panic into an error. Window handles may
// belong to a host that has been torn down.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered: %v", r)
		}
	}()
	return fn()
}
