package blocker

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Gesture names, as dispatched to the platform.
const (
	GestureCounter = "counter_scroll"
	GestureBackup  = "counter_scroll_backup"
	GestureRapid   = "rapid_counter"
	GestureCurved  = "curved_counter"
)

// GestureConfig shapes synthetic counter-gestures.
type GestureConfig struct {
	Duration       time.Duration // single counter-scroll
	BackupDuration time.Duration // faster retry after cancellation
	SwipeFraction  float64       // share of the container swept by a gesture

	BurstCount    int
	BurstInterval time.Duration // offset between burst gestures
	BurstDuration time.Duration

	CurvePoints   int
	CurveDuration time.Duration
	CurveBend     float64 // control point offset as a share of the cross axis
}

// DefaultGestureConfig returns default gesture timings.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		Duration:       300 * time.Millisecond,
		BackupDuration: 120 * time.Millisecond,
		SwipeFraction:  0.5,
		BurstCount:     3,
		BurstInterval:  60 * time.Millisecond,
		BurstDuration:  80 * time.Millisecond,
		CurvePoints:    12,
		CurveDuration:  250 * time.Millisecond,
		CurveBend:      0.2,
	}
}

// counterLine returns a drag opposite to the content's scroll direction:
// downward for vertical feeds (back to the previous item) and rightward for
// horizontal trays.
func counterLine(area domain.Rect, dir domain.ScrollDirection, fraction float64) (from, to domain.Point) {
	c := area.Center()
	if dir == domain.ScrollHorizontal {
		half := float64(area.Width()) * fraction / 2
		return domain.Point{X: c.X - half, Y: c.Y}, domain.Point{X: c.X + half, Y: c.Y}
	}
	half := float64(area.Height()) * fraction / 2
	return domain.Point{X: c.X, Y: c.Y - half}, domain.Point{X: c.X, Y: c.Y + half}
}

func line(name string, from, to domain.Point, start, d time.Duration) domain.Gesture {
	return domain.Gesture{
		Name: name,
		Strokes: []domain.Stroke{{
			Path:     []domain.Point{from, to},
			Start:    start,
			Duration: d,
		}},
	}
}

// curve samples a quadratic Bezier from "from" to "to", bent sideways by bend
// times the cross-axis extent of area.
func curve(area domain.Rect, from, to domain.Point, bend float64, points int) []domain.Point {
	if points < 2 {
		points = 2
	}
	ctrl := domain.Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}
	if from.X == to.X {
		ctrl.X += float64(area.Width()) * bend
	} else {
		ctrl.Y += float64(area.Height()) * bend
	}

	path := make([]domain.Point, 0, points)
	for i := 0; i < points; i++ {
		t := float64(i) / float64(points-1)
		u := 1 - t
		path = append(path, domain.Point{
			X: u*u*from.X + 2*u*t*ctrl.X + t*t*to.X,
			Y: u*u*from.Y + 2*u*t*ctrl.Y + t*t*to.Y,
		})
	}
	return path
}

// counterScroll dispatches one counter-gesture. When the platform cancels it
// (the user's finger is still down, typically) a shorter backup gesture is
// sent from the callback. A synchronous rejection tries the backup at once.
func (e *Engine) counterScroll(area domain.Rect, dir domain.ScrollDirection) error {
	from, to := counterLine(area, dir, e.config.Gesture.SwipeFraction)
	backup := line(GestureBackup, from, to, 0, e.config.Gesture.BackupDuration)

	cb := domain.GestureCallback{
		OnCancelled: func() {
			e.logger.Debug("counter-scroll cancelled, sending backup")
			if err := e.platform.DispatchGesture(backup, domain.GestureCallback{}); err != nil {
				e.logger.Debug("backup gesture rejected", zap.Error(err))
			}
		},
	}
	err := e.platform.DispatchGesture(line(GestureCounter, from, to, 0, e.config.Gesture.Duration), cb)
	if err == nil {
		return nil
	}
	if berr := e.platform.DispatchGesture(backup, domain.GestureCallback{}); berr != nil {
		return fmt.Errorf("counter-scroll rejected: %w", berr)
	}
	return nil
}

// rapidBurst fires BurstCount short counter-gestures at fixed offsets. Only
// the first dispatch decides success; the rest are fire-and-forget.
func (e *Engine) rapidBurst(area domain.Rect, dir domain.ScrollDirection) error {
	cfg := e.config.Gesture
	from, to := counterLine(area, dir, cfg.SwipeFraction)
	gesture := line(GestureRapid, from, to, 0, cfg.BurstDuration)

	if err := e.platform.DispatchGesture(gesture, domain.GestureCallback{}); err != nil {
		return fmt.Errorf("rapid burst rejected: %w", err)
	}
	for i := 1; i < cfg.BurstCount; i++ {
		e.scheduler.AfterFunc(time.Duration(i)*cfg.BurstInterval, func() {
			if err := e.platform.DispatchGesture(gesture, domain.GestureCallback{}); err != nil {
				e.logger.Debug("burst gesture rejected", zap.Error(err))
			}
		})
	}
	return nil
}

// curvedScroll dispatches a multi-point counter-gesture, which some feeds
// do not treat as a fling to be resisted.
func (e *Engine) curvedScroll(area domain.Rect, dir domain.ScrollDirection) error {
	cfg := e.config.Gesture
	from, to := counterLine(area, dir, cfg.SwipeFraction)
	g := domain.Gesture{
		Name: GestureCurved,
		Strokes: []domain.Stroke{{
			Path:     curve(area, from, to, cfg.CurveBend, cfg.CurvePoints),
			Duration: cfg.CurveDuration,
		}},
	}
	if err := e.platform.DispatchGesture(g, domain.GestureCallback{}); err != nil {
		return fmt.Errorf("curved scroll rejected: %w", err)
	}
	return nil
}
