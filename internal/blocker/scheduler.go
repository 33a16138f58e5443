package blocker

import (
	"time"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

type wallScheduler struct{}

// WallScheduler returns a domain.Scheduler backed by time.AfterFunc.
func WallScheduler() domain.Scheduler {
	return wallScheduler{}
}

func (wallScheduler) AfterFunc(d time.Duration, f func()) domain.Timer {
	return time.AfterFunc(d, f)
}
