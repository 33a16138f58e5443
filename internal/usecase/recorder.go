package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// EventRecorder appends block events to an EventLog on a background
// goroutine so the event path never waits on storage.
type EventRecorder struct {
	log     domain.EventLog
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	events chan domain.BlockedContentEvent
	done   chan struct{}
}

// NewEventRecorder starts a recorder with the given queue size.
func NewEventRecorder(log domain.EventLog, buffer int, logger *zap.Logger) *EventRecorder {
	if buffer <= 0 {
		buffer = 64
	}
	r := &EventRecorder{
		log:     log,
		timeout: 5 * time.Second,
		logger:  logger,
		events:  make(chan domain.BlockedContentEvent, buffer),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

// Record queues ev without blocking. It returns false when the queue is full
// or the recorder is closed; the event is then dropped.
func (r *EventRecorder) Record(ev domain.BlockedContentEvent) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.events <- ev:
		return true
	default:
		r.logger.Warn("event log queue full, dropping event",
			zap.String("package", ev.AppPackage),
			zap.String("content_type", ev.ContentType))
		return false
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (r *EventRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return nil
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()

	<-r.done
	return nil
}

func (r *EventRecorder) loop() {
	defer close(r.done)
	for ev := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.log.Append(ctx, ev); err != nil {
			r.logger.Warn("failed to append block event",
				zap.String("id", ev.ID),
				zap.String("package", ev.AppPackage),
				zap.Error(err))
		}
		cancel()
	}
}
