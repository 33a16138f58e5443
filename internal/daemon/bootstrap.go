package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// InitNotice is posted once when initialization fails after its retry.
// It carries no device or error details.
var InitNotice = domain.Notification{
	Title:   "ReelGuard is not running",
	Message: "Blocking could not start. Open ReelGuard to try again.",
	Urgency: domain.UrgencyNormal,
}

// InitWithRetry runs init, retrying once after delay. When both attempts
// fail it posts InitNotice through notifier (if any) and returns the last
// error. A canceled ctx aborts the wait.
func InitWithRetry(
	ctx context.Context,
	init func(ctx context.Context) error,
	delay time.Duration,
	notifier domain.Notifier,
	logger *zap.Logger,
) error {
	err := init(ctx)
	if err == nil {
		return nil
	}
	logger.Warn("initialization failed, retrying", zap.Duration("delay", delay), zap.Error(err))

	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	if err = init(ctx); err == nil {
		logger.Info("initialization succeeded on retry")
		return nil
	}

	logger.Error("initialization failed", zap.Error(err))
	if notifier != nil {
		if nerr := notifier.Notify(InitNotice); nerr != nil {
			logger.Warn("failed to post init notice", zap.Error(nerr))
		}
	}
	return err
}
