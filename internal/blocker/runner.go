package blocker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Attempt is one step of a fallback chain. A nil error means the step
// reported success and the chain stops.
type Attempt struct {
	Name string
	Run  func() error
}

// Runner executes fallback chains.
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a runner.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run tries attempts in order and stops at the first success. Panics inside
// an attempt are recovered and count as failure. If nothing succeeds the
// outcome is Exhausted.
func (r *Runner) Run(strategy domain.Strategy, attempts ...Attempt) domain.BlockOutcome {
	out := domain.BlockOutcome{
		Strategy: strategy,
		State:    domain.StateExecuting,
	}

	for _, a := range attempts {
		out.Tried = append(out.Tried, a.Name)
		err := r.try(a)
		if err == nil {
			out.State = domain.StateSucceeded
			out.Succeeded = true
			out.Winner = a.Name
			r.logger.Debug("block attempt succeeded",
				zap.String("strategy", string(strategy)),
				zap.String("attempt", a.Name))
			return out
		}
		r.logger.Debug("block attempt failed",
			zap.String("strategy", string(strategy)),
			zap.String("attempt", a.Name),
			zap.Error(err))
	}

	out.State = domain.StateExhausted
	r.logger.Warn("blocking chain exhausted",
		zap.String("strategy", string(strategy)),
		zap.Strings("tried", out.Tried))
	return out
}

func (r *Runner) try(a Attempt) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("attempt %s panicked: %v", a.Name, rec)
		}
	}()
	return a.Run()
}
