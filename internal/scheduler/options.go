package scheduler

import (
	"time"

	"github.com/okian/deathboard/pkg/logger"
)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithInterval sets the time between scheduled cycles.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithWaitTimeout bounds how long a manual trigger waits for a running cycle.
// Zero leaves the wait bounded by the caller's context only.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.waitTimeout = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-flight cycle.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithOutcome sets the function mapping a cycle error to a metrics outcome label.
func WithOutcome(fn func(error) string) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.outcome = fn
		}
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
