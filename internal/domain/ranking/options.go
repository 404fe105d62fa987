package ranking

import (
	"time"

	"github.com/okian/deathboard/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithTopN sets the number of ranked positions.
func WithTopN(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithFallbackName sets the label used for unresolvable players.
func WithFallbackName(name string) Option {
	return func(a *Aggregator) {
		if name != "" {
			a.fallback = name
		}
	}
}

// WithConcurrency bounds how many records are parsed at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithFlusher asks f to persist player data before every run.
func WithFlusher(f Flusher) Option {
	return func(a *Aggregator) {
		a.flusher = f
	}
}

// WithParser replaces the metric extractor.
func WithParser(p ParseFunc) Option {
	return func(a *Aggregator) {
		if p != nil {
			a.parse = p
		}
	}
}

// WithClock sets the clock used to stamp rankings.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets a custom logger for the aggregator.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}
