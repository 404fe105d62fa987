package service

import (
	"time"

	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTopN sets how many ranking positions are shown.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithFallbackName sets the label used for players without a known name.
func WithFallbackName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.fallbackName = name
		}
	}
}

// WithUnits sets the unit word shown after each count.
func WithUnits(units string) Option {
	return func(s *Service) {
		if units != "" {
			s.units = units
		}
	}
}

// WithTitle sets the title hologram text.
func WithTitle(title string) Option {
	return func(s *Service) {
		if title != "" {
			s.title = title
		}
	}
}

// WithTagPrefix sets the prefix of every hologram tag.
func WithTagPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.tagPrefix = prefix
		}
	}
}

// WithInterval sets the time between scheduled refreshes.
func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithManualWaitTimeout bounds how long a command waits for a running refresh.
func WithManualWaitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.manualWaitTimeout = d
		}
	}
}

// WithReadConcurrency bounds how many stat records are parsed at once.
func WithReadConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.readConcurrency = n
		}
	}
}

// WithFlusher makes every refresh ask the host to save player data first.
func WithFlusher(f ranking.Flusher) Option {
	return func(s *Service) {
		s.flusher = f
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
