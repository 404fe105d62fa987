// Package service wires stat aggregation, hologram slots and the refresh
// scheduler into the operations exposed by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/okian/deathboard/internal/domain/notify"
	"github.com/okian/deathboard/internal/domain/orientation"
	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/internal/domain/slots"
	"github.com/okian/deathboard/internal/scheduler"
	"github.com/okian/deathboard/pkg/logger"
	"github.com/okian/deathboard/pkg/metrics"
)

// Operator-facing messages.
const (
	msgInitialized = "Holograms initialized facing %s."
	msgDeleted     = "All holograms were deleted."
	msgUnavailable = "statistics directory unavailable"
	msgBusy        = "a refresh is already running"
	msgStopping    = "the service is shutting down"
	msgDeleteFail  = "holograms could not be deleted"
	msgCreateFail  = "some holograms could not be created: %s"
	msgDuplicates  = "duplicate holograms found for %s; run delete then start to rebuild them"
	msgFailed      = "refresh failed; see the server log"
)

// Invoker is whoever issued the start command: where they stand and where
// they look.
type Invoker struct {
	Position slots.Position `json:"position"`
	Yaw      float64        `json:"yaw"`
	Pitch    float64        `json:"pitch"`
}

// Service owns the refresh cycle and the manual hologram commands.
type Service struct {
	mu sync.RWMutex

	// Core components
	source     ranking.Source
	resolver   ranking.Resolver
	backend    slots.Backend
	flusher    ranking.Flusher
	aggregator *ranking.Aggregator
	reconciler *slots.Reconciler
	scheduler  *scheduler.Scheduler

	// Configuration
	topN              int
	fallbackName      string
	units             string
	title             string
	tagPrefix         string
	interval          time.Duration
	manualWaitTimeout time.Duration
	readConcurrency   int

	// State
	layout  slots.Layout
	last    ranking.Ranking
	started bool
	stopped bool

	// Logging
	logger logger.Logger
}

// New constructs a Service reading stats from source, naming players via
// resolver and drawing holograms through backend.
func New(source ranking.Source, resolver ranking.Resolver, backend slots.Backend, opts ...Option) *Service {
	s := &Service{
		source:            source,
		resolver:          resolver,
		backend:           backend,
		topN:              3,
		fallbackName:      "Unknown",
		units:             "deaths",
		title:             "Top deaths",
		tagPrefix:         "deaths",
		interval:          time.Minute,
		manualWaitTimeout: 30 * time.Second,
		readConcurrency:   8,
		logger:            logger.Get().Named("service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	aggOpts := []ranking.Option{
		ranking.WithTopN(s.topN),
		ranking.WithFallbackName(s.fallbackName),
		ranking.WithConcurrency(s.readConcurrency),
	}
	if s.flusher != nil {
		aggOpts = append(aggOpts, ranking.WithFlusher(s.flusher))
	}
	s.aggregator = ranking.NewAggregator(s.source, s.resolver, aggOpts...)
	s.reconciler = slots.NewReconciler(s.backend, slots.WithUnits(s.units))
	s.scheduler = scheduler.New(s.cycle,
		scheduler.WithInterval(s.interval),
		scheduler.WithWaitTimeout(s.manualWaitTimeout),
		scheduler.WithOutcome(outcome),
	)
	s.layout = s.newLayout(slots.Position{}, orientation.South)

	return s
}

// Start begins scheduled refreshes. The first refresh runs immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return scheduler.ErrStopped
	}
	if s.started {
		return nil
	}

	s.scheduler.Start(ctx)
	s.started = true
	s.logger.Info(ctx, "deathboard service started",
		logger.String("interval", s.interval.String()),
		logger.Int("topN", s.topN),
		logger.String("tagPrefix", s.tagPrefix),
	)
	return nil
}

// Stop halts scheduled refreshes, waits for an in-flight one and closes the
// backend if it holds a connection.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.stopped = true
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping deathboard service...")

	// The in-flight cycle takes s.mu, so the lock must not be held here.
	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn(ctx, "scheduler did not stop cleanly", logger.Error(err))
	}
	if closer, ok := s.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing backend failed", logger.Error(err))
		}
	}

	s.logger.Info(ctx, "deathboard service stopped")
}

// Initialize is the start command: it builds the hologram stack at the
// invoker's position facing them, creates missing slots and refreshes once.
func (s *Service) Initialize(ctx context.Context, inv Invoker, n notify.Notifier) (slots.EnsureReport, error) {
	facing := orientation.FromLook(inv.Yaw, inv.Pitch)
	layout := s.newLayout(inv.Position, facing)

	var rep slots.EnsureReport
	err := s.scheduler.Trigger(ctx, func(ctx context.Context) error {
		s.setLayout(layout)
		rep = s.reconciler.EnsureSlots(ctx, layout.Definitions())
		return s.cycle(ctx)
	})

	if len(rep.Failed) > 0 {
		n.Error(ctx, fmt.Sprintf(msgCreateFail, strings.Join(rep.Failed, ", ")))
	}
	if len(rep.Duplicates) > 0 {
		n.Feedback(ctx, fmt.Sprintf(msgDuplicates, strings.Join(rep.Duplicates, ", ")))
	}
	if err != nil {
		n.Error(ctx, describe(err))
		return rep, err
	}

	s.logger.Info(ctx, "holograms initialized",
		logger.String("facing", facing.String()),
		logger.Int("created", len(rep.Created)),
	)
	n.Feedback(ctx, fmt.Sprintf(msgInitialized, facing))
	return rep, nil
}

// Delete is the delete command: it removes every hologram carrying one of the
// stack's tags, duplicates included.
func (s *Service) Delete(ctx context.Context, n notify.Notifier) error {
	tags := s.currentLayout().Tags()
	err := s.scheduler.Trigger(ctx, func(ctx context.Context) error {
		return s.reconciler.Clear(ctx, tags)
	})
	if err != nil {
		n.Error(ctx, describe(err))
		return err
	}
	n.Feedback(ctx, msgDeleted)
	return nil
}

// Report runs one full refresh, slot updates included, and sends the ranking
// to the notifier.
func (s *Service) Report(ctx context.Context, n notify.Notifier) (ranking.Ranking, error) {
	var rk ranking.Ranking
	err := s.scheduler.Trigger(ctx, func(ctx context.Context) error {
		if err := s.cycle(ctx); err != nil {
			return err
		}
		rk = s.Last()
		return nil
	})
	if err != nil {
		n.Error(ctx, describe(err))
		return ranking.Ranking{}, err
	}

	for _, line := range strings.Split(strings.TrimRight(rk.Text(s.units), "\n"), "\n") {
		n.Feedback(ctx, line)
	}
	return rk, nil
}

// Last returns the most recent successful ranking.
func (s *Service) Last() ranking.Ranking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Units returns the unit word used in labels and reports.
func (s *Service) Units() string { return s.units }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"interval":  s.interval.String(),
		"topN":      s.topN,
		"tagPrefix": s.tagPrefix,
		"tags":      s.layout.Tags(),
		"scheduler": s.scheduler.Stats(),
	}
	if !s.last.GeneratedAt.IsZero() {
		stats["lastRanking"] = s.last.Entries
		stats["generatedAt"] = s.last.GeneratedAt
		stats["recordsRead"] = s.last.Records
		stats["recordsSkipped"] = s.last.Skipped
	}
	return stats
}

// cycle aggregates a fresh ranking and pushes it into the rank slots.
func (s *Service) cycle(ctx context.Context) error {
	rk, err := s.aggregator.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	s.mu.Lock()
	s.last = rk
	s.mu.Unlock()

	// Missing slots are expected until start has run; the reconciler logs them.
	if failed := s.reconciler.Apply(ctx, s.currentLayout(), rk); failed > 0 {
		s.logger.Debug(ctx, "ranking applied with failures", logger.Int("failed", failed))
	}
	return nil
}

func (s *Service) newLayout(anchor slots.Position, facing orientation.Orientation) slots.Layout {
	return slots.NewLayout(slots.LayoutOptions{
		TagPrefix:   s.tagPrefix,
		Title:       s.title,
		Positions:   s.topN,
		Anchor:      anchor,
		Orientation: facing,
	})
}

func (s *Service) currentLayout() slots.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

func (s *Service) setLayout(l slots.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = l
}

// describe turns an internal error into a short operator message.
func describe(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrBusy):
		return msgBusy
	case errors.Is(err, scheduler.ErrStopped):
		return msgStopping
	case errors.Is(err, ranking.ErrStoreUnavailable):
		return msgUnavailable
	case errors.Is(err, slots.ErrDeleteFailed):
		return msgDeleteFail
	default:
		return msgFailed
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ranking.ErrStoreUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeFailed
	}
}
