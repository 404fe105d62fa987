package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/deathboard/pkg/logger"
	"github.com/okian/deathboard/pkg/metrics"
)

// Default aggregation configuration constants.
const (
	defaultTopN         = 3
	defaultFallbackName = "Unknown"
	defaultConcurrency  = 8
)

// Source lists the available stat records. A failure to enumerate must wrap
// ErrStoreUnavailable.
type Source interface {
	List(ctx context.Context) ([]Record, error)
}

// Flusher asks the host to persist pending player data before records are read.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Resolver maps an entity id to a display name. Unknown ids wrap ErrUnknownEntity.
type Resolver interface {
	Resolve(ctx context.Context, entityID string) (string, error)
}

// Aggregator turns a record set into a Ranking.
type Aggregator struct {
	source   Source
	resolver Resolver
	flusher  Flusher
	parse    ParseFunc

	topN        int
	fallback    string
	concurrency int

	now    func() time.Time
	logger logger.Logger
}

// NewAggregator creates an aggregator reading from source and naming players via resolver.
func NewAggregator(source Source, resolver Resolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:      source,
		resolver:    resolver,
		parse:       ParseDeaths,
		topN:        defaultTopN,
		fallback:    defaultFallbackName,
		concurrency: defaultConcurrency,
		now:         time.Now,
		logger:      logger.Get().Named("aggregator"),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// TopN returns the number of positions produced per ranking.
func (a *Aggregator) TopN() int { return a.topN }

// scored is the per-record outcome of the parallel read phase.
type scored struct {
	entry      Entry
	ok         bool
	unresolved bool
}

// Aggregate reads every record and returns exactly TopN entries, padded with
// Empty entries when fewer records exist. Per-record failures are logged and
// absorbed. The only errors returned wrap ErrStoreUnavailable or the context's
// error.
func (a *Aggregator) Aggregate(ctx context.Context) (Ranking, error) {
	if a.flusher != nil {
		if err := a.flusher.Flush(ctx); err != nil {
			a.logger.Warn(ctx, "flushing player data failed; reading stats as persisted", logger.Error(err))
		}
	}

	records, err := a.source.List(ctx)
	if err != nil {
		metrics.RecordSourceUnavailable()
		if !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return Ranking{}, err
	}
	metrics.RecordRecordsRead(len(records))

	results := make([]scored, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.score(gctx, records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Ranking{}, fmt.Errorf("aggregate: %w", err)
	}

	r := Ranking{Records: len(records), GeneratedAt: a.now()}
	entries := make([]Entry, 0, len(results))
	for _, s := range results {
		if !s.ok {
			r.Skipped++
			continue
		}
		if s.unresolved {
			r.Unresolved++
		}
		entries = append(entries, s.entry)
	}

	// Highest value first; ties by entity id so repeated runs agree.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].EntityID < entries[j].EntityID
	})

	if len(entries) > a.topN {
		entries = entries[:a.topN]
	}
	for len(entries) < a.topN {
		entries = append(entries, Entry{Empty: true})
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	r.Entries = entries

	metrics.UpdateRankingEntries(len(r.Filled()))
	return r, nil
}

func (a *Aggregator) score(ctx context.Context, rec Record) scored {
	value, err := a.parse(rec.Raw)
	if err != nil {
		metrics.RecordRecordSkipped()
		a.logger.Warn(ctx, "skipping stat record",
			logger.String("entity", rec.EntityID),
			logger.Error(err),
		)
		return scored{}
	}

	name, err := a.resolver.Resolve(ctx, rec.EntityID)
	unresolved := err != nil || name == ""
	if unresolved {
		metrics.RecordNameUnresolved()
		a.logger.Debug(ctx, "using fallback name",
			logger.String("entity", rec.EntityID),
			logger.Any("error", err),
		)
		name = a.fallback
	}

	return scored{
		entry:      Entry{EntityID: rec.EntityID, DisplayName: name, Value: value},
		ok:         true,
		unresolved: unresolved,
	}
}
