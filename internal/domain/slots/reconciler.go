package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/pkg/logger"
	"github.com/okian/deathboard/pkg/metrics"
)

const defaultUnits = "deaths"

// EnsureReport summarizes an EnsureSlots pass.
type EnsureReport struct {
	Created    []string `json:"created"`
	Existing   []string `json:"existing"`
	Duplicates []string `json:"duplicates"`
	Failed     []string `json:"failed"`
}

// Reconciler keeps backend slots in line with the layout and latest ranking.
type Reconciler struct {
	backend Backend
	units   string
	logger  logger.Logger
}

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithUnits sets the unit word used in rank labels.
func WithUnits(units string) Option {
	return func(r *Reconciler) {
		if units != "" {
			r.units = units
		}
	}
}

// WithLogger sets a custom logger for the reconciler.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReconciler creates a reconciler over backend.
func NewReconciler(backend Backend, opts ...Option) *Reconciler {
	r := &Reconciler{
		backend: backend,
		units:   defaultUnits,
		logger:  logger.Get().Named("reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Units returns the unit word used in labels.
func (r *Reconciler) Units() string { return r.units }

// EnsureSlots creates each definition whose tag has no slot yet. Tags that
// already have one slot are left alone; tags with several are logged and left
// alone too, no duplicate is ever removed here. A failure on one tag does not
// stop the others.
func (r *Reconciler) EnsureSlots(ctx context.Context, defs []Definition) EnsureReport {
	var rep EnsureReport
	for _, def := range defs {
		n, err := r.backend.Find(ctx, def.Tag)
		metrics.RecordSlotOperation(metrics.OpFind, err)
		if err != nil {
			r.logger.Error(ctx, "looking up slot failed", logger.String("tag", def.Tag), logger.Error(err))
			rep.Failed = append(rep.Failed, def.Tag)
			continue
		}

		switch {
		case n == 0:
			err := r.backend.Create(ctx, def)
			metrics.RecordSlotOperation(metrics.OpCreate, err)
			if err != nil {
				r.logger.Error(ctx, "creating slot failed", logger.String("tag", def.Tag), logger.Error(err))
				rep.Failed = append(rep.Failed, def.Tag)
				continue
			}
			r.logger.Info(ctx, "slot created", logger.String("tag", def.Tag))
			rep.Created = append(rep.Created, def.Tag)
		case n == 1:
			r.logger.Debug(ctx, "slot already exists", logger.String("tag", def.Tag))
			rep.Existing = append(rep.Existing, def.Tag)
		default:
			r.logger.Warn(ctx, "duplicate slots found; leaving them in place",
				logger.String("tag", def.Tag),
				logger.Int("count", n),
			)
			rep.Duplicates = append(rep.Duplicates, def.Tag)
		}
	}
	metrics.UpdateSlotsPresent(len(rep.Created) + len(rep.Existing) + len(rep.Duplicates))
	return rep
}

// Apply writes the ranking into the rank slots in rank order. The title slot
// is never touched. Returns how many updates failed.
func (r *Reconciler) Apply(ctx context.Context, layout Layout, rk ranking.Ranking) int {
	failed := 0
	for i, def := range layout.Ranks {
		entry := ranking.Entry{Rank: i + 1, Empty: true}
		if i < len(rk.Entries) {
			entry = rk.Entries[i]
		}

		err := r.backend.UpdateLabel(ctx, def.Tag, entry.Label(r.units))
		metrics.RecordSlotOperation(metrics.OpUpdate, err)
		if err != nil {
			failed++
			fields := []logger.Field{logger.String("tag", def.Tag), logger.Error(err)}
			if errors.Is(err, ErrSlotNotFound) {
				r.logger.Warn(ctx, "rank slot missing; run start to create it", fields...)
				continue
			}
			r.logger.Error(ctx, "updating slot failed", fields...)
		}
	}
	return failed
}

// Clear deletes every slot carrying one of tags, duplicates included.
func (r *Reconciler) Clear(ctx context.Context, tags []string) error {
	err := r.backend.DeleteAll(ctx, tags)
	metrics.RecordSlotOperation(metrics.OpDelete, err)
	if err != nil {
		if !errors.Is(err, ErrDeleteFailed) {
			err = fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
		r.logger.Error(ctx, "deleting slots failed", logger.Error(err))
		return err
	}
	r.logger.Info(ctx, "slots deleted", logger.Any("tags", tags))
	return nil
}
