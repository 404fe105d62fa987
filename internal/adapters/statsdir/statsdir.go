// Package statsdir lists per-player stat records from a world's stats directory.
package statsdir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/pkg/logger"
)

const (
	recordExt          = ".json"
	defaultConcurrency = 8
)

// Dir is a ranking.Source over a directory of <uuid>.json files.
type Dir struct {
	path        string
	concurrency int
	logger      logger.Logger
}

// Option applies a configuration option to the Dir.
type Option func(*Dir)

// WithConcurrency bounds how many files are read at once.
func WithConcurrency(n int) Option {
	return func(d *Dir) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(d *Dir) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a source reading from path.
func New(path string, opts ...Option) *Dir {
	d := &Dir{
		path:        path,
		concurrency: defaultConcurrency,
		logger:      logger.Get().Named("statsdir"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the directory being read.
func (d *Dir) Path() string { return d.path }

// List implements ranking.Source. Records come back ordered by entity id.
// Files whose name is not a UUID are ignored; files that vanish or cannot be
// read after listing are skipped.
func (d *Dir) List(ctx context.Context) ([]ranking.Record, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ranking.ErrStoreUnavailable, err)
	}

	var (
		mu      sync.Mutex
		records = make([]ranking.Record, 0, len(entries))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), recordExt) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if err != nil {
			d.logger.Debug(ctx, "ignoring non-player stat file", logger.String("file", e.Name()))
			continue
		}

		name := e.Name()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(filepath.Join(d.path, name))
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					d.logger.Warn(gctx, "reading stat file failed", logger.String("file", name), logger.Error(err))
				}
				return nil
			}
			mu.Lock()
			records = append(records, ranking.Record{EntityID: id.String(), Raw: raw})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].EntityID < records[j].EntityID })
	return records, nil
}
