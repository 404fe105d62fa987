// Package usercache resolves player ids to names from a server's usercache.json.
package usercache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/pkg/logger"
)

// Cache is a ranking.Resolver backed by usercache.json. The file is re-read
// whenever its modification time or size changes.
type Cache struct {
	path   string
	logger logger.Logger

	mu      sync.RWMutex
	names   map[string]string
	modTime time.Time
	size    int64
	loaded  bool
}

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a resolver reading path.
func New(path string, opts ...Option) *Cache {
	c := &Cache{
		path:   path,
		names:  map[string]string{},
		logger: logger.Get().Named("usercache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve implements ranking.Resolver.
func (c *Cache) Resolve(ctx context.Context, entityID string) (string, error) {
	if err := c.refresh(ctx); err != nil {
		c.logger.Debug(ctx, "usercache not refreshed", logger.Error(err))
	}

	c.mu.RLock()
	name, ok := c.names[strings.ToLower(entityID)]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ranking.ErrUnknownEntity, entityID)
	}
	return name, nil
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// refresh reloads the file when it changed since the last successful load.
// On failure the previous names stay in use.
func (c *Cache) refresh(ctx context.Context) error {
	info, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("stat usercache: %w", err)
	}

	c.mu.RLock()
	fresh := c.loaded && info.ModTime().Equal(c.modTime) && info.Size() == c.size
	c.mu.RUnlock()
	if fresh {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read usercache: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("parse usercache: invalid JSON in %s", c.path)
	}

	names := make(map[string]string)
	gjson.ParseBytes(data).ForEach(func(_, entry gjson.Result) bool {
		id := entry.Get("uuid").String()
		name := entry.Get("name").String()
		if id != "" && name != "" {
			names[strings.ToLower(id)] = name
		}
		return true
	})

	c.mu.Lock()
	c.names = names
	c.modTime = info.ModTime()
	c.size = info.Size()
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debug(ctx, "usercache loaded", logger.Int("names", len(names)))
	return nil
}
