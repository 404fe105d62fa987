// Package display provides hologram backends for the slot reconciler.
package display

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/deathboard/internal/domain/slots"
)

// Hologram is one slot held by the in-memory backend.
type Hologram struct {
	ID    int
	Tag   string
	Label string
	Style slots.Style
}

// Memory is an in-process Backend. It keeps every hologram it is asked to
// create, so duplicates can exist exactly as they could on a live server.
type Memory struct {
	mu     sync.RWMutex
	byTag  map[string][]*Hologram
	nextID int
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{byTag: make(map[string][]*Hologram)}
}

// Find implements slots.Backend.
func (m *Memory) Find(ctx context.Context, tag string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", slots.ErrFindFailed, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byTag[tag]), nil
}

// Create implements slots.Backend.
func (m *Memory) Create(ctx context.Context, def slots.Definition) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", slots.ErrCreateFailed, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(def)
	return nil
}

// UpdateLabel implements slots.Backend. Like the server's limit=1 selector it
// only touches the oldest hologram carrying tag.
func (m *Memory) UpdateLabel(ctx context.Context, tag, label string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", slots.ErrUpdateFailed, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	hs := m.byTag[tag]
	if len(hs) == 0 {
		return fmt.Errorf("%w: %w: %s", slots.ErrUpdateFailed, slots.ErrSlotNotFound, tag)
	}
	hs[0].Label = label
	return nil
}

// DeleteAll implements slots.Backend.
func (m *Memory) DeleteAll(ctx context.Context, tags []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", slots.ErrDeleteFailed, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		delete(m.byTag, tag)
	}
	return nil
}

// Seed adds a hologram without checking for an existing one. It models slots
// left behind by earlier runs or created by hand.
func (m *Memory) Seed(def slots.Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(def)
}

// Holograms returns a copy of every hologram carrying tag, oldest first.
func (m *Memory) Holograms(tag string) []Hologram {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Hologram, 0, len(m.byTag[tag]))
	for _, h := range m.byTag[tag] {
		out = append(out, *h)
	}
	return out
}

// Label returns the label of the oldest hologram carrying tag.
func (m *Memory) Label(tag string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hs := m.byTag[tag]
	if len(hs) == 0 {
		return "", false
	}
	return hs[0].Label, true
}

// Total returns the number of holograms across all tags.
func (m *Memory) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, hs := range m.byTag {
		n += len(hs)
	}
	return n
}

// Tags returns the tags that currently have at least one hologram, sorted.
func (m *Memory) Tags() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tags := make([]string, 0, len(m.byTag))
	for tag := range m.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// add must be called with m.mu held.
func (m *Memory) add(def slots.Definition) {
	m.nextID++
	m.byTag[def.Tag] = append(m.byTag[def.Tag], &Hologram{
		ID:    m.nextID,
		Tag:   def.Tag,
		Label: def.Label,
		Style: def.Style,
	})
}
