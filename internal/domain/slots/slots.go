// Package slots reconciles the fixed set of ranking holograms with a display
// backend: create each tag at most once, push ranking labels, clear on demand.
package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/deathboard/internal/domain/orientation"
)

// Backend errors. Implementations wrap one of these.
var (
	ErrCreateFailed = errors.New("slot create failed")
	ErrUpdateFailed = errors.New("slot update failed")
	ErrDeleteFailed = errors.New("slot delete failed")
	ErrFindFailed   = errors.New("slot lookup failed")
	// ErrSlotNotFound is an update failure caused by a missing slot.
	ErrSlotNotFound = errors.New("slot not found")
)

// Position is a world coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Style holds presentation fixed at creation time.
type Style struct {
	Color    string               `json:"color"`
	Bold     bool                 `json:"bold"`
	OffsetY  float64              `json:"offset_y"`
	Rotation orientation.Rotation `json:"rotation"`
	// Anchor is the position the hologram is placed relative to.
	Anchor Position `json:"anchor"`
}

// Definition describes one slot.
type Definition struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
	Style Style  `json:"style"`
}

// Backend is the display host. Each call is applied independently.
type Backend interface {
	// Find returns how many slots carry tag.
	Find(ctx context.Context, tag string) (int, error)
	// Create adds one slot for def.
	Create(ctx context.Context, def Definition) error
	// UpdateLabel replaces the label of the slot tagged tag.
	UpdateLabel(ctx context.Context, tag, label string) error
	// DeleteAll removes every slot carrying any of tags. Nothing to delete is not an error.
	DeleteAll(ctx context.Context, tags []string) error
}

// Layout is the title slot followed by one slot per rank position.
type Layout struct {
	Title Definition
	Ranks []Definition
}

// Default layout presentation.
const (
	TitleColor   = "gold"
	RankColor    = "white"
	titleOffsetY = 2.0
	firstOffsetY = 1.5
	offsetStep   = 0.3
)

// LayoutOptions parameterize NewLayout.
type LayoutOptions struct {
	TagPrefix   string
	Title       string
	Positions   int
	Anchor      Position
	Orientation orientation.Orientation
}

// NewLayout builds the slot definitions for a hologram stack. Tags are stable
// for a given prefix and position count regardless of anchor or orientation.
func NewLayout(o LayoutOptions) Layout {
	rot := o.Orientation.Rotation()
	l := Layout{
		Title: Definition{
			Tag:   o.TagPrefix + "_title",
			Label: o.Title,
			Style: Style{Color: TitleColor, Bold: true, OffsetY: titleOffsetY, Rotation: rot, Anchor: o.Anchor},
		},
		Ranks: make([]Definition, o.Positions),
	}
	for i := range l.Ranks {
		l.Ranks[i] = Definition{
			Tag:   RankTag(o.TagPrefix, i+1),
			Label: fmt.Sprintf("Player %d", i+1),
			Style: Style{
				Color:    RankColor,
				OffsetY:  firstOffsetY - offsetStep*float64(i),
				Rotation: rot,
				Anchor:   o.Anchor,
			},
		}
	}
	return l
}

// RankTag returns the tag of rank position pos (1-based).
func RankTag(prefix string, pos int) string {
	return fmt.Sprintf("%s_position%d", prefix, pos)
}

// Definitions returns the title and rank definitions in display order.
func (l Layout) Definitions() []Definition {
	out := make([]Definition, 0, len(l.Ranks)+1)
	out = append(out, l.Title)
	return append(out, l.Ranks...)
}

// Tags returns every tag of the layout.
func (l Layout) Tags() []string {
	defs := l.Definitions()
	tags := make([]string, len(defs))
	for i, d := range defs {
		tags[i] = d.Tag
	}
	return tags
}
