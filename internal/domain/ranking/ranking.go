// Package ranking derives a top-N view of per-player death counts from the
// stat records a game server persists.
package ranking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors reported by sources, parsers and resolvers.
var (
	// ErrStoreUnavailable means the record store could not be enumerated at all.
	ErrStoreUnavailable = errors.New("stat records unavailable")
	// ErrMalformedRecord means a single record could not be interpreted.
	ErrMalformedRecord = errors.New("malformed stat record")
	// ErrUnknownEntity means an entity id has no known display name.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Record is one per-entity stat file as listed by a Source.
type Record struct {
	EntityID string
	Raw      []byte
}

// Entry is one position of a Ranking.
type Entry struct {
	Rank        int    `json:"rank"`
	EntityID    string `json:"entity_id,omitempty"`
	DisplayName string `json:"name,omitempty"`
	Value       int64  `json:"value"`
	// Empty marks a pad entry used when fewer records than positions exist.
	Empty bool `json:"empty,omitempty"`
}

// Label renders the hologram text for the entry, blank for pad entries.
func (e Entry) Label(units string) string {
	if e.Empty {
		return ""
	}
	return fmt.Sprintf("%s (%d %s)", e.DisplayName, e.Value, units)
}

// Ranking is the ordered result of one aggregation run.
type Ranking struct {
	Entries     []Entry   `json:"entries"`
	Records     int       `json:"records"`
	Skipped     int       `json:"skipped"`
	Unresolved  int       `json:"unresolved"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Filled returns the non-pad entries.
func (r Ranking) Filled() []Entry {
	out := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if !e.Empty {
			out = append(out, e)
		}
	}
	return out
}

// Text renders the ranking as the chat-style report sent to operators.
func (r Ranking) Text(units string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d players with most %s:\n", len(r.Entries), units)
	for _, e := range r.Filled() {
		fmt.Fprintf(&b, "%d. %s - %d %s\n", e.Rank, e.DisplayName, e.Value, units)
	}
	return b.String()
}
