package wpmigrate

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Checkpoint is the set of source records already committed in a run.
// It only grows.
type Checkpoint struct {
	mu  sync.RWMutex
	ids map[string]time.Time
}

// NewCheckpoint returns a checkpoint holding ids.
func NewCheckpoint(ids ...string) *Checkpoint {
	c := &Checkpoint{ids: make(map[string]time.Time, len(ids))}
	for _, id := range ids {
		c.ids[id] = time.Time{}
	}
	return c
}

// Done reports whether the record has been committed.
func (c *Checkpoint) Done(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[id]
	return ok
}

// Mark records a committed record.
func (c *Checkpoint) Mark(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[id]; !ok {
		c.ids[id] = time.Now().UTC()
	}
}

// Len returns the number of committed records.
func (c *Checkpoint) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// IDs returns the committed record ids in sorted order.
func (c *Checkpoint) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.ids))
	for id := range c.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StateStore persists run state between invocations.
type StateStore interface {
	// LoadAssetMap returns the persisted asset map, empty if none exists.
	LoadAssetMap(ctx context.Context) (*AssetMap, error)

	// SaveAssetMap persists every entry of m.
	SaveAssetMap(ctx context.Context, m *AssetMap) error

	// LoadCheckpoint returns the persisted checkpoint for a run, empty if none exists.
	LoadCheckpoint(ctx context.Context, run string) (*Checkpoint, error)

	// SaveCheckpoint persists every id in c for a run.
	SaveCheckpoint(ctx context.Context, run string, c *Checkpoint) error
}

// ReviewLog records data-quality findings for manual follow-up.
type ReviewLog interface {
	LogUnmatchedLinks(ctx context.Context, links []UnmatchedLink) error
	LogStrippedEmbeds(ctx context.Context, embeds []StrippedEmbed) error

	// Locations returns where unmatched links and stripped embeds are written.
	Locations() (unmatched, embeds string)
}

// Limiter spaces out remote writes.
type Limiter interface {
	// Wait blocks until the next write may proceed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context) error
}
