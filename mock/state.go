package mock

import (
	"context"

	"github.com/fwojciec/wpmigrate"
)

var _ wpmigrate.StateStore = (*StateStore)(nil)

// StateStore is a mock implementation of wpmigrate.StateStore.
type StateStore struct {
	LoadAssetMapFn   func(ctx context.Context) (*wpmigrate.AssetMap, error)
	SaveAssetMapFn   func(ctx context.Context, m *wpmigrate.AssetMap) error
	LoadCheckpointFn func(ctx context.Context, run string) (*wpmigrate.Checkpoint, error)
	SaveCheckpointFn func(ctx context.Context, run string, c *wpmigrate.Checkpoint) error
}

func (s *StateStore) LoadAssetMap(ctx context.Context) (*wpmigrate.AssetMap, error) {
	return s.LoadAssetMapFn(ctx)
}

func (s *StateStore) SaveAssetMap(ctx context.Context, m *wpmigrate.AssetMap) error {
	return s.SaveAssetMapFn(ctx, m)
}

func (s *StateStore) LoadCheckpoint(ctx context.Context, run string) (*wpmigrate.Checkpoint, error) {
	return s.LoadCheckpointFn(ctx, run)
}

func (s *StateStore) SaveCheckpoint(ctx context.Context, run string, c *wpmigrate.Checkpoint) error {
	return s.SaveCheckpointFn(ctx, run, c)
}

var _ wpmigrate.ReviewLog = (*ReviewLog)(nil)

// ReviewLog is a mock implementation of wpmigrate.ReviewLog.
type ReviewLog struct {
	LogUnmatchedLinksFn func(ctx context.Context, links []wpmigrate.UnmatchedLink) error
	LogStrippedEmbedsFn func(ctx context.Context, embeds []wpmigrate.StrippedEmbed) error
	LocationsFn         func() (unmatched, embeds string)
}

func (l *ReviewLog) LogUnmatchedLinks(ctx context.Context, links []wpmigrate.UnmatchedLink) error {
	return l.LogUnmatchedLinksFn(ctx, links)
}

func (l *ReviewLog) LogStrippedEmbeds(ctx context.Context, embeds []wpmigrate.StrippedEmbed) error {
	return l.LogStrippedEmbedsFn(ctx, embeds)
}

func (l *ReviewLog) Locations() (unmatched, embeds string) {
	return l.LocationsFn()
}

var _ wpmigrate.Limiter = (*Limiter)(nil)

// Limiter is a mock implementation of wpmigrate.Limiter.
type Limiter struct {
	WaitFn func(ctx context.Context) error
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}
