package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/wpmigrate"
)

// Review log file names.
const (
	UnmatchedLinksFile = "unmatched-links.jsonl"
	StrippedEmbedsFile = "stripped-embeds.jsonl"
)

// Ensure ReviewLog implements wpmigrate.ReviewLog at compile time.
var _ wpmigrate.ReviewLog = (*ReviewLog)(nil)

// ReviewLog appends findings to JSON Lines files in a directory. Files are
// created on first write and never truncated, so findings accumulate across
// resumed runs.
type ReviewLog struct {
	mu      sync.Mutex
	baseDir string
}

// NewReviewLog creates a ReviewLog writing to baseDir.
func NewReviewLog(baseDir string) *ReviewLog {
	return &ReviewLog{baseDir: baseDir}
}

// Locations returns the paths of the unmatched-link and stripped-embed logs.
func (l *ReviewLog) Locations() (unmatched, embeds string) {
	return filepath.Join(l.baseDir, UnmatchedLinksFile), filepath.Join(l.baseDir, StrippedEmbedsFile)
}

// LogUnmatchedLinks appends one line per link.
func (l *ReviewLog) LogUnmatchedLinks(ctx context.Context, links []wpmigrate.UnmatchedLink) error {
	unmatched, _ := l.Locations()
	return appendLines(&l.mu, unmatched, links)
}

// LogStrippedEmbeds appends one line per embed.
func (l *ReviewLog) LogStrippedEmbeds(ctx context.Context, embeds []wpmigrate.StrippedEmbed) error {
	_, path := l.Locations()
	return appendLines(&l.mu, path, embeds)
}

func appendLines[T any](mu *sync.Mutex, path string, items []T) error {
	if len(items) == 0 {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
