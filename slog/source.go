package slog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/wpmigrate"
)

// Ensure the decorators implement their interfaces.
var (
	_ wpmigrate.SourceService = (*LoggingSourceService)(nil)
	_ wpmigrate.MediaService  = (*LoggingMediaService)(nil)
)

// LoggingSourceService wraps a SourceService with logging.
type LoggingSourceService struct {
	next   wpmigrate.SourceService
	logger *slog.Logger
}

// NewLoggingSourceService creates a new LoggingSourceService.
func NewLoggingSourceService(next wpmigrate.SourceService, logger *slog.Logger) *LoggingSourceService {
	return &LoggingSourceService{next: next, logger: logger}
}

// ListRecords delegates to the wrapped service and logs the page fetched.
func (s *LoggingSourceService) ListRecords(ctx context.Context, filter wpmigrate.RecordFilter) (page *wpmigrate.RecordPage, err error) {
	defer func(begin time.Time) {
		var count, total int
		if page != nil {
			count, total = len(page.Records), page.TotalPages
		}
		s.logger.Info("list records",
			"type", filter.Type,
			"status", filter.Status,
			"locale", filter.Locale,
			"page", filter.Page,
			"pages", total,
			"count", count,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListRecords(ctx, filter)
}

// ListCategories delegates to the wrapped service and logs the operation.
func (s *LoggingSourceService) ListCategories(ctx context.Context) (categories []*wpmigrate.Category, err error) {
	defer func(begin time.Time) {
		s.logger.Info("list categories",
			"count", len(categories),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListCategories(ctx)
}

// LoggingMediaService wraps a MediaService with debug logging.
type LoggingMediaService struct {
	next   wpmigrate.MediaService
	logger *slog.Logger
}

// NewLoggingMediaService creates a new LoggingMediaService.
func NewLoggingMediaService(next wpmigrate.MediaService, logger *slog.Logger) *LoggingMediaService {
	return &LoggingMediaService{next: next, logger: logger}
}

// FindMediaByID delegates to the wrapped service and logs the operation.
func (s *LoggingMediaService) FindMediaByID(ctx context.Context, id string) (m *wpmigrate.Media, err error) {
	defer func(begin time.Time) {
		var url string
		if m != nil {
			url = m.SourceURL
		}
		s.logger.Debug("find media",
			"media_id", id,
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindMediaByID(ctx, id)
}

// FetchMedia delegates to the wrapped service and logs the operation.
// The duration covers the response headers only.
func (s *LoggingMediaService) FetchMedia(ctx context.Context, url string) (body io.ReadCloser, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("fetch media",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FetchMedia(ctx, url)
}
