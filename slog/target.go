// Package slog provides logging decorators for the migration's remote services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/wpmigrate"
)

// Ensure LoggingTargetStore implements wpmigrate.TargetStore.
var _ wpmigrate.TargetStore = (*LoggingTargetStore)(nil)

// LoggingTargetStore wraps a TargetStore with debug logging.
type LoggingTargetStore struct {
	next   wpmigrate.TargetStore
	logger *slog.Logger
}

// NewLoggingTargetStore creates a new LoggingTargetStore.
func NewLoggingTargetStore(next wpmigrate.TargetStore, logger *slog.Logger) *LoggingTargetStore {
	return &LoggingTargetStore{next: next, logger: logger}
}

// CreateOrReplace delegates to the wrapped store and logs the operation.
func (s *LoggingTargetStore) CreateOrReplace(ctx context.Context, doc *wpmigrate.Document) (res *wpmigrate.CommitResult, err error) {
	defer func(begin time.Time) {
		s.logCommit("create or replace", doc, res, begin, err)
	}(time.Now())
	return s.next.CreateOrReplace(ctx, doc)
}

// CreateIfNotExists delegates to the wrapped store and logs the operation.
func (s *LoggingTargetStore) CreateIfNotExists(ctx context.Context, doc *wpmigrate.Document) (res *wpmigrate.CommitResult, err error) {
	defer func(begin time.Time) {
		s.logCommit("create if not exists", doc, res, begin, err)
	}(time.Now())
	return s.next.CreateIfNotExists(ctx, doc)
}

func (s *LoggingTargetStore) logCommit(msg string, doc *wpmigrate.Document, res *wpmigrate.CommitResult, begin time.Time, err error) {
	var op wpmigrate.CommitOperation
	if res != nil {
		op = res.Operation
	}
	s.logger.Debug(msg,
		"id", doc.ID,
		"type", doc.Type,
		"source_id", doc.SourceID,
		"operation", op,
		"duration", time.Since(begin),
		"err", err,
	)
}

// FindDocuments delegates to the wrapped store and logs the operation.
func (s *LoggingTargetStore) FindDocuments(ctx context.Context, filter wpmigrate.TargetFilter) (docs []*wpmigrate.Document, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find documents",
			"count", len(docs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindDocuments(ctx, filter)
}

// UploadAsset delegates to the wrapped store and logs the operation.
func (s *LoggingTargetStore) UploadAsset(ctx context.Context, upload wpmigrate.AssetUpload) (id string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("asset upload",
			"filename", upload.Filename,
			"source_url", upload.SourceURL,
			"asset_id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UploadAsset(ctx, upload)
}
