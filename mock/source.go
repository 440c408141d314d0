package mock

import (
	"context"
	"io"

	"github.com/fwojciec/wpmigrate"
)

var _ wpmigrate.SourceService = (*SourceService)(nil)

// SourceService is a mock implementation of wpmigrate.SourceService.
type SourceService struct {
	ListRecordsFn    func(ctx context.Context, filter wpmigrate.RecordFilter) (*wpmigrate.RecordPage, error)
	ListCategoriesFn func(ctx context.Context) ([]*wpmigrate.Category, error)
}

func (s *SourceService) ListRecords(ctx context.Context, filter wpmigrate.RecordFilter) (*wpmigrate.RecordPage, error) {
	return s.ListRecordsFn(ctx, filter)
}

func (s *SourceService) ListCategories(ctx context.Context) ([]*wpmigrate.Category, error) {
	return s.ListCategoriesFn(ctx)
}

var _ wpmigrate.MediaService = (*MediaService)(nil)

// MediaService is a mock implementation of wpmigrate.MediaService.
type MediaService struct {
	FindMediaByIDFn func(ctx context.Context, id string) (*wpmigrate.Media, error)
	FetchMediaFn    func(ctx context.Context, url string) (io.ReadCloser, error)
}

func (s *MediaService) FindMediaByID(ctx context.Context, id string) (*wpmigrate.Media, error) {
	return s.FindMediaByIDFn(ctx, id)
}

func (s *MediaService) FetchMedia(ctx context.Context, url string) (io.ReadCloser, error) {
	return s.FetchMediaFn(ctx, url)
}
