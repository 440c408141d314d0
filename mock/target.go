package mock

import (
	"context"

	"github.com/fwojciec/wpmigrate"
)

var _ wpmigrate.TargetStore = (*TargetStore)(nil)

// TargetStore is a mock implementation of wpmigrate.TargetStore.
type TargetStore struct {
	CreateOrReplaceFn   func(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error)
	CreateIfNotExistsFn func(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error)
	FindDocumentsFn     func(ctx context.Context, filter wpmigrate.TargetFilter) ([]*wpmigrate.Document, error)
	UploadAssetFn       func(ctx context.Context, upload wpmigrate.AssetUpload) (string, error)
}

func (s *TargetStore) CreateOrReplace(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	return s.CreateOrReplaceFn(ctx, doc)
}

func (s *TargetStore) CreateIfNotExists(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	return s.CreateIfNotExistsFn(ctx, doc)
}

func (s *TargetStore) FindDocuments(ctx context.Context, filter wpmigrate.TargetFilter) ([]*wpmigrate.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *TargetStore) UploadAsset(ctx context.Context, upload wpmigrate.AssetUpload) (string, error) {
	return s.UploadAssetFn(ctx, upload)
}

var _ wpmigrate.PreviewWriter = (*PreviewWriter)(nil)

// PreviewWriter is a mock implementation of wpmigrate.PreviewWriter.
type PreviewWriter struct {
	WritePreviewFn func(ctx context.Context, doc *wpmigrate.Document) error
}

func (w *PreviewWriter) WritePreview(ctx context.Context, doc *wpmigrate.Document) error {
	return w.WritePreviewFn(ctx, doc)
}
