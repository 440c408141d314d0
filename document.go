package wpmigrate

import (
	"context"
	"io"
	"time"
)

// DraftPrefix marks draft documents in the target store.
const DraftPrefix = "drafts."

// Reference points at another document in the target store.
type Reference struct {
	Key  string `json:"_key,omitempty"`
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

// Image is a document-level image such as the main image.
type Image struct {
	Type  string    `json:"_type"`
	Asset *AssetRef `json:"asset"`
	Alt   string    `json:"alt,omitempty"`
}

// Slug is a target slug value.
type Slug struct {
	Type    string `json:"_type"`
	Current string `json:"current"`
}

// Document is a migrated record as committed to the target store.
type Document struct {
	ID          string      `json:"_id"`
	Type        string      `json:"_type"`
	Title       string      `json:"title"`
	Slug        Slug        `json:"slug"`
	Locale      string      `json:"locale,omitempty"`
	Excerpt     string      `json:"excerpt,omitempty"`
	PublishedAt time.Time   `json:"publishedAt"`
	Body        []Block     `json:"body"`
	MainImage   *Image      `json:"mainImage,omitempty"`
	Categories  []Reference `json:"categories,omitempty"`
	Tags        []string    `json:"tags,omitempty"`

	SourceID    string `json:"sourceId"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	ContentHash string `json:"contentHash,omitempty"`
}

// IsDraft reports whether the document is a draft.
func (d *Document) IsDraft() bool {
	return len(d.ID) > len(DraftPrefix) && d.ID[:len(DraftPrefix)] == DraftPrefix
}

// Validate returns an error if the document is structurally invalid.
// The document body must never be empty.
func (d *Document) Validate() error {
	if d.ID == "" {
		return Errorf(EINVALID, "document ID required")
	}
	if d.Type == "" {
		return Errorf(EINVALID, "document type required")
	}
	if d.SourceID == "" {
		return Errorf(EINVALID, "document source ID required")
	}
	if len(d.Body) == 0 {
		return Errorf(EINVALID, "document %s body must not be empty", d.ID)
	}
	for i := range d.Body {
		b := &d.Body[i]
		if b.Key == "" {
			return Errorf(EINVALID, "document %s block %d key required", d.ID, i)
		}
		if b.Type == BlockTypeImage && (b.Asset == nil || b.Asset.Ref == "") {
			return Errorf(EINVALID, "document %s image block %d has no asset", d.ID, i)
		}
		for _, s := range b.Children {
			for _, m := range s.Marks {
				if _, ok := b.MarkDef(m); !ok && !IsDecorator(m) {
					return Errorf(EINVALID, "document %s block %d mark %q has no definition", d.ID, i, m)
				}
			}
		}
	}
	return nil
}

// CommitOperation is what a commit did at the target.
type CommitOperation string

// Commit operations.
const (
	OperationCreated CommitOperation = "created"
	OperationUpdated CommitOperation = "updated"
	OperationSkipped CommitOperation = "skipped"
)

// CommitResult is the outcome of writing one document.
type CommitResult struct {
	ID        string
	Operation CommitOperation
}

// TargetFilter represents a filter for FindDocuments.
type TargetFilter struct {
	Type     *string `json:"type"`
	SourceID *string `json:"sourceId"`

	Limit int `json:"limit"`
}

// TargetStore is the content store migrated documents are committed to.
type TargetStore interface {
	// CreateOrReplace writes the document, replacing any existing one with the same ID.
	CreateOrReplace(ctx context.Context, doc *Document) (*CommitResult, error)

	// CreateIfNotExists writes the document unless one with the same ID exists,
	// in which case the result operation is OperationSkipped.
	CreateIfNotExists(ctx context.Context, doc *Document) (*CommitResult, error)

	// FindDocuments returns documents matching the filter.
	FindDocuments(ctx context.Context, filter TargetFilter) ([]*Document, error)

	// UploadAsset stores an image binary and returns a stable asset ID.
	UploadAsset(ctx context.Context, upload AssetUpload) (string, error)
}

// AssetUpload is an image binary to upload.
type AssetUpload struct {
	Filename  string
	MimeType  string
	SourceURL string
	Body      io.Reader
}

// PreviewWriter stores converted documents for inspection during dry runs.
type PreviewWriter interface {
	WritePreview(ctx context.Context, doc *Document) error
}
