package wpmigrate

import (
	"context"
	"io"
	"time"
)

// SourceRecord is a piece of legacy content as listed by the source API.
// The pipeline never mutates it.
type SourceRecord struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Slug          string    `json:"slug"`
	Link          string    `json:"link"`
	Title         string    `json:"title"`
	Excerpt       string    `json:"excerpt"`
	Body          string    `json:"body"`
	PublishedAt   time.Time `json:"publishedAt"`
	Categories    []string  `json:"categories,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Draft         bool      `json:"draft"`
	FeaturedMedia string    `json:"featuredMedia,omitempty"`
	Locale        string    `json:"locale,omitempty"`
}

// Validate returns an error if the record cannot be migrated.
func (r *SourceRecord) Validate() error {
	if r.ID == "" {
		return Errorf(EINVALID, "record ID required")
	}
	if r.Slug == "" {
		return Errorf(EINVALID, "record %s slug required", r.ID)
	}
	return nil
}

// RecordFilter represents a filter for ListRecords.
type RecordFilter struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Locale string `json:"locale"`

	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// RecordPage is one page of a record listing.
type RecordPage struct {
	Records    []*SourceRecord
	TotalPages int
}

// Category is a source taxonomy term.
type Category struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// SourceService lists legacy content.
type SourceService interface {
	// ListRecords returns one page of records matching the filter.
	ListRecords(ctx context.Context, filter RecordFilter) (*RecordPage, error)

	// ListCategories returns every category.
	ListCategories(ctx context.Context) ([]*Category, error)
}

// Media describes a source media item.
type Media struct {
	ID        string `json:"id"`
	SourceURL string `json:"sourceUrl"`
	MimeType  string `json:"mimeType"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	AltText   string `json:"altText"`
}

// MediaService fetches source media.
type MediaService interface {
	// FindMediaByID returns media metadata.
	// Returns ENOTFOUND if the media item does not exist.
	FindMediaByID(ctx context.Context, id string) (*Media, error)

	// FetchMedia returns the binary at url. The caller closes it.
	FetchMedia(ctx context.Context, url string) (io.ReadCloser, error)
}
