package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/wpmigrate"
)

// Compile-time interface verification.
var (
	_ wpmigrate.SourceService = (*SourceClient)(nil)
	_ wpmigrate.MediaService  = (*SourceClient)(nil)
)

// wpTimeLayout is the layout of WordPress REST dates, which carry no zone.
const wpTimeLayout = "2006-01-02T15:04:05"

// categoriesPerPage is the largest page size the WordPress REST API accepts.
const categoriesPerPage = 100

// SourceClient reads content from the WordPress REST API.
type SourceClient struct {
	baseURL string
	opts    *options
}

// NewSourceClient creates a client for the WordPress site at baseURL, e.g.
// "https://old.example.com".
func NewSourceClient(baseURL string, opts ...Option) *SourceClient {
	return &SourceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    newOptions(opts),
	}
}

func (c *SourceClient) endpoint(p string, q url.Values) string {
	u := c.baseURL + "/wp-json/wp/v2/" + p
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

type wpRendered struct {
	Rendered string `json:"rendered"`
}

type wpTerm struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}

type wpPost struct {
	ID            int        `json:"id"`
	Type          string     `json:"type"`
	Slug          string     `json:"slug"`
	Link          string     `json:"link"`
	Status        string     `json:"status"`
	Date          string     `json:"date"`
	DateGMT       string     `json:"date_gmt"`
	Title         wpRendered `json:"title"`
	Content       wpRendered `json:"content"`
	Excerpt       wpRendered `json:"excerpt"`
	FeaturedMedia int        `json:"featured_media"`
	Categories    []int      `json:"categories"`
	Lang          string     `json:"lang"`
	Embedded      struct {
		Terms [][]wpTerm `json:"wp:term"`
	} `json:"_embedded"`
}

func (p *wpPost) record() *wpmigrate.SourceRecord {
	rec := &wpmigrate.SourceRecord{
		ID:      strconv.Itoa(p.ID),
		Type:    p.Type,
		Slug:    p.Slug,
		Link:    p.Link,
		Title:   p.Title.Rendered,
		Excerpt: p.Excerpt.Rendered,
		Body:    p.Content.Rendered,
		Draft:   p.Status != "publish",
		Locale:  p.Lang,
	}
	if p.FeaturedMedia > 0 {
		rec.FeaturedMedia = strconv.Itoa(p.FeaturedMedia)
	}
	for _, id := range p.Categories {
		rec.Categories = append(rec.Categories, strconv.Itoa(id))
	}
	for _, group := range p.Embedded.Terms {
		for _, t := range group {
			if t.Taxonomy == "post_tag" {
				rec.Tags = append(rec.Tags, wpmigrate.DecodeEntities(t.Name))
			}
		}
	}
	rec.PublishedAt = parseWPTime(p.DateGMT, p.Date)
	return rec
}

// parseWPTime parses the first parseable value as UTC. Unpublished drafts
// have no GMT date.
func parseWPTime(values ...string) time.Time {
	for _, v := range values {
		if t, err := time.ParseInLocation(wpTimeLayout, v, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// totalPages reads the X-WP-TotalPages header, defaulting to one page.
func totalPages(resp *http.Response) int {
	n, err := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ListRecords returns one page of records of filter.Type.
func (c *SourceClient) ListRecords(ctx context.Context, filter wpmigrate.RecordFilter) (*wpmigrate.RecordPage, error) {
	if filter.Type == "" {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "record type required")
	}

	q := url.Values{}
	q.Set("_embed", "wp:term")
	if filter.Status != "" {
		q.Set("status", filter.Status)
		if filter.Status != "publish" {
			q.Set("context", "edit")
		}
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(filter.PerPage))
	}
	if filter.Locale != "" {
		q.Set("lang", filter.Locale)
	}

	var posts []wpPost
	resp, err := c.opts.getJSON(ctx, c.endpoint(filter.Type, q), &posts)
	if err != nil {
		return nil, err
	}

	page := &wpmigrate.RecordPage{TotalPages: totalPages(resp)}
	for i := range posts {
		rec := posts[i].record()
		if rec.Locale == "" {
			rec.Locale = filter.Locale
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// ListCategories returns every category, following pagination.
func (c *SourceClient) ListCategories(ctx context.Context) ([]*wpmigrate.Category, error) {
	var categories []*wpmigrate.Category
	for page, pages := 1, 1; page <= pages; page++ {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(categoriesPerPage))
		q.Set("page", strconv.Itoa(page))

		var terms []wpTerm
		resp, err := c.opts.getJSON(ctx, c.endpoint("categories", q), &terms)
		if err != nil {
			return nil, err
		}
		pages = totalPages(resp)

		for _, t := range terms {
			categories = append(categories, &wpmigrate.Category{
				ID:   strconv.Itoa(t.ID),
				Slug: t.Slug,
				Name: t.Name,
			})
		}
	}
	return categories, nil
}

type wpMedia struct {
	ID           int    `json:"id"`
	SourceURL    string `json:"source_url"`
	MimeType     string `json:"mime_type"`
	AltText      string `json:"alt_text"`
	MediaDetails struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"media_details"`
}

// FindMediaByID returns the metadata of a media library item.
func (c *SourceClient) FindMediaByID(ctx context.Context, id string) (*wpmigrate.Media, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "invalid media ID %q", id)
	}

	var m wpMedia
	if _, err := c.opts.getJSON(ctx, c.endpoint("media/"+id, nil), &m); err != nil {
		return nil, err
	}
	if m.SourceURL == "" {
		return nil, wpmigrate.Errorf(wpmigrate.ENOTFOUND, "media %s has no source URL", id)
	}

	return &wpmigrate.Media{
		ID:        strconv.Itoa(m.ID),
		SourceURL: m.SourceURL,
		MimeType:  m.MimeType,
		Width:     m.MediaDetails.Width,
		Height:    m.MediaDetails.Height,
		AltText:   m.AltText,
	}, nil
}

// FetchMedia returns the binary at rawURL. The caller closes it.
func (c *SourceClient) FetchMedia(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "invalid media URL %q: %v", rawURL, err)
	}

	resp, err := c.opts.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
