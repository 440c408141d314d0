package migrate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/fwojciec/wpmigrate"
	"github.com/google/uuid"
)

// Source statuses.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)

// Variant is one kind of source content migrated with its own converter:
// standard posts, drafts, or posts in a secondary locale.
type Variant struct {
	// Name identifies the variant in logs and in the checkpoint store.
	Name string

	// SourceType is the source collection, e.g. "posts" or "pages".
	SourceType string

	// DocumentType is the target document type, e.g. "post".
	DocumentType string

	// Status filters source records: "publish" or "draft".
	Status string

	// Locale of the records. Slug lookups are scoped to it.
	Locale string

	// PathTemplate maps a slug to its path on the new site. "{slug}" is
	// replaced by the record's slug. Defaults to "/{slug}".
	PathTemplate string

	// Placeholder is the body text of records that convert to nothing.
	Placeholder string
}

// Path returns the new-site path of a slug.
func (v Variant) Path(slug string) string {
	tmpl := v.PathTemplate
	if tmpl == "" {
		tmpl = "/{slug}"
	}
	return strings.ReplaceAll(tmpl, "{slug}", slug)
}

// namespace scopes every generated document id.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/fwojciec/wpmigrate"))

// DocumentID returns the deterministic target id of a record. Drafts carry
// the draft prefix so they never overwrite a published document.
func DocumentID(v Variant, rec *wpmigrate.SourceRecord) string {
	id := uuid.NewSHA1(namespace, []byte(v.DocumentType+"|"+v.Locale+"|"+rec.ID)).String()
	if rec.Draft || v.Status == StatusDraft {
		return wpmigrate.DraftPrefix + id
	}
	return id
}

// CategoryID returns the deterministic target id of a source category.
func CategoryID(categoryID string) string {
	return uuid.NewSHA1(namespace, []byte("category|"+categoryID)).String()
}

// CategoryDocument returns the target document for a category.
func CategoryDocument(c *wpmigrate.Category) *wpmigrate.Document {
	return &wpmigrate.Document{
		ID:       CategoryID(c.ID),
		Type:     "category",
		Title:    wpmigrate.DecodeEntities(c.Name),
		Slug:     wpmigrate.Slug{Type: "slug", Current: c.Slug},
		SourceID: c.ID,
	}
}

// WordPress appends a bracketed ellipsis to generated excerpts.
var moreMarker = regexp.MustCompile(`\s*\[(&hellip;|&#8230;|…|\.\.\.)\]`)

// buildDocument assembles the target document of a converted record.
// Categories not present in categories are left out.
func (m *Migrator) buildDocument(v Variant, rec *wpmigrate.SourceRecord, conv *wpmigrate.Conversion, assets *wpmigrate.AssetMap, categories map[string]*wpmigrate.Category) (*wpmigrate.Document, error) {
	doc := &wpmigrate.Document{
		ID:          DocumentID(v, rec),
		Type:        v.DocumentType,
		Title:       wpmigrate.DecodeEntities(rec.Title),
		Slug:        wpmigrate.Slug{Type: "slug", Current: rec.Slug},
		Locale:      v.Locale,
		PublishedAt: rec.PublishedAt,
		Body:        conv.Blocks,
		Tags:        rec.Tags,
		SourceID:    rec.ID,
		SourceURL:   rec.Link,
	}

	excerpt, err := m.excerpt(rec.Excerpt)
	if err != nil {
		return nil, err
	}
	doc.Excerpt = excerpt

	if rec.FeaturedMedia != "" && rec.FeaturedMedia != "0" {
		if e, ok := assets.Lookup(rec.FeaturedMedia); ok {
			doc.MainImage = &wpmigrate.Image{Type: "image", Asset: wpmigrate.NewAssetRef(e.AssetID)}
		}
	}

	for _, id := range rec.Categories {
		if _, ok := categories[id]; !ok {
			continue
		}
		ref := CategoryID(id)
		doc.Categories = append(doc.Categories, wpmigrate.Reference{
			Key:  ref[:8],
			Type: "reference",
			Ref:  ref,
		})
	}

	hashed, err := json.Marshal(struct {
		Title string
		Body  []wpmigrate.Block
	}{doc.Title, doc.Body})
	if err != nil {
		return nil, err
	}
	doc.ContentHash = ComputeHash(hashed)

	return doc, nil
}

// excerpt renders an HTML excerpt as plain text.
func (m *Migrator) excerpt(html string) (string, error) {
	html = moreMarker.ReplaceAllString(html, "…")
	if m.Excerpts == nil {
		return strings.TrimSpace(wpmigrate.DecodeEntities(html)), nil
	}
	text, err := m.Excerpts.ConvertText(html)
	if err != nil {
		return "", err
	}
	return wpmigrate.DecodeEntities(text), nil
}
