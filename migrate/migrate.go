// Package migrate orchestrates the migration of WordPress content.
// It pages through the source, migrates media, converts bodies to
// rich-text blocks and commits documents to the target with checkpointing,
// rate limiting and retries.
package migrate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/fwojciec/wpmigrate"
	"golang.org/x/sync/errgroup"
)

// Defaults for zero-valued Migrator settings.
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 4
	DefaultPerPage     = 100
)

// ConverterFunc builds the converter used for one variant's records.
type ConverterFunc func(v Variant, assets wpmigrate.AssetResolver, links *wpmigrate.LinkRemapper) wpmigrate.BlockConverter

// Migrator orchestrates a migration run.
type Migrator struct {
	Source     wpmigrate.SourceService
	Media      wpmigrate.MediaService
	Target     wpmigrate.TargetStore
	State      wpmigrate.StateStore
	Review     wpmigrate.ReviewLog
	Excerpts   wpmigrate.TextConverter
	Extractor  wpmigrate.MediaExtractor
	Preview    wpmigrate.PreviewWriter
	Limiter    wpmigrate.Limiter
	Converters ConverterFunc

	// Links is the remapper template. Each locale gets a copy with its own
	// slug index.
	Links wpmigrate.LinkRemapper

	Variants    []Variant
	BatchSize   int
	Concurrency int
	PerPage     int
	RetryDelays []time.Duration
	DryRun      bool
	Logger      *slog.Logger
}

// Summary holds the outcome of a migration run.
type Summary struct {
	Created   int
	Updated   int
	Skipped   int
	Converted int
	Failed    int

	AssetsUploaded int
	AssetsFailed   int
	AssetBytes     int64

	Unmatched     int
	Embeds        int
	MissingAssets int

	UnmatchedLog string
	EmbedLog     string
}

// Phase is a stage of a migration run.
type Phase int

const (
	PhaseFetching Phase = iota
	PhaseConverting
	PhaseCommitting
	PhaseDone
)

// String returns the phase's name.
func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseConverting:
		return "converting"
	case PhaseCommitting:
		return "committing"
	default:
		return "done"
	}
}

// ProgressEvent reports progress during a migration run.
type ProgressEvent struct {
	Phase     Phase
	Variant   string
	Completed int
	Total     int
	SourceID  string
	Error     error
}

// ProgressFunc is a callback for reporting migration progress.
type ProgressFunc func(event ProgressEvent)

// run holds the state shared by every variant of one Run call.
type run struct {
	assets     *wpmigrate.AssetMap
	categories map[string]*wpmigrate.Category
	indexes    map[string]*wpmigrate.SlugIndex
	summary    *Summary
	progress   ProgressFunc
}

func (r *run) emit(e ProgressEvent) {
	if r.progress != nil {
		r.progress(e)
	}
}

// Run migrates every configured variant. Record failures are logged and
// counted without stopping the run; failures to list the source or to load
// or persist state abort it. Cancellation is honored between sub-batches.
func (m *Migrator) Run(ctx context.Context, progress ProgressFunc) (*Summary, error) {
	if len(m.Variants) == 0 {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "at least one variant required")
	}
	if m.Converters == nil {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "converter factory required")
	}

	r := &run{summary: &Summary{}, progress: progress}
	if m.Review != nil {
		r.summary.UnmatchedLog, r.summary.EmbedLog = m.Review.Locations()
	}

	r.emit(ProgressEvent{Phase: PhaseFetching})

	assets, err := m.State.LoadAssetMap(ctx)
	if err != nil {
		return r.summary, fmt.Errorf("load asset map: %w", err)
	}
	r.assets = assets
	if m.DryRun {
		if r.assets, err = cloneAssets(assets); err != nil {
			return r.summary, err
		}
	}

	records := make([][]*wpmigrate.SourceRecord, len(m.Variants))
	for i, v := range m.Variants {
		recs, err := m.listRecords(ctx, v)
		if err != nil {
			return r.summary, err
		}
		records[i] = recs
		m.logger().Info("listed records", "variant", v.Name, "count", len(recs))
	}

	cats, err := WithRetry(ctx, "list categories", m.retryDelays(), m.logger(), m.Source.ListCategories)
	if err != nil {
		return r.summary, fmt.Errorf("list categories: %w", err)
	}
	r.categories = make(map[string]*wpmigrate.Category, len(cats))
	for _, c := range cats {
		r.categories[c.ID] = c
	}

	r.indexes = buildIndexes(m.Variants, records)

	if !m.DryRun {
		m.ensureCategories(ctx, records, r.categories)
	}

	for i, v := range m.Variants {
		if err := m.migrateVariant(ctx, r, v, records[i]); err != nil {
			return r.summary, err
		}
	}

	r.emit(ProgressEvent{Phase: PhaseDone})
	return r.summary, nil
}

// listRecords pages through a variant's listing.
func (m *Migrator) listRecords(ctx context.Context, v Variant) ([]*wpmigrate.SourceRecord, error) {
	perPage := m.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	var out []*wpmigrate.SourceRecord
	for page := 1; ; page++ {
		filter := wpmigrate.RecordFilter{
			Type:    v.SourceType,
			Status:  v.Status,
			Locale:  v.Locale,
			Page:    page,
			PerPage: perPage,
		}
		p, err := WithRetry(ctx, "list records", m.retryDelays(), m.logger(), func(ctx context.Context) (*wpmigrate.RecordPage, error) {
			return m.Source.ListRecords(ctx, filter)
		})
		if err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", v.Name, page, err)
		}
		out = append(out, p.Records...)
		if len(p.Records) == 0 || page >= p.TotalPages {
			return out, nil
		}
	}
}

// buildIndexes builds one slug index per locale from the records of every
// variant sharing it. Earlier variants win slug collisions.
func buildIndexes(variants []Variant, records [][]*wpmigrate.SourceRecord) map[string]*wpmigrate.SlugIndex {
	indexes := make(map[string]*wpmigrate.SlugIndex)
	for i, v := range variants {
		index, ok := indexes[v.Locale]
		if !ok {
			index = wpmigrate.NewSlugIndex()
			indexes[v.Locale] = index
		}
		for _, rec := range records[i] {
			if rec.Slug != "" {
				index.Add(rec.Slug, v.Path(rec.Slug))
			}
		}
	}
	return indexes
}

// ensureCategories creates every category referenced by a record unless it
// already exists. Failures are logged; references to a missing category
// are still written.
func (m *Migrator) ensureCategories(ctx context.Context, records [][]*wpmigrate.SourceRecord, categories map[string]*wpmigrate.Category) {
	seen := make(map[string]bool)
	for _, recs := range records {
		for _, rec := range recs {
			for _, id := range rec.Categories {
				c, ok := categories[id]
				if !ok || seen[id] {
					continue
				}
				seen[id] = true

				doc := CategoryDocument(c)
				if err := m.wait(ctx); err != nil {
					return
				}
				_, err := WithRetry(ctx, "create category", m.retryDelays(), m.logger(), func(ctx context.Context) (*wpmigrate.CommitResult, error) {
					return m.Target.CreateIfNotExists(ctx, doc)
				})
				if err != nil {
					m.logger().Error("category failed", "category_id", id, "slug", c.Slug, "err", err)
				}
			}
		}
	}
}

// migrateVariant processes a variant's pending records in sub-batches,
// persisting state after each one.
func (m *Migrator) migrateVariant(ctx context.Context, r *run, v Variant, records []*wpmigrate.SourceRecord) error {
	checkpoint, err := m.State.LoadCheckpoint(ctx, v.Name)
	if err != nil {
		return fmt.Errorf("load checkpoint %s: %w", v.Name, err)
	}

	var pending []*wpmigrate.SourceRecord
	for _, rec := range records {
		if !checkpoint.Done(rec.ID) {
			pending = append(pending, rec)
		}
	}
	m.logger().Info("migrating variant", "variant", v.Name, "pending", len(pending), "done", len(records)-len(pending))

	links := m.Links
	links.Index = r.indexes[v.Locale]
	if links.Matcher == nil {
		links.Matcher = wpmigrate.NewSlugMatcher()
	}
	conv := m.Converters(v, r.assets, &links)

	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	completed := 0
	for start := 0; start < len(pending); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch := pending[start:min(start+batchSize, len(pending))]
		if m.DryRun {
			m.resolveAssets(ctx, r, batch)
		} else {
			m.migrateAssets(ctx, r, batch)
		}

		for _, rec := range batch {
			err := m.migrateRecord(ctx, r, v, conv, rec, checkpoint)
			completed++
			if err != nil {
				r.summary.Failed++
				m.logger().Error("record failed", "variant", v.Name, "source_id", rec.ID, "source_url", rec.Link, "err", err)
			}
			r.emit(ProgressEvent{
				Phase:     PhaseCommitting,
				Variant:   v.Name,
				Completed: completed,
				Total:     len(pending),
				SourceID:  rec.ID,
				Error:     err,
			})
		}

		if m.DryRun {
			continue
		}
		if err := m.State.SaveAssetMap(ctx, r.assets); err != nil {
			return fmt.Errorf("save asset map: %w", err)
		}
		if err := m.State.SaveCheckpoint(ctx, v.Name, checkpoint); err != nil {
			return fmt.Errorf("save checkpoint %s: %w", v.Name, err)
		}
	}
	return nil
}

// migrateRecord converts and commits one record, advancing the checkpoint
// on success.
func (m *Migrator) migrateRecord(ctx context.Context, r *run, v Variant, conv wpmigrate.BlockConverter, rec *wpmigrate.SourceRecord, checkpoint *wpmigrate.Checkpoint) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	r.emit(ProgressEvent{Phase: PhaseConverting, Variant: v.Name, SourceID: rec.ID})

	c, err := conv.Convert(ctx, wpmigrate.ConvertInput{SourceID: rec.ID, HTML: rec.Body})
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	doc, err := m.buildDocument(v, rec, c, r.assets, r.categories)
	if err != nil {
		return fmt.Errorf("build document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	for _, src := range c.MissingAssets {
		m.logger().Warn("image omitted", "source_id", rec.ID, "src", src)
	}
	for _, e := range c.StrippedEmbeds {
		m.logger().Warn("embed stripped", "source_id", rec.ID, "fragment", TruncateFragment(e.Fragment, 120))
	}

	if m.DryRun {
		if m.Preview != nil {
			if err := m.Preview.WritePreview(ctx, doc); err != nil {
				return fmt.Errorf("write preview: %w", err)
			}
		}
		r.summary.Converted++
	} else {
		res, err := m.commit(ctx, doc)
		if err != nil {
			return fmt.Errorf("commit %s: %w", doc.ID, err)
		}
		switch res.Operation {
		case wpmigrate.OperationCreated:
			r.summary.Created++
		case wpmigrate.OperationUpdated:
			r.summary.Updated++
		default:
			r.summary.Skipped++
		}
		checkpoint.Mark(rec.ID)
	}

	r.summary.Unmatched += len(c.UnmatchedLinks)
	r.summary.Embeds += len(c.StrippedEmbeds)
	r.summary.MissingAssets += len(c.MissingAssets)
	m.review(ctx, rec, c)

	return nil
}

// commit writes a document: drafts are replaced, published documents are
// only created when absent.
func (m *Migrator) commit(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return WithRetry(ctx, "commit", m.retryDelays(), m.logger(), func(ctx context.Context) (*wpmigrate.CommitResult, error) {
		if doc.IsDraft() {
			return m.Target.CreateOrReplace(ctx, doc)
		}
		return m.Target.CreateIfNotExists(ctx, doc)
	})
}

// review appends the record's findings to the review logs. Logging
// failures are reported but never fail the record.
func (m *Migrator) review(ctx context.Context, rec *wpmigrate.SourceRecord, c *wpmigrate.Conversion) {
	if m.Review == nil {
		return
	}
	if len(c.UnmatchedLinks) > 0 {
		if err := m.Review.LogUnmatchedLinks(ctx, c.UnmatchedLinks); err != nil {
			m.logger().Error("review log failed", "source_id", rec.ID, "err", err)
		}
	}
	if len(c.StrippedEmbeds) > 0 {
		if err := m.Review.LogStrippedEmbeds(ctx, c.StrippedEmbeds); err != nil {
			m.logger().Error("review log failed", "source_id", rec.ID, "err", err)
		}
	}
}

// uploaded is the outcome of migrating one media item.
type uploaded struct {
	mediaID string
	entry   wpmigrate.AssetEntry
	bytes   int64
	err     error
}

// migrateAssets uploads the featured and inline media of a batch that the
// asset map does not hold yet. A failed upload only omits the image.
func (m *Migrator) migrateAssets(ctx context.Context, r *run, batch []*wpmigrate.SourceRecord) {
	ids := m.missingMedia(r.assets, batch)
	if len(ids) == 0 {
		return
	}

	concurrency := m.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]uploaded, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = m.migrateMedia(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.err == nil {
			res.err = r.assets.Add(res.mediaID, res.entry)
		}
		if res.err != nil {
			r.summary.AssetsFailed++
			m.logger().Error("asset failed", "media_id", res.mediaID, "err", res.err)
			continue
		}
		r.summary.AssetsUploaded++
		r.summary.AssetBytes += res.bytes
	}
}

// resolveAssets looks up the media of a batch missing from a dry run's
// asset map and maps each to a placeholder asset, so previews keep their
// images. Nothing is fetched or uploaded.
func (m *Migrator) resolveAssets(ctx context.Context, r *run, batch []*wpmigrate.SourceRecord) {
	if m.Media == nil {
		return
	}
	for _, id := range m.missingMedia(r.assets, batch) {
		media, err := WithRetry(ctx, "find media", m.retryDelays(), m.logger(), func(ctx context.Context) (*wpmigrate.Media, error) {
			return m.Media.FindMediaByID(ctx, id)
		})
		if err == nil {
			err = r.assets.Add(id, wpmigrate.AssetEntry{AssetID: DryRunAssetPrefix + id, SourceURL: media.SourceURL})
		}
		if err != nil {
			m.logger().Warn("media lookup failed", "media_id", id, "err", err)
		}
	}
}

// DryRunAssetPrefix prefixes the placeholder asset ids of a dry run.
const DryRunAssetPrefix = "dryrun-"

// cloneAssets copies an asset map so a dry run never touches the loaded one.
func cloneAssets(src *wpmigrate.AssetMap) (*wpmigrate.AssetMap, error) {
	dst := wpmigrate.NewAssetMap()
	for id, e := range src.Entries() {
		if err := dst.Add(id, e); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// missingMedia returns the distinct media ids referenced by a batch that
// are not yet in the asset map, in first-seen order.
func (m *Migrator) missingMedia(assets *wpmigrate.AssetMap, batch []*wpmigrate.SourceRecord) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || id == "0" || seen[id] {
			return
		}
		seen[id] = true
		if _, ok := assets.Lookup(id); !ok {
			ids = append(ids, id)
		}
	}

	for _, rec := range batch {
		add(rec.FeaturedMedia)
		if m.Extractor == nil {
			continue
		}
		inline, err := m.Extractor.ExtractMediaIDs(rec.Body)
		if err != nil {
			m.logger().Warn("media extraction failed", "source_id", rec.ID, "err", err)
			continue
		}
		for _, id := range inline {
			add(id)
		}
	}
	return ids
}

// migrateMedia fetches one media item from the source and uploads it.
func (m *Migrator) migrateMedia(ctx context.Context, id string) uploaded {
	res := uploaded{mediaID: id}

	media, err := WithRetry(ctx, "find media", m.retryDelays(), m.logger(), func(ctx context.Context) (*wpmigrate.Media, error) {
		return m.Media.FindMediaByID(ctx, id)
	})
	if err != nil {
		res.err = err
		return res
	}

	data, err := WithRetry(ctx, "fetch media", m.retryDelays(), m.logger(), func(ctx context.Context) ([]byte, error) {
		body, err := m.Media.FetchMedia(ctx, media.SourceURL)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return io.ReadAll(body)
	})
	if err != nil {
		res.err = err
		return res
	}

	if err := m.wait(ctx); err != nil {
		res.err = err
		return res
	}
	assetID, err := WithRetry(ctx, "upload asset", m.retryDelays(), m.logger(), func(ctx context.Context) (string, error) {
		return m.Target.UploadAsset(ctx, wpmigrate.AssetUpload{
			Filename:  path.Base(media.SourceURL),
			MimeType:  media.MimeType,
			SourceURL: media.SourceURL,
			Body:      bytes.NewReader(data),
		})
	})
	if err != nil {
		res.err = err
		return res
	}

	res.entry = wpmigrate.AssetEntry{AssetID: assetID, SourceURL: media.SourceURL}
	res.bytes = int64(len(data))
	return res
}

func (m *Migrator) wait(ctx context.Context) error {
	if m.Limiter == nil {
		return ctx.Err()
	}
	return m.Limiter.Wait(ctx)
}

func (m *Migrator) retryDelays() []time.Duration {
	if m.RetryDelays == nil {
		return DefaultRetryDelays()
	}
	return m.RetryDelays
}

func (m *Migrator) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}
