package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/wpmigrate"
)

// Compile-time interface verification.
var _ wpmigrate.TargetStore = (*DocumentStore)(nil)

// DocumentStore implements wpmigrate.TargetStore using SQLite. It serves as
// a local target for rehearsal runs.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// hashContent computes xxHash of content and returns hex string.
func hashContent(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

func validateDocument(doc *wpmigrate.Document) error {
	if doc == nil {
		return wpmigrate.Errorf(wpmigrate.EINVALID, "document required")
	}
	if doc.ID == "" {
		return wpmigrate.Errorf(wpmigrate.EINVALID, "document ID required")
	}
	if doc.Type == "" {
		return wpmigrate.Errorf(wpmigrate.EINVALID, "document type required")
	}
	return nil
}

// CreateOrReplace writes doc, replacing any document with the same ID.
func (s *DocumentStore) CreateOrReplace(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM target_documents WHERE id = ?", doc.ID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO target_documents (id, type, source_id, content_hash, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			source_id = excluded.source_id,
			content_hash = excluded.content_hash,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Type, doc.SourceID, doc.ContentHash, string(data), now, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	op := wpmigrate.OperationCreated
	if exists == 1 {
		op = wpmigrate.OperationUpdated
	}
	return &wpmigrate.CommitResult{ID: doc.ID, Operation: op}, nil
}

// CreateIfNotExists writes doc unless a document with the same ID exists.
func (s *DocumentStore) CreateIfNotExists(ctx context.Context, doc *wpmigrate.Document) (*wpmigrate.CommitResult, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO target_documents (id, type, source_id, content_hash, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Type, doc.SourceID, doc.ContentHash, string(data), now, now)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	op := wpmigrate.OperationCreated
	if n == 0 {
		op = wpmigrate.OperationSkipped
	}
	return &wpmigrate.CommitResult{ID: doc.ID, Operation: op}, nil
}

// FindDocumentByID retrieves a document by ID.
func (s *DocumentStore) FindDocumentByID(ctx context.Context, id string) (*wpmigrate.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM target_documents WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, wpmigrate.Errorf(wpmigrate.ENOTFOUND, "document not found")
	}
	if err != nil {
		return nil, err
	}

	var doc wpmigrate.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

// FindDocuments retrieves documents matching the filter, ordered by ID.
func (s *DocumentStore) FindDocuments(ctx context.Context, filter wpmigrate.TargetFilter) ([]*wpmigrate.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, data FROM target_documents WHERE 1=1")

	if filter.Type != nil {
		query.WriteString(" AND type = ?")
		args = append(args, *filter.Type)
	}
	if filter.SourceID != nil {
		query.WriteString(" AND source_id = ?")
		args = append(args, *filter.SourceID)
	}

	query.WriteString(" ORDER BY id ASC")
	appendLimit(&query, &args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*wpmigrate.Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var doc wpmigrate.Document
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// UploadAsset stores an image binary under a content-derived ID. Uploading
// the same bytes twice returns the same ID and stores them once.
func (s *DocumentStore) UploadAsset(ctx context.Context, upload wpmigrate.AssetUpload) (string, error) {
	if upload.Body == nil {
		return "", wpmigrate.Errorf(wpmigrate.EINVALID, "asset body required")
	}

	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read asset %s: %w", upload.Filename, err)
	}
	if len(data) == 0 {
		return "", wpmigrate.Errorf(wpmigrate.EINVALID, "asset %s is empty", upload.Filename)
	}

	id := "image-" + hashContent(data)
	if ext := assetExtension(upload.Filename, upload.MimeType); ext != "" {
		id += "-" + ext
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO target_assets (id, source_url, filename, mime_type, size, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, upload.SourceURL, upload.Filename, upload.MimeType, len(data), data,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}

	return id, nil
}

// CountAssets returns the number of stored asset binaries.
func (s *DocumentStore) CountAssets(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM target_assets").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// assetExtension returns the lower-case extension of filename, falling back
// to the MIME subtype.
func assetExtension(filename, mimeType string) string {
	if ext := strings.TrimPrefix(path.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if _, sub, ok := strings.Cut(mimeType, "/"); ok {
		if sub == "jpeg" {
			return "jpg"
		}
		return strings.ToLower(sub)
	}
	return ""
}
