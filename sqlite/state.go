package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/wpmigrate"
)

// Compile-time interface verification.
var _ wpmigrate.StateStore = (*StateStore)(nil)

// StateStore implements wpmigrate.StateStore using SQLite.
type StateStore struct {
	db *DB
}

// NewStateStore creates a new StateStore.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db}
}

// LoadAssetMap returns every persisted asset mapping.
func (s *StateStore) LoadAssetMap(ctx context.Context) (*wpmigrate.AssetMap, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, asset_id, source_url
		FROM assets
		ORDER BY external_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := wpmigrate.NewAssetMap()
	for rows.Next() {
		var externalID string
		var e wpmigrate.AssetEntry
		if err := rows.Scan(&externalID, &e.AssetID, &e.SourceURL); err != nil {
			return nil, err
		}
		if err := m.Add(externalID, e); err != nil {
			return nil, fmt.Errorf("failed to load asset %s: %w", externalID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// SaveAssetMap upserts every entry of m in a single transaction.
func (s *StateStore) SaveAssetMap(ctx context.Context, m *wpmigrate.AssetMap) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for externalID, e := range m.Entries() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO assets (external_id, asset_id, source_url, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(external_id) DO UPDATE SET
				asset_id = excluded.asset_id,
				source_url = excluded.source_url,
				updated_at = excluded.updated_at
		`, externalID, e.AssetID, e.SourceURL, now); err != nil {
			return fmt.Errorf("failed to save asset %s: %w", externalID, err)
		}
	}

	return tx.Commit()
}

// LoadCheckpoint returns the committed record ids of a run.
func (s *StateStore) LoadCheckpoint(ctx context.Context, run string) (*wpmigrate.Checkpoint, error) {
	if run == "" {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "run name required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id FROM checkpoints WHERE run = ? ORDER BY source_id
	`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return wpmigrate.NewCheckpoint(ids...), nil
}

// SaveCheckpoint records every id of c for a run. Ids already stored keep
// their original commit time.
func (s *StateStore) SaveCheckpoint(ctx context.Context, run string, c *wpmigrate.Checkpoint) error {
	if run == "" {
		return wpmigrate.Errorf(wpmigrate.EINVALID, "run name required")
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range c.IDs() {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO checkpoints (run, source_id, committed_at)
			VALUES (?, ?, ?)
		`, run, id, now); err != nil {
			return fmt.Errorf("failed to save checkpoint %s/%s: %w", run, id, err)
		}
	}

	return tx.Commit()
}

// RunSummary describes the persisted progress of one run.
type RunSummary struct {
	Run           string
	Records       int
	LastCommitted time.Time
}

// Runs returns the progress of every run with a checkpoint, ordered by name.
func (s *StateStore) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run, COUNT(*), MAX(committed_at)
		FROM checkpoints
		GROUP BY run
		ORDER BY run
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var last string
		if err := rows.Scan(&r.Run, &r.Records, &last); err != nil {
			return nil, err
		}
		if r.LastCommitted, err = parseRFC3339(last, "committed_at"); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// AssetCount returns the number of persisted asset mappings.
func (s *StateStore) AssetCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
