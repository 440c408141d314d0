package sqlite_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/wpmigrate"
	"github.com/fwojciec/wpmigrate/sqlite"
	"github.com/stretchr/testify/require"
)

// BenchmarkWALMode compares write performance between WAL and rollback journal modes.
// This simulates a live run: committing one document per record.
func BenchmarkWALMode(b *testing.B) {
	b.Run("rollback_journal", func(b *testing.B) {
		benchmarkDocumentCommits(b, false)
	})

	b.Run("wal_mode", func(b *testing.B) {
		benchmarkDocumentCommits(b, true)
	})
}

func openBenchDB(b *testing.B, useWAL bool) *sqlite.DB {
	b.Helper()

	dbPath := filepath.Join(b.TempDir(), "bench.db")
	db := sqlite.NewDB(dbPath)
	require.NoError(b, db.Open())

	mode := "DELETE"
	if useWAL {
		mode = "WAL"
	}
	_, err := db.ExecContext(context.Background(), "PRAGMA journal_mode = "+mode)
	require.NoError(b, err)

	b.Cleanup(func() {
		db.Close()
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	})
	return db
}

func benchmarkDocumentCommits(b *testing.B, useWAL bool) {
	b.Helper()

	store := sqlite.NewDocumentStore(openBenchDB(b, useWAL))
	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		doc := &wpmigrate.Document{
			ID:       fmt.Sprintf("post-%d", i),
			Type:     "post",
			Title:    fmt.Sprintf("Post %d", i),
			Slug:     wpmigrate.Slug{Type: "slug", Current: fmt.Sprintf("post-%d", i)},
			SourceID: fmt.Sprintf("%d", i),
			Body: []wpmigrate.Block{{
				Key:  "k",
				Type: wpmigrate.BlockTypeText,
				Children: []wpmigrate.Span{{
					Key:   "k-0",
					Type:  "span",
					Text:  fmt.Sprintf("Content of post %d. Lorem ipsum dolor sit amet, consectetur adipiscing elit.", i),
					Marks: []string{},
				}},
			}},
		}
		if _, err := store.CreateIfNotExists(ctx, doc); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCheckpointSave measures persisting a growing checkpoint after
// every sub-batch of ten records.
func BenchmarkCheckpointSave(b *testing.B) {
	const batchSize = 10

	b.Run("rollback_journal", func(b *testing.B) {
		benchmarkCheckpointSave(b, false, batchSize)
	})

	b.Run("wal_mode", func(b *testing.B) {
		benchmarkCheckpointSave(b, true, batchSize)
	})
}

func benchmarkCheckpointSave(b *testing.B, useWAL bool, batchSize int) {
	b.Helper()

	store := sqlite.NewStateStore(openBenchDB(b, useWAL))
	ctx := context.Background()
	c := wpmigrate.NewCheckpoint()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for j := 0; j < batchSize; j++ {
			c.Mark(fmt.Sprintf("%d-%d", i, j))
		}
		if err := store.SaveCheckpoint(ctx, "posts", c); err != nil {
			b.Fatal(err)
		}
	}
}
