package wpmigrate_test

import (
	"testing"

	"github.com/fwojciec/wpmigrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *wpmigrate.Document {
	return &wpmigrate.Document{
		ID:       "6f1c1c1e-0000-5000-8000-000000000001",
		Type:     "post",
		SourceID: "42",
		Body: []wpmigrate.Block{{
			Key:      "k1",
			Type:     wpmigrate.BlockTypeText,
			Style:    wpmigrate.StyleNormal,
			Children: []wpmigrate.Span{{Key: "k1-0", Type: "span", Text: "Hello"}},
		}},
	}
}

func TestDocument_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts valid document", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, validDocument().Validate())
	})

	t.Run("accepts decorators and declared link marks", func(t *testing.T) {
		t.Parallel()

		d := validDocument()
		d.Body[0].Children[0].Marks = []string{wpmigrate.MarkStrong, "m1"}
		d.Body[0].MarkDefs = []wpmigrate.MarkDef{{Key: "m1", Type: wpmigrate.MarkDefLink, Href: "/blog/a"}}

		require.NoError(t, d.Validate())
	})

	tests := []struct {
		name   string
		modify func(d *wpmigrate.Document)
	}{
		{"missing ID", func(d *wpmigrate.Document) { d.ID = "" }},
		{"missing type", func(d *wpmigrate.Document) { d.Type = "" }},
		{"missing source ID", func(d *wpmigrate.Document) { d.SourceID = "" }},
		{"empty body", func(d *wpmigrate.Document) { d.Body = nil }},
		{"block without key", func(d *wpmigrate.Document) { d.Body[0].Key = "" }},
		{"image without asset", func(d *wpmigrate.Document) {
			d.Body = append(d.Body, wpmigrate.Block{Key: "k2", Type: wpmigrate.BlockTypeImage})
		}},
		{"mark without definition", func(d *wpmigrate.Document) {
			d.Body[0].Children[0].Marks = []string{"link:https://example.org/x"}
		}},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			t.Parallel()

			d := validDocument()
			tt.modify(d)

			err := d.Validate()

			require.Error(t, err)
			assert.Equal(t, wpmigrate.EINVALID, wpmigrate.ErrorCode(err))
		})
	}
}

func TestDocument_IsDraft(t *testing.T) {
	t.Parallel()

	assert.True(t, (&wpmigrate.Document{ID: "drafts.abc"}).IsDraft())
	assert.False(t, (&wpmigrate.Document{ID: "abc"}).IsDraft())
	assert.False(t, (&wpmigrate.Document{ID: "drafts."}).IsDraft())
}

func TestSourceRecord_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&wpmigrate.SourceRecord{ID: "1", Slug: "hello"}).Validate())
	assert.Equal(t, wpmigrate.EINVALID, wpmigrate.ErrorCode((&wpmigrate.SourceRecord{Slug: "x"}).Validate()))
	assert.Equal(t, wpmigrate.EINVALID, wpmigrate.ErrorCode((&wpmigrate.SourceRecord{ID: "1"}).Validate()))
}

func TestConversion_Merge(t *testing.T) {
	t.Parallel()

	a := wpmigrate.Conversion{
		Blocks:        []wpmigrate.Block{{Key: "a"}},
		MissingAssets: []string{"x.jpg"},
	}
	a.Merge(wpmigrate.Conversion{
		Blocks:         []wpmigrate.Block{{Key: "b"}},
		UnmatchedLinks: []wpmigrate.UnmatchedLink{{Href: "/old"}},
		StrippedEmbeds: []wpmigrate.StrippedEmbed{{Fragment: "<iframe>"}},
	})

	require.Len(t, a.Blocks, 2)
	assert.Equal(t, "a", a.Blocks[0].Key)
	assert.Equal(t, "b", a.Blocks[1].Key)
	assert.Len(t, a.UnmatchedLinks, 1)
	assert.Len(t, a.StrippedEmbeds, 1)
	assert.Equal(t, []string{"x.jpg"}, a.MissingAssets)
}
