package wpmigrate_test

import (
	"testing"

	"github.com/fwojciec/wpmigrate"
	"github.com/stretchr/testify/assert"
)

func TestBlock_Kind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		block wpmigrate.Block
		want  wpmigrate.BlockKind
	}{
		{"paragraph", wpmigrate.Block{Type: wpmigrate.BlockTypeText, Style: wpmigrate.StyleNormal}, wpmigrate.KindParagraph},
		{"heading", wpmigrate.Block{Type: wpmigrate.BlockTypeText, Style: wpmigrate.StyleH4}, wpmigrate.KindHeading},
		{"blockquote", wpmigrate.Block{Type: wpmigrate.BlockTypeText, Style: wpmigrate.StyleBlockquote}, wpmigrate.KindBlockquote},
		{"list item", wpmigrate.Block{Type: wpmigrate.BlockTypeText, Style: wpmigrate.StyleNormal, ListItem: wpmigrate.ListBullet, Level: 1}, wpmigrate.KindListItem},
		{"image", wpmigrate.Block{Type: wpmigrate.BlockTypeImage}, wpmigrate.KindImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.block.Kind())
		})
	}
}

func TestHeadingStyle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, wpmigrate.StyleH2, wpmigrate.HeadingStyle(1))
	assert.Equal(t, wpmigrate.StyleH2, wpmigrate.HeadingStyle(2))
	assert.Equal(t, wpmigrate.StyleH5, wpmigrate.HeadingStyle(5))
	assert.Equal(t, wpmigrate.StyleH6, wpmigrate.HeadingStyle(9))
}

func TestBlock_TextAndMarkDef(t *testing.T) {
	t.Parallel()

	b := wpmigrate.Block{
		Type: wpmigrate.BlockTypeText,
		Children: []wpmigrate.Span{
			{Text: "Hello "},
			{Text: "world", Marks: []string{"k1"}},
		},
		MarkDefs: []wpmigrate.MarkDef{{Key: "k1", Type: wpmigrate.MarkDefLink, Href: "/blog/world"}},
	}

	assert.Equal(t, "Hello world", b.Text())

	def, ok := b.MarkDef("k1")
	assert.True(t, ok)
	assert.Equal(t, "/blog/world", def.Href)

	_, ok = b.MarkDef("missing")
	assert.False(t, ok)
	assert.True(t, b.Children[1].HasMark("k1"))
	assert.False(t, b.Children[0].HasMark("k1"))
}
