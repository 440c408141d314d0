package wpmigrate_test

import (
	"testing"

	"github.com/fwojciec/wpmigrate"
	"github.com/stretchr/testify/assert"
)

func textBlock(style wpmigrate.BlockStyle, text string) wpmigrate.Block {
	return wpmigrate.Block{
		Type:     wpmigrate.BlockTypeText,
		Style:    style,
		Children: []wpmigrate.Span{{Type: "span", Text: text}},
	}
}

func TestFormatBlocks(t *testing.T) {
	t.Parallel()

	t.Run("returns empty string for nil slice", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, wpmigrate.FormatBlocks(nil))
	})

	t.Run("formats paragraph and heading", func(t *testing.T) {
		t.Parallel()

		blocks := []wpmigrate.Block{
			textBlock(wpmigrate.StyleNormal, "Hello world"),
			textBlock(wpmigrate.StyleH3, "Section"),
		}

		assert.Equal(t, "Hello world\n\n### Section", wpmigrate.FormatBlocks(blocks))
	})

	t.Run("joins consecutive list items with single newline", func(t *testing.T) {
		t.Parallel()

		one := textBlock(wpmigrate.StyleNormal, "One")
		one.ListItem = wpmigrate.ListBullet
		one.Level = 1
		two := textBlock(wpmigrate.StyleNormal, "Two")
		two.ListItem = wpmigrate.ListNumber
		two.Level = 2

		assert.Equal(t, "- One\n  1. Two", wpmigrate.FormatBlocks([]wpmigrate.Block{one, two}))
	})

	t.Run("formats quote and image", func(t *testing.T) {
		t.Parallel()

		blocks := []wpmigrate.Block{
			textBlock(wpmigrate.StyleBlockquote, "Line one\nLine two"),
			{
				Type:    wpmigrate.BlockTypeImage,
				Asset:   wpmigrate.NewAssetRef("image-a1"),
				Alt:     "A wave",
				Caption: "Playa Maderas",
			},
		}

		assert.Equal(t, "> Line one\n> Line two\n\n![A wave](image-a1)\nPlaya Maderas", wpmigrate.FormatBlocks(blocks))
	})
}
