package mock

import (
	"context"

	"github.com/fwojciec/wpmigrate"
)

var _ wpmigrate.BlockConverter = (*BlockConverter)(nil)

// BlockConverter is a mock implementation of wpmigrate.BlockConverter.
type BlockConverter struct {
	ConvertFn func(ctx context.Context, in wpmigrate.ConvertInput) (*wpmigrate.Conversion, error)
}

func (c *BlockConverter) Convert(ctx context.Context, in wpmigrate.ConvertInput) (*wpmigrate.Conversion, error) {
	return c.ConvertFn(ctx, in)
}

var _ wpmigrate.TextConverter = (*TextConverter)(nil)

// TextConverter is a mock implementation of wpmigrate.TextConverter.
type TextConverter struct {
	ConvertTextFn func(html string) (string, error)
}

func (c *TextConverter) ConvertText(html string) (string, error) {
	return c.ConvertTextFn(html)
}

var _ wpmigrate.MediaExtractor = (*MediaExtractor)(nil)

// MediaExtractor is a mock implementation of wpmigrate.MediaExtractor.
type MediaExtractor struct {
	ExtractMediaIDsFn func(html string) ([]string, error)
}

func (e *MediaExtractor) ExtractMediaIDs(html string) ([]string, error) {
	return e.ExtractMediaIDsFn(html)
}
