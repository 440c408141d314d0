package wpmigrate

import "context"

// DefaultPlaceholder is the text of the single block emitted when a body
// converts to nothing.
const DefaultPlaceholder = "Content coming soon."

// ConvertInput is the HTML body of one source record.
type ConvertInput struct {
	SourceID string
	HTML     string
}

// Conversion is the result of converting one HTML body: the blocks plus
// everything that needs manual review.
type Conversion struct {
	Blocks         []Block
	UnmatchedLinks []UnmatchedLink
	StrippedEmbeds []StrippedEmbed
	MissingAssets  []string
}

// Merge appends other to c, preserving order.
func (c *Conversion) Merge(other Conversion) {
	c.Blocks = append(c.Blocks, other.Blocks...)
	c.UnmatchedLinks = append(c.UnmatchedLinks, other.UnmatchedLinks...)
	c.StrippedEmbeds = append(c.StrippedEmbeds, other.StrippedEmbeds...)
	c.MissingAssets = append(c.MissingAssets, other.MissingAssets...)
}

// BlockConverter converts HTML bodies into rich-text blocks.
type BlockConverter interface {
	// Convert transforms an HTML body into blocks. The result always holds
	// at least one block.
	Convert(ctx context.Context, in ConvertInput) (*Conversion, error)
}

// TextConverter converts an HTML fragment into plain text.
type TextConverter interface {
	ConvertText(html string) (string, error)
}

// MediaExtractor finds media referenced by an HTML body.
type MediaExtractor interface {
	// ExtractMediaIDs returns the media library ids of inline images.
	ExtractMediaIDs(html string) ([]string, error)
}
