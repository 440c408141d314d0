package wpmigrate

import "regexp"

// DefaultEmbedPatterns match markup that embeds third-party content.
var DefaultEmbedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*(iframe|embed|object|script)\b`),
	regexp.MustCompile(`(?i)\bclass\s*=\s*["'][^"']*\b(wp-block-embed|embed-youtube|embed-vimeo|twitter-tweet|twitter-timeline|instagram-media|tiktok-embed|fb-post|fb-video)\b`),
	regexp.MustCompile(`(?i)\bdata-instgrm-`),
	regexp.MustCompile(`(?i)\bsrc\s*=\s*["'][^"']*(youtube\.com/embed|youtube-nocookie\.com|player\.vimeo\.com|w\.soundcloud\.com|open\.spotify\.com/embed|google\.com/maps/embed|facebook\.com/plugins|tiktok\.com/embed)`),
	regexp.MustCompile(`(?i)\[(embed|youtube|vimeo|video|audio|playlist)\b[^\]]*\]`),
}

// StrippedEmbed is a markup fragment omitted from a converted document.
type StrippedEmbed struct {
	SourceID string `json:"sourceId"`
	Fragment string `json:"fragment"`
}

// EmbedDetector recognizes third-party embeds so they can be excluded from
// a document instead of being converted lossily.
type EmbedDetector struct {
	patterns []*regexp.Regexp
}

// NewEmbedDetector returns a detector for the given patterns,
// or DefaultEmbedPatterns when none are given.
func NewEmbedDetector(patterns ...*regexp.Regexp) *EmbedDetector {
	if len(patterns) == 0 {
		patterns = DefaultEmbedPatterns
	}
	return &EmbedDetector{patterns: patterns}
}

// IsEmbed reports whether the fragment matches any embed signature.
func (d *EmbedDetector) IsEmbed(fragment string) bool {
	for _, re := range d.patterns {
		if re.MatchString(fragment) {
			return true
		}
	}
	return false
}
