package goquery

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/wpmigrate"
)

// Ensure Extractor implements wpmigrate.MediaExtractor at compile time.
var _ wpmigrate.MediaExtractor = (*Extractor)(nil)

var mediaClass = regexp.MustCompile(`\bwp-image-(\d+)\b`)

// Extractor finds images in WordPress HTML bodies.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractMediaIDs returns the media library ids referenced by images through
// WordPress's wp-image-<id> class, deduplicated and in document order.
func (e *Extractor) ExtractMediaIDs(html string) ([]string, error) {
	root, err := parseBody(html)
	if err != nil {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var ids []string
	root.Find(`img[class*="wp-image-"]`).Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		m := mediaClass.FindStringSubmatch(class)
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	})

	return ids, nil
}

// ExtractImageURLs returns the distinct image URLs of an HTML body in
// document order.
func (e *Extractor) ExtractImageURLs(html string) ([]string, error) {
	root, err := parseBody(html)
	if err != nil {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var urls []string
	root.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := imageSource(sel)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		urls = append(urls, src)
	})

	return urls, nil
}
