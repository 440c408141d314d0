package wpmigrate

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// AssetEntry records where a migrated asset came from.
type AssetEntry struct {
	AssetID   string `json:"assetId"`
	SourceURL string `json:"sourceUrl"`
}

// AssetResolver maps a source media URL to a migrated asset identifier.
type AssetResolver interface {
	Resolve(sourceURL string) (assetID string, ok bool)
}

var _ AssetResolver = (*AssetMap)(nil)

// AssetMap resolves source media to migrated assets. It is keyed by the
// source system's media id and is append-only: an asset id, once assigned,
// is never reassigned to a different source URL.
type AssetMap struct {
	mu      sync.RWMutex
	entries map[string]AssetEntry
	byURL   map[string]string // source URL -> asset ID
	byAsset map[string]string // asset ID -> source URL
}

// NewAssetMap returns an empty AssetMap.
func NewAssetMap() *AssetMap {
	return &AssetMap{
		entries: make(map[string]AssetEntry),
		byURL:   make(map[string]string),
		byAsset: make(map[string]string),
	}
}

// Add records an asset for an external media id.
// Returns ECONFLICT if the id or asset is already mapped differently.
func (m *AssetMap) Add(externalID string, e AssetEntry) error {
	if externalID == "" {
		return Errorf(EINVALID, "asset external ID required")
	}
	if e.AssetID == "" {
		return Errorf(EINVALID, "asset ID required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[externalID]; ok {
		if existing == e {
			return nil
		}
		return Errorf(ECONFLICT, "media %s already mapped to asset %s", externalID, existing.AssetID)
	}
	if u, ok := m.byAsset[e.AssetID]; ok && u != e.SourceURL {
		return Errorf(ECONFLICT, "asset %s already assigned to %s", e.AssetID, u)
	}

	m.entries[externalID] = e
	m.byAsset[e.AssetID] = e.SourceURL
	if e.SourceURL != "" {
		if _, ok := m.byURL[e.SourceURL]; !ok {
			m.byURL[e.SourceURL] = e.AssetID
		}
	}
	return nil
}

// Lookup returns the entry for an external media id.
func (m *AssetMap) Lookup(externalID string) (AssetEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[externalID]
	return e, ok
}

// Len returns the number of entries.
func (m *AssetMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns a copy of all entries keyed by external id.
func (m *AssetMap) Entries() map[string]AssetEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]AssetEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Resolve returns the asset id for a source URL. An exact source-URL match
// wins; otherwise the URL's filename is compared against every entry's
// filename, tolerating "-WIDTHxHEIGHT" size variants on either side.
// Entries are scanned in external-id order so the result is stable.
func (m *AssetMap) Resolve(sourceURL string) (string, bool) {
	if sourceURL == "" {
		return "", false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.byURL[sourceURL]; ok {
		return id, true
	}

	want := StripSizeSuffix(filenameOf(sourceURL))
	if want == "" {
		return "", false
	}

	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		e := m.entries[id]
		stored := filenameOf(e.SourceURL)
		if stored == "" {
			continue
		}
		if stored == want || StripSizeSuffix(stored) == want {
			return e.AssetID, true
		}
	}
	return "", false
}

var sizeSuffixRe = regexp.MustCompile(`-\d+x\d+(\.[A-Za-z0-9]+)?$`)

// StripSizeSuffix removes a trailing "-WIDTHxHEIGHT" before the extension,
// e.g. "img-800x600.jpg" becomes "img.jpg".
func StripSizeSuffix(filename string) string {
	return sizeSuffixRe.ReplaceAllString(filename, "$1")
}

// filenameOf returns the final path segment of a URL without its query.
func filenameOf(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
