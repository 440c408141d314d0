package wpmigrate

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// LinkClass is the category a hyperlink falls into.
type LinkClass int

// Link classes.
const (
	ClassMalformed LinkClass = iota
	ClassExternal
	ClassInPage
	ClassKnownSlug
	ClassKnownPrefix
	ClassRemoved
	ClassUnmatched
)

// String returns the class name.
func (c LinkClass) String() string {
	switch c {
	case ClassExternal:
		return "external"
	case ClassInPage:
		return "in-page"
	case ClassKnownSlug:
		return "internal-known-slug"
	case ClassKnownPrefix:
		return "internal-known-prefix"
	case ClassRemoved:
		return "internal-removed"
	case ClassUnmatched:
		return "internal-unmatched"
	default:
		return "malformed"
	}
}

// LinkKind is the outcome of remapping a hyperlink.
type LinkKind int

// Link resolution outcomes.
const (
	LinkUnchanged LinkKind = iota
	LinkRewritten
	LinkRemoved
	LinkUnmatched
)

// LinkResolution is the result of remapping one href.
//
// For LinkUnchanged and LinkRewritten, Href is the link to emit.
// For LinkRemoved the hyperlink is dropped but its text kept.
// For LinkUnmatched, Href is the best-guess path: callers still emit it
// and record the link for review.
type LinkResolution struct {
	Kind     LinkKind
	Class    LinkClass
	Href     string
	Original string
}

// External reports whether the link leaves the migrated site.
func (r LinkResolution) External() bool {
	return r.Class == ClassExternal
}

// UnmatchedLink is an internal link that could not be confidently remapped.
type UnmatchedLink struct {
	SourceID  string `json:"sourceId"`
	Href      string `json:"href"`
	BestGuess string `json:"bestGuess"`
}

// SlugIndex maps known source slugs to their canonical new paths.
type SlugIndex struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewSlugIndex returns an empty SlugIndex.
func NewSlugIndex() *SlugIndex {
	return &SlugIndex{paths: make(map[string]string)}
}

// Add records the canonical path for a slug. The first path wins.
func (x *SlugIndex) Add(slug, path string) {
	slug = strings.ToLower(strings.Trim(slug, "/"))
	if slug == "" {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.paths[slug]; !ok {
		x.paths[slug] = path
	}
}

// Lookup returns the canonical path for a slug.
func (x *SlugIndex) Lookup(slug string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.paths[strings.ToLower(slug)]
	return p, ok
}

// Slugs returns all known slugs in sorted order.
func (x *SlugIndex) Slugs() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	slugs := make([]string, 0, len(x.paths))
	for s := range x.paths {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// Len returns the number of known slugs.
func (x *SlugIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.paths)
}

// LinkRemapper classifies hyperlinks found in source content and maps
// internal ones onto the new site's paths.
type LinkRemapper struct {
	// Hosts are the source site's host names. "www." variants match too.
	Hosts []string

	// KnownPrefixes are paths that are already correct on the new site.
	KnownPrefixes []string

	// RemovedPrefixes are paths whose hyperlinks are dropped, keeping the text.
	RemovedPrefixes []string

	// Index holds the known slugs. May be nil.
	Index *SlugIndex

	// Matcher proposes a best-guess slug for unmatched links. May be nil.
	Matcher *SlugMatcher
}

// Remap resolves an href. It never fails: hrefs that cannot be parsed are
// passed through unchanged.
func (r *LinkRemapper) Remap(href string) LinkResolution {
	res := LinkResolution{Original: href, Href: href}

	u, class := r.classify(href)
	res.Class = class

	switch class {
	case ClassKnownSlug:
		p, _ := r.lookupSlug(normalizePath(u.Path))
		res.Kind = LinkRewritten
		res.Href = withFragment(p, u.Fragment)
	case ClassRemoved:
		res.Kind = LinkRemoved
		res.Href = ""
	case ClassUnmatched:
		res.Kind = LinkUnmatched
		res.Href = withFragment(r.bestGuess(normalizePath(u.Path)), u.Fragment)
	default:
		res.Kind = LinkUnchanged
	}
	return res
}

// Classify returns the category of an href.
func (r *LinkRemapper) Classify(href string) LinkClass {
	_, class := r.classify(href)
	return class
}

func (r *LinkRemapper) classify(href string) (*url.URL, LinkClass) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return nil, ClassMalformed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, ClassMalformed
	}

	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
	default:
		return u, ClassExternal
	}

	if u.Host == "" {
		if u.Scheme != "" {
			return u, ClassMalformed
		}
		if u.Path == "" {
			return u, ClassInPage
		}
	} else if !r.isSourceHost(u.Hostname()) {
		return u, ClassExternal
	}

	p := normalizePath(u.Path)
	if _, ok := r.lookupSlug(p); ok {
		return u, ClassKnownSlug
	}
	if hasPathPrefix(p, r.RemovedPrefixes) {
		return u, ClassRemoved
	}
	if p == "/" || hasPathPrefix(p, r.KnownPrefixes) {
		return u, ClassKnownPrefix
	}
	return u, ClassUnmatched
}

// lookupSlug finds the canonical path for a normalized path. Date-based
// permalinks (/2019/05/slug) are looked up by their final segment.
func (r *LinkRemapper) lookupSlug(p string) (string, bool) {
	if r.Index == nil {
		return "", false
	}
	key := strings.TrimPrefix(p, "/")
	if key == "" {
		return "", false
	}
	if path, ok := r.Index.Lookup(key); ok {
		return path, true
	}

	segments := strings.Split(key, "/")
	if len(segments) < 2 {
		return "", false
	}
	for _, s := range segments[:len(segments)-1] {
		if !isDigits(s) {
			return "", false
		}
	}
	return r.Index.Lookup(segments[len(segments)-1])
}

func (r *LinkRemapper) bestGuess(p string) string {
	if r.Index == nil || r.Matcher == nil {
		return p
	}
	last := p[strings.LastIndex(p, "/")+1:]
	if slug, ok := r.Matcher.Match(last, r.Index.Slugs()); ok {
		if path, ok := r.Index.Lookup(slug); ok {
			return path
		}
	}
	return p
}

func (r *LinkRemapper) isSourceHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, h := range r.Hosts {
		if strings.TrimPrefix(strings.ToLower(h), "www.") == host {
			return true
		}
	}
	return false
}

// normalizePath gives a path a leading slash and strips trailing slashes.
func normalizePath(p string) string {
	p = "/" + strings.Trim(p, "/")
	return p
}

// hasPathPrefix reports whether p equals a prefix or lies beneath it.
func hasPathPrefix(p string, prefixes []string) bool {
	lp := strings.ToLower(p)
	for _, prefix := range prefixes {
		prefix = strings.ToLower(strings.TrimSuffix(prefix, "/"))
		if prefix == "" {
			continue
		}
		if lp == prefix || strings.HasPrefix(lp, prefix+"/") {
			return true
		}
	}
	return false
}

func withFragment(p, fragment string) string {
	if fragment == "" {
		return p
	}
	return p + "#" + fragment
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
