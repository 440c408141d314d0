package wpmigrate_test

import (
	"testing"

	"github.com/fwojciec/wpmigrate"
	"github.com/stretchr/testify/assert"
)

func newRemapper() *wpmigrate.LinkRemapper {
	index := wpmigrate.NewSlugIndex()
	index.Add("surf-school-nicaragua", "/blog/surf-school-nicaragua")
	index.Add("surf-camp-bali", "/blog/surf-camp-bali")
	return &wpmigrate.LinkRemapper{
		Hosts:           []string{"legacy.example.com"},
		KnownPrefixes:   []string{"/blog/", "/about"},
		RemovedPrefixes: []string{"/tag/", "/author"},
		Index:           index,
		Matcher:         wpmigrate.NewSlugMatcher(),
	}
}

func TestLinkRemapper_Remap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		href  string
		kind  wpmigrate.LinkKind
		class wpmigrate.LinkClass
		want  string
	}{
		{"external host unchanged", "https://other.com/surf-camp-bali", wpmigrate.LinkUnchanged, wpmigrate.ClassExternal, "https://other.com/surf-camp-bali"},
		{"mailto unchanged", "mailto:hi@example.com", wpmigrate.LinkUnchanged, wpmigrate.ClassExternal, "mailto:hi@example.com"},
		{"known slug rewritten", "https://legacy.example.com/surf-camp-bali/", wpmigrate.LinkRewritten, wpmigrate.ClassKnownSlug, "/blog/surf-camp-bali"},
		{"www host matches", "http://www.legacy.example.com/surf-camp-bali", wpmigrate.LinkRewritten, wpmigrate.ClassKnownSlug, "/blog/surf-camp-bali"},
		{"relative slug rewritten", "/surf-camp-bali", wpmigrate.LinkRewritten, wpmigrate.ClassKnownSlug, "/blog/surf-camp-bali"},
		{"fragment preserved", "/surf-camp-bali/#prices", wpmigrate.LinkRewritten, wpmigrate.ClassKnownSlug, "/blog/surf-camp-bali#prices"},
		{"date permalink rewritten", "https://legacy.example.com/2019/05/surf-camp-bali/", wpmigrate.LinkRewritten, wpmigrate.ClassKnownSlug, "/blog/surf-camp-bali"},
		{"known prefix unchanged", "https://legacy.example.com/about/team", wpmigrate.LinkUnchanged, wpmigrate.ClassKnownPrefix, "https://legacy.example.com/about/team"},
		{"root unchanged", "https://legacy.example.com/", wpmigrate.LinkUnchanged, wpmigrate.ClassKnownPrefix, "https://legacy.example.com/"},
		{"prefix is segment aware", "/aboutus", wpmigrate.LinkUnmatched, wpmigrate.ClassUnmatched, "/aboutus"},
		{"removed prefix stripped", "https://legacy.example.com/tag/surf/", wpmigrate.LinkRemoved, wpmigrate.ClassRemoved, ""},
		{"unmatched uses fuzzy guess", "/surf-lessons-nicaragua-learn-to-surf/", wpmigrate.LinkUnmatched, wpmigrate.ClassUnmatched, "/blog/surf-school-nicaragua"},
		{"unmatched falls back to normalized path", "https://legacy.example.com/cooking-class-france/", wpmigrate.LinkUnmatched, wpmigrate.ClassUnmatched, "/cooking-class-france"},
		{"in-page anchor unchanged", "#top", wpmigrate.LinkUnchanged, wpmigrate.ClassInPage, "#top"},
		{"malformed passes through", "http://[::1", wpmigrate.LinkUnchanged, wpmigrate.ClassMalformed, "http://[::1"},
		{"empty href passes through", "", wpmigrate.LinkUnchanged, wpmigrate.ClassMalformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := newRemapper().Remap(tt.href)

			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.class, res.Class)
			assert.Equal(t, tt.want, res.Href)
			assert.Equal(t, tt.href, res.Original)
		})
	}
}

func TestLinkRemapper_NilIndex(t *testing.T) {
	t.Parallel()

	r := &wpmigrate.LinkRemapper{Hosts: []string{"legacy.example.com"}}

	res := r.Remap("https://legacy.example.com/some-post/")

	assert.Equal(t, wpmigrate.LinkUnmatched, res.Kind)
	assert.Equal(t, "/some-post", res.Href)
}

func TestLinkResolution_External(t *testing.T) {
	t.Parallel()

	r := newRemapper()

	assert.True(t, r.Remap("https://other.com").External())
	assert.False(t, r.Remap("/surf-camp-bali").External())
}

func TestSlugIndex(t *testing.T) {
	t.Parallel()

	index := wpmigrate.NewSlugIndex()
	index.Add("B-Post", "/blog/b-post")
	index.Add("a-post", "/blog/a-post")
	index.Add("a-post", "/es/blog/a-post")
	index.Add("", "/ignored")

	assert.Equal(t, []string{"a-post", "b-post"}, index.Slugs())
	assert.Equal(t, 2, index.Len())

	p, ok := index.Lookup("a-post")
	assert.True(t, ok)
	assert.Equal(t, "/blog/a-post", p, "first path wins")

	p, ok = index.Lookup("B-POST")
	assert.True(t, ok)
	assert.Equal(t, "/blog/b-post", p)
}

func TestLinkClass_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "external", wpmigrate.ClassExternal.String())
	assert.Equal(t, "internal-known-slug", wpmigrate.ClassKnownSlug.String())
	assert.Equal(t, "internal-known-prefix", wpmigrate.ClassKnownPrefix.String())
	assert.Equal(t, "internal-unmatched", wpmigrate.ClassUnmatched.String())
	assert.Equal(t, "malformed", wpmigrate.ClassMalformed.String())
}
