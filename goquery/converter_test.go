package goquery_test

import (
	"context"
	"testing"

	"github.com/fwojciec/wpmigrate"
	"github.com/fwojciec/wpmigrate/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convert(t *testing.T, c *goquery.Converter, html string) *wpmigrate.Conversion {
	t.Helper()
	conv, err := c.Convert(context.Background(), wpmigrate.ConvertInput{SourceID: "42", HTML: html})
	require.NoError(t, err)
	return conv
}

func texts(blocks []wpmigrate.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Text()
	}
	return out
}

func newAssets(t *testing.T) *wpmigrate.AssetMap {
	t.Helper()
	m := wpmigrate.NewAssetMap()
	require.NoError(t, m.Add("7", wpmigrate.AssetEntry{
		AssetID:   "image-abc-800x600-jpg",
		SourceURL: "https://old.example.com/wp-content/uploads/2020/01/img.jpg",
	}))
	return m
}

func newRemapper() *wpmigrate.LinkRemapper {
	index := wpmigrate.NewSlugIndex()
	index.Add("hello-world", "/blog/hello-world")
	index.Add("pricing-plans", "/blog/pricing-plans")
	return &wpmigrate.LinkRemapper{
		Hosts:           []string{"old.example.com"},
		KnownPrefixes:   []string{"/contact"},
		RemovedPrefixes: []string{"/tag"},
		Index:           index,
		Matcher:         wpmigrate.NewSlugMatcher(),
	}
}

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts paragraph, heading and list", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<p>Hello <strong>world</strong></p><h2>Section</h2><ul><li>One</li><li>Two</li></ul>`)

		require.Len(t, conv.Blocks, 4)

		p := conv.Blocks[0]
		assert.Equal(t, wpmigrate.KindParagraph, p.Kind())
		require.Len(t, p.Children, 2)
		assert.Equal(t, "Hello ", p.Children[0].Text)
		assert.Empty(t, p.Children[0].Marks)
		assert.Equal(t, "world", p.Children[1].Text)
		assert.Equal(t, []string{wpmigrate.MarkStrong}, p.Children[1].Marks)

		assert.Equal(t, wpmigrate.KindHeading, conv.Blocks[1].Kind())
		assert.Equal(t, wpmigrate.StyleH2, conv.Blocks[1].Style)
		assert.Equal(t, "Section", conv.Blocks[1].Text())

		for i, want := range []string{"One", "Two"} {
			b := conv.Blocks[2+i]
			assert.Equal(t, wpmigrate.KindListItem, b.Kind())
			assert.Equal(t, wpmigrate.ListBullet, b.ListItem)
			assert.Equal(t, 1, b.Level)
			assert.Equal(t, want, b.Text())
		}
	})

	t.Run("assigns unique deterministic keys", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		html := `<p>Same</p><p>Same</p>`
		a := convert(t, c, html)
		b := convert(t, c, html)

		require.Len(t, a.Blocks, 2)
		assert.NotEqual(t, a.Blocks[0].Key, a.Blocks[1].Key)
		assert.Equal(t, a.Blocks, b.Blocks)
		assert.Equal(t, "span", a.Blocks[0].Children[0].Type)
		assert.NotEmpty(t, a.Blocks[0].Children[0].Key)
	})

	t.Run("emits placeholder for empty body", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Placeholder: "Coming soon"})
		conv := convert(t, c, "  \n ")

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, "Coming soon", conv.Blocks[0].Text())
	})

	t.Run("emits default placeholder when everything is stripped", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<iframe src="https://www.youtube.com/embed/abc"></iframe>`)

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, wpmigrate.DefaultPlaceholder, conv.Blocks[0].Text())
	})

	t.Run("maps h1 to h2 and keeps lower levels", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<h1>Top</h1><h3>Sub</h3><h6>Deep</h6>`)

		require.Len(t, conv.Blocks, 3)
		assert.Equal(t, wpmigrate.StyleH2, conv.Blocks[0].Style)
		assert.Equal(t, wpmigrate.StyleH3, conv.Blocks[1].Style)
		assert.Equal(t, wpmigrate.StyleH6, conv.Blocks[2].Style)
	})

	t.Run("strips embeds and reports each once", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<p>Before</p><p><iframe src="https://www.youtube.com/embed/xyz"></iframe></p><p>After</p>`)

		assert.Equal(t, []string{"Before", "After"}, texts(conv.Blocks))
		require.Len(t, conv.StrippedEmbeds, 1)
		assert.Equal(t, "42", conv.StrippedEmbeds[0].SourceID)
		assert.Contains(t, conv.StrippedEmbeds[0].Fragment, "youtube.com/embed/xyz")
	})

	t.Run("strips embed containers without dropping siblings", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<div><figure class="wp-block-embed is-type-video"><div>https://youtu.be/x</div></figure><p>Kept</p></div>`)

		assert.Equal(t, []string{"Kept"}, texts(conv.Blocks))
		assert.Len(t, conv.StrippedEmbeds, 1)
	})

	t.Run("strips shortcodes in loose text", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<p>Intro</p>[embed]https://youtu.be/x[/embed]`)

		assert.Equal(t, []string{"Intro"}, texts(conv.Blocks))
		assert.Len(t, conv.StrippedEmbeds, 1)
	})

	t.Run("applies decorator marks", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<p><em>a</em><u>b</u><del>c</del><code>d</code><b><i>e</i></b></p>`)

		require.Len(t, conv.Blocks, 1)
		spans := conv.Blocks[0].Children
		require.Len(t, spans, 5)
		assert.Equal(t, []string{wpmigrate.MarkEm}, spans[0].Marks)
		assert.Equal(t, []string{wpmigrate.MarkUnderline}, spans[1].Marks)
		assert.Equal(t, []string{wpmigrate.MarkStrikeThrough}, spans[2].Marks)
		assert.Equal(t, []string{wpmigrate.MarkCode}, spans[3].Marks)
		assert.Equal(t, []string{wpmigrate.MarkStrong, wpmigrate.MarkEm}, spans[4].Marks)
	})

	t.Run("merges adjacent spans and collapses whitespace", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, "<p>  one\n\t two <span>three</span>  </p>")

		require.Len(t, conv.Blocks, 1)
		require.Len(t, conv.Blocks[0].Children, 1)
		assert.Equal(t, "one two three", conv.Blocks[0].Children[0].Text)
	})

	t.Run("turns line breaks into newline spans", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<p>line one<br>line two</p>`)

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, "line one\nline two", conv.Blocks[0].Text())
	})

	t.Run("decodes double-encoded entities in text", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<p>It&amp;#8217;s &amp;amp; more</p>`)

		assert.Equal(t, "It’s & more", conv.Blocks[0].Text())
	})

	t.Run("groups loose inline content into a paragraph", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `Loose <em>text</em> here<p>Block</p>tail`)

		assert.Equal(t, []string{"Loose text here", "Block", "tail"}, texts(conv.Blocks))
	})

	t.Run("recurses into generic containers", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<div class="entry"><section><p>Inner</p></section><hr><p>Next</p></div>`)

		assert.Equal(t, []string{"Inner", "Next"}, texts(conv.Blocks))
	})

	t.Run("converts blockquote paragraphs into one quote", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<blockquote><p>First</p><p>Second</p></blockquote>`)

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, wpmigrate.KindBlockquote, conv.Blocks[0].Kind())
		assert.Equal(t, "First\nSecond", conv.Blocks[0].Text())
	})

	t.Run("converts nested lists with levels", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<ol><li>One<ul><li>Inner</li></ul></li><li>Two</li></ol>`)

		require.Len(t, conv.Blocks, 3)
		assert.Equal(t, []string{"One", "Inner", "Two"}, texts(conv.Blocks))
		assert.Equal(t, wpmigrate.ListNumber, conv.Blocks[0].ListItem)
		assert.Equal(t, 1, conv.Blocks[0].Level)
		assert.Equal(t, wpmigrate.ListBullet, conv.Blocks[1].ListItem)
		assert.Equal(t, 2, conv.Blocks[1].Level)
		assert.Equal(t, wpmigrate.ListNumber, conv.Blocks[2].ListItem)
		assert.Equal(t, 1, conv.Blocks[2].Level)
	})

	t.Run("keeps preformatted text line by line", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, "<pre>a  b\nc</pre>")

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, "a  b\nc", conv.Blocks[0].Text())
		assert.Equal(t, []string{wpmigrate.MarkCode}, conv.Blocks[0].Children[0].Marks)
	})
}

func TestConverter_Convert_Images(t *testing.T) {
	t.Parallel()

	t.Run("resolves size variant to migrated asset", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Assets: newAssets(t)})
		conv := convert(t, c, `<img src="https://old.example.com/wp-content/uploads/2020/01/img-800x600.jpg" alt="A &amp; B">`)

		require.Len(t, conv.Blocks, 1)
		b := conv.Blocks[0]
		assert.Equal(t, wpmigrate.KindImage, b.Kind())
		require.NotNil(t, b.Asset)
		assert.Equal(t, "image-abc-800x600-jpg", b.Asset.Ref)
		assert.Equal(t, "A & B", b.Alt)
	})

	t.Run("uses figcaption as caption", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Assets: newAssets(t)})
		conv := convert(t, c, `<figure class="wp-block-image"><img src="https://old.example.com/wp-content/uploads/2020/01/img.jpg"><figcaption>A  caption</figcaption></figure>`)

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, "A caption", conv.Blocks[0].Caption)
	})

	t.Run("extracts images before paragraph text", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Assets: newAssets(t)})
		conv := convert(t, c, `<p>Look <img src="https://old.example.com/wp-content/uploads/2020/01/img.jpg"> here</p>`)

		require.Len(t, conv.Blocks, 2)
		assert.Equal(t, wpmigrate.KindImage, conv.Blocks[0].Kind())
		assert.Equal(t, "Look here", conv.Blocks[1].Text())
	})

	t.Run("omits unresolvable images and reports them", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Assets: newAssets(t)})
		conv := convert(t, c, `<p>Text</p><img src="https://old.example.com/other.png">`)

		assert.Equal(t, []string{"Text"}, texts(conv.Blocks))
		assert.Equal(t, []string{"https://old.example.com/other.png"}, conv.MissingAssets)
	})

	t.Run("keeps images nested in headings and quotes", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Assets: newAssets(t)})
		conv := convert(t, c, `<h2><img src="https://old.example.com/wp-content/uploads/2020/01/img.jpg"> Gallery</h2>`+
			`<blockquote><figure><img src="https://old.example.com/wp-content/uploads/2020/01/img-300x200.jpg"></figure><p>Quoted</p></blockquote>`+
			`<blockquote><img src="https://old.example.com/other.png"> Lost</blockquote>`)

		require.Len(t, conv.Blocks, 5)
		assert.Equal(t, []wpmigrate.BlockKind{
			wpmigrate.KindImage,
			wpmigrate.KindHeading,
			wpmigrate.KindImage,
			wpmigrate.KindBlockquote,
			wpmigrate.KindBlockquote,
		}, []wpmigrate.BlockKind{
			conv.Blocks[0].Kind(),
			conv.Blocks[1].Kind(),
			conv.Blocks[2].Kind(),
			conv.Blocks[3].Kind(),
			conv.Blocks[4].Kind(),
		})
		assert.Equal(t, "Gallery", conv.Blocks[1].Text())
		assert.Equal(t, "Quoted", conv.Blocks[3].Text())
		assert.Equal(t, []string{"https://old.example.com/other.png"}, conv.MissingAssets)
	})

	t.Run("honors lazy-loading source", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Assets: newAssets(t)})
		conv := convert(t, c, `<img src="data:image/gif;base64,R0lGOD" data-src="https://old.example.com/wp-content/uploads/2020/01/img.jpg">`)

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, wpmigrate.KindImage, conv.Blocks[0].Kind())
	})
}

func TestConverter_Convert_Links(t *testing.T) {
	t.Parallel()

	t.Run("rewrites known slug links", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Links: newRemapper()})
		conv := convert(t, c, `<p>See <a href="https://old.example.com/hello-world/">this</a>.</p>`)

		require.Len(t, conv.Blocks, 1)
		b := conv.Blocks[0]
		require.Len(t, b.MarkDefs, 1)
		assert.Equal(t, "/blog/hello-world", b.MarkDefs[0].Href)
		assert.False(t, b.MarkDefs[0].Blank)

		require.Len(t, b.Children, 3)
		assert.Equal(t, []string{b.MarkDefs[0].Key}, b.Children[1].Marks)
		def, ok := b.MarkDef(b.MarkDefs[0].Key)
		require.True(t, ok)
		assert.Equal(t, wpmigrate.MarkDefLink, def.Type)
		assert.Empty(t, conv.UnmatchedLinks)
	})

	t.Run("opens external links in a new tab", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Links: newRemapper()})
		conv := convert(t, c, `<p><a href="https://other.org/page">out</a></p>`)

		require.Len(t, conv.Blocks[0].MarkDefs, 1)
		assert.Equal(t, "https://other.org/page", conv.Blocks[0].MarkDefs[0].Href)
		assert.True(t, conv.Blocks[0].MarkDefs[0].Blank)
	})

	t.Run("drops removed links but keeps text", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Links: newRemapper()})
		conv := convert(t, c, `<p>Tagged <a href="/tag/go">go</a></p>`)

		require.Len(t, conv.Blocks, 1)
		assert.Equal(t, "Tagged go", conv.Blocks[0].Text())
		assert.Empty(t, conv.Blocks[0].MarkDefs)
		require.Len(t, conv.Blocks[0].Children, 1)
	})

	t.Run("records unmatched links with best guess", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Links: newRemapper()})
		conv := convert(t, c, `<p><a href="/pricing-plans-2020">plans</a></p>`)

		require.Len(t, conv.UnmatchedLinks, 1)
		u := conv.UnmatchedLinks[0]
		assert.Equal(t, "42", u.SourceID)
		assert.Equal(t, "/pricing-plans-2020", u.Href)
		assert.Equal(t, "/blog/pricing-plans", u.BestGuess)
		assert.Equal(t, "/blog/pricing-plans", conv.Blocks[0].MarkDefs[0].Href)
	})

	t.Run("gives repeated links one definition per block", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{Links: newRemapper()})
		conv := convert(t, c, `<p><a href="/contact">a</a> and <a href="/contact">b</a></p><p><a href="/contact">c</a></p>`)

		require.Len(t, conv.Blocks, 2)
		require.Len(t, conv.Blocks[0].MarkDefs, 1)
		require.Len(t, conv.Blocks[1].MarkDefs, 1)
		assert.NotEqual(t, conv.Blocks[0].MarkDefs[0].Key, conv.Blocks[1].MarkDefs[0].Key)
	})

	t.Run("declares every link mark it keeps", func(t *testing.T) {
		t.Parallel()

		for _, html := range []string{
			`<p>Hello<a href="https://example.org/x">&nbsp;</a>world</p>`,
			`<p>Hello<a href="https://example.org/x"><br></a>world</p>`,
			`<p><strong><a href="/contact"> </a>bold</strong> <a href="/contact">kept</a></p>`,
		} {
			c := goquery.NewConverter(goquery.Config{})
			conv := convert(t, c, html)

			require.NotEmpty(t, conv.Blocks, html)
			for _, b := range conv.Blocks {
				for _, s := range b.Children {
					for _, m := range s.Marks {
						_, declared := b.MarkDef(m)
						assert.True(t, declared || wpmigrate.IsDecorator(m), "%s: undeclared mark %q", html, m)
					}
				}
			}
		}
	})

	t.Run("keeps links unchanged without a remapper", func(t *testing.T) {
		t.Parallel()

		c := goquery.NewConverter(goquery.Config{})
		conv := convert(t, c, `<p><a href="/anything" target="_blank">x</a></p>`)

		require.Len(t, conv.Blocks[0].MarkDefs, 1)
		assert.Equal(t, "/anything", conv.Blocks[0].MarkDefs[0].Href)
		assert.True(t, conv.Blocks[0].MarkDefs[0].Blank)
	})
}

func TestConverter_Convert_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := goquery.NewConverter(goquery.Config{})
	_, err := c.Convert(ctx, wpmigrate.ConvertInput{SourceID: "1", HTML: "<p>x</p>"})

	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_ExtractMediaIDs(t *testing.T) {
	t.Parallel()

	ids, err := goquery.NewExtractor().ExtractMediaIDs(`<img class="alignnone wp-image-12 size-full" src="a.jpg"><p><img class="wp-image-5"></p><img class="wp-image-12">`)

	require.NoError(t, err)
	assert.Equal(t, []string{"12", "5"}, ids)
}

func TestExtractor_ExtractImageURLs(t *testing.T) {
	t.Parallel()

	urls, err := goquery.NewExtractor().ExtractImageURLs(`<img src="a.jpg"><img src="b.jpg"><img data-src="c.jpg"><img src="a.jpg">`)

	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, urls)
}
