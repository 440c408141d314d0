package goquery

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/wpmigrate"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ensure Converter implements wpmigrate.BlockConverter at compile time.
var _ wpmigrate.BlockConverter = (*Converter)(nil)

// Config holds the collaborators and per-variant settings of a Converter.
type Config struct {
	// Assets resolves image URLs. Images it cannot resolve are omitted.
	Assets wpmigrate.AssetResolver

	// Links remaps hyperlinks. When nil, hrefs are kept as they are.
	Links *wpmigrate.LinkRemapper

	// Embeds recognizes third-party embeds. Defaults to wpmigrate.DefaultEmbedPatterns.
	Embeds *wpmigrate.EmbedDetector

	// Placeholder is the text of the block emitted for an empty body.
	// Defaults to wpmigrate.DefaultPlaceholder.
	Placeholder string
}

// Converter turns WordPress HTML bodies into rich-text blocks.
// One Converter serves one content variant; it holds no per-record state
// and is safe for concurrent use.
type Converter struct {
	cfg Config
}

// NewConverter creates a new Converter.
func NewConverter(cfg Config) *Converter {
	if cfg.Assets == nil {
		cfg.Assets = wpmigrate.NewAssetMap()
	}
	if cfg.Embeds == nil {
		cfg.Embeds = wpmigrate.NewEmbedDetector()
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = wpmigrate.DefaultPlaceholder
	}
	return &Converter{cfg: cfg}
}

// Convert transforms an HTML body into blocks in source order.
// A body that yields no blocks converts to a single placeholder paragraph.
func (c *Converter) Convert(ctx context.Context, in wpmigrate.ConvertInput) (*wpmigrate.Conversion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := parseBody(in.HTML)
	if err != nil {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "failed to parse HTML for record %s: %v", in.SourceID, err)
	}

	w := &walker{cfg: c.cfg, sourceID: in.SourceID}
	conv := w.blocks(root)
	if len(conv.Blocks) == 0 {
		conv.Blocks = []wpmigrate.Block{{
			Type:     wpmigrate.BlockTypeText,
			Style:    wpmigrate.StyleNormal,
			Children: []wpmigrate.Span{{Text: c.cfg.Placeholder, Marks: []string{}}},
		}}
	}
	assignKeys(conv.Blocks)

	return &conv, nil
}

// parseBody parses an HTML fragment in a body context and returns a
// selection wrapping a synthetic body element that holds it.
func parseBody(s string) (*goquery.Selection, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(body).Selection, nil
}

// walker carries the read-only context of one conversion. Every method
// returns what it produced; nothing is accumulated on the walker.
type walker struct {
	cfg      Config
	sourceID string
}

// blockSelector matches elements that cannot live inside an inline run.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, ul, ol, li, blockquote, figure, div, section, article, table, pre, iframe, hr"

var inlineAtoms = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Br: true, atom.Cite: true,
	atom.Code: true, atom.Del: true, atom.Em: true, atom.Font: true, atom.I: true,
	atom.Img: true, atom.Ins: true, atom.Kbd: true, atom.Label: true, atom.Mark: true,
	atom.Q: true, atom.S: true, atom.Small: true, atom.Span: true, atom.Strike: true,
	atom.Strong: true, atom.Sub: true, atom.Sup: true, atom.Time: true, atom.U: true,
}

// leafBlocks are checked for embeds by their whole markup; everything else
// by its start tag only, so a container is not dropped for a nested embed.
var leafBlocks = map[atom.Atom]bool{
	atom.P: true, atom.Figure: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

var droppedAtoms = map[atom.Atom]bool{
	atom.Style: true, atom.Noscript: true, atom.Template: true, atom.Head: true,
	atom.Title: true, atom.Meta: true, atom.Link: true,
}

func isInline(s *goquery.Selection) bool {
	n := s.Nodes[0]
	switch n.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		if !inlineAtoms[n.DataAtom] {
			return false
		}
		return s.Find(blockSelector).Length() == 0
	}
	return false
}

// blocks converts the children of a container. Consecutive inline children
// are grouped into one paragraph.
func (w *walker) blocks(s *goquery.Selection) wpmigrate.Conversion {
	var out wpmigrate.Conversion
	contents := s.Contents()
	for i := 0; i < contents.Length(); {
		if isInline(contents.Eq(i)) {
			j := i + 1
			for j < contents.Length() && isInline(contents.Eq(j)) {
				j++
			}
			out.Merge(w.paragraph(contents.Slice(i, j)))
			i = j
			continue
		}
		out.Merge(w.block(contents.Eq(i)))
		i++
	}
	return out
}

// block converts one block-level node.
func (w *walker) block(s *goquery.Selection) wpmigrate.Conversion {
	n := s.Nodes[0]
	if n.Type != html.ElementNode {
		return wpmigrate.Conversion{}
	}
	if droppedAtoms[n.DataAtom] {
		return wpmigrate.Conversion{}
	}

	if w.isEmbed(s) {
		return wpmigrate.Conversion{StrippedEmbeds: []wpmigrate.StrippedEmbed{w.stripped(s)}}
	}

	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		out := w.images(s)
		out.Merge(w.textBlock(wpmigrate.Block{Style: wpmigrate.HeadingStyle(level)}, w.inlineRun(s.Contents(), nil)))
		return out
	case atom.P:
		return w.paragraph(s.Contents())
	case atom.Blockquote:
		out := w.images(s)
		out.Merge(w.textBlock(wpmigrate.Block{Style: wpmigrate.StyleBlockquote}, w.inlineRun(s.Contents(), nil)))
		return out
	case atom.Ul, atom.Ol:
		return w.list(s, 1)
	case atom.Img:
		return w.image(s, "")
	case atom.Figure:
		return w.figure(s)
	case atom.Pre:
		return w.preformatted(s)
	}

	// Generic containers and unknown elements: recurse, leaves vanish.
	return w.blocks(s)
}

// paragraph converts a run of sibling nodes into image blocks for every
// image it holds followed by one paragraph for its text.
func (w *walker) paragraph(nodes *goquery.Selection) wpmigrate.Conversion {
	var out wpmigrate.Conversion
	for i := range nodes.Nodes {
		node := nodes.Eq(i)
		if node.Is("img") {
			out.Merge(w.image(node, ""))
			continue
		}
		out.Merge(w.images(node))
	}
	out.Merge(w.textBlock(wpmigrate.Block{Style: wpmigrate.StyleNormal}, w.inlineRun(nodes, nil)))
	return out
}

// images emits image blocks for every image nested in a text block.
func (w *walker) images(s *goquery.Selection) wpmigrate.Conversion {
	var out wpmigrate.Conversion
	imgs := s.Find("img")
	for i := range imgs.Nodes {
		out.Merge(w.image(imgs.Eq(i), ""))
	}
	return out
}

// list emits one list item per direct li child; nested lists follow their
// parent item one level deeper.
func (w *walker) list(s *goquery.Selection, level int) wpmigrate.Conversion {
	kind := wpmigrate.ListBullet
	if s.Is("ol") {
		kind = wpmigrate.ListNumber
	}

	var out wpmigrate.Conversion
	children := s.Children()
	for i := range children.Nodes {
		child := children.Eq(i)
		switch {
		case child.Is("li"):
			if w.isEmbed(child) {
				out.Merge(wpmigrate.Conversion{StrippedEmbeds: []wpmigrate.StrippedEmbed{w.stripped(child)}})
				continue
			}
			content := child.Contents().Not("ul, ol")
			out.Merge(w.textBlock(wpmigrate.Block{
				Style:    wpmigrate.StyleNormal,
				ListItem: kind,
				Level:    level,
			}, w.inlineRun(content, nil)))

			imgs := content.Filter("img").AddSelection(content.Find("img"))
			for j := range imgs.Nodes {
				out.Merge(w.image(imgs.Eq(j), ""))
			}

			nested := child.ChildrenFiltered("ul, ol")
			for j := range nested.Nodes {
				out.Merge(w.list(nested.Eq(j), level+1))
			}
		case child.Is("ul, ol"):
			out.Merge(w.list(child, level+1))
		}
	}
	return out
}

// figure converts an image figure, using its figcaption as the caption.
// Figures without images, or wrapping other figures, are treated as containers.
func (w *walker) figure(s *goquery.Selection) wpmigrate.Conversion {
	imgs := s.Find("img")
	if imgs.Length() == 0 || s.Find("figure").Length() > 0 {
		return w.blocks(s)
	}

	caption := strings.TrimSpace(collapseSpace(s.Find("figcaption").First().Text()))
	caption = wpmigrate.DecodeEntities(caption)

	var out wpmigrate.Conversion
	for i := range imgs.Nodes {
		c := ""
		if i == 0 {
			c = caption
		}
		out.Merge(w.image(imgs.Eq(i), c))
	}
	return out
}

// image emits an image block if the source resolves to a migrated asset.
// Unresolvable images are reported and left out.
func (w *walker) image(s *goquery.Selection, caption string) wpmigrate.Conversion {
	src := imageSource(s)
	if src == "" {
		return wpmigrate.Conversion{}
	}

	assetID, ok := w.cfg.Assets.Resolve(src)
	if !ok {
		return wpmigrate.Conversion{MissingAssets: []string{src}}
	}

	alt, _ := s.Attr("alt")
	return wpmigrate.Conversion{Blocks: []wpmigrate.Block{{
		Type:    wpmigrate.BlockTypeImage,
		Asset:   wpmigrate.NewAssetRef(assetID),
		Alt:     wpmigrate.DecodeEntities(strings.TrimSpace(alt)),
		Caption: caption,
	}}}
}

// imageSource returns the image URL, honoring lazy-loading attributes.
func imageSource(s *goquery.Selection) string {
	for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
		if v, ok := s.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if v != "" && !strings.HasPrefix(v, "data:") {
				return v
			}
		}
	}
	return ""
}

// preformatted keeps the text of a pre element line by line, marked as code.
func (w *walker) preformatted(s *goquery.Selection) wpmigrate.Conversion {
	text := strings.Trim(s.Text(), "\n")
	if strings.TrimSpace(text) == "" {
		return wpmigrate.Conversion{}
	}

	var spans []wpmigrate.Span
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			spans = append(spans, wpmigrate.Span{Text: "\n", Marks: []string{wpmigrate.MarkCode}})
		}
		if line != "" {
			spans = append(spans, wpmigrate.Span{Text: line, Marks: []string{wpmigrate.MarkCode}})
		}
	}
	return wpmigrate.Conversion{Blocks: []wpmigrate.Block{{
		Type:     wpmigrate.BlockTypeText,
		Style:    wpmigrate.StyleNormal,
		Children: spans,
	}}}
}

// isEmbed reports whether a node carries an embed signature.
func (w *walker) isEmbed(s *goquery.Selection) bool {
	n := s.Nodes[0]
	if n.Type == html.TextNode {
		return w.cfg.Embeds.IsEmbed(n.Data)
	}
	if n.Type != html.ElementNode {
		return false
	}
	if w.cfg.Embeds.IsEmbed(startTag(n)) {
		return true
	}
	if leafBlocks[n.DataAtom] {
		markup, err := goquery.OuterHtml(s)
		return err == nil && w.cfg.Embeds.IsEmbed(markup)
	}
	return false
}

func (w *walker) stripped(s *goquery.Selection) wpmigrate.StrippedEmbed {
	fragment, err := goquery.OuterHtml(s)
	if err != nil {
		fragment = s.Text()
	}
	return wpmigrate.StrippedEmbed{SourceID: w.sourceID, Fragment: fragment}
}

// startTag renders the opening tag of an element with its attributes.
func startTag(n *html.Node) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(strings.ReplaceAll(a.Val, `"`, "&quot;"))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	return b.String()
}

// hashKey returns a short deterministic key for s.
func hashKey(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))[:12]
}

// assignKeys gives every block, span and mark definition a key derived from
// its position and content, so converting the same body twice yields
// identical documents. Mark keys are renamed per block.
func assignKeys(blocks []wpmigrate.Block) {
	for i := range blocks {
		b := &blocks[i]
		ref := ""
		if b.Asset != nil {
			ref = b.Asset.Ref
		}
		b.Key = hashKey(fmt.Sprintf("%d|%s|%s|%s", i, b.Kind(), ref, b.Text()))

		if b.Type == "" {
			b.Type = wpmigrate.BlockTypeText
		}

		rename := make(map[string]string, len(b.MarkDefs))
		for j := range b.MarkDefs {
			key := fmt.Sprintf("%s%d", b.Key[:8], j)
			rename[b.MarkDefs[j].Key] = key
			b.MarkDefs[j].Key = key
		}
		for j := range b.Children {
			s := &b.Children[j]
			s.Key = fmt.Sprintf("%s-%d", b.Key, j)
			s.Type = "span"
			if s.Marks == nil {
				s.Marks = []string{}
			}
			for k, m := range s.Marks {
				if key, ok := rename[m]; ok {
					s.Marks[k] = key
				}
			}
		}
	}
}
