package goquery

import (
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/wpmigrate"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// inline is the result of walking inline content: spans in order plus the
// link definitions and review items they produced.
type inline struct {
	spans     []wpmigrate.Span
	defs      []wpmigrate.MarkDef
	unmatched []wpmigrate.UnmatchedLink
	embeds    []wpmigrate.StrippedEmbed
}

func (in *inline) merge(other inline) {
	in.spans = append(in.spans, other.spans...)
	in.defs = append(in.defs, other.defs...)
	in.unmatched = append(in.unmatched, other.unmatched...)
	in.embeds = append(in.embeds, other.embeds...)
}

func (in inline) hasText() bool {
	for _, s := range in.spans {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

var decorators = map[atom.Atom]string{
	atom.Strong: wpmigrate.MarkStrong,
	atom.B:      wpmigrate.MarkStrong,
	atom.Em:     wpmigrate.MarkEm,
	atom.I:      wpmigrate.MarkEm,
	atom.U:      wpmigrate.MarkUnderline,
	atom.S:      wpmigrate.MarkStrikeThrough,
	atom.Del:    wpmigrate.MarkStrikeThrough,
	atom.Strike: wpmigrate.MarkStrikeThrough,
	atom.Code:   wpmigrate.MarkCode,
	atom.Kbd:    wpmigrate.MarkCode,
}

// lineBreakers end a line when they appear inside inline content, such as
// paragraphs inside a blockquote.
var lineBreakers = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Ul: true, atom.Ol: true, atom.Figcaption: true,
}

// inlineRun walks a run of sibling nodes carrying the active marks.
func (w *walker) inlineRun(nodes *goquery.Selection, marks []string) inline {
	var out inline
	for i := range nodes.Nodes {
		out.merge(w.inlineNode(nodes.Eq(i), marks))
	}
	return out
}

func (w *walker) inlineNode(s *goquery.Selection, marks []string) inline {
	n := s.Nodes[0]
	switch n.Type {
	case html.TextNode:
		if w.isEmbed(s) {
			return inline{embeds: []wpmigrate.StrippedEmbed{{SourceID: w.sourceID, Fragment: n.Data}}}
		}
		text := collapseSpace(n.Data)
		if !hasMark(marks, wpmigrate.MarkCode) {
			text = wpmigrate.DecodeEntities(text)
		}
		return inline{spans: []wpmigrate.Span{{Text: text, Marks: marks}}}
	case html.ElementNode:
	default:
		return inline{}
	}

	if w.isEmbed(s) {
		return inline{embeds: []wpmigrate.StrippedEmbed{w.stripped(s)}}
	}

	switch n.DataAtom {
	case atom.Br:
		return inline{spans: []wpmigrate.Span{{Text: "\n", Marks: marks}}}
	case atom.Img, atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Figure:
		return inline{}
	case atom.A:
		return w.link(s, marks)
	}

	if mark, ok := decorators[n.DataAtom]; ok {
		return w.inlineRun(s.Contents(), withMark(marks, mark))
	}

	out := w.inlineRun(s.Contents(), marks)
	if lineBreakers[n.DataAtom] && out.hasText() {
		out.spans = append(out.spans, wpmigrate.Span{Text: "\n"})
	}
	return out
}

// link walks the content of an anchor and annotates it with a link
// definition according to the remapper's decision.
func (w *walker) link(s *goquery.Selection, marks []string) inline {
	href, _ := s.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return w.inlineRun(s.Contents(), marks)
	}

	res := wpmigrate.LinkResolution{Kind: wpmigrate.LinkUnchanged, Href: href, Original: href}
	if w.cfg.Links != nil {
		res = w.cfg.Links.Remap(href)
	}
	if res.Kind == wpmigrate.LinkRemoved {
		return w.inlineRun(s.Contents(), marks)
	}

	target, _ := s.Attr("target")
	def := wpmigrate.MarkDef{
		Key:   "link:" + res.Href,
		Type:  wpmigrate.MarkDefLink,
		Href:  res.Href,
		Blank: target == "_blank" || res.External(),
	}
	if def.Blank {
		def.Key += "#blank"
	}

	out := w.inlineRun(s.Contents(), withMark(marks, def.Key))
	if !out.hasText() {
		if !hasMark(marks, def.Key) {
			for i := range out.spans {
				out.spans[i].Marks = withoutMark(out.spans[i].Marks, def.Key)
			}
		}
		return out
	}
	out.defs = append([]wpmigrate.MarkDef{def}, out.defs...)
	if res.Kind == wpmigrate.LinkUnmatched {
		out.unmatched = append([]wpmigrate.UnmatchedLink{{
			SourceID:  w.sourceID,
			Href:      href,
			BestGuess: res.Href,
		}}, out.unmatched...)
	}
	return out
}

// textBlock finalizes inline content into a text block based on tmpl.
// Content without visible text yields no block but keeps its review items.
func (w *walker) textBlock(tmpl wpmigrate.Block, in inline) wpmigrate.Conversion {
	out := wpmigrate.Conversion{UnmatchedLinks: in.unmatched, StrippedEmbeds: in.embeds}

	spans := normalizeSpans(in.spans)
	if len(spans) == 0 {
		return out
	}

	b := tmpl
	b.Type = wpmigrate.BlockTypeText
	b.Children = spans
	b.MarkDefs = usedDefs(in.defs, spans)
	out.Blocks = []wpmigrate.Block{b}
	return out
}

// normalizeSpans trims whitespace at block and line edges, merges adjacent
// spans with equal marks and drops empty ones.
func normalizeSpans(in []wpmigrate.Span) []wpmigrate.Span {
	spans := make([]wpmigrate.Span, 0, len(in))
	for _, s := range in {
		if s.Text == "" {
			continue
		}
		if s.Text != "\n" {
			if len(spans) == 0 || endsWithSpace(spans[len(spans)-1].Text) {
				s.Text = strings.TrimLeft(s.Text, " ")
			}
			if s.Text == "" {
				continue
			}
		}
		spans = append(spans, s)
	}

	// Trim before line breaks and at the end, then drop what emptied out.
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].Text == "\n" {
			continue
		}
		if i == len(spans)-1 || spans[i+1].Text == "\n" {
			spans[i].Text = strings.TrimRight(spans[i].Text, " ")
		}
	}

	merged := make([]wpmigrate.Span, 0, len(spans))
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		if n := len(merged); n > 0 && s.Text != "\n" && merged[n-1].Text != "\n" && slices.Equal(merged[n-1].Marks, s.Marks) {
			merged[n-1].Text += s.Text
			continue
		}
		s.Marks = append([]string{}, s.Marks...)
		merged = append(merged, s)
	}

	// Line breaks never open or close a block.
	for len(merged) > 0 && merged[0].Text == "\n" {
		merged = merged[1:]
	}
	for len(merged) > 0 && merged[len(merged)-1].Text == "\n" {
		merged = merged[:len(merged)-1]
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// usedDefs returns the definitions referenced by spans, deduplicated by key.
func usedDefs(defs []wpmigrate.MarkDef, spans []wpmigrate.Span) []wpmigrate.MarkDef {
	used := make(map[string]bool)
	for _, s := range spans {
		for _, m := range s.Marks {
			used[m] = true
		}
	}

	var out []wpmigrate.MarkDef
	seen := make(map[string]bool)
	for _, d := range defs {
		if !used[d.Key] || seen[d.Key] {
			continue
		}
		seen[d.Key] = true
		out = append(out, d)
	}
	return out
}

var spaceRun = regexp.MustCompile(`[ \t\n\r\f]+`)

func collapseSpace(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}

func endsWithSpace(s string) bool {
	return strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
}

func withMark(marks []string, mark string) []string {
	if hasMark(marks, mark) {
		return marks
	}
	out := make([]string, len(marks), len(marks)+1)
	copy(out, marks)
	return append(out, mark)
}

func withoutMark(marks []string, mark string) []string {
	if !hasMark(marks, mark) {
		return marks
	}
	out := make([]string, 0, len(marks)-1)
	for _, m := range marks {
		if m != mark {
			out = append(out, m)
		}
	}
	return out
}

func hasMark(marks []string, mark string) bool {
	return slices.Contains(marks, mark)
}
