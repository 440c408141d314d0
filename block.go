package wpmigrate

// BlockType is the serialized type of a block.
type BlockType string

// Block types.
const (
	BlockTypeText  BlockType = "block"
	BlockTypeImage BlockType = "image"
)

// BlockStyle is the style of a text block.
type BlockStyle string

// Block styles. There is no h1 style: the document title
// owns the top-level heading.
const (
	StyleNormal     BlockStyle = "normal"
	StyleH2         BlockStyle = "h2"
	StyleH3         BlockStyle = "h3"
	StyleH4         BlockStyle = "h4"
	StyleH5         BlockStyle = "h5"
	StyleH6         BlockStyle = "h6"
	StyleBlockquote BlockStyle = "blockquote"
)

// HeadingStyle returns the block style for an HTML heading level.
// Levels below 2 are raised to h2, levels above 6 lowered to h6.
func HeadingStyle(level int) BlockStyle {
	switch {
	case level <= 2:
		return StyleH2
	case level == 3:
		return StyleH3
	case level == 4:
		return StyleH4
	case level == 5:
		return StyleH5
	default:
		return StyleH6
	}
}

// ListKind distinguishes ordered from unordered list items.
type ListKind string

// List kinds.
const (
	ListBullet ListKind = "bullet"
	ListNumber ListKind = "number"
)

// Decorator marks.
const (
	MarkStrong        = "strong"
	MarkEm            = "em"
	MarkUnderline     = "underline"
	MarkStrikeThrough = "strike-through"
	MarkCode          = "code"
)

// IsDecorator reports whether mark is a decorator rather than a reference
// to a mark definition.
func IsDecorator(mark string) bool {
	switch mark {
	case MarkStrong, MarkEm, MarkUnderline, MarkStrikeThrough, MarkCode:
		return true
	}
	return false
}

// BlockKind is the structural variant of a block.
type BlockKind int

// Block kinds.
const (
	KindParagraph BlockKind = iota
	KindHeading
	KindBlockquote
	KindListItem
	KindImage
)

// String returns the kind's name.
func (k BlockKind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindBlockquote:
		return "blockquote"
	case KindListItem:
		return "list-item"
	case KindImage:
		return "image"
	default:
		return "paragraph"
	}
}

// Block is one structural unit of a rich-text document. Text blocks carry
// Children and MarkDefs; image blocks carry Asset, Alt and Caption.
type Block struct {
	Key   string     `json:"_key"`
	Type  BlockType  `json:"_type"`
	Style BlockStyle `json:"style,omitempty"`

	ListItem ListKind `json:"listItem,omitempty"`
	Level    int      `json:"level,omitempty"`

	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`

	Asset   *AssetRef `json:"asset,omitempty"`
	Alt     string    `json:"alt,omitempty"`
	Caption string    `json:"caption,omitempty"`
}

// Kind returns the structural variant of the block.
func (b *Block) Kind() BlockKind {
	switch {
	case b.Type == BlockTypeImage:
		return KindImage
	case b.ListItem != "":
		return KindListItem
	case b.Style == StyleBlockquote:
		return KindBlockquote
	case b.Style != "" && b.Style != StyleNormal:
		return KindHeading
	default:
		return KindParagraph
	}
}

// Text returns the concatenated text of the block's spans.
func (b *Block) Text() string {
	var n int
	for _, s := range b.Children {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range b.Children {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// MarkDef returns the mark definition with the given key, if the block declares it.
func (b *Block) MarkDef(key string) (MarkDef, bool) {
	for _, d := range b.MarkDefs {
		if d.Key == key {
			return d, true
		}
	}
	return MarkDef{}, false
}

// Span is an inline run of text within a block.
type Span struct {
	Key   string   `json:"_key"`
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// HasMark reports whether the span carries the mark.
func (s Span) HasMark(mark string) bool {
	for _, m := range s.Marks {
		if m == mark {
			return true
		}
	}
	return false
}

// MarkDef is an annotation referenced from span marks. Link is the only kind.
type MarkDef struct {
	Key   string `json:"_key"`
	Type  string `json:"_type"`
	Href  string `json:"href"`
	Blank bool   `json:"blank,omitempty"`
}

// MarkDefLink is the type of link mark definitions.
const MarkDefLink = "link"

// AssetRef points at a migrated asset in the target store.
type AssetRef struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

// NewAssetRef returns a reference to the asset.
func NewAssetRef(assetID string) *AssetRef {
	return &AssetRef{Type: "reference", Ref: assetID}
}
