package wpmigrate

import (
	"strings"
)

// FormatBlocks renders blocks as plain text for previews and review.
// Headings are prefixed with #, quotes with >, list items are indented by
// level, and images show their asset reference. Consecutive list items are
// separated by a single newline; everything else by a blank line.
func FormatBlocks(blocks []Block) string {
	if len(blocks) == 0 {
		return ""
	}

	var b strings.Builder
	for i := range blocks {
		blk := &blocks[i]
		if i > 0 {
			if blk.Kind() == KindListItem && blocks[i-1].Kind() == KindListItem {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(formatBlock(blk))
	}
	return b.String()
}

func formatBlock(blk *Block) string {
	switch blk.Kind() {
	case KindImage:
		ref := ""
		if blk.Asset != nil {
			ref = blk.Asset.Ref
		}
		s := "![" + blk.Alt + "](" + ref + ")"
		if blk.Caption != "" {
			s += "\n" + blk.Caption
		}
		return s
	case KindHeading:
		level := strings.TrimPrefix(string(blk.Style), "h")
		n := 2
		if len(level) == 1 && level[0] >= '2' && level[0] <= '6' {
			n = int(level[0] - '0')
		}
		return strings.Repeat("#", n) + " " + blk.Text()
	case KindBlockquote:
		return "> " + strings.ReplaceAll(blk.Text(), "\n", "\n> ")
	case KindListItem:
		indent := ""
		if blk.Level > 1 {
			indent = strings.Repeat("  ", blk.Level-1)
		}
		marker := "- "
		if blk.ListItem == ListNumber {
			marker = "1. "
		}
		return indent + marker + blk.Text()
	default:
		return blk.Text()
	}
}
