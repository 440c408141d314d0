package htmltomarkdown

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/fwojciec/wpmigrate"
	"golang.org/x/net/html"
)

// Ensure Converter implements wpmigrate.TextConverter at compile time.
var _ wpmigrate.TextConverter = (*Converter)(nil)

// Converter renders HTML fragments as plain text. Only the base plugin is
// registered, so emphasis, links and images contribute their text and no
// Markdown syntax. Block elements are separated by blank lines.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithEscapeMode(converter.EscapeModeDisabled),
		converter.WithPlugins(base.NewBasePlugin()),
	)
	conv.Register.RendererFor("br", converter.TagTypeInline, renderLineBreak, converter.PriorityStandard)
	conv.Register.PostRenderer(unescapeAngles, converter.PriorityLate)
	return &Converter{conv: conv}
}

func renderLineBreak(_ converter.Context, w converter.Writer, _ *html.Node) converter.RenderStatus {
	_, _ = w.WriteString("\n")
	return converter.RenderSuccess
}

// The base plugin escapes angle brackets in text for Markdown output.
var angles = strings.NewReplacer("&lt;", "<", "&gt;", ">")

func unescapeAngles(_ converter.Context, content []byte) []byte {
	if !bytes.Contains(content, []byte("&")) {
		return content
	}
	return []byte(angles.Replace(string(content)))
}

// ConvertText transforms an HTML fragment into trimmed plain text.
// Blank input yields blank output.
func (c *Converter) ConvertText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", wpmigrate.Errorf(wpmigrate.EINVALID, "failed to convert HTML: %v", err)
	}

	return strings.TrimSpace(result), nil
}
