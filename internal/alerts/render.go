package alerts

import (
	"strings"

	markdown "github.com/JohannesKaufmann/html-to-markdown"
)

// Renderer turns alert descriptions, which CAP publishers often ship as HTML
// fragments, into compact markdown for the summary column.
type Renderer struct {
	converter *markdown.Converter
}

func NewRenderer() *Renderer {
	c := markdown.NewConverter("", true, nil)
	return &Renderer{converter: c}
}

func (r *Renderer) HTMLToMarkdown(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	out, err := r.converter.ConvertString(html)
	if err != nil {
		return CompactText(html, summaryMax)
	}
	return strings.TrimSpace(out)
}
