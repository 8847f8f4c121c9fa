package alerts

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Alert summaries are rendered as text, so only inline and block formatting
// survives. Everything else is unwrapped to its text content, and these tags
// are dropped together with their content.
var droppedTags = map[string]struct{}{
	"embed":    {},
	"form":     {},
	"iframe":   {},
	"noscript": {},
	"object":   {},
	"script":   {},
	"style":    {},
	"template": {},
}

var keptTags = map[string]struct{}{
	"a": {}, "b": {}, "br": {}, "em": {}, "i": {}, "li": {}, "ol": {},
	"p": {}, "strong": {}, "table": {}, "tbody": {}, "td": {}, "th": {},
	"thead": {}, "tr": {}, "ul": {},
}

func SanitizeHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	nodes, err := html.ParseFragment(strings.NewReader(raw), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return html.EscapeString(raw)
	}

	var b strings.Builder
	for _, n := range nodes {
		for _, clean := range sanitizeNode(n) {
			_ = html.Render(&b, clean)
		}
	}
	return strings.TrimSpace(b.String())
}

// sanitizeNode returns the cleaned replacement for n, which may be zero nodes
// (dropped), one node (kept) or n's cleaned children (unwrapped).
func sanitizeNode(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if _, drop := droppedTags[tag]; drop {
			return nil
		}
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, sanitizeNode(c)...)
		}
		if _, keep := keptTags[tag]; !keep {
			return children
		}
		clone := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: n.DataAtom}
		if tag == "a" {
			for _, a := range n.Attr {
				if strings.EqualFold(a.Key, "href") && isSafeHref(a.Val) {
					clone.Attr = append(clone.Attr, html.Attribute{Key: "href", Val: a.Val})
				}
			}
		}
		for _, c := range children {
			clone.AppendChild(c)
		}
		return []*html.Node{clone}
	default:
		return nil
	}
}

func isSafeHref(v string) bool {
	u := strings.ToLower(strings.TrimSpace(v))
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "mailto:")
}
