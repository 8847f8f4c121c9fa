package alerts

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/odysseus0/alertbridge/internal/model"
)

var ErrParse = errors.New("feed parse failed")

const (
	DefaultLimit      = 5
	DefaultTimeLayout = "3:04:05 PM"

	FallbackTitle   = "Disaster Update"
	RecentTime      = "Recent"
	NoAlertsID      = "none"
	NoAlertsMessage = "No active alerts"
	NoAlertsTime    = "--"

	summaryMax = 280
)

var (
	entryNames     = []string{"item", "entry"}
	timestampNames = []string{"pubDate", "published", "updated", "sent", "effective"}
	summaryNames   = []string{"description", "summary", "content"}
)

type Parser struct {
	limit    int
	layout   string
	loc      *time.Location
	renderer *Renderer
}

type Option func(*Parser)

func WithLimit(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.limit = n
		}
	}
}

func WithTimeLayout(layout string) Option {
	return func(p *Parser) {
		if strings.TrimSpace(layout) != "" {
			p.layout = layout
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		limit:    DefaultLimit,
		layout:   DefaultTimeLayout,
		loc:      time.Local,
		renderer: NewRenderer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse turns a feed document into at most limit alert records in document
// order. Entries are matched by local element name, so any namespace prefix
// works. A document with no entries yields the single "No active alerts"
// placeholder; a document that cannot be parsed yields ErrParse and no records.
func (p *Parser) Parse(body string) ([]model.AlertRecord, error) {
	root, err := buildTree(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	entries := root.findAll(entryNames, p.limit)
	if len(entries) == 0 {
		return []model.AlertRecord{NoAlerts()}, nil
	}

	out := make([]model.AlertRecord, 0, len(entries))
	for i, e := range entries {
		out = append(out, model.AlertRecord{
			ID:      "live-" + strconv.Itoa(i),
			Time:    p.displayTime(e),
			Message: fallback(e.firstText("title"), FallbackTitle),
			Summary: p.summary(e),
			Link:    e.link(),
			Kind:    model.KindAlert,
		})
	}
	return out, nil
}

func NoAlerts() model.AlertRecord {
	return model.AlertRecord{
		ID:      NoAlertsID,
		Time:    NoAlertsTime,
		Message: NoAlertsMessage,
		Kind:    model.KindPlaceholder,
	}
}

// LooksLikeMarkup reports whether body is non-empty and starts with '<' once
// leading whitespace and a byte order mark are skipped.
func LooksLikeMarkup(body string) bool {
	return strings.HasPrefix(strings.TrimLeft(body, " \t\r\n\ufeff"), "<")
}

func (p *Parser) displayTime(e *node) string {
	for _, name := range timestampNames {
		raw := e.firstText(name)
		if raw == "" {
			continue
		}
		if t, err := parseTimestamp(raw); err == nil {
			return t.In(p.loc).Format(p.layout)
		}
	}
	return RecentTime
}

func (p *Parser) summary(e *node) string {
	for _, name := range summaryNames {
		raw := e.firstText(name)
		if raw == "" {
			continue
		}
		md := p.renderer.HTMLToMarkdown(SanitizeHTML(raw))
		return CompactText(md, summaryMax)
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", v)
}

type node struct {
	local    string
	attrs    map[string]string
	text     strings.Builder
	children []*node
}

// buildTree decodes body into a tree keyed by local names only. Character
// data is appended to every open element so text() matches DOM textContent.
func buildTree(body string) (*node, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("empty document")
	}

	dec := xml.NewDecoder(strings.NewReader(body))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	doc := &node{}
	stack := []*node{doc}
	sawElement := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{local: t.Name.Local}
			for _, a := range t.Attr {
				if n.attrs == nil {
					n.attrs = make(map[string]string, len(t.Attr))
				}
				n.attrs[a.Name.Local] = a.Value
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
			sawElement = true
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			for _, open := range stack[1:] {
				open.text.Write(t)
			}
		}
	}
	if !sawElement {
		return nil, errors.New("no root element")
	}
	return doc, nil
}

// findAll returns up to limit nodes whose local name is in names, in
// document order, without descending into a match.
func (n *node) findAll(names []string, limit int) []*node {
	var out []*node
	var walk func(*node) bool
	walk = func(cur *node) bool {
		for _, c := range cur.children {
			if limit > 0 && len(out) >= limit {
				return false
			}
			if contains(names, c.local) {
				out = append(out, c)
				continue
			}
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(n)
	return out
}

func (n *node) first(name string) *node {
	for _, c := range n.children {
		if c.local == name {
			return c
		}
		if found := c.first(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *node) firstText(name string) string {
	found := n.first(name)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.text.String())
}

func (n *node) link() string {
	found := n.first("link")
	if found == nil {
		return ""
	}
	if v := strings.TrimSpace(found.text.String()); v != "" {
		return v
	}
	return strings.TrimSpace(found.attrs["href"])
}

func contains(names []string, v string) bool {
	for _, n := range names {
		if n == v {
			return true
		}
	}
	return false
}
