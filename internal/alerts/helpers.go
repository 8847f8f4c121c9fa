package alerts

import (
	"regexp"
	"strings"
)

var wsRegexp = regexp.MustCompile(`\s+`)

// CompactText collapses whitespace and cuts v to max runes, marking the cut.
func CompactText(v string, max int) string {
	v = strings.TrimSpace(wsRegexp.ReplaceAllString(v, " "))
	if max <= 0 || len(v) <= max {
		return v
	}
	// Feeds carry non-Latin scripts; cut on rune boundaries.
	r := []rune(v)
	if len(r) <= max {
		return v
	}
	return string(r[:max-1]) + "..."
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}
