package alerts

import (
	"strings"
	"testing"
)

func TestSanitizeHTML_DropsActiveContentAndAttributes(t *testing.T) {
	in := `<div onclick="alert(1)"><script>alert(1)</script><a href="javascript:alert(1)" style="color:red">x</a><iframe src="https://evil"></iframe><span>kept text</span></div>`
	out := SanitizeHTML(in)

	for _, bad := range []string{"<script", "onclick=", "style=", "<iframe", "javascript:", "<div", "<span"} {
		if strings.Contains(strings.ToLower(out), bad) {
			t.Fatalf("expected %q to be removed, got: %s", bad, out)
		}
	}
	if !strings.Contains(out, "kept text") {
		t.Fatalf("expected unwrapped text to survive, got: %s", out)
	}
}

func TestSanitizeHTML_PreservesSafeLinks(t *testing.T) {
	in := `<p>Details at <a href="https://sachet.ndma.gov.in" target="_blank">Sachet</a></p>`
	out := SanitizeHTML(in)
	if !strings.Contains(out, `<a href="https://sachet.ndma.gov.in">Sachet</a>`) {
		t.Fatalf("safe link should be preserved, got: %s", out)
	}
}

func TestSanitizeHTML_PlainTextPassesThrough(t *testing.T) {
	if got := SanitizeHTML("  Orange alert for Kerala  "); got != "Orange alert for Kerala" {
		t.Fatalf("unexpected plain text output %q", got)
	}
}
