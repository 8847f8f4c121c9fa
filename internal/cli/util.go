package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/odysseus0/alertbridge/internal/model"
)

func parseOutputFormat(raw string) (model.OutputFormat, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch model.OutputFormat(s) {
	case model.OutputTable, model.OutputJSON, model.OutputWide:
		return model.OutputFormat(s), nil
	default:
		return "", fmt.Errorf("%w: output format %q (expected table|json|wide)", ErrInvalidInput, raw)
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

func humanAgo(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	d := time.Since(*t)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}
