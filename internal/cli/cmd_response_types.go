package cli

import (
	"time"

	"github.com/odysseus0/alertbridge/internal/model"
)

type FetchReport struct {
	URL    string       `json:"url"`
	Source model.Source `json:"source"`
	Bytes  int          `json:"bytes"`
	Alerts int          `json:"alerts"`
}

type SnapshotReport struct {
	Key       string     `json:"key"`
	Present   bool       `json:"present"`
	Bytes     int        `json:"bytes"`
	Alerts    int        `json:"alerts"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ClearSnapshotResponse struct {
	Cleared string `json:"cleared"`
}
