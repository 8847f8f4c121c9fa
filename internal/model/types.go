package model

import "time"

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputWide  OutputFormat = "wide"
)

// CachedFeed is the single durable slot kept by the bridge. Data is only ever
// replaced by a markup body from a 2xx response; the validators travel with it.
type CachedFeed struct {
	ETag         string     `json:"etag,omitempty"`
	LastModified string     `json:"last_modified,omitempty"`
	FetchedAt    *time.Time `json:"fetched_at,omitempty"`
	Data         string     `json:"data,omitempty"`
}

func (c CachedFeed) HasData() bool {
	return c.Data != ""
}

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeFresh
	OutcomeNotModified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFresh:
		return "fresh"
	case OutcomeNotModified:
		return "not_modified"
	default:
		return "failed"
	}
}

// UpstreamResult is what one conditional GET against the feed produced.
type UpstreamResult struct {
	Outcome      Outcome
	Body         string
	ETag         string
	LastModified string
	Err          error
}

type Source string

const (
	SourceFresh       Source = "fresh"
	SourceNotModified Source = "not_modified"
	SourceFallback    Source = "fallback"

	// SourceFailed only labels metrics; no response carries it.
	SourceFailed Source = "failed"
)

type FeedResponse struct {
	Body   string `json:"body"`
	Source Source `json:"source"`
}

type AlertKind string

const (
	KindAlert       AlertKind = "alert"
	KindPlaceholder AlertKind = "placeholder"
	KindError       AlertKind = "error"
)

type AlertRecord struct {
	ID      string    `json:"id"`
	Time    string    `json:"time"`
	Message string    `json:"msg"`
	Summary string    `json:"summary,omitempty"`
	Link    string    `json:"link,omitempty"`
	Kind    AlertKind `json:"type"`
}

type ConnectivityState struct {
	Online    bool      `json:"online"`
	CheckedAt time.Time `json:"checked_at"`
}

// View is everything the presentation layer reads from the ingestion loop.
type View struct {
	Alerts   []AlertRecord `json:"alerts"`
	Online   bool          `json:"online"`
	Loading  bool          `json:"loading"`
	LastSync *time.Time    `json:"last_sync,omitempty"`
}

type SyncResult string

const (
	SyncFresh    SyncResult = "fresh"
	SyncSnapshot SyncResult = "snapshot"
	SyncError    SyncResult = "error"
	SyncKept     SyncResult = "kept"
	SyncSkipped  SyncResult = "skipped"
)

type CacheInfo struct {
	Path         string     `json:"path"`
	HasData      bool       `json:"has_data"`
	Bytes        int        `json:"bytes"`
	ETag         string     `json:"etag,omitempty"`
	LastModified string     `json:"last_modified,omitempty"`
	FetchedAt    *time.Time `json:"fetched_at,omitempty"`
	FeedTitle    string     `json:"feed_title,omitempty"`
	FeedUpdated  *time.Time `json:"feed_updated,omitempty"`
	ItemCount    int        `json:"item_count"`
}
