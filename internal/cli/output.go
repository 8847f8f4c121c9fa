package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/odysseus0/alertbridge/internal/alerts"
	"github.com/odysseus0/alertbridge/internal/model"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAlertsTable(out io.Writer, list []model.AlertRecord, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tTIME\tTYPE\tMESSAGE\tLINK\tSUMMARY")
		for _, a := range list {
			fmt.Fprintf(
				tw,
				"%s\t%s\t%s\t%s\t%s\t%s\n",
				a.ID,
				a.Time,
				a.Kind,
				alerts.CompactText(a.Message, 60),
				alerts.CompactText(fallback(a.Link, "-"), 48),
				alerts.CompactText(oneLine(a.Summary), 90),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tTIME\tMESSAGE")
		for _, a := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Time, alerts.CompactText(a.Message, 72))
		}
	}
	_ = tw.Flush()
}

func writeViewStatus(out io.Writer, v model.View) {
	state := "online"
	if !v.Online {
		state = "offline"
	}
	fmt.Fprintf(out, "[%s] last sync %s\n", state, humanAgo(v.LastSync))
}

func writeFetchTable(out io.Writer, rep FetchReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tBYTES\tALERTS\tURL")
	fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", rep.Source, rep.Bytes, rep.Alerts, alerts.CompactText(rep.URL, 72))
	_ = tw.Flush()
}

func writeCacheInfoTable(out io.Writer, info model.CacheInfo) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")
	fmt.Fprintf(tw, "path\t%s\n", info.Path)
	fmt.Fprintf(tw, "has_data\t%t\n", info.HasData)
	fmt.Fprintf(tw, "bytes\t%d\n", info.Bytes)
	fmt.Fprintf(tw, "etag\t%s\n", fallback(info.ETag, "-"))
	fmt.Fprintf(tw, "last_modified\t%s\n", fallback(info.LastModified, "-"))
	fmt.Fprintf(tw, "fetched\t%s (%s)\n", formatTime(info.FetchedAt), humanAgo(info.FetchedAt))
	fmt.Fprintf(tw, "feed_title\t%s\n", fallback(info.FeedTitle, "-"))
	fmt.Fprintf(tw, "feed_updated\t%s\n", formatTime(info.FeedUpdated))
	fmt.Fprintf(tw, "items\t%d\n", info.ItemCount)
	_ = tw.Flush()
}

func writeSnapshotTable(out io.Writer, rep SnapshotReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tPRESENT\tBYTES\tALERTS\tUPDATED")
	fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%s\n", rep.Key, rep.Present, rep.Bytes, rep.Alerts, formatTime(rep.UpdatedAt))
	_ = tw.Flush()
}

func oneLine(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}
