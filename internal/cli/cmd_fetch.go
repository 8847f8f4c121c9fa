package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odysseus0/alertbridge/internal/model"
)

func newFetchCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one revalidating fetch against the upstream feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			resp, err := app.fetcher.FetchAlerts(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch feed: %w", err)
			}
			out := cmd.OutOrStdout()
			if raw {
				_, err := fmt.Fprint(out, resp.Body)
				return err
			}

			rep := FetchReport{
				URL:    app.fetcher.FeedURL(),
				Source: resp.Source,
				Bytes:  len(resp.Body),
			}
			if list, err := app.parser.Parse(resp.Body); err == nil {
				rep.Alerts = countAlerts(list)
			}
			if getOutput() == model.OutputJSON {
				return writeJSON(out, rep)
			}
			writeFetchTable(out, rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the feed body instead of a summary")
	return cmd
}

func countAlerts(list []model.AlertRecord) int {
	n := 0
	for _, a := range list {
		if a.Kind == model.KindAlert {
			n++
		}
	}
	return n
}
