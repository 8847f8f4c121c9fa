package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/odysseus0/alertbridge/internal/fetch"
	"github.com/odysseus0/alertbridge/internal/ingest"
	"github.com/odysseus0/alertbridge/internal/model"
)

// directHop lets the client loop run without a bridge by calling the
// revalidating fetcher in-process.
type directHop struct {
	fetcher *fetch.Fetcher
}

func (h directHop) FetchAlerts(ctx context.Context) (string, error) {
	resp, err := h.fetcher.FetchAlerts(ctx)
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

func (a *App) newLoop(direct bool, opts ...ingest.Option) (*ingest.Loop, error) {
	snaps, err := a.Snapshots()
	if err != nil {
		return nil, err
	}
	var hop ingest.Hop = a.client
	if direct {
		hop = directHop{fetcher: a.fetcher}
	}
	opts = append([]ingest.Option{
		ingest.WithInterval(a.cfg.SyncInterval),
		ingest.WithLogger(a.logger),
	}, opts...)
	return ingest.NewLoop(hop, snaps, a.parser, opts...), nil
}

func newAlertsCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Sync once through the bridge and print the current alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			loop, err := app.newLoop(direct)
			if err != nil {
				return err
			}
			result := loop.Sync(cmd.Context())
			if err := writeView(cmd.OutOrStdout(), loop.View(), getOutput()); err != nil {
				return err
			}
			if result == model.SyncError {
				return fmt.Errorf("%w: bridge unreachable and no usable snapshot", ErrUnavailable)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "Fetch upstream in-process instead of through the bridge")
	return cmd
}

func newWatchCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	var direct bool
	var probe bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the ingestion loop and print every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			var opts []ingest.Option
			if probe {
				opts = append(opts, ingest.WithConnectivity(ingest.NewProbeMonitor(
					app.cfg.ProbeAddr,
					app.cfg.ProbeInterval,
					ingest.WithProbeLogger(app.logger),
				)))
			}
			loop, err := app.newLoop(direct, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			changes := make(chan model.View, 16)
			loop.OnChange(func(v model.View) {
				select {
				case changes <- v:
				case <-ctx.Done():
				}
			})

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return loop.Run(ctx)
			})
			g.Go(func() error {
				out := cmd.OutOrStdout()
				for {
					select {
					case <-ctx.Done():
						return nil
					case v := <-changes:
						if err := writeView(out, v, getOutput()); err != nil {
							return err
						}
					}
				}
			})
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "Fetch upstream in-process instead of through the bridge")
	cmd.Flags().BoolVar(&probe, "probe", true, "Track connectivity with a TCP probe")
	return cmd
}

func writeView(out io.Writer, v model.View, format model.OutputFormat) error {
	switch format {
	case model.OutputJSON:
		return writeJSON(out, v)
	case model.OutputWide:
		writeViewStatus(out, v)
		writeAlertsTable(out, v.Alerts, true)
	default:
		writeViewStatus(out, v)
		writeAlertsTable(out, v.Alerts, false)
	}
	_, err := fmt.Fprintln(out)
	return err
}
