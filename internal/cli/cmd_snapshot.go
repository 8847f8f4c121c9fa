package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odysseus0/alertbridge/internal/model"
	"github.com/odysseus0/alertbridge/internal/snapshot"
)

func newSnapshotCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or clear the client's offline snapshot",
	}
	cmd.AddCommand(newSnapshotShowCmd(getApp, getOutput))
	cmd.AddCommand(newSnapshotClearCmd(getApp, getOutput))
	return cmd
}

func newSnapshotShowCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			snaps, err := app.Snapshots()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			body, ok, err := snaps.Get(ctx, snapshot.Key)
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			out := cmd.OutOrStdout()
			if raw {
				if !ok {
					return fmt.Errorf("snapshot %q: %w", snapshot.Key, snapshot.ErrNotFound)
				}
				_, err := fmt.Fprint(out, body)
				return err
			}

			rep := SnapshotReport{Key: snapshot.Key, Present: ok, Bytes: len(body)}
			if ok {
				if list, err := app.parser.Parse(body); err == nil {
					rep.Alerts = countAlerts(list)
				}
				rep.UpdatedAt = snapshotUpdatedAt(ctx, snaps)
			}
			if getOutput() == model.OutputJSON {
				return writeJSON(out, rep)
			}
			writeSnapshotTable(out, rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored feed body")
	return cmd
}

func newSnapshotClearCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			snaps, err := app.Snapshots()
			if err != nil {
				return err
			}
			if err := snaps.Delete(cmd.Context(), snapshot.Key); err != nil {
				return fmt.Errorf("clear snapshot: %w", err)
			}
			if getOutput() == model.OutputJSON {
				return writeJSON(cmd.OutOrStdout(), ClearSnapshotResponse{Cleared: snapshot.Key})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared snapshot %s\n", snapshot.Key)
			return nil
		},
	}
}

// snapshotUpdatedAt is only known for backends that track write times.
func snapshotUpdatedAt(ctx context.Context, s snapshot.Store) *time.Time {
	tracker, ok := s.(interface {
		UpdatedAt(context.Context, string) (time.Time, error)
	})
	if !ok {
		return nil
	}
	ts, err := tracker.UpdatedAt(ctx, snapshot.Key)
	if err != nil {
		return nil
	}
	return &ts
}
