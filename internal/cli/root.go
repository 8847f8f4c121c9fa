package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/odysseus0/alertbridge/internal/config"
	"github.com/odysseus0/alertbridge/internal/model"
)

func Execute() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	return NewRootCmd(cfg).Execute()
}

func NewRootCmd(cfg config.Config) *cobra.Command {
	var output string
	var outFmt model.OutputFormat
	var app *App

	output = string(model.OutputTable)

	getApp := func() *App { return app }
	getOutput := func() model.OutputFormat { return outFmt }

	cmd := &cobra.Command{
		Use:           "alertbridge",
		Short:         "Disaster alert feed bridge and client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			parsedFmt, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			outFmt = parsedFmt
			if !requiresApp(cmd) {
				return nil
			}
			if app != nil {
				return nil
			}
			a, err := NewApp(cfg)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				_ = app.Close()
				app = nil
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.CachePath, "cache", cfg.CachePath, "Bridge cache file path")
	flags.StringVar(&cfg.BridgeURL, "bridge", cfg.BridgeURL, "Bridge base URL used by client commands")
	flags.StringVar(&cfg.SnapshotPath, "snapshot", cfg.SnapshotPath, "Client snapshot store path")
	flags.StringVar(&cfg.SnapshotKind, "snapshot-backend", cfg.SnapshotKind, "Snapshot backend: sqlite, leveldb")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVarP(&output, "output", "o", output, "Output format: table, json, wide")

	cmd.AddCommand(newServeCmd(getApp))
	cmd.AddCommand(newFetchCmd(getApp, getOutput))
	cmd.AddCommand(newAlertsCmd(getApp, getOutput))
	cmd.AddCommand(newWatchCmd(getApp, getOutput))
	cmd.AddCommand(newCacheCmd(getApp, getOutput))
	cmd.AddCommand(newSnapshotCmd(getApp, getOutput))

	return cmd
}

func requiresApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		name := c.Name()
		if name == "help" || name == "completion" || strings.HasPrefix(name, "__complete") {
			return false
		}
	}
	return true
}
