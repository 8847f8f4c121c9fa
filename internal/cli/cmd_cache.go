package cli

import (
	"context"

	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/model"
)

func newCacheCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the bridge cache",
	}
	cmd.AddCommand(newCacheShowCmd(getApp, getOutput))
	return cmd
}

func newCacheShowCmd(getApp func() *App, getOutput func() model.OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show cached validators and feed metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			info := app.cacheInfo(cmd.Context())
			if getOutput() == model.OutputJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			writeCacheInfoTable(cmd.OutOrStdout(), info)
			return nil
		},
	}
}

func (a *App) cacheInfo(ctx context.Context) model.CacheInfo {
	cached := a.cache.Load(ctx)
	info := model.CacheInfo{
		Path:         a.cache.Path(),
		HasData:      cached.HasData(),
		Bytes:        len(cached.Data),
		ETag:         cached.ETag,
		LastModified: cached.LastModified,
		FetchedAt:    cached.FetchedAt,
	}
	if !cached.HasData() {
		return info
	}
	feed, err := gofeed.NewParser().ParseString(cached.Data)
	if err != nil {
		a.logger.Debug("cached body is not a recognised feed", zap.Error(err))
		return info
	}
	info.FeedTitle = feed.Title
	info.FeedUpdated = feed.UpdatedParsed
	if info.FeedUpdated == nil {
		info.FeedUpdated = feed.PublishedParsed
	}
	info.ItemCount = len(feed.Items)
	return info
}
