package cmd

import (
	"context"
	"time"

	"portfolio/src/app"

	"github.com/spf13/cobra"
)

var jobTimeout time.Duration

var refreshPricesCmd = &cobra.Command{
	Use:   "refresh-prices",
	Short: "Refresh every held symbol and restamp the affected lots",
	Args:  cobra.NoArgs,
	RunE:  runRefreshPrices,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record the current month's performance for every portfolio",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func init() {
	rootCmd.AddCommand(refreshPricesCmd)
	rootCmd.AddCommand(snapshotCmd)

	for _, c := range []*cobra.Command{refreshPricesCmd, snapshotCmd} {
		c.Flags().DurationVar(&jobTimeout, "timeout", 5*time.Minute, "maximum time the job may run")
	}
}

func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) (interface{}, error)) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
	defer cancel()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	result, err := fn(ctx, container)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runRefreshPrices(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *app.Container) (interface{}, error) {
		return c.PriceRefresh.RefreshAll(ctx)
	})
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *app.Container) (interface{}, error) {
		return c.Performance.SnapshotAll(ctx, time.Now())
	})
}
