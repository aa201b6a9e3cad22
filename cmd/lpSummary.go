package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/distribution"
	"github.com/IndigoProtocol/indy-rewards/pkg/reports"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var lpSummaryCmd = &cobra.Command{
	Use:   "lp-summary EPOCH_OR_DATE",
	Short: "LP INDY split per DEX pool",
	Long: "How a range's LP INDY splits between the whitelisted iAsset/ADA pools, before\n" +
		"it is divided between each pool's stakers.\n\n" + epochOrDateHelp,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indy, err := parseIndyOverride(cmd, "indy")
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		a := newApp(cmd, emissionOverrides{Lp: indy})
		ctx := context.Background()

		rng, err := parseRange(args[0])
		if err != nil {
			a.logger.Sugar().Fatalw("Invalid argument", zap.Error(err))
		}
		if err := a.checkLpRange(rng); err != nil {
			a.logger.Sugar().Fatalw("Range not available", zap.Error(err))
		}

		days := rng.Days(a.calendar)
		bar := progressbar.NewOptions(len(days),
			progressbar.OptionSetDescription("Fetching pool snapshots"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetVisibility(len(days) > 1),
			progressbar.OptionClearOnFinish(),
		)

		poolRewards := make([]distribution.PoolReward, 0)
		for _, day := range days {
			dayRewards, err := a.service.GetLpDayPoolRewards(ctx, day)
			if err != nil {
				a.logger.Sugar().Fatalw("Failed to compute LP pool rewards", zap.Error(err))
			}
			poolRewards = append(poolRewards, dayRewards...)
			bar.Add(1) //nolint:errcheck
		}

		if err := reports.WriteLpPoolSummary(os.Stdout, poolRewards); err != nil {
			a.logger.Sugar().Fatalw("Failed to print the pool summary", zap.Error(err))
		}
	},
}

func init() {
	lpSummaryCmd.Flags().String("indy", "", `Override the epoch's LP INDY emission`)
}
