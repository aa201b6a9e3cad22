package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/reports"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var summaryCmd = &cobra.Command{
	Use:   "summary EPOCH_OR_DATE",
	Short: "Rewards of every program rolled up per purpose",
	Long: "Rewards of an epoch or day summed per purpose, with per-program totals and a\n" +
		"grand total.\n\n" + epochOrDateHelp,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var overrides emissionOverrides
		var err error
		if overrides.Sp, err = parseIndyOverride(cmd, "sp-indy"); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if overrides.Lp, err = parseIndyOverride(cmd, "lp-indy"); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if overrides.Gov, err = parseIndyOverride(cmd, "gov-indy"); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		a := newApp(cmd, overrides)
		ctx := context.Background()

		rng, err := parseRange(args[0])
		if err != nil {
			a.logger.Sugar().Fatalw("Invalid argument", zap.Error(err))
		}
		if err := a.checkRangeInPast(rng); err != nil {
			a.logger.Sugar().Fatalw("Range not available", zap.Error(err))
		}
		if err := a.checkVolatilityInputs(rng); err != nil {
			a.logger.Sugar().Fatalw("Missing volatility inputs", zap.Error(err))
		}

		partials, err := cmd.Flags().GetStringArray("pkh")
		if err != nil {
			a.logger.Sugar().Fatalw("Failed to read --pkh", zap.Error(err))
		}

		rows, err := a.service.GetRewardSummary(ctx, rng, rewards.ProgramFilter_All, partials)
		if err != nil {
			a.logger.Sugar().Fatalw("Failed to compute the reward summary", zap.Error(err))
		}

		if err := reports.WriteSummaryTable(os.Stdout, rows); err != nil {
			a.logger.Sugar().Fatalw("Failed to print the summary table", zap.Error(err))
		}
	},
}

func init() {
	summaryCmd.Flags().StringArrayP("pkh", "p", nil, `Only include wallets whose payment key hash starts with this prefix; repeatable`)
	summaryCmd.Flags().String("sp-indy", "", `Override the epoch's stability pool INDY emission`)
	summaryCmd.Flags().String("lp-indy", "", `Override the epoch's LP INDY emission`)
	summaryCmd.Flags().String("gov-indy", "", `Override the epoch's governance INDY emission`)
}
