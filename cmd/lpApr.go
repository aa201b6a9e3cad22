package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/reports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var lpAprCmd = &cobra.Command{
	Use:   "lp-apr EPOCH_OR_DATE",
	Short: "DEX liquidity pool APRs in INDY terms",
	Long: "Each whitelisted iAsset/ADA pool's annualized INDY return, counting only the\n" +
		"staked share of the pool as principal. The LP reward program ran through epoch\n" +
		"421 (2023-07-04); later ranges are refused.\n\n" + epochOrDateHelp,
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

		aprs, err := a.service.GetLpAprs(ctx, rng)
		if err != nil {
			a.logger.Sugar().Fatalw("Failed to compute LP APRs", zap.Error(err))
		}

		if err := reports.WriteLpAprs(os.Stdout, aprs); err != nil {
			a.logger.Sugar().Fatalw("Failed to print the APRs", zap.Error(err))
		}
	},
}

func init() {
	lpAprCmd.Flags().String("indy", "", `Override the epoch's LP INDY emission`)
}
