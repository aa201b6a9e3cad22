package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/reports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var spAprCmd = &cobra.Command{
	Use:   "sp-apr EPOCH_OR_DATE",
	Short: "Stability pool APRs in INDY terms",
	Long: "Each stability pool's annualized INDY return: a single day's rate, or the mean\n" +
		"of an epoch's five daily rates.\n\n" + epochOrDateHelp,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indy, err := parseIndyOverride(cmd, "indy")
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		a := newApp(cmd, emissionOverrides{Sp: indy})
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

		aprs, err := a.service.GetSpAprs(ctx, rng)
		if err != nil {
			a.logger.Sugar().Fatalw("Failed to compute stability pool APRs", zap.Error(err))
		}

		if err := reports.WriteSpAprs(os.Stdout, aprs); err != nil {
			a.logger.Sugar().Fatalw("Failed to print the APRs", zap.Error(err))
		}
	},
}

func init() {
	spAprCmd.Flags().String("indy", "", `Override the epoch's stability pool INDY emission`)
}
