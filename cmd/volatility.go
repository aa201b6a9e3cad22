package cmd

import (
	"context"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var volatilityCmd = &cobra.Command{
	Use:   "volatility IASSET DATE",
	Short: "An iAsset's price volatility factor for a snapshot day",
	Long: "The population standard deviation of an iAsset's daily relative ADA price\n" +
		"changes over the 365 days before DATE (YYYY-MM-DD). This is the sigma the\n" +
		"historical stability pool weight formula used. Needs POLYGON_API_KEY.",
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp(cmd, emissionOverrides{})
		ctx := context.Background()

		iasset, err := types.ParseIAsset(args[0])
		if err != nil {
			a.logger.Sugar().Fatalw("Invalid argument", zap.Error(err))
		}
		day, err := time.Parse(dateFormat, args[1])
		if err != nil {
			a.logger.Sugar().Fatalw("Invalid argument",
				zap.String("date", args[1]),
				zap.Error(err),
			)
		}

		sigma, err := a.volatility.Sigma(ctx, iasset, day)
		if err != nil {
			a.logger.Sugar().Fatalw("Failed to compute the volatility", zap.Error(err))
		}

		cmd.Printf("%s %s volatility: %.8f\n", iasset, day.Format(dateFormat), sigma)
	},
}
