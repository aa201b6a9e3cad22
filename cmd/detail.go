package cmd

import (
	"context"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/reports"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// addDetailFlags registers the flags every per-wallet reward command
// takes.
func addDetailFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("pkh", "p", nil, `Only include wallets whose payment key hash starts with this prefix; repeatable`)
	cmd.Flags().StringP("outfile", "o", "", `Write the rewards as claim portal CSV to this path instead of printing a table`)
}

// runDetail fetches a range's rewards for one program filter and either
// prints them or writes the claim CSV.
func runDetail(cmd *cobra.Command, args []string, filter rewards.ProgramFilter, overrides emissionOverrides) {
	a := newApp(cmd, overrides)
	ctx := context.Background()

	rng, err := parseRange(args[0])
	if err != nil {
		a.logger.Sugar().Fatalw("Invalid argument", zap.Error(err))
	}
	if filter == rewards.ProgramFilter_LiquidityPool {
		err = a.checkLpRange(rng)
	} else {
		err = a.checkRangeInPast(rng)
	}
	if err != nil {
		a.logger.Sugar().Fatalw("Range not available", zap.Error(err))
	}
	if filter.Includes(types.RewardProgram_StabilityPool) {
		if err := a.checkVolatilityInputs(rng); err != nil {
			a.logger.Sugar().Fatalw("Missing volatility inputs", zap.Error(err))
		}
	}

	partials, err := cmd.Flags().GetStringArray("pkh")
	if err != nil {
		a.logger.Sugar().Fatalw("Failed to read --pkh", zap.Error(err))
	}
	outfile, err := cmd.Flags().GetString("outfile")
	if err != nil {
		a.logger.Sugar().Fatalw("Failed to read --outfile", zap.Error(err))
	}

	events, err := a.service.GetRewardDetail(ctx, rng, filter, partials)
	if err != nil {
		a.logger.Sugar().Fatalw("Failed to compute rewards", zap.Error(err))
	}

	if outfile != "" {
		f, err := os.Create(outfile)
		if err != nil {
			a.logger.Sugar().Fatalw("Failed to create the output file", zap.Error(err))
		}
		defer f.Close()
		if err := reports.WriteClaimCsv(f, events, a.calendar); err != nil {
			a.logger.Sugar().Fatalw("Failed to write the claim csv", zap.Error(err))
		}
		a.logger.Sugar().Infow("Wrote claim csv",
			zap.String("path", outfile),
			zap.Int("rows", len(events)),
		)
		return
	}

	if err := reports.WriteDetailTable(os.Stdout, events, a.calendar); err != nil {
		a.logger.Sugar().Fatalw("Failed to print the reward table", zap.Error(err))
	}
}
