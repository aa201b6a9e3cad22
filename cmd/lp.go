package cmd

import (
	"fmt"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/spf13/cobra"
)

var lpCmd = &cobra.Command{
	Use:   "lp EPOCH_OR_DATE",
	Short: "Per-wallet DEX liquidity provision rewards",
	Long: "Per-wallet rewards for staking iAsset/ADA LP tokens on Indigo. The LP reward\n" +
		"program ran through epoch 421 (2023-07-04); later ranges are refused.\n\n" +
		epochOrDateHelp,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indy, err := parseIndyOverride(cmd, "indy")
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		runDetail(cmd, args, rewards.ProgramFilter_LiquidityPool, emissionOverrides{Lp: indy})
	},
}

func init() {
	addDetailFlags(lpCmd)
	lpCmd.Flags().String("indy", "", `Override the epoch's LP INDY emission`)
}
