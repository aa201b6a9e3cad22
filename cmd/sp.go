package cmd

import (
	"fmt"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/spf13/cobra"
)

var spCmd = &cobra.Command{
	Use:   "sp EPOCH_OR_DATE",
	Short: "Per-wallet stability pool staking rewards",
	Long: "Per-wallet rewards for staking iAssets in the stability pools.\n\n" +
		epochOrDateHelp,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indy, err := parseIndyOverride(cmd, "indy")
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		runDetail(cmd, args, rewards.ProgramFilter_StabilityPool, emissionOverrides{Sp: indy})
	},
}

func init() {
	addDetailFlags(spCmd)
	spCmd.Flags().String("indy", "", `Override the epoch's stability pool INDY emission`)
}
