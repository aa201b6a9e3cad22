package cmd

import (
	"fmt"
	"os"

	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/spf13/cobra"
)

var govCmd = &cobra.Command{
	Use:   "gov EPOCH_OR_DATE",
	Short: "Per-wallet INDY governance staking rewards",
	Long: "Per-wallet rewards for staking INDY in governance. Governance pays out on an\n" +
		"epoch's closing day only, so a day argument earns rewards only when it closes\n" +
		"an epoch.\n\n" + epochOrDateHelp,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indy, err := parseIndyOverride(cmd, "indy")
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		runDetail(cmd, args, rewards.ProgramFilter_Governance, emissionOverrides{Gov: indy})
	},
}

func init() {
	addDetailFlags(govCmd)
	govCmd.Flags().String("indy", "", `Override the epoch's governance INDY emission`)
}
