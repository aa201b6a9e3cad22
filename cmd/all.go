package cmd

import (
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all EPOCH_OR_DATE",
	Short: "Per-wallet rewards of every program",
	Long:  "Per-wallet governance, stability pool and LP rewards for an epoch or day.\n\n" + epochOrDateHelp,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDetail(cmd, args, rewards.ProgramFilter_All, emissionOverrides{})
	},
}

func init() {
	addDetailFlags(allCmd)
}
