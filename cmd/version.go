package cmd

import (
	"fmt"

	"github.com/IndigoProtocol/indy-rewards/internal/version"
	"github.com/spf13/cobra"
)

var runVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of indy-rewards",
	Run: func(cmd *cobra.Command, args []string) {
		initCommandFlags(cmd)

		v := version.GetVersion()
		commit := version.GetCommit()

		fmt.Printf("Version: %s\nCommit: %s\n", v, commit)
	},
}
