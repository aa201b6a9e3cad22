package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/IndigoProtocol/indy-rewards/internal/config"
	"github.com/IndigoProtocol/indy-rewards/pkg/clients/analytics"
	"github.com/IndigoProtocol/indy-rewards/pkg/clients/polygon"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "indy-rewards",
	Short: "Calculates INDY reward distributions and APRs for Indigo Protocol",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)

	rootCmd.PersistentFlags().String(config.AnalyticsBaseUrl, analytics.DefaultBaseUrl, `Indigo analytics API base url`)
	rootCmd.PersistentFlags().Duration(config.AnalyticsRequestTimeout, analytics.DefaultRequestTimeout, `Timeout per analytics API request`)

	rootCmd.PersistentFlags().String(config.PolygonBaseUrl, polygon.DefaultBaseUrl, `Polygon price API base url`)
	rootCmd.PersistentFlags().String(config.PolygonApiKey, "", `Polygon price API key (or POLYGON_API_KEY)`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnableMetrics, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(govCmd)
	rootCmd.AddCommand(spCmd)
	rootCmd.AddCommand(lpCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(spAprCmd)
	rootCmd.AddCommand(lpAprCmd)
	rootCmd.AddCommand(lpSummaryCmd)
	rootCmd.AddCommand(volatilityCmd)
	rootCmd.AddCommand(runVersionCmd)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	// POLYGON_API_KEY and friends may live in a local .env file.
	godotenv.Load() //nolint:errcheck

	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// epochOrDateHelp documents the positional argument most commands share.
const epochOrDateHelp = "EPOCH_OR_DATE is an epoch number or a single UTC day as YYYY-MM-DD"

const dateFormat = time.DateOnly
