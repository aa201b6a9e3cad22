package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/IndigoProtocol/indy-rewards/internal/config"
	"github.com/IndigoProtocol/indy-rewards/internal/logger"
	"github.com/IndigoProtocol/indy-rewards/internal/metrics"
	"github.com/IndigoProtocol/indy-rewards/internal/metrics/metricsTypes"
	"github.com/IndigoProtocol/indy-rewards/pkg/clients/analytics"
	"github.com/IndigoProtocol/indy-rewards/pkg/clients/coingecko"
	"github.com/IndigoProtocol/indy-rewards/pkg/clients/polygon"
	"github.com/IndigoProtocol/indy-rewards/pkg/distribution"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/service/rewardsDataService"
	"github.com/IndigoProtocol/indy-rewards/pkg/volatility"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app bundles the wired-up collaborators every subcommand needs.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	metricsSink *metrics.MetricsSink
	calendar    *epochs.Calendar
	distConfig  distribution.Config
	service     *rewardsDataService.RewardsDataService
	volatility  *volatility.Service
}

// emissionOverrides carries the per-program INDY amounts a command may
// substitute for the voted schedules.
type emissionOverrides struct {
	Sp  *decimal.Decimal
	Lp  *decimal.Decimal
	Gov *decimal.Decimal
}

// initCommandFlags mirrors every command flag into viper so it can also
// be set through the environment.
func initCommandFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func newApp(cmd *cobra.Command, overrides emissionOverrides) *app {
	initCommandFlags(cmd)
	cfg := config.NewConfig()

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		fmt.Printf("Failed to setup logger: %+v\n", err)
		os.Exit(1)
	}

	sinkClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		l.Sugar().Fatalw("Failed to setup metrics clients", zap.Error(err))
	}
	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, sinkClients)
	if err != nil {
		l.Sugar().Fatalw("Failed to setup metrics sink", zap.Error(err))
	}
	_ = sink.Incr(metricsTypes.Metric_Incr_CommandRun, []metricsTypes.MetricsLabel{
		{Name: "command", Value: cmd.Name()},
	}, 1)

	calendar := epochs.NewCalendar(epochs.DefaultConfig())

	httpClient := &http.Client{Timeout: cfg.AnalyticsConfig.RequestTimeout}
	analyticsClient := analytics.NewClient(httpClient, cfg.AnalyticsConfig.BaseUrl, l)
	market := analytics.NewMarketData(analyticsClient, calendar, l)

	polygonClient := polygon.NewClient(&http.Client{}, cfg.PolygonConfig.BaseUrl, cfg.PolygonConfig.ApiKey, l)
	sigmas := volatility.NewService(polygonClient, l)

	distConfig := distribution.DefaultConfig()
	distConfig.SpIndyOverride = overrides.Sp
	distConfig.LpIndyOverride = overrides.Lp
	distConfig.GovIndyOverride = overrides.Gov

	engine := distribution.NewEngine(market, sigmas, calendar, distConfig, l)

	coingeckoClient := coingecko.NewClient(&http.Client{}, coingecko.DefaultBaseUrl, l)

	service := rewardsDataService.NewRewardsDataService(engine, coingeckoClient, calendar, distConfig, sink, l)

	return &app{
		cfg:         cfg,
		logger:      l,
		metricsSink: sink,
		calendar:    calendar,
		distConfig:  distConfig,
		service:     service,
		volatility:  sigmas,
	}
}

// parseRange reads the EPOCH_OR_DATE positional argument: an integer is
// an epoch number, anything else must be a UTC day as YYYY-MM-DD.
func parseRange(arg string) (rewards.Range, error) {
	if epoch, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return rewards.EpochRange(epoch), nil
	}
	day, err := time.Parse(dateFormat, arg)
	if err != nil {
		return rewards.Range{}, fmt.Errorf("'%s' is neither an epoch number nor a YYYY-MM-DD date", arg)
	}
	return rewards.DayRange(day), nil
}

// checkRangeInPast rejects ranges whose closing snapshot has not
// happened yet.
func (a *app) checkRangeInPast(rng rewards.Range) error {
	days := rng.Days(a.calendar)
	last := days[len(days)-1]
	if a.calendar.IsFutureSnapshot(last) {
		return fmt.Errorf("the %s snapshot at %s hasn't happened yet", rng, a.calendar.SnapshotTime(last).Format("2006-01-02 15:04 MST"))
	}
	return nil
}

// checkLpRange additionally rejects ranges past the end of the LP
// reward program.
func (a *app) checkLpRange(rng rewards.Range) error {
	if err := a.checkRangeInPast(rng); err != nil {
		return err
	}
	days := rng.Days(a.calendar)
	if days[0].After(distribution.LpProgramLastDay) {
		return fmt.Errorf("LP rewards moved to the DEXes' own incentive programs after %s (epoch %d)",
			distribution.LpProgramLastDay.Format(dateFormat), a.calendar.EpochOf(distribution.LpProgramLastDay))
	}
	return nil
}

// checkVolatilityInputs fails early when a range's stability pool
// weights will need volatility data but no price API key is configured.
func (a *app) checkVolatilityInputs(rng rewards.Range) error {
	if a.cfg.PolygonConfig.ApiKey != "" {
		return nil
	}
	for _, day := range rng.Days(a.calendar) {
		if a.distConfig.MayNeedVolatility(a.calendar, day) {
			return fmt.Errorf("stability pool weights for %s need volatility data; set POLYGON_API_KEY", day.Format(dateFormat))
		}
	}
	return nil
}

// parseIndyOverride turns an --indy style flag value into a decimal
// override, nil when the flag was left empty.
func parseIndyOverride(cmd *cobra.Command, flag string) (*decimal.Decimal, error) {
	raw, err := cmd.Flags().GetString(flag)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s amount '%s'", flag, raw)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("--%s must not be negative", flag)
	}
	return &amount, nil
}
