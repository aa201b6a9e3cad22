package rewardsDataService

import (
	"context"
	"fmt"
	"time"

	"github.com/IndigoProtocol/indy-rewards/internal/metrics"
	"github.com/IndigoProtocol/indy-rewards/internal/metrics/metricsTypes"
	"github.com/IndigoProtocol/indy-rewards/pkg/apr"
	"github.com/IndigoProtocol/indy-rewards/pkg/distribution"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/pkhResolver"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// lpEpochSumTolerance bounds how far the lovelace-rounded sum of an
// epoch's LP events may drift from the nominal epoch emission.
var lpEpochSumTolerance = decimal.RequireFromString("0.01")

// IndyPriceSource supplies INDY/ADA daily closing prices, keyed by UTC
// day.
type IndyPriceSource interface {
	IndyAdaDailyClosingPrices(ctx context.Context) (map[time.Time]decimal.Decimal, error)
}

// RewardsDataService answers the reward queries behind the CLI: reward
// details and summaries per day or epoch, APRs, and per-pool LP splits.
type RewardsDataService struct {
	engine      *distribution.Engine
	ledger      *rewards.Ledger
	aggregator  *rewards.Aggregator
	resolver    *pkhResolver.Resolver
	aprCalc     *apr.Calculator
	indyPrices  IndyPriceSource
	calendar    *epochs.Calendar
	distConfig  distribution.Config
	metricsSink *metrics.MetricsSink
	logger      *zap.Logger
}

func NewRewardsDataService(
	engine *distribution.Engine,
	indyPrices IndyPriceSource,
	calendar *epochs.Calendar,
	distConfig distribution.Config,
	metricsSink *metrics.MetricsSink,
	l *zap.Logger,
) *RewardsDataService {
	return &RewardsDataService{
		engine:      engine,
		ledger:      rewards.NewLedger(engine, calendar, l),
		aggregator:  rewards.NewAggregator(l),
		resolver:    pkhResolver.NewResolver(l),
		aprCalc:     apr.NewCalculator(l),
		indyPrices:  indyPrices,
		calendar:    calendar,
		distConfig:  distConfig,
		metricsSink: metricsSink,
		logger:      l,
	}
}

// GetRewardDetail returns a range's reward events, one row per wallet,
// day and purpose, ordered for display. pkhPartials narrows the result
// to wallets matching the given prefixes.
func (rds *RewardsDataService) GetRewardDetail(ctx context.Context, rng rewards.Range, filter rewards.ProgramFilter, pkhPartials []string) ([]rewards.Event, error) {
	events, err := rds.buildFilteredEvents(ctx, rng, filter, pkhPartials)
	if err != nil {
		return nil, err
	}
	return rds.aggregator.SortedDetail(events), nil
}

// GetRewardSummary returns a range's rewards rolled up per purpose, with
// program totals and a grand total.
func (rds *RewardsDataService) GetRewardSummary(ctx context.Context, rng rewards.Range, filter rewards.ProgramFilter, pkhPartials []string) ([]rewards.SummaryRow, error) {
	events, err := rds.buildFilteredEvents(ctx, rng, filter, pkhPartials)
	if err != nil {
		return nil, err
	}
	return rds.aggregator.Summarize(events), nil
}

func (rds *RewardsDataService) buildFilteredEvents(ctx context.Context, rng rewards.Range, filter rewards.ProgramFilter, pkhPartials []string) ([]rewards.Event, error) {
	requestId, err := uuid.NewRandom()
	if err != nil {
		rds.logger.Error("Failed to generate a request id", zap.Error(err))
		return nil, err
	}
	l := rds.logger.With(zap.String("requestId", requestId.String()))

	startTime := time.Now()
	events, err := rds.ledger.BuildEvents(ctx, rng, filter)
	if err != nil {
		return nil, err
	}
	_ = rds.metricsSink.Timing(metricsTypes.Metric_Timing_RewardsCalcDuration, time.Since(startTime), []metricsTypes.MetricsLabel{
		{
			Name:  "range",
			Value: rng.String(),
		},
	})
	_ = rds.metricsSink.Gauge(metricsTypes.Metric_Gauge_RewardEventCount, float64(len(events)), nil)

	// The whole-epoch LP total is a known constant, which makes it a
	// cheap cross-check of the per-day calculations. Wallet filtering
	// must not affect it, so it runs on the full event set.
	if rng.IsEpoch() && filter.Includes(types.RewardProgram_LiquidityPool) {
		epoch := rng.Epoch(rds.calendar)
		if epoch <= rds.calendar.EpochOf(distribution.LpProgramLastDay) {
			if err := rds.checkLpEpochTotal(epoch, events); err != nil {
				return nil, err
			}
		}
	}

	selected, err := rds.resolver.Resolve(pkhPartials, rewards.Wallets(events))
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(selected))
	for _, pkh := range selected {
		keep[pkh] = struct{}{}
	}

	filtered := make([]rewards.Event, 0, len(events))
	for _, event := range events {
		if _, ok := keep[event.Pkh]; ok {
			filtered = append(filtered, event)
		}
	}

	l.Sugar().Debugw("Built reward events",
		zap.String("range", rng.String()),
		zap.Int("events", len(events)),
		zap.Int("afterWalletFilter", len(filtered)),
	)
	return filtered, nil
}

func (rds *RewardsDataService) checkLpEpochTotal(epoch int64, events []rewards.Event) error {
	var lovelaces int64
	for _, event := range events {
		if event.Purpose.Program() == types.RewardProgram_LiquidityPool {
			lovelaces += event.Lovelaces()
		}
	}

	total := decimal.New(lovelaces, -6)
	nominal := rds.distConfig.LpEpochIndy(epoch)
	if total.Sub(nominal).Abs().GreaterThan(lpEpochSumTolerance) {
		return fmt.Errorf("the lovelace based LP sum of epoch %d is %s INDY, which differs from the nominal %s", epoch, total, nominal)
	}
	return nil
}

// GetSpAprs returns each stability pool's APR over a range: a single
// day's annualized rate, or the mean of an epoch's daily rates.
func (rds *RewardsDataService) GetSpAprs(ctx context.Context, rng rewards.Range) (map[types.StabilityPool]decimal.Decimal, error) {
	startTime := time.Now()

	prices, err := rds.indyPrices.IndyAdaDailyClosingPrices(ctx)
	if err != nil {
		return nil, err
	}

	perPool := make(map[types.StabilityPool][]apr.DayInput)
	for _, day := range rng.Days(rds.calendar) {
		epochIndy := rds.distConfig.SpEpochIndy(rds.calendar.EpochOf(day))
		inputs, err := rds.engine.SpDayAprInputs(ctx, day, epochIndy, prices)
		if err != nil {
			return nil, err
		}
		for pool, input := range inputs {
			perPool[pool] = append(perPool[pool], input)
		}
	}

	out := make(map[types.StabilityPool]decimal.Decimal, len(perPool))
	for pool, inputs := range perPool {
		venue := fmt.Sprintf("the %s stability pool", pool.IAsset)
		rate, err := rds.aprCalc.EpochApr(venue, inputs)
		if err != nil {
			return nil, err
		}
		out[pool] = rate
	}

	_ = rds.metricsSink.Timing(metricsTypes.Metric_Timing_AprCalcDuration, time.Since(startTime), []metricsTypes.MetricsLabel{
		{
			Name:  "program",
			Value: string(types.RewardProgram_StabilityPool),
		},
	})
	return out, nil
}

// GetLpAprs returns each DEX liquidity pool's APR over a range, counting
// only the staked share of the pool as principal.
func (rds *RewardsDataService) GetLpAprs(ctx context.Context, rng rewards.Range) (map[types.LiquidityPool]decimal.Decimal, error) {
	startTime := time.Now()

	prices, err := rds.indyPrices.IndyAdaDailyClosingPrices(ctx)
	if err != nil {
		return nil, err
	}

	perPool := make(map[types.LiquidityPool][]apr.DayInput)
	for _, day := range rng.Days(rds.calendar) {
		epochIndy := rds.distConfig.LpEpochIndy(rds.calendar.EpochOf(day))
		inputs, err := rds.engine.LpDayAprInputs(ctx, day, epochIndy, prices)
		if err != nil {
			return nil, err
		}
		for pool, input := range inputs {
			perPool[pool] = append(perPool[pool], input)
		}
	}

	out := make(map[types.LiquidityPool]decimal.Decimal, len(perPool))
	for pool, inputs := range perPool {
		venue := fmt.Sprintf("the %s %s liquidity pool", pool.Dex, pool.IAsset)
		rate, err := rds.aprCalc.EpochApr(venue, inputs)
		if err != nil {
			return nil, err
		}
		out[pool] = rate
	}

	_ = rds.metricsSink.Timing(metricsTypes.Metric_Timing_AprCalcDuration, time.Since(startTime), []metricsTypes.MetricsLabel{
		{
			Name:  "program",
			Value: string(types.RewardProgram_LiquidityPool),
		},
	})
	return out, nil
}

// GetLpDayPoolRewards returns one day's LP INDY split per DEX pool,
// before it is divided between the pool's stakers.
func (rds *RewardsDataService) GetLpDayPoolRewards(ctx context.Context, day time.Time) ([]distribution.PoolReward, error) {
	epochIndy := rds.distConfig.LpEpochIndy(rds.calendar.EpochOf(day))
	return rds.engine.LpPoolRewards(ctx, day, epochIndy)
}
