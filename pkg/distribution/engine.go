package distribution

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/clients/analytics"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// SigmaSource supplies each iAsset's iAsset/ADA daily price volatility
// for a snapshot day.
type SigmaSource interface {
	Sigmas(ctx context.Context, iassets []types.IAsset, day time.Time) (map[types.IAsset]float64, error)
}

// IAssetReward is one iAsset bucket's INDY for one day, before it is
// split between individual accounts.
type IAssetReward struct {
	IAsset types.IAsset
	Day    time.Time
	Indy   decimal.Decimal
}

// PoolReward is one DEX liquidity pool's INDY for one day.
type PoolReward struct {
	Pool types.LiquidityPool
	Day  time.Time
	Indy decimal.Decimal
}

// Engine computes who earned how much INDY on a snapshot day. It is the
// reward event source behind the ledger.
type Engine struct {
	market   *analytics.MarketData
	sigmas   SigmaSource
	calendar *epochs.Calendar
	config   Config
	logger   *zap.Logger
}

func NewEngine(market *analytics.MarketData, sigmas SigmaSource, cal *epochs.Calendar, cfg Config, l *zap.Logger) *Engine {
	return &Engine{
		market:   market,
		sigmas:   sigmas,
		calendar: cal,
		config:   cfg,
		logger:   l,
	}
}

// FetchRewardEvents returns one day's rewards across the programs the
// filter admits. Governance pays out only on an epoch's closing day, and
// the LP program ended with epoch 421.
func (e *Engine) FetchRewardEvents(ctx context.Context, day time.Time, filter rewards.ProgramFilter) ([]rewards.RawEvent, error) {
	day = epochs.Midnight(day)
	epoch := e.calendar.EpochOf(day)

	events := make([]rewards.RawEvent, 0)

	if filter.Includes(types.RewardProgram_Governance) && day.Equal(e.calendar.EpochEndDate(epoch)) {
		govEvents, err := e.GovEpochRewards(ctx, epoch, e.config.GovEpochIndy(epoch))
		if err != nil {
			return nil, err
		}
		events = append(events, govEvents...)
	}

	if filter.Includes(types.RewardProgram_StabilityPool) {
		spEvents, err := e.SpDayRewards(ctx, day, e.config.SpEpochIndy(epoch))
		if err != nil {
			return nil, err
		}
		events = append(events, spEvents...)
	}

	if filter.Includes(types.RewardProgram_LiquidityPool) && !day.After(LpProgramLastDay) {
		lpEvents, err := e.LpDayRewards(ctx, day, e.config.LpEpochIndy(epoch))
		if err != nil {
			return nil, err
		}
		events = append(events, lpEvents...)
	}

	return events, nil
}

func (e *Engine) dailyIndy(epochIndy decimal.Decimal) decimal.Decimal {
	return epochIndy.Div(decimal.NewFromInt(int64(e.calendar.DaysPerEpoch())))
}

// proRataDistribute splits an INDY amount between accounts proportional
// to their weights. Weights can be in any one unit: staked INDY, staked
// iAsset or staked LP tokens.
func proRataDistribute(indy decimal.Decimal, accounts *orderedmap.OrderedMap[string, decimal.Decimal], day time.Time, purpose types.Purpose) ([]rewards.RawEvent, error) {
	if accounts.Len() == 0 {
		return []rewards.RawEvent{}, nil
	}

	total := decimal.Zero
	for pair := accounts.Oldest(); pair != nil; pair = pair.Next() {
		total = total.Add(pair.Value)
	}
	if total.IsZero() {
		return nil, fmt.Errorf("can't distribute %s INDY, the total weight is zero", indy)
	}

	events := make([]rewards.RawEvent, 0, accounts.Len())
	for pair := accounts.Oldest(); pair != nil; pair = pair.Next() {
		events = append(events, rewards.RawEvent{
			Pkh:     pair.Key,
			Purpose: purpose,
			Day:     day,
			Amount:  pair.Value.Mul(indy).Div(total),
		})
	}
	return events, nil
}

// sortedIAssetKeys returns a map's iAsset keys in canonical order.
func sortedIAssetKeys[V any](m map[types.IAsset]V) []types.IAsset {
	out := make([]types.IAsset, 0, len(m))
	for _, iasset := range types.AllIAssets() {
		if _, ok := m[iasset]; ok {
			out = append(out, iasset)
		}
	}
	return out
}

func sortedStringKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sameKeys(maps ...map[types.IAsset]decimal.Decimal) bool {
	for _, m := range maps[1:] {
		if len(m) != len(maps[0]) {
			return false
		}
		for iasset := range maps[0] {
			if _, ok := m[iasset]; !ok {
				return false
			}
		}
	}
	return true
}
