package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

var two = decimal.NewFromInt(2)

// LpDayRewards returns each LP token staker's INDY for one day. A day's
// LP INDY is split between iAsset groups by the k formula, between a
// group's pools by iAsset balance, and between a pool's stakers by
// staked LP tokens.
func (e *Engine) LpDayRewards(ctx context.Context, day time.Time, epochIndy decimal.Decimal) ([]rewards.RawEvent, error) {
	day = epochs.Midnight(day)

	poolRewards, err := e.LpPoolRewards(ctx, day, epochIndy)
	if err != nil {
		return nil, err
	}

	stakerInfo, err := e.market.AccountStakedLpTokens(ctx, day)
	if err != nil {
		return nil, err
	}

	events := make([]rewards.RawEvent, 0)
	for _, poolReward := range poolRewards {
		stakers, ok := stakerInfo[poolReward.Pool]
		if !ok || len(stakers) == 0 {
			return nil, fmt.Errorf("no LP token stakers for the %s %s pool on %s",
				poolReward.Pool.Dex, poolReward.Pool.IAsset, day.Format("2006-01-02"))
		}

		accounts := orderedmap.New[string, decimal.Decimal]()
		for _, staker := range sortedStringKeys(stakers) {
			accounts.Set(staker, decimal.NewFromInt(stakers[staker]))
		}

		purpose := types.LiquidityProvision{IAsset: poolReward.Pool.IAsset, Dex: poolReward.Pool.Dex}
		poolEvents, err := proRataDistribute(poolReward.Indy, accounts, day, purpose)
		if err != nil {
			return nil, err
		}
		events = append(events, poolEvents...)
	}

	e.logger.Sugar().Debugw("Calculated liquidity pool rewards",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("stakers", len(events)),
	)
	return events, nil
}

// LpPoolRewards returns each DEX pool's share of a day's LP INDY.
func (e *Engine) LpPoolRewards(ctx context.Context, day time.Time, epochIndy decimal.Decimal) ([]PoolReward, error) {
	day = epochs.Midnight(day)

	statuses, err := e.market.LiquidityPoolStatuses(ctx, day, false)
	if err != nil {
		return nil, err
	}

	groupRewards, err := e.lpGroupRewards(ctx, day, epochIndy, statuses)
	if err != nil {
		return nil, err
	}

	return distributeToPools(groupRewards, statuses, day)
}

// lpGroupRewards runs the k formula over a day's market state, yielding
// each iAsset group's share of the day's LP INDY.
func (e *Engine) lpGroupRewards(ctx context.Context, day time.Time, epochIndy decimal.Decimal, statuses []types.LiquidityPoolStatus) ([]IAssetReward, error) {
	prices, err := e.market.IAssetAdaPrices(ctx, day)
	if err != nil {
		return nil, err
	}
	supplies, err := e.market.IAssetSupplies(ctx, day)
	if err != nil {
		return nil, err
	}

	saturations, err := dexSaturations(statuses, supplies)
	if err != nil {
		return nil, err
	}

	groupIndy, err := lpGroupIndy(e.dailyIndy(epochIndy), saturations, prices, supplies)
	if err != nil {
		return nil, err
	}

	out := make([]IAssetReward, 0, len(groupIndy))
	for _, iasset := range sortedIAssetKeys(groupIndy) {
		out = append(out, IAssetReward{IAsset: iasset, Day: day, Indy: groupIndy[iasset]})
	}
	return out, nil
}

// dexSaturations returns each iAsset's DEX-locked share of its total
// supply.
func dexSaturations(statuses []types.LiquidityPoolStatus, totalSupplies map[types.IAsset]decimal.Decimal) (map[types.IAsset]decimal.Decimal, error) {
	balances := make(map[types.IAsset]decimal.Decimal)
	for _, status := range statuses {
		if status.Pool.OtherAssetName != "ADA" {
			return nil, fmt.Errorf("the %s %s pool pairs against %s, not ADA",
				status.Pool.Dex, status.Pool.IAsset, status.Pool.OtherAssetName)
		}
		balances[status.Pool.IAsset] = balances[status.Pool.IAsset].Add(status.IAssetBalance)
	}

	if !sameKeys(balances, totalSupplies) {
		return nil, fmt.Errorf("DEX balance and total supply keys don't match")
	}

	out := make(map[types.IAsset]decimal.Decimal, len(balances))
	for iasset, balance := range balances {
		if totalSupplies[iasset].IsZero() {
			return nil, fmt.Errorf("total supply of %s is zero", iasset)
		}
		out[iasset] = balance.Div(totalSupplies[iasset])
	}
	return out, nil
}

// lpGroupIndy implements the published LP reward formula: each iAsset
// group gets the daily INDY weighted by the mean of its normalized
// inverse DEX saturation and its normalized market value.
func lpGroupIndy(dailyIndy decimal.Decimal, saturations map[types.IAsset]decimal.Decimal, prices map[types.IAsset]decimal.Decimal, supplies map[types.IAsset]decimal.Decimal) (map[types.IAsset]decimal.Decimal, error) {
	if !sameKeys(saturations, prices, supplies) {
		return nil, fmt.Errorf("k formula input keys don't match")
	}

	assets := sortedIAssetKeys(saturations)

	inverses := make(map[types.IAsset]decimal.Decimal, len(assets))
	inverseSum := decimal.Zero
	for _, iasset := range assets {
		if saturations[iasset].IsZero() {
			return nil, fmt.Errorf("zero DEX saturation for %s", iasset)
		}
		inverse := one.Div(saturations[iasset])
		inverses[iasset] = inverse
		inverseSum = inverseSum.Add(inverse)
	}

	marketValues := make(map[types.IAsset]decimal.Decimal, len(assets))
	marketValueSum := decimal.Zero
	for _, iasset := range assets {
		marketValue := prices[iasset].Mul(supplies[iasset])
		marketValues[iasset] = marketValue
		marketValueSum = marketValueSum.Add(marketValue)
	}

	out := make(map[types.IAsset]decimal.Decimal, len(assets))
	for _, iasset := range assets {
		if !marketValueSum.IsPositive() {
			return nil, fmt.Errorf("the iAsset market values sum to %s", marketValueSum)
		}
		normalizedInverse := inverses[iasset].Div(inverseSum)
		normalizedMarketValue := marketValues[iasset].Div(marketValueSum)
		out[iasset] = dailyIndy.Mul(normalizedInverse.Add(normalizedMarketValue)).Div(two)
	}
	return out, nil
}

// distributeToPools splits each iAsset group's INDY between the group's
// DEX pools, pro rata by pooled iAsset balance.
func distributeToPools(groupRewards []IAssetReward, statuses []types.LiquidityPoolStatus, day time.Time) ([]PoolReward, error) {
	out := make([]PoolReward, 0, len(statuses))
	for _, groupReward := range groupRewards {
		total := decimal.Zero
		for _, status := range statuses {
			if status.Pool.IAsset == groupReward.IAsset {
				total = total.Add(status.IAssetBalance)
			}
		}

		for _, status := range statuses {
			if status.Pool.IAsset != groupReward.IAsset {
				continue
			}
			if total.IsZero() {
				return nil, fmt.Errorf("no %s balance across its liquidity pools", groupReward.IAsset)
			}
			out = append(out, PoolReward{
				Pool: status.Pool,
				Day:  day,
				Indy: groupReward.Indy.Mul(status.IAssetBalance).Div(total),
			})
		}
	}
	return out, nil
}
