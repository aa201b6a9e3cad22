package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/apr"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
)

// SpDayAprInputs assembles each stability pool's daily reward and
// backing principal, both in ADA. Every active iAsset is assumed to
// have at least one staker, except on its launch day when no account is
// old enough to earn anything.
func (e *Engine) SpDayAprInputs(ctx context.Context, day time.Time, epochIndy decimal.Decimal, indyAdaPrices map[time.Time]decimal.Decimal) (map[types.StabilityPool]apr.DayInput, error) {
	day = epochs.Midnight(day)

	iassetPrices, err := e.market.IAssetAdaPrices(ctx, day)
	if err != nil {
		return nil, err
	}
	spSupplies, err := e.market.StabilityPoolSupplies(ctx, day)
	if err != nil {
		return nil, err
	}

	eligible := make(map[types.IAsset]bool)
	for _, iasset := range e.config.ActiveIAssets(day) {
		if !e.config.IsLaunchDay(iasset, day) {
			eligible[iasset] = true
		}
	}

	poolRewards, err := e.SpPoolRewards(ctx, day, epochIndy, eligible)
	if err != nil {
		return nil, err
	}

	indyPrice, err := indyAdaPrice(indyAdaPrices, day)
	if err != nil {
		return nil, err
	}

	out := make(map[types.StabilityPool]apr.DayInput, len(eligible))
	for iasset := range eligible {
		reward, err := singleGroupReward(poolRewards, iasset)
		if err != nil {
			return nil, err
		}
		staked, ok := spSupplies[iasset]
		if !ok {
			return nil, fmt.Errorf("no %s stability pool supply on %s", iasset, day.Format("2006-01-02"))
		}
		price, ok := iassetPrices[iasset]
		if !ok {
			return nil, fmt.Errorf("no %s/ADA price on %s", iasset, day.Format("2006-01-02"))
		}

		out[types.StabilityPool{IAsset: iasset}] = apr.DayInput{
			Reward:    reward.Mul(indyPrice),
			Principal: staked.Mul(price),
		}
	}
	return out, nil
}

// LpDayAprInputs assembles each liquidity pool's daily reward and
// backing principal, both in ADA. The principal counts both pool sides
// of the staked share, so the iAsset value doubles.
func (e *Engine) LpDayAprInputs(ctx context.Context, day time.Time, epochIndy decimal.Decimal, indyAdaPrices map[time.Time]decimal.Decimal) (map[types.LiquidityPool]apr.DayInput, error) {
	day = epochs.Midnight(day)

	iassetPrices, err := e.market.IAssetAdaPrices(ctx, day)
	if err != nil {
		return nil, err
	}
	statuses, err := e.market.LiquidityPoolStatuses(ctx, day, true)
	if err != nil {
		return nil, err
	}

	groupRewards, err := e.lpGroupRewards(ctx, day, epochIndy, statuses)
	if err != nil {
		return nil, err
	}
	poolRewards, err := distributeToPools(groupRewards, statuses, day)
	if err != nil {
		return nil, err
	}

	indyPrice, err := indyAdaPrice(indyAdaPrices, day)
	if err != nil {
		return nil, err
	}

	out := make(map[types.LiquidityPool]apr.DayInput, len(statuses))
	for _, status := range statuses {
		reward, err := singlePoolReward(poolRewards, status.Pool, day)
		if err != nil {
			return nil, err
		}

		if status.LpTokenStaked == nil || status.LpTokenCircSupply == nil {
			return nil, fmt.Errorf("LP token supply information not set for the %s %s pool",
				status.Pool.Dex, status.Pool.IAsset)
		}
		if *status.LpTokenCircSupply == 0 {
			return nil, fmt.Errorf("zero circulating LP token supply for the %s %s pool",
				status.Pool.Dex, status.Pool.IAsset)
		}
		stakedShare := decimal.NewFromInt(*status.LpTokenStaked).Div(decimal.NewFromInt(*status.LpTokenCircSupply))
		stakedBalance := status.IAssetBalance.Mul(stakedShare)

		price, ok := iassetPrices[status.Pool.IAsset]
		if !ok {
			return nil, fmt.Errorf("no %s/ADA price on %s", status.Pool.IAsset, day.Format("2006-01-02"))
		}

		out[status.Pool] = apr.DayInput{
			Reward:    reward.Mul(indyPrice),
			Principal: two.Mul(stakedBalance).Mul(price),
		}
	}
	return out, nil
}

func indyAdaPrice(prices map[time.Time]decimal.Decimal, day time.Time) (decimal.Decimal, error) {
	price, ok := prices[day]
	if !ok {
		return decimal.Zero, fmt.Errorf("no INDY/ADA closing price for %s", day.Format("2006-01-02"))
	}
	return price, nil
}

func singleGroupReward(poolRewards []IAssetReward, iasset types.IAsset) (decimal.Decimal, error) {
	var matches []IAssetReward
	for _, reward := range poolRewards {
		if reward.IAsset == iasset {
			matches = append(matches, reward)
		}
	}
	if len(matches) != 1 {
		return decimal.Zero, fmt.Errorf("expected exactly one reward entry for %s, got %d", iasset, len(matches))
	}
	return matches[0].Indy, nil
}

func singlePoolReward(poolRewards []PoolReward, pool types.LiquidityPool, day time.Time) (decimal.Decimal, error) {
	var matches []PoolReward
	for _, reward := range poolRewards {
		if reward.Pool == pool {
			matches = append(matches, reward)
		}
	}
	if len(matches) != 1 {
		return decimal.Zero, fmt.Errorf("expected exactly one LP reward entry for %s + %s + %s, got %d",
			day.Format("2006-01-02"), pool.Dex, pool.IAsset, len(matches))
	}
	return matches[0].Indy, nil
}
