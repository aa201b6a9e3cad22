package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
)

// firstNoVolatilityDay is when governance vote #19 retired the
// volatility factor from the SP weight formula. It still applies as a
// fallback when an iAsset is new or the other factors degenerate.
var firstNoVolatilityDay = epochs.Day(2023, 5, 26)

var weightSumTolerance = decimal.New(1, -8)

var one = decimal.NewFromInt(1)

type weightEra struct {
	from    time.Time
	weights map[types.IAsset]decimal.Decimal
}

// fixedWeightEras are the per-pool INDY splits voted by governance,
// newest first. They replace the computed formula from 2023-11-06 on.
var fixedWeightEras = []weightEra{
	{
		from: epochs.Day(2024, 7, 14),
		weights: map[types.IAsset]decimal.Decimal{
			types.IAsset_iBTC: decimal.RequireFromString("2469.29").Div(spIndyFromEpoch497),
			types.IAsset_iETH: decimal.RequireFromString("1504.89").Div(spIndyFromEpoch497),
			types.IAsset_iUSD: decimal.RequireFromString("14690.17").Div(spIndyFromEpoch497),
		},
	},
	{
		from: epochs.Day(2023, 11, 6),
		weights: map[types.IAsset]decimal.Decimal{
			types.IAsset_iBTC: decimal.NewFromInt(3668).Div(spIndyFromEpoch447),
			types.IAsset_iETH: decimal.NewFromInt(3188).Div(spIndyFromEpoch447),
			types.IAsset_iUSD: decimal.NewFromInt(15574).Div(spIndyFromEpoch447),
		},
	},
}

// MayNeedVolatility reports whether computing a day's stability pool
// weights can require volatility data. Fixed weight eras never touch it.
func (c Config) MayNeedVolatility(cal *epochs.Calendar, day time.Time) bool {
	day = epochs.Midnight(day)
	for _, era := range fixedWeightEras {
		if !day.Before(era.from) {
			return false
		}
	}
	return day.Before(firstNoVolatilityDay) || len(c.NewIAssets(cal, day)) > 0
}

// poolWeights returns each stability pool's share of a day's SP INDY.
func (e *Engine) poolWeights(ctx context.Context, day time.Time, saturations map[types.IAsset]decimal.Decimal, marketCaps map[types.IAsset]decimal.Decimal, hasStakers map[types.IAsset]bool) (map[types.IAsset]decimal.Decimal, error) {
	for _, era := range fixedWeightEras {
		if !day.Before(era.from) {
			return era.weights, nil
		}
	}
	return e.computedPoolWeights(ctx, day, saturations, marketCaps, hasStakers)
}

// computedPoolWeights implements the original weight formula: the mean
// of each pool's normalized inverse saturation and normalized market
// cap, with a normalized inverse volatility term mixed in while the
// volatility factor was still in force. iAssets too new for the other
// factors ride on volatility alone.
func (e *Engine) computedPoolWeights(ctx context.Context, day time.Time, saturations map[types.IAsset]decimal.Decimal, marketCaps map[types.IAsset]decimal.Decimal, hasStakers map[types.IAsset]bool) (map[types.IAsset]decimal.Decimal, error) {
	newIAssets := e.config.NewIAssets(e.calendar, day)

	satInverseSum, err := saturationInverseSum(saturations, hasStakers, newIAssets)
	if err != nil {
		return nil, err
	}
	mcapSum, err := marketCapSum(marketCaps, newIAssets)
	if err != nil {
		return nil, err
	}

	useVolatility := day.Before(firstNoVolatilityDay) ||
		len(newIAssets) > 0 ||
		!satInverseSum.IsPositive() ||
		!mcapSum.IsPositive()

	var sigmas map[types.IAsset]decimal.Decimal
	volInverseSum := decimal.Zero
	if useVolatility {
		raw, err := e.sigmas.Sigmas(ctx, e.config.ActiveIAssets(day), day)
		if err != nil {
			return nil, err
		}
		sigmas = make(map[types.IAsset]decimal.Decimal, len(raw))
		for iasset, sigma := range raw {
			sigmas[iasset] = decimal.NewFromFloat(sigma)
		}
		volInverseSum, err = volatilityInverseSum(sigmas, hasStakers)
		if err != nil {
			return nil, err
		}
		if !sameKeys(saturations, marketCaps, sigmas) {
			return nil, fmt.Errorf("saturation, market cap and volatility keys don't match")
		}
	} else if !sameKeys(saturations, marketCaps) {
		return nil, fmt.Errorf("saturation and market cap keys don't match")
	}

	weights := make(map[types.IAsset]decimal.Decimal, len(saturations))
	for iasset := range saturations {
		if !hasStakers[iasset] {
			weights[iasset] = decimal.Zero
			continue
		}

		weight, err := poolWeight(iasset, weightInputs{
			saturations:   saturations,
			marketCaps:    marketCaps,
			sigmas:        sigmas,
			newIAssets:    newIAssets,
			hasStakers:    hasStakers,
			satInverseSum: satInverseSum,
			mcapSum:       mcapSum,
			volInverseSum: volInverseSum,
			useVolatility: useVolatility,
		})
		if err != nil {
			return nil, err
		}
		if weight.IsZero() {
			return nil, fmt.Errorf("zero stability pool weight for %s", iasset)
		}
		weights[iasset] = weight
	}

	total := decimal.Zero
	for _, weight := range weights {
		total = total.Add(weight)
	}
	if total.Sub(one).Abs().GreaterThan(weightSumTolerance) {
		return nil, fmt.Errorf("stability pool weights sum to %s, not 1", total)
	}

	return weights, nil
}

type weightInputs struct {
	saturations   map[types.IAsset]decimal.Decimal
	marketCaps    map[types.IAsset]decimal.Decimal
	sigmas        map[types.IAsset]decimal.Decimal
	newIAssets    map[types.IAsset]bool
	hasStakers    map[types.IAsset]bool
	satInverseSum decimal.Decimal
	mcapSum       decimal.Decimal
	volInverseSum decimal.Decimal
	useVolatility bool
}

func poolWeight(iasset types.IAsset, in weightInputs) (decimal.Decimal, error) {
	saturationTerm := decimal.Zero
	marketCapTerm := decimal.Zero
	if !in.newIAssets[iasset] && in.hasStakers[iasset] {
		saturationTerm = one.Div(in.saturations[iasset]).Div(in.satInverseSum)
		marketCapTerm = in.marketCaps[iasset].Div(in.mcapSum)
	}

	volatilityTerm := decimal.Zero
	if in.useVolatility && in.volInverseSum.IsPositive() && in.hasStakers[iasset] {
		volatilityTerm = one.Div(in.sigmas[iasset]).Div(in.volInverseSum)
	}

	if in.satInverseSum.IsPositive() && in.mcapSum.IsPositive() {
		if in.useVolatility {
			if !volatilityTerm.IsPositive() {
				return decimal.Zero, fmt.Errorf("volatility term for %s is not positive: %s", iasset, volatilityTerm)
			}
			return mean(volatilityTerm, saturationTerm, marketCapTerm), nil
		}
		return mean(saturationTerm, marketCapTerm), nil
	}

	if in.newIAssets[iasset] {
		if volatilityTerm.IsPositive() {
			return volatilityTerm, nil
		}
		return decimal.Zero, fmt.Errorf("%s would rely on volatility alone, but its term is not positive", iasset)
	}

	return decimal.Zero, fmt.Errorf("can't determine the stability pool weight for %s", iasset)
}

func mean(values ...decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, value := range values {
		sum = sum.Add(value)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

// saturationInverseSum sums 1/saturation over the established pools
// that have stakers. Every saturation must be a valid [0, 1] share.
func saturationInverseSum(saturations map[types.IAsset]decimal.Decimal, hasStakers map[types.IAsset]bool, newIAssets map[types.IAsset]bool) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, iasset := range sortedIAssetKeys(saturations) {
		saturation := saturations[iasset]
		if saturation.IsNegative() || saturation.GreaterThan(one) {
			return decimal.Zero, fmt.Errorf("invalid saturation for %s: %s", iasset, saturation)
		}
		if newIAssets[iasset] || !hasStakers[iasset] {
			continue
		}
		if saturation.IsZero() {
			return decimal.Zero, fmt.Errorf("zero saturation for %s", iasset)
		}
		sum = sum.Add(one.Div(saturation))
	}
	return sum, nil
}

func marketCapSum(marketCaps map[types.IAsset]decimal.Decimal, newIAssets map[types.IAsset]bool) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, iasset := range sortedIAssetKeys(marketCaps) {
		marketCap := marketCaps[iasset]
		if !marketCap.IsPositive() {
			return decimal.Zero, fmt.Errorf("market cap for %s is zero or less: %s", iasset, marketCap)
		}
		if !newIAssets[iasset] {
			sum = sum.Add(marketCap)
		}
	}
	return sum, nil
}

func volatilityInverseSum(sigmas map[types.IAsset]decimal.Decimal, hasStakers map[types.IAsset]bool) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, iasset := range sortedIAssetKeys(sigmas) {
		sigma := sigmas[iasset]
		if sigma.IsNegative() {
			return decimal.Zero, fmt.Errorf("negative volatility for %s: %s", iasset, sigma)
		}
		if sigma.IsZero() {
			return decimal.Zero, fmt.Errorf("zero volatility for %s", iasset)
		}
		if hasStakers[iasset] {
			sum = sum.Add(one.Div(sigma))
		}
	}
	return sum, nil
}
