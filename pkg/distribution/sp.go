package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/clients/analytics"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// spAccountMinAge is the minimum age of an SP account at snapshot time
// for it to earn that day's reward.
const spAccountMinAge = 24 * time.Hour

type spAccount struct {
	owner  string
	iasset types.IAsset
	staked decimal.Decimal
}

// SpDayRewards returns each stability pool staker's INDY for one day.
// Accounts younger than a day are skipped, and an owner's positions in
// the same pool count as one.
func (e *Engine) SpDayRewards(ctx context.Context, day time.Time, epochIndy decimal.Decimal) ([]rewards.RawEvent, error) {
	day = epochs.Midnight(day)
	snapshotTime := e.calendar.SnapshotTime(day)

	allAccounts, err := e.market.Client().StabilityPoolAccounts(ctx, snapshotTime.Unix())
	if err != nil {
		return nil, err
	}

	eligible := make([]analytics.StabilityPoolAccount, 0, len(allAccounts))
	for _, account := range allAccounts {
		if isAtLeastMinAge(account, snapshotTime) {
			eligible = append(eligible, account)
		}
	}

	merged, err := mergeDuplicateAccounts(eligible)
	if err != nil {
		return nil, err
	}

	hasStakers := make(map[types.IAsset]bool)
	for _, account := range merged {
		hasStakers[account.iasset] = true
	}

	poolRewards, err := e.SpPoolRewards(ctx, day, epochIndy, hasStakers)
	if err != nil {
		return nil, err
	}

	if err := checkPoolsHaveStakers(poolRewards, allAccounts); err != nil {
		return nil, err
	}
	if err := checkStakedAssetsRewarded(poolRewards, allAccounts); err != nil {
		return nil, err
	}

	events := make([]rewards.RawEvent, 0, len(merged))
	for _, poolReward := range poolRewards {
		accounts := orderedmap.New[string, decimal.Decimal]()
		for _, account := range merged {
			if account.iasset == poolReward.IAsset {
				accounts.Set(account.owner, account.staked)
			}
		}
		poolEvents, err := proRataDistribute(poolReward.Indy, accounts, day, types.SingleStaking{IAsset: poolReward.IAsset})
		if err != nil {
			return nil, err
		}
		events = append(events, poolEvents...)
	}

	if len(events) != len(merged) {
		return nil, fmt.Errorf("%d eligible SP accounts, but %d reward items", len(merged), len(events))
	}

	e.logger.Sugar().Debugw("Calculated stability pool rewards",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("stakers", len(events)),
	)
	return events, nil
}

// SpPoolRewards splits a day's SP INDY between the stability pools.
// hasStakers marks pools holding at least one reward-eligible account;
// the rest weigh zero.
func (e *Engine) SpPoolRewards(ctx context.Context, day time.Time, epochIndy decimal.Decimal, hasStakers map[types.IAsset]bool) ([]IAssetReward, error) {
	day = epochs.Midnight(day)

	saturations, err := e.market.StabilityPoolSaturations(ctx, day)
	if err != nil {
		return nil, err
	}
	marketCaps, err := e.market.IAssetAdaMarketCaps(ctx, day)
	if err != nil {
		return nil, err
	}

	weights, err := e.poolWeights(ctx, day, saturations, marketCaps, hasStakers)
	if err != nil {
		return nil, err
	}

	dailyIndy := e.dailyIndy(epochIndy)
	out := make([]IAssetReward, 0, len(weights))
	for _, iasset := range sortedIAssetKeys(weights) {
		out = append(out, IAssetReward{
			IAsset: iasset,
			Day:    day,
			Indy:   weights[iasset].Mul(dailyIndy),
		})
	}
	return out, nil
}

func isAtLeastMinAge(account analytics.StabilityPoolAccount, snapshotTime time.Time) bool {
	openedAt := time.Unix(account.OpenedAt, 0).UTC()
	return !openedAt.Add(spAccountMinAge).After(snapshotTime)
}

// mergeDuplicateAccounts folds rows sharing an owner and asset into one
// stake. An owner can hold several positions in the same pool.
func mergeDuplicateAccounts(accounts []analytics.StabilityPoolAccount) ([]spAccount, error) {
	type accountKey struct {
		owner  string
		iasset types.IAsset
	}

	merged := orderedmap.New[accountKey, decimal.Decimal]()
	for _, account := range accounts {
		iasset, err := types.ParseIAsset(account.Asset)
		if err != nil {
			return nil, err
		}
		key := accountKey{owner: account.Owner, iasset: iasset}
		staked := decimal.New(account.IAssetStaked, -6)
		if prev, ok := merged.Get(key); ok {
			merged.Set(key, prev.Add(staked))
		} else {
			merged.Set(key, staked)
		}
	}

	out := make([]spAccount, 0, merged.Len())
	for pair := merged.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, spAccount{
			owner:  pair.Key.owner,
			iasset: pair.Key.iasset,
			staked: pair.Value,
		})
	}
	return out, nil
}

// checkPoolsHaveStakers rejects a day where a pool earns INDY without a
// single account staked in it, eligible or not.
func checkPoolsHaveStakers(poolRewards []IAssetReward, allAccounts []analytics.StabilityPoolAccount) error {
	for _, poolReward := range poolRewards {
		if poolReward.Indy.IsZero() {
			continue
		}
		hasStaker := false
		for _, account := range allAccounts {
			if account.Asset == poolReward.IAsset.String() {
				hasStaker = true
				break
			}
		}
		if !hasStaker {
			return fmt.Errorf("%s SP has %s INDY rewards, but doesn't have stakers", poolReward.IAsset, poolReward.Indy)
		}
	}
	return nil
}

// checkStakedAssetsRewarded rejects a day where an asset is SP staked
// but its pool got no reward entry at all.
func checkStakedAssetsRewarded(poolRewards []IAssetReward, allAccounts []analytics.StabilityPoolAccount) error {
	rewarded := make(map[types.IAsset]bool, len(poolRewards))
	for _, poolReward := range poolRewards {
		rewarded[poolReward.IAsset] = true
	}
	for _, account := range allAccounts {
		iasset, err := types.ParseIAsset(account.Asset)
		if err != nil {
			return err
		}
		if !rewarded[iasset] {
			return fmt.Errorf("%s is SP staked, but can't get rewards", iasset)
		}
	}
	return nil
}
