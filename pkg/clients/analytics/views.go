package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MuesliSwap pools were delisted from LP rewards after this day, but
	// the API keeps returning them with no indication of that.
	muesliswapLpV2PolicyId = "af3d70acf4bd5b3abb319a7d75c89fb3e56eafcdd46b2e9b57a2557f"

	// Some WingRiders LP token supplies are missing from the API data.
	// Where absent, the supply is seeded with this fixed amount.
	wingRidersCpPolicyId  = "026a18d04a0c642759bb3d83b12e3344894e5c1c7b2aeb1a2113a570"
	wingRidersSupplyMagic = int64(9223372036854775000)

	// Snapshot endpoints have no upper time bound; entries this much past
	// the snapshot still belong to the requested day.
	dayEntryWindow = 20 * time.Hour
)

var muesliswapLastDay = epochs.Day(2023, 5, 30)

// MarketData is a day-oriented view over the analytics API: every method
// resolves a UTC day to its snapshot time and normalizes the raw rows
// into protocol amounts.
type MarketData struct {
	client   *Client
	calendar *epochs.Calendar
	logger   *zap.Logger
}

func NewMarketData(client *Client, cal *epochs.Calendar, l *zap.Logger) *MarketData {
	return &MarketData{
		client:   client,
		calendar: cal,
		logger:   l,
	}
}

func (m *MarketData) Client() *Client {
	return m.client
}

// IAssetAdaPrices returns each iAsset's oracle price in ADA on a day.
func (m *MarketData) IAssetAdaPrices(ctx context.Context, day time.Time) (map[types.IAsset]decimal.Decimal, error) {
	at := m.calendar.SnapshotUnix(day)
	prices, err := m.client.AssetPrices(ctx, &at)
	if err != nil {
		return nil, err
	}

	out := make(map[types.IAsset]decimal.Decimal, len(prices))
	for _, p := range prices {
		asset, err := types.ParseIAsset(p.Asset)
		if err != nil {
			return nil, err
		}
		out[asset] = decimal.New(p.Price, -6)
	}
	return out, nil
}

// IAssetSupplies returns each iAsset's total minted supply on a day,
// summed over all open CDPs.
func (m *MarketData) IAssetSupplies(ctx context.Context, day time.Time) (map[types.IAsset]decimal.Decimal, error) {
	at := m.calendar.SnapshotUnix(day)
	cdps, err := m.client.Cdps(ctx, &at)
	if err != nil {
		return nil, err
	}

	sums := make(map[types.IAsset]int64)
	for _, cdp := range cdps {
		asset, err := types.ParseIAsset(cdp.Asset)
		if err != nil {
			return nil, err
		}
		sums[asset] += cdp.MintedAmount
	}

	out := make(map[types.IAsset]decimal.Decimal, len(sums))
	for asset, amount := range sums {
		out[asset] = decimal.New(amount, -6)
	}
	return out, nil
}

func (m *MarketData) IAssetAdaMarketCaps(ctx context.Context, day time.Time) (map[types.IAsset]decimal.Decimal, error) {
	supplies, err := m.IAssetSupplies(ctx, day)
	if err != nil {
		return nil, err
	}
	prices, err := m.IAssetAdaPrices(ctx, day)
	if err != nil {
		return nil, err
	}

	if !sameIAssetKeys(supplies, prices) {
		return nil, fmt.Errorf("iAsset supply and price keys don't match")
	}

	out := make(map[types.IAsset]decimal.Decimal, len(supplies))
	for asset, supply := range supplies {
		out[asset] = supply.Mul(prices[asset])
	}
	return out, nil
}

// StabilityPoolSupplies returns each stability pool's total iAsset
// balance on a day.
func (m *MarketData) StabilityPoolSupplies(ctx context.Context, day time.Time) (map[types.IAsset]decimal.Decimal, error) {
	accounts, err := m.client.StabilityPoolAccounts(ctx, m.calendar.SnapshotUnix(day))
	if err != nil {
		return nil, err
	}

	sums := make(map[types.IAsset]int64)
	for _, acc := range accounts {
		asset, err := types.ParseIAsset(acc.Asset)
		if err != nil {
			return nil, err
		}
		sums[asset] += acc.IAssetStaked
	}

	out := make(map[types.IAsset]decimal.Decimal, len(sums))
	for asset, amount := range sums {
		out[asset] = decimal.New(amount, -6)
	}
	return out, nil
}

// StabilityPoolSaturations returns each pool's balance as a share of its
// iAsset's total supply.
func (m *MarketData) StabilityPoolSaturations(ctx context.Context, day time.Time) (map[types.IAsset]decimal.Decimal, error) {
	poolSupplies, err := m.StabilityPoolSupplies(ctx, day)
	if err != nil {
		return nil, err
	}
	totalSupplies, err := m.IAssetSupplies(ctx, day)
	if err != nil {
		return nil, err
	}

	if !sameIAssetKeys(poolSupplies, totalSupplies) {
		return nil, fmt.Errorf("stability pool and total supply keys don't match")
	}

	out := make(map[types.IAsset]decimal.Decimal, len(poolSupplies))
	for asset, poolSupply := range poolSupplies {
		out[asset] = poolSupply.Div(totalSupplies[asset])
	}
	return out, nil
}

// LiquidityPoolStatuses returns every whitelisted pool's balance snapshot
// for a day. With withLpTokenSupplies the LP token circulating and staked
// figures are attached and cross-checked.
func (m *MarketData) LiquidityPoolStatuses(ctx context.Context, day time.Time, withLpTokenSupplies bool) ([]types.LiquidityPoolStatus, error) {
	balances, err := m.poolBalancesForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	pools, err := m.client.LiquidityPools(ctx)
	if err != nil {
		return nil, err
	}

	var circSupplies, stakedSupplies map[string]int64
	if withLpTokenSupplies {
		circSupplies, err = m.LpTokenCirculatingSupplies(ctx, day)
		if err != nil {
			return nil, err
		}
		stakedSupplies, err = m.StakedLpTokenSupplies(ctx, day)
		if err != nil {
			return nil, err
		}
		if err := validateStakedTokenIds(balances, pools, stakedSupplies); err != nil {
			return nil, err
		}
	}

	statuses := make([]types.LiquidityPoolStatus, 0, len(balances))
	for _, balance := range balances {
		pool, ok := poolForToken(pools, balance.LpToken)
		if !ok {
			continue
		}

		if pool.AssetA == "ADA" || pool.AssetB != "ADA" {
			return nil, fmt.Errorf("liquidity pool %s is not an iAsset/ADA pair", pool.Token)
		}

		iasset, err := types.ParseIAsset(pool.AssetA)
		if err != nil {
			return nil, err
		}
		dex, err := types.ParseDex(pool.Exchange)
		if err != nil {
			return nil, err
		}

		status := types.LiquidityPoolStatus{
			Pool: types.LiquidityPool{
				Dex:            dex,
				IAsset:         iasset,
				OtherAssetName: pool.AssetB,
				LpTokenId:      pool.Token,
			},
			IAssetBalance: decimal.New(balance.Amount, -6),
			Timestamp:     time.Unix(balance.Timestamp, 0).UTC(),
		}

		if withLpTokenSupplies {
			circ, ok := circSupplies[pool.Token]
			if !ok {
				return nil, fmt.Errorf("no circulating supply for LP token %s", pool.Token)
			}
			staked, ok := stakedSupplies[pool.Token]
			if !ok {
				return nil, fmt.Errorf("no staked supply for LP token %s", pool.Token)
			}
			if staked > circ {
				return nil, fmt.Errorf("more staked LP tokens (%d) than circulating supply (%d)", staked, circ)
			}
			status.LpTokenCircSupply = &circ
			status.LpTokenStaked = &staked
		}

		statuses = append(statuses, status)
	}

	if day.After(muesliswapLastDay) {
		kept := make([]types.LiquidityPoolStatus, 0, len(statuses))
		for _, s := range statuses {
			if s.Pool.Dex != types.Dex_MuesliSwap {
				kept = append(kept, s)
			}
		}
		statuses = kept
	}

	return statuses, nil
}

// LpTokenCirculatingSupplies returns each LP token's circulating supply
// on a day: total minted supply minus known out-of-circulation balances.
func (m *MarketData) LpTokenCirculatingSupplies(ctx context.Context, day time.Time) (map[string]int64, error) {
	snap := m.calendar.SnapshotUnix(day)

	rawSupplies, err := m.client.LiquidityPoolsCirculatingSupply(ctx, snap)
	if err != nil {
		return nil, err
	}
	rawSupplies, err = filterDayEntries(rawSupplies, func(s LpTokenSupplySnapshot) int64 { return s.Timestamp }, day, snap)
	if err != nil {
		return nil, err
	}

	supplies := make(map[string]int64, len(rawSupplies))
	for _, s := range rawSupplies {
		if _, ok := supplies[s.Asset]; ok {
			return nil, fmt.Errorf("double supply entry for LP token %s on %s", s.Asset, day.Format("2006-01-02"))
		}
		supplies[s.Asset] = s.Amount
	}

	lockedEntries, err := m.lockedAssetEntriesForDay(ctx, day)
	if err != nil {
		return nil, err
	}

	for _, entry := range lockedEntries {
		if !isOutOfCirculationEntry(entry) {
			continue
		}
		if _, ok := supplies[entry.Asset]; !ok {
			if strings.HasPrefix(entry.Asset, wingRidersCpPolicyId+".") {
				supplies[entry.Asset] = wingRidersSupplyMagic
			} else {
				return nil, fmt.Errorf("out-of-circulation balance for unknown LP token %s", entry.Asset)
			}
		}
		supplies[entry.Asset] -= entry.Amount
	}

	return supplies, nil
}

// StakedLpTokenSupplies returns how much of each LP token is staked to
// Indigo on a day, summed over all accounts.
func (m *MarketData) StakedLpTokenSupplies(ctx context.Context, day time.Time) (map[string]int64, error) {
	perAccount, err := m.accountStakedTokens(ctx, day)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64)
	for _, tokens := range perAccount {
		for tokenId, count := range tokens {
			totals[tokenId] += count
		}
	}
	return totals, nil
}

// AccountStakedLpTokens returns each pool's stakers and their staked LP
// token counts on a day.
func (m *MarketData) AccountStakedLpTokens(ctx context.Context, day time.Time) (map[types.LiquidityPool]map[string]int64, error) {
	perAccount, err := m.accountStakedTokens(ctx, day)
	if err != nil {
		return nil, err
	}
	statuses, err := m.LiquidityPoolStatuses(ctx, day, false)
	if err != nil {
		return nil, err
	}

	poolsByToken := make(map[string]types.LiquidityPool, len(statuses))
	for _, s := range statuses {
		poolsByToken[s.Pool.LpTokenId] = s.Pool
	}

	out := make(map[types.LiquidityPool]map[string]int64)
	for staker, tokens := range perAccount {
		for tokenId, count := range tokens {
			// The API keeps reporting MuesliSwap positions after the
			// delist; drop them like the pools themselves.
			if day.After(muesliswapLastDay) && strings.HasPrefix(tokenId, muesliswapLpV2PolicyId+".") {
				continue
			}

			pool, ok := poolsByToken[tokenId]
			if !ok {
				return nil, fmt.Errorf("no liquidity pool found for LP token %s", tokenId)
			}
			if out[pool] == nil {
				out[pool] = make(map[string]int64)
			}
			out[pool][staker] = count
		}
	}
	return out, nil
}

func (m *MarketData) accountStakedTokens(ctx context.Context, day time.Time) (map[string]map[string]int64, error) {
	positions, err := m.client.LiquidityPositions(ctx, m.calendar.SnapshotUnix(day))
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]int64)
	for _, pos := range positions {
		var value map[string]any
		if err := json.Unmarshal([]byte(pos.Value), &value); err != nil {
			return nil, errors.Wrapf(err, "failed to parse the staked value of account %s", pos.Owner)
		}
		for tokenId, raw := range value {
			if tokenId == "lovelace" {
				continue
			}
			count, err := tokenCount(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "bad LP token count for account %s", pos.Owner)
			}
			if out[pos.Owner] == nil {
				out[pos.Owner] = make(map[string]int64)
			}
			out[pos.Owner][tokenId] = count
		}
	}
	return out, nil
}

// poolBalancesForDay returns the day's iAsset balance snapshots of
// whitelisted pools, with the special LP-token tracking entries removed.
func (m *MarketData) poolBalancesForDay(ctx context.Context, day time.Time) ([]LockedAssetSnapshot, error) {
	entries, err := m.lockedAssetEntriesForDay(ctx, day)
	if err != nil {
		return nil, err
	}

	balances := make([]LockedAssetSnapshot, 0, len(entries))
	for _, entry := range entries {
		if !isOutOfCirculationEntry(entry) {
			balances = append(balances, entry)
		}
	}
	return balances, nil
}

func (m *MarketData) lockedAssetEntriesForDay(ctx context.Context, day time.Time) ([]LockedAssetSnapshot, error) {
	snap := m.calendar.SnapshotUnix(day)
	entries, err := m.client.LiquidityPoolsLockedAsset(ctx, snap)
	if err != nil {
		return nil, err
	}
	return filterDayEntries(entries, func(s LockedAssetSnapshot) int64 { return s.Timestamp }, day, snap)
}

// isOutOfCirculationEntry spots the special locked-asset rows that track
// LP token balances of select addresses instead of pool iAsset balances.
func isOutOfCirculationEntry(entry LockedAssetSnapshot) bool {
	return entry.LpToken == "" || strings.HasSuffix(entry.For, " Token Locked")
}

// filterDayEntries keeps entries belonging to the requested day. The
// snapshot endpoints have no upper time bound, so trailing days are cut
// by a fixed window and the remainder is date-checked.
func filterDayEntries[T any](entries []T, unix func(T) int64, day time.Time, snapshotUnix int64) ([]T, error) {
	limit := snapshotUnix + int64(dayEntryWindow/time.Second)

	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		ts := unix(entry)
		if ts >= limit {
			continue
		}
		entryDay := epochs.Midnight(time.Unix(ts, 0).UTC())
		if !entryDay.Equal(epochs.Midnight(day)) {
			return nil, fmt.Errorf("entry timestamp %d doesn't match requested day %s", ts, day.Format("2006-01-02"))
		}
		out = append(out, entry)
	}
	return out, nil
}

func poolForToken(pools []WhitelistedPool, token string) (WhitelistedPool, bool) {
	for _, pool := range pools {
		if pool.Token == token {
			return pool, true
		}
	}
	return WhitelistedPool{}, false
}

func validateStakedTokenIds(balances []LockedAssetSnapshot, pools []WhitelistedPool, staked map[string]int64) error {
	known := make(map[string]struct{})
	for _, balance := range balances {
		if _, ok := poolForToken(pools, balance.LpToken); ok {
			known[balance.LpToken] = struct{}{}
		}
	}

	if len(known) != len(staked) {
		return fmt.Errorf("known LP token set doesn't match staked LP token set")
	}
	for tokenId := range staked {
		if _, ok := known[tokenId]; !ok {
			return fmt.Errorf("staked LP token %s is not a known pool token", tokenId)
		}
	}
	return nil
}

func sameIAssetKeys(a map[types.IAsset]decimal.Decimal, b map[types.IAsset]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func tokenCount(raw any) (int64, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseInt(v, 10, 64)
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unsupported token count type %T", raw)
	}
}
