package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/clients/analytics"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_SpDayRewards(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	engine := setupEngine(t, DefaultConfig(), &stubSigmas{})
	day := epochs.Day(2023, 6, 10)

	registerMarketFixtures := func() {
		httpmock.RegisterResponder("POST", testBaseUrl+"/cdps",
			httpmock.NewStringResponder(200, `[
				{"owner": "xxxx", "asset": "iUSD", "mintedAmount": 320000000},
				{"owner": "yyyy", "asset": "iBTC", "mintedAmount": 4000000}
			]`),
		)
		httpmock.RegisterResponder("POST", testBaseUrl+"/asset-prices",
			httpmock.NewStringResponder(200, `[
				{"asset": "iUSD", "price": 2500000},
				{"asset": "iBTC", "price": 50000000000}
			]`),
		)
	}

	t.Run("Test that a day's INDY reaches stakers pro rata within weighted pools", func(t *testing.T) {
		httpmock.Reset()
		registerMarketFixtures()
		httpmock.RegisterResponder("GET", testBaseUrl+"/rewards/stability-pool?timestamp=1686433500",
			httpmock.NewStringResponder(200, `[
				{"asset": "iUSD", "iasset_staked": 30000000, "opened_at": 1670000000, "owner": "aaaa"},
				{"asset": "iUSD", "iasset_staked": 10000000, "opened_at": 1670001000, "owner": "aaaa"},
				{"asset": "iUSD", "iasset_staked": 60000000, "opened_at": 1686432500, "owner": "bbbb"},
				{"asset": "iUSD", "iasset_staked": 60000000, "opened_at": 1670002000, "owner": "cccc"},
				{"asset": "iBTC", "iasset_staked": 1000000, "opened_at": 1670003000, "owner": "dddd"}
			]`),
		)

		events, err := engine.SpDayRewards(context.Background(), day, decimal.NewFromInt(500))
		assert.Nil(t, err)
		assert.Len(t, events, 3)

		// Saturations are iUSD 160/320 and iBTC 1/4; market caps are 800
		// and 200000 ADA. Young bbbb still counts into the saturation but
		// earns nothing.
		assert.Equal(t, "dddd", events[0].Pkh)
		assert.Equal(t, types.SingleStaking{IAsset: types.IAsset_iBTC}, events[0].Purpose)
		assert.InDelta(t, 83.1341301, events[0].Amount.InexactFloat64(), 1e-6)

		assert.Equal(t, "aaaa", events[1].Pkh)
		assert.Equal(t, types.SingleStaking{IAsset: types.IAsset_iUSD}, events[1].Purpose)
		assert.InDelta(t, 6.7463479, events[1].Amount.InexactFloat64(), 1e-6)

		assert.Equal(t, "cccc", events[2].Pkh)
		assert.InDelta(t, 10.1195219, events[2].Amount.InexactFloat64(), 1e-6)

		assert.True(t, events[0].Day.Equal(day))
	})

	t.Run("Test that a pool staked only by young accounts fails the day", func(t *testing.T) {
		httpmock.Reset()
		registerMarketFixtures()
		httpmock.RegisterResponder("GET", testBaseUrl+"/rewards/stability-pool?timestamp=1686433500",
			httpmock.NewStringResponder(200, `[
				{"asset": "iUSD", "iasset_staked": 160000000, "opened_at": 1670000000, "owner": "aaaa"},
				{"asset": "iBTC", "iasset_staked": 1000000, "opened_at": 1686432500, "owner": "dddd"}
			]`),
		)

		_, err := engine.SpDayRewards(context.Background(), day, decimal.NewFromInt(500))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not 1")
	})
}

func Test_IsAtLeastMinAge(t *testing.T) {
	snapshot := time.Date(2023, 6, 10, 21, 45, 0, 0, time.UTC)

	t.Run("Test that exactly 24 hours is old enough", func(t *testing.T) {
		account := analytics.StabilityPoolAccount{OpenedAt: snapshot.Add(-24 * time.Hour).Unix()}
		assert.True(t, isAtLeastMinAge(account, snapshot))
	})

	t.Run("Test that a minute short of 24 hours is too young", func(t *testing.T) {
		account := analytics.StabilityPoolAccount{OpenedAt: snapshot.Add(-24*time.Hour + time.Minute).Unix()}
		assert.False(t, isAtLeastMinAge(account, snapshot))
	})
}

func Test_MergeDuplicateAccounts(t *testing.T) {
	t.Run("Test that same owner and asset rows fold into one stake", func(t *testing.T) {
		merged, err := mergeDuplicateAccounts([]analytics.StabilityPoolAccount{
			{Owner: "aaaa", Asset: "iUSD", IAssetStaked: 30000000},
			{Owner: "bbbb", Asset: "iUSD", IAssetStaked: 5000000},
			{Owner: "aaaa", Asset: "iUSD", IAssetStaked: 10000000},
			{Owner: "aaaa", Asset: "iBTC", IAssetStaked: 1000000},
		})
		assert.Nil(t, err)
		assert.Len(t, merged, 3)

		assert.Equal(t, "aaaa", merged[0].owner)
		assert.Equal(t, types.IAsset_iUSD, merged[0].iasset)
		assert.True(t, merged[0].staked.Equal(decimal.NewFromInt(40)))

		assert.Equal(t, "bbbb", merged[1].owner)
		assert.True(t, merged[1].staked.Equal(decimal.NewFromInt(5)))

		assert.Equal(t, types.IAsset_iBTC, merged[2].iasset)
		assert.True(t, merged[2].staked.Equal(decimal.NewFromInt(1)))
	})

	t.Run("Test that an unknown asset name fails", func(t *testing.T) {
		_, err := mergeDuplicateAccounts([]analytics.StabilityPoolAccount{
			{Owner: "aaaa", Asset: "iSOL", IAssetStaked: 1},
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown iAsset")
	})
}

func Test_SpRewardChecks(t *testing.T) {
	day := epochs.Day(2023, 6, 10)

	t.Run("Test that a rewarded pool without any stakers fails", func(t *testing.T) {
		err := checkPoolsHaveStakers(
			[]IAssetReward{{IAsset: types.IAsset_iBTC, Day: day, Indy: decimal.NewFromInt(5)}},
			[]analytics.StabilityPoolAccount{{Owner: "aaaa", Asset: "iUSD"}},
		)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "doesn't have stakers")
	})

	t.Run("Test that a zero reward pool may sit empty", func(t *testing.T) {
		err := checkPoolsHaveStakers(
			[]IAssetReward{
				{IAsset: types.IAsset_iBTC, Day: day, Indy: decimal.Zero},
				{IAsset: types.IAsset_iUSD, Day: day, Indy: decimal.NewFromInt(5)},
			},
			[]analytics.StabilityPoolAccount{{Owner: "aaaa", Asset: "iUSD"}},
		)
		assert.Nil(t, err)
	})

	t.Run("Test that a staked asset missing its reward entry fails", func(t *testing.T) {
		err := checkStakedAssetsRewarded(
			[]IAssetReward{{IAsset: types.IAsset_iUSD, Day: day, Indy: decimal.NewFromInt(5)}},
			[]analytics.StabilityPoolAccount{
				{Owner: "aaaa", Asset: "iUSD"},
				{Owner: "bbbb", Asset: "iETH"},
			},
		)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "can't get rewards")
	})
}
