package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseIAsset(t *testing.T) {
	t.Run("Test that parsing ignores case", func(t *testing.T) {
		a, err := ParseIAsset("iusd")
		assert.Nil(t, err)
		assert.Equal(t, IAsset_iUSD, a)

		a, err = ParseIAsset("IUsD")
		assert.Nil(t, err)
		assert.Equal(t, IAsset_iUSD, a)

		a, err = ParseIAsset("iBTC")
		assert.Nil(t, err)
		assert.Equal(t, IAsset_iBTC, a)
	})
	t.Run("Test that unknown names are rejected", func(t *testing.T) {
		_, err := ParseIAsset("isol")
		assert.Error(t, err)

		_, err = ParseIAsset("")
		assert.Error(t, err)
	})
}

func Test_ParseDex(t *testing.T) {
	t.Run("Test that parsing ignores case", func(t *testing.T) {
		d, err := ParseDex("muesliswap")
		assert.Nil(t, err)
		assert.Equal(t, Dex_MuesliSwap, d)

		d, err = ParseDex("WingRiders")
		assert.Nil(t, err)
		assert.Equal(t, Dex_WingRiders, d)
	})
	t.Run("Test that unknown names are rejected", func(t *testing.T) {
		_, err := ParseDex("SundaeSwap")
		assert.Error(t, err)
	})
}

func Test_PurposeLabels(t *testing.T) {
	t.Run("Test governance staking labels", func(t *testing.T) {
		p := GovernanceStaking{}
		assert.Equal(t, "INDY staking reward", p.Label())
		assert.Equal(t, "Total INDY staking reward", p.CategoryTotalLabel())
		assert.Equal(t, RewardProgram_Governance, p.Program())
	})
	t.Run("Test single staking labels carry the iAsset", func(t *testing.T) {
		p := SingleStaking{IAsset: IAsset_iETH}
		assert.Equal(t, "SP reward for iETH", p.Label())
		assert.Equal(t, "Total SP reward", p.CategoryTotalLabel())
		assert.Equal(t, RewardProgram_StabilityPool, p.Program())
	})
	t.Run("Test liquidity provision labels carry the iAsset and DEX", func(t *testing.T) {
		p := LiquidityProvision{IAsset: IAsset_iUSD, Dex: Dex_Minswap}
		assert.Equal(t, "Reward for providing iUSD liquidity on Minswap", p.Label())
		assert.Equal(t, "Total LP reward", p.CategoryTotalLabel())
		assert.Equal(t, RewardProgram_LiquidityPool, p.Program())
	})
	t.Run("Test that purposes are comparable map keys", func(t *testing.T) {
		sums := map[Purpose]int{}
		sums[SingleStaking{IAsset: IAsset_iUSD}] += 1
		sums[SingleStaking{IAsset: IAsset_iUSD}] += 2
		sums[LiquidityProvision{IAsset: IAsset_iUSD, Dex: Dex_Minswap}] += 4

		assert.Equal(t, 3, sums[SingleStaking{IAsset: IAsset_iUSD}])
		assert.Equal(t, 4, sums[LiquidityProvision{IAsset: IAsset_iUSD, Dex: Dex_Minswap}])
		assert.Len(t, sums, 2)
	})
}
